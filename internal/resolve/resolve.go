// Package resolve turns a task id or an approximate task name into one
// canonical task id.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/clickup-mcp/internal/fuzzy"
	"github.com/HendryAvila/clickup-mcp/internal/taskcache"
)

// ErrUnresolved matches every resolution failure with errors.Is.
var ErrUnresolved = errors.New("unresolved task reference")

// UnresolvedError carries the caller-facing reason a reference failed.
type UnresolvedError struct {
	Message string
}

func (e *UnresolvedError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrUnresolved) hold.
func (e *UnresolvedError) Is(target error) bool { return target == ErrUnresolved }

func unresolved(format string, args ...any) error {
	return &UnresolvedError{Message: fmt.Sprintf(format, args...)}
}

// Method says how a reference was resolved.
type Method string

const (
	MethodDirect Method = "direct"
	MethodFuzzy  Method = "fuzzy"
)

// Input is a task reference as given by a caller. Context holds task
// summaries the caller has already seen; it is required to resolve by name.
type Input struct {
	TaskID   string
	TaskName string
	Context  []map[string]any
}

// Result is a resolved reference. Score and Record are set when known.
type Result struct {
	TaskID      string                `json:"taskId"`
	Method      Method                `json:"method"`
	MatchedName string                `json:"matchedName,omitempty"`
	Score       *float64              `json:"score,omitempty"`
	Record      *taskcache.TaskRecord `json:"record,omitempty"`
}

// Catalogue is the part of the task catalogue resolution uses.
type Catalogue interface {
	LookupTask(id string) (taskcache.TaskRecord, bool)
	ContextIndex(records []taskcache.TaskRecord) *taskcache.SearchIndex
}

// Resolve applies, in order: a given id is trusted as-is; a purely
// numeric name is treated as an id; otherwise the name is matched against
// the caller's context, exactly first and then fuzzily.
func Resolve(in Input, cat Catalogue) (Result, error) {
	if id := strings.TrimSpace(in.TaskID); id != "" {
		return direct(id, cat), nil
	}

	name := strings.TrimSpace(in.TaskName)
	if name == "" {
		return Result{}, unresolved("taskId or taskName is required")
	}
	if isNumeric(name) {
		return direct(name, cat), nil
	}

	records := taskcache.NormalizeRawAll(in.Context)
	if len(records) == 0 {
		return Result{}, unresolved("context is required to resolve task %q by name", name)
	}

	want := fuzzy.Normalize(name)
	for i := range records {
		r := records[i]
		if r.ID == name || fuzzy.Normalize(r.Name) == want {
			return matched(r, 0), nil
		}
	}

	var ix *taskcache.SearchIndex
	if cat != nil {
		ix = cat.ContextIndex(records)
	} else {
		ix = taskcache.NewSearchIndex(nil)
		ix.Index(records)
	}
	hits := ix.Search(name, 1)
	if len(hits) == 0 {
		return Result{}, unresolved("Unable to resolve task %q from provided context", name)
	}
	return matched(hits[0].Record, hits[0].Score), nil
}

func direct(id string, cat Catalogue) Result {
	res := Result{TaskID: id, Method: MethodDirect}
	if cat == nil {
		return res
	}
	if rec, ok := cat.LookupTask(id); ok {
		res.Record = &rec
		res.MatchedName = rec.Name
	}
	return res
}

func matched(r taskcache.TaskRecord, score float64) Result {
	return Result{
		TaskID:      r.ID,
		Method:      MethodFuzzy,
		MatchedName: r.Name,
		Score:       &score,
		Record:      &r,
	}
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
