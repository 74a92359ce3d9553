// Package taskcache holds the task side of a session's cache: normalized
// task records, the weighted task search index and the catalogue of list
// pages, search results and reusable context indexes.
package taskcache

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/HendryAvila/clickup-mcp/internal/clickup"
)

// TaskRecord is the normalized task shape shared by the catalogue, the
// search index and task resolution. ID is never empty.
type TaskRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
	ParentID    string `json:"parentId,omitempty"`
	ListID      string `json:"listId,omitempty"`
	ListName    string `json:"listName,omitempty"`
	ListURL     string `json:"listUrl,omitempty"`
	URL         string `json:"url,omitempty"`
}

// RecordFromTask normalizes a decoded API task.
func RecordFromTask(t clickup.Task) TaskRecord {
	desc := t.TextContent
	if desc == "" {
		desc = t.Description
	}
	return TaskRecord{
		ID:          t.ID,
		Name:        t.Name,
		Description: desc,
		Status:      t.Status.Status,
		UpdatedAt:   t.DateUpdated,
		ParentID:    t.Parent,
		ListID:      t.List.ID,
		ListName:    t.List.Name,
		URL:         t.URL,
	}
}

// RecordsFromTasks normalizes tasks, dropping any without an id.
func RecordsFromTasks(tasks []clickup.Task) []TaskRecord {
	out := make([]TaskRecord, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			continue
		}
		out = append(out, RecordFromTask(t))
	}
	return out
}

var idFields = []string{"id", "task_id", "taskId", "custom_id"}

// NormalizeRaw builds a record from a loosely shaped task object, such as
// the context a caller passes to task resolution. Numeric ids are
// stringified. It reports false when no id-like field is present.
func NormalizeRaw(raw map[string]any) (TaskRecord, bool) {
	var rec TaskRecord
	for _, f := range idFields {
		if id := stringify(raw[f]); id != "" {
			rec.ID = id
			break
		}
	}
	if rec.ID == "" {
		return TaskRecord{}, false
	}

	rec.Name = firstString(raw, "name", "task_name", "title")
	rec.Description = firstString(raw, "text_content", "description")
	rec.UpdatedAt = firstString(raw, "date_updated", "updatedAt")
	rec.ParentID = firstString(raw, "parent", "parentId")
	rec.URL = firstString(raw, "url")

	switch s := raw["status"].(type) {
	case string:
		rec.Status = s
	case map[string]any:
		rec.Status = stringify(s["status"])
	}

	if list, ok := raw["list"].(map[string]any); ok {
		rec.ListID = stringify(list["id"])
		rec.ListName = stringify(list["name"])
		rec.ListURL = stringify(list["url"])
	}
	if rec.ListID == "" {
		rec.ListID = firstString(raw, "listId", "list_id")
	}
	if rec.ListName == "" {
		rec.ListName = firstString(raw, "listName")
	}
	return rec, true
}

// NormalizeRawAll normalizes every usable object of raws, in order.
func NormalizeRawAll(raws []map[string]any) []TaskRecord {
	out := make([]TaskRecord, 0, len(raws))
	for _, r := range raws {
		if rec, ok := NormalizeRaw(r); ok {
			out = append(out, rec)
		}
	}
	return out
}

func firstString(raw map[string]any, fields ...string) string {
	for _, f := range fields {
		if s := stringify(raw[f]); s != "" {
			return s
		}
	}
	return ""
}

// stringify renders ids and scalars the way the API would send them as strings.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}
