package resolve

import (
	"errors"
	"testing"
	"time"

	"github.com/HendryAvila/clickup-mcp/internal/clickup"
	"github.com/HendryAvila/clickup-mcp/internal/taskcache"
)

func newCatalogue(builds *int) *taskcache.Catalogue {
	return taskcache.New(taskcache.Config{
		TTL:          time.Hour,
		OnIndexBuild: func(int) { *builds++ },
	})
}

var sprint = []map[string]any{
	{"id": "t1", "name": "Fix login bug", "status": "open"},
	{"id": "t2", "name": "Write release notes", "status": "review"},
	{"id": float64(303), "name": "Update onboarding docs"},
}

func TestResolve_DirectIDIsTrusted(t *testing.T) {
	builds := 0
	cat := newCatalogue(&builds)

	res, err := Resolve(Input{TaskID: "abc"}, cat)
	if err != nil {
		t.Fatal(err)
	}
	if res.TaskID != "abc" || res.Method != MethodDirect || res.Record != nil {
		t.Errorf("res = %+v", res)
	}
}

func TestResolve_DirectIDEnrichedFromCatalogue(t *testing.T) {
	builds := 0
	cat := newCatalogue(&builds)
	cat.StoreListPage("L1", taskcache.ListFilters{}, 0, []clickup.Task{{ID: "abc", Name: "Known"}}, true)

	res, err := Resolve(Input{TaskID: "abc", TaskName: "ignored"}, cat)
	if err != nil {
		t.Fatal(err)
	}
	if res.Record == nil || res.MatchedName != "Known" {
		t.Errorf("res = %+v", res)
	}
}

func TestResolve_NumericNameIsAnID(t *testing.T) {
	res, err := Resolve(Input{TaskName: "8675309"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.TaskID != "8675309" || res.Method != MethodDirect {
		t.Errorf("res = %+v", res)
	}
}

func TestResolve_ExactNameShortCircuits(t *testing.T) {
	builds := 0
	cat := newCatalogue(&builds)

	res, err := Resolve(Input{TaskName: "write RELEASE notes", Context: sprint}, cat)
	if err != nil {
		t.Fatal(err)
	}
	if res.TaskID != "t2" || res.Method != MethodFuzzy || res.Score == nil || *res.Score != 0 {
		t.Errorf("res = %+v", res)
	}
	if builds != 0 {
		t.Errorf("exact match built %d indexes, want 0", builds)
	}
}

func TestResolve_FuzzyNameReusesContextIndex(t *testing.T) {
	builds := 0
	cat := newCatalogue(&builds)

	for i := 0; i < 2; i++ {
		res, err := Resolve(Input{TaskName: "onboardng docs", Context: sprint}, cat)
		if err != nil {
			t.Fatal(err)
		}
		if res.TaskID != "303" || res.MatchedName != "Update onboarding docs" {
			t.Errorf("res = %+v", res)
		}
		if res.Score == nil || *res.Score <= 0 {
			t.Errorf("score = %v, want positive", res.Score)
		}
	}
	if builds != 1 {
		t.Errorf("index builds = %d, want 1", builds)
	}
}

func TestResolve_Errors(t *testing.T) {
	builds := 0
	cat := newCatalogue(&builds)

	tests := []struct {
		name string
		in   Input
		msg  string
	}{
		{"nothing given", Input{}, "taskId or taskName is required"},
		{"name without context", Input{TaskName: "login"}, `context is required to resolve task "login" by name`},
		{"no match", Input{TaskName: "quarterly budget", Context: sprint}, `Unable to resolve task "quarterly budget" from provided context`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.in, cat)
			if !errors.Is(err, ErrUnresolved) {
				t.Fatalf("err = %v, want ErrUnresolved", err)
			}
			if err.Error() != tt.msg {
				t.Errorf("message = %q, want %q", err.Error(), tt.msg)
			}
		})
	}
}
