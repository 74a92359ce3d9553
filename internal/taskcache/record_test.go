package taskcache

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/HendryAvila/clickup-mcp/internal/clickup"
)

func TestNormalizeRaw(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want TaskRecord
		ok   bool
	}{
		{
			name: "numeric id is stringified",
			raw:  map[string]any{"id": float64(123456), "name": "Ship it"},
			want: TaskRecord{ID: "123456", Name: "Ship it"},
			ok:   true,
		},
		{
			name: "task_id fallback and status object",
			raw: map[string]any{
				"task_id": "abc",
				"name":    "Fix login",
				"status":  map[string]any{"status": "in progress"},
				"list":    map[string]any{"id": "L1", "name": "Sprint", "url": "https://x/l/L1"},
			},
			want: TaskRecord{ID: "abc", Name: "Fix login", Status: "in progress", ListID: "L1", ListName: "Sprint", ListURL: "https://x/l/L1"},
			ok:   true,
		},
		{
			name: "camelCase fields",
			raw:  map[string]any{"taskId": "t9", "title": "Docs", "listId": "L2", "parentId": "t1"},
			want: TaskRecord{ID: "t9", Name: "Docs", ListID: "L2", ParentID: "t1"},
			ok:   true,
		},
		{
			name: "no id",
			raw:  map[string]any{"name": "orphan"},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeRaw(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("record mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeRawAll_DropsRecordsWithoutID(t *testing.T) {
	got := NormalizeRawAll([]map[string]any{{"id": "1"}, {"name": "x"}, {"custom_id": "DEV-2"}})
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "DEV-2" {
		t.Errorf("NormalizeRawAll = %+v", got)
	}
}

func TestRecordFromTask(t *testing.T) {
	task := clickup.Task{
		ID:          "t1",
		Name:        "Write notes",
		TextContent: "plain text",
		Description: "<p>html</p>",
		Status:      clickup.Status{Status: "open"},
		DateUpdated: "1700000000000",
		Parent:      "t0",
		URL:         "https://app.clickup.com/t/t1",
		List:        clickup.Ref{ID: "L1", Name: "Backlog"},
	}
	want := TaskRecord{
		ID:          "t1",
		Name:        "Write notes",
		Description: "plain text",
		Status:      "open",
		UpdatedAt:   "1700000000000",
		ParentID:    "t0",
		ListID:      "L1",
		ListName:    "Backlog",
		URL:         "https://app.clickup.com/t/t1",
	}
	if diff := cmp.Diff(want, RecordFromTask(task)); diff != "" {
		t.Errorf("RecordFromTask (-want +got):\n%s", diff)
	}
}
