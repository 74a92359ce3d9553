package clickup

import (
	"encoding/json"
	"strconv"
)

// Workspace is a ClickUp team. The v2 API calls workspaces "teams".
type Workspace struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Space is the first level below a workspace.
type Space struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Private  bool   `json:"private,omitempty"`
	Archived bool   `json:"archived,omitempty"`
}

// Ref is the {id, name} stub the API embeds for parent containers.
// Folderless lists point at a hidden folder.
type Ref struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

// Folder groups lists inside a space.
type Folder struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Hidden    bool       `json:"hidden,omitempty"`
	TaskCount FlexString `json:"task_count,omitempty"`
	Space     Ref        `json:"space"`
	Lists     []List     `json:"lists,omitempty"`
}

// List holds tasks. Folderless lists carry a hidden folder stub.
type List struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	TaskCount FlexString `json:"task_count,omitempty"`
	Archived  bool       `json:"archived,omitempty"`
	Folder    *Ref       `json:"folder,omitempty"`
	Space     *Ref       `json:"space,omitempty"`
}

// Status is a task's workflow state.
type Status struct {
	Status string `json:"status"`
	Color  string `json:"color,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Tag is a space-level label attached to tasks.
type Tag struct {
	Name string `json:"name"`
}

// User is the compact user object embedded in tasks and time entries.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Priority is the task priority stub; Priority holds "urgent", "high", ...
type Priority struct {
	ID       string `json:"id,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// Task is the subset of the task payload the server reads.
type Task struct {
	ID          string    `json:"id"`
	CustomID    string    `json:"custom_id,omitempty"`
	Name        string    `json:"name"`
	TextContent string    `json:"text_content,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	DateCreated string    `json:"date_created,omitempty"`
	DateUpdated string    `json:"date_updated,omitempty"`
	DueDate     string    `json:"due_date,omitempty"`
	Parent      string    `json:"parent,omitempty"`
	URL         string    `json:"url,omitempty"`
	List        Ref       `json:"list"`
	Folder      Ref       `json:"folder"`
	Space       Ref       `json:"space"`
	Tags        []Tag     `json:"tags,omitempty"`
	Assignees   []User    `json:"assignees,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
}

// TaskQuery holds the filters of a list task page.
type TaskQuery struct {
	Page                        int
	IncludeClosed               bool
	IncludeSubtasks             bool
	IncludeTasksInMultipleLists bool
}

// TaskInput is the body of task create and update calls. Nil pointers are omitted.
type TaskInput struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Priority    *int     `json:"priority,omitempty"`
	DueDate     *int64   `json:"due_date,omitempty"`
	Parent      *string  `json:"parent,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Assignees   []int64  `json:"assignees,omitempty"`
}

// AssigneeChange is the update-task form of assignee edits.
type AssigneeChange struct {
	Add    []int64 `json:"add,omitempty"`
	Remove []int64 `json:"rem,omitempty"`
}

// Doc is a ClickUp doc as returned by the v3 search endpoint.
type Doc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DateCreated int64  `json:"date_created,omitempty"`
	Parent      struct {
		ID   string `json:"id"`
		Type int    `json:"type"`
	} `json:"parent"`
	Creator int64 `json:"creator,omitempty"`
	Deleted bool  `json:"deleted,omitempty"`
}

// TimeEntry is one tracked interval.
type TimeEntry struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end,omitempty"`
	Duration    string `json:"duration"`
	Billable    bool   `json:"billable,omitempty"`
	User        User   `json:"user"`
	Task        *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"task,omitempty"`
}

// TimeEntryQuery filters the time entry listing. Times are Unix milliseconds.
type TimeEntryQuery struct {
	StartDate int64
	EndDate   int64
	Assignee  string
	TaskID    string
}

// TimeEntryInput is the body of a time entry create call.
type TimeEntryInput struct {
	Description string `json:"description,omitempty"`
	Start       int64  `json:"start"`
	Duration    int64  `json:"duration"`
	Billable    bool   `json:"billable,omitempty"`
	TaskID      string `json:"tid,omitempty"`
	Assignee    int64  `json:"assignee,omitempty"`
}

// FlexString decodes a JSON string or number into its string form.
// The API is inconsistent about numeric vs string ids and counts.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// FormatUserID renders a numeric user id the way the API expects in query strings.
func FormatUserID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// TaskUpdate is the body of a task update call. Assignees are edited as
// a diff, unlike on create.
type TaskUpdate struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Status      *string         `json:"status,omitempty"`
	Priority    *int            `json:"priority,omitempty"`
	DueDate     *int64          `json:"due_date,omitempty"`
	Parent      *string         `json:"parent,omitempty"`
	Assignees   *AssigneeChange `json:"assignees,omitempty"`
}

// Empty reports whether the update would change nothing.
func (u TaskUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Status == nil &&
		u.Priority == nil && u.DueDate == nil && u.Parent == nil && u.Assignees == nil
}

// TaskSearch filters the workspace-wide task listing.
type TaskSearch struct {
	Page          int
	Statuses      []string
	ListIDs       []string
	SpaceIDs      []string
	Assignees     []string
	Tags          []string
	IncludeClosed bool
}

// Params is the search as a plain map, suitable for building cache keys.
func (s TaskSearch) Params() map[string]any {
	p := map[string]any{
		"page":          s.Page,
		"includeClosed": s.IncludeClosed,
	}
	add := func(name string, vals []string) {
		if len(vals) > 0 {
			p[name] = vals
		}
	}
	add("statuses", s.Statuses)
	add("listIds", s.ListIDs)
	add("spaceIds", s.SpaceIDs)
	add("assignees", s.Assignees)
	add("tags", s.Tags)
	return p
}

// ListInput creates a list in a folder, or directly in a space when
// FolderID is empty.
type ListInput struct {
	FolderID string `json:"-"`
	SpaceID  string `json:"-"`
	Name     string `json:"name"`
	Content  string `json:"content,omitempty"`
}
