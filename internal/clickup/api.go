package clickup

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// ─── Hierarchy ───────────────────────────────────────────────────────────────

// GetWorkspaces returns the workspaces the token can see.
func (c *Client) GetWorkspaces(ctx context.Context) ([]Workspace, error) {
	var out struct {
		Teams []Workspace `json:"teams"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/team", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Teams, nil
}

// GetSpaces returns the spaces of a workspace.
func (c *Client) GetSpaces(ctx context.Context, workspaceID string) ([]Space, error) {
	var out struct {
		Spaces []Space `json:"spaces"`
	}
	path := "/v2/team/" + url.PathEscape(workspaceID) + "/space"
	if err := c.do(ctx, http.MethodGet, path, archivedFalse(), nil, &out); err != nil {
		return nil, err
	}
	return out.Spaces, nil
}

// GetFolders returns the folders of a space, each with its lists.
func (c *Client) GetFolders(ctx context.Context, spaceID string) ([]Folder, error) {
	var out struct {
		Folders []Folder `json:"folders"`
	}
	path := "/v2/space/" + url.PathEscape(spaceID) + "/folder"
	if err := c.do(ctx, http.MethodGet, path, archivedFalse(), nil, &out); err != nil {
		return nil, err
	}
	return out.Folders, nil
}

// GetFolderLists returns the lists of a folder.
func (c *Client) GetFolderLists(ctx context.Context, folderID string) ([]List, error) {
	return c.getLists(ctx, "/v2/folder/"+url.PathEscape(folderID)+"/list")
}

// GetFolderlessLists returns the lists that sit directly in a space.
func (c *Client) GetFolderlessLists(ctx context.Context, spaceID string) ([]List, error) {
	return c.getLists(ctx, "/v2/space/"+url.PathEscape(spaceID)+"/list")
}

func (c *Client) getLists(ctx context.Context, path string) ([]List, error) {
	var out struct {
		Lists []List `json:"lists"`
	}
	if err := c.do(ctx, http.MethodGet, path, archivedFalse(), nil, &out); err != nil {
		return nil, err
	}
	return out.Lists, nil
}

// CreateFolder creates a folder in a space.
func (c *Client) CreateFolder(ctx context.Context, spaceID, name string) (*Folder, error) {
	if name == "" {
		return nil, errors.New("clickup: folder name is required")
	}
	var out Folder
	path := "/v2/space/" + url.PathEscape(spaceID) + "/folder"
	if err := c.do(ctx, http.MethodPost, path, nil, map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteFolder deletes a folder and everything in it.
func (c *Client) DeleteFolder(ctx context.Context, folderID string) error {
	return c.do(ctx, http.MethodDelete, "/v2/folder/"+url.PathEscape(folderID), nil, nil, nil)
}

// CreateList creates a list in in.FolderID, or folderless in in.SpaceID.
func (c *Client) CreateList(ctx context.Context, in ListInput) (*List, error) {
	if in.Name == "" {
		return nil, errors.New("clickup: list name is required")
	}
	var path string
	switch {
	case in.FolderID != "":
		path = "/v2/folder/" + url.PathEscape(in.FolderID) + "/list"
	case in.SpaceID != "":
		path = "/v2/space/" + url.PathEscape(in.SpaceID) + "/list"
	default:
		return nil, errors.New("clickup: a folder or space id is required to create a list")
	}
	var out List
	if err := c.do(ctx, http.MethodPost, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteList deletes a list.
func (c *Client) DeleteList(ctx context.Context, listID string) error {
	return c.do(ctx, http.MethodDelete, "/v2/list/"+url.PathEscape(listID), nil, nil, nil)
}

// GetList returns one list, used to find the folder and space of a list
// before it is deleted.
func (c *Client) GetList(ctx context.Context, listID string) (*List, error) {
	var out List
	if err := c.do(ctx, http.MethodGet, "/v2/list/"+url.PathEscape(listID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func archivedFalse() url.Values {
	return url.Values{"archived": {"false"}}
}

// ─── Tasks ───────────────────────────────────────────────────────────────────

type taskPage struct {
	Tasks    []Task `json:"tasks"`
	LastPage *bool  `json:"last_page"`
}

// GetTasks returns one page of a list's tasks and whether it is the last.
// Responses without last_page are treated as the last page when they
// hold fewer than a full page of tasks.
func (c *Client) GetTasks(ctx context.Context, listID string, q TaskQuery) ([]Task, bool, error) {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("include_closed", strconv.FormatBool(q.IncludeClosed))
	v.Set("subtasks", strconv.FormatBool(q.IncludeSubtasks))
	v.Set("include_timl", strconv.FormatBool(q.IncludeTasksInMultipleLists))

	var out taskPage
	path := "/v2/list/" + url.PathEscape(listID) + "/task"
	if err := c.do(ctx, http.MethodGet, path, v, nil, &out); err != nil {
		return nil, false, err
	}
	return out.Tasks, out.last(), nil
}

const pageSize = 100

func (p taskPage) last() bool {
	if p.LastPage != nil {
		return *p.LastPage
	}
	return len(p.Tasks) < pageSize
}

// SearchTasks runs the workspace-wide filtered task listing.
func (c *Client) SearchTasks(ctx context.Context, teamID string, s TaskSearch) ([]Task, bool, error) {
	v := url.Values{}
	v.Set("page", strconv.Itoa(s.Page))
	v.Set("include_closed", strconv.FormatBool(s.IncludeClosed))
	for _, st := range s.Statuses {
		v.Add("statuses[]", st)
	}
	for _, id := range s.ListIDs {
		v.Add("list_ids[]", id)
	}
	for _, id := range s.SpaceIDs {
		v.Add("space_ids[]", id)
	}
	for _, id := range s.Assignees {
		v.Add("assignees[]", id)
	}
	for _, t := range s.Tags {
		v.Add("tags[]", t)
	}

	var out taskPage
	path := "/v2/team/" + url.PathEscape(teamID) + "/task"
	if err := c.do(ctx, http.MethodGet, path, v, nil, &out); err != nil {
		return nil, false, err
	}
	return out.Tasks, out.last(), nil
}

// GetTask returns one task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodGet, "/v2/task/"+url.PathEscape(taskID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTask creates a task in a list.
func (c *Client) CreateTask(ctx context.Context, listID string, in TaskInput) (*Task, error) {
	if in.Name == nil || *in.Name == "" {
		return nil, errors.New("clickup: task name is required")
	}
	var out Task
	path := "/v2/list/" + url.PathEscape(listID) + "/task"
	if err := c.do(ctx, http.MethodPost, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, taskID string, in TaskUpdate) (*Task, error) {
	if in.Empty() {
		return nil, errors.New("clickup: update has no fields to change")
	}
	var out Task
	if err := c.do(ctx, http.MethodPut, "/v2/task/"+url.PathEscape(taskID), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/v2/task/"+url.PathEscape(taskID), nil, nil, nil)
}

// AddTag attaches an existing space tag to a task.
func (c *Client) AddTag(ctx context.Context, taskID, tag string) error {
	path := "/v2/task/" + url.PathEscape(taskID) + "/tag/" + url.PathEscape(tag)
	return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}

// RemoveTag detaches a tag from a task.
func (c *Client) RemoveTag(ctx context.Context, taskID, tag string) error {
	path := "/v2/task/" + url.PathEscape(taskID) + "/tag/" + url.PathEscape(tag)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// SetCustomField sets a custom field value on a task.
func (c *Client) SetCustomField(ctx context.Context, taskID, fieldID string, value any) error {
	path := "/v2/task/" + url.PathEscape(taskID) + "/field/" + url.PathEscape(fieldID)
	return c.do(ctx, http.MethodPost, path, nil, map[string]any{"value": value}, nil)
}

// ─── Members ─────────────────────────────────────────────────────────────────

// GetMembers returns the raw member objects of a workspace. The payload
// shape varies between endpoints, so callers normalise it themselves.
func (c *Client) GetMembers(ctx context.Context, teamID string) ([]map[string]any, error) {
	var out struct {
		Teams []struct {
			ID      FlexString       `json:"id"`
			Members []map[string]any `json:"members"`
		} `json:"teams"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/team", nil, nil, &out); err != nil {
		return nil, err
	}
	for _, t := range out.Teams {
		if t.ID.String() == teamID {
			return t.Members, nil
		}
	}
	return nil, &APIError{Status: http.StatusNotFound, Message: "workspace " + teamID + " not found"}
}

// ─── Docs ────────────────────────────────────────────────────────────────────

// GetDocs returns the docs of a workspace from the v3 API.
func (c *Client) GetDocs(ctx context.Context, workspaceID string) ([]Doc, error) {
	var out struct {
		Docs []Doc `json:"docs"`
	}
	v := url.Values{"deleted": {"false"}}
	path := "/v3/workspaces/" + url.PathEscape(workspaceID) + "/docs"
	if err := c.do(ctx, http.MethodGet, path, v, nil, &out); err != nil {
		return nil, err
	}
	return out.Docs, nil
}

// ─── Time tracking ───────────────────────────────────────────────────────────

// GetTimeEntries lists time entries in a workspace.
func (c *Client) GetTimeEntries(ctx context.Context, teamID string, q TimeEntryQuery) ([]TimeEntry, error) {
	v := url.Values{}
	if q.StartDate > 0 {
		v.Set("start_date", strconv.FormatInt(q.StartDate, 10))
	}
	if q.EndDate > 0 {
		v.Set("end_date", strconv.FormatInt(q.EndDate, 10))
	}
	if q.Assignee != "" {
		v.Set("assignee", q.Assignee)
	}
	if q.TaskID != "" {
		v.Set("task_id", q.TaskID)
	}

	var out struct {
		Data []TimeEntry `json:"data"`
	}
	path := "/v2/team/" + url.PathEscape(teamID) + "/time_entries"
	if err := c.do(ctx, http.MethodGet, path, v, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// CreateTimeEntry records a finished interval.
func (c *Client) CreateTimeEntry(ctx context.Context, teamID string, in TimeEntryInput) (*TimeEntry, error) {
	if in.Duration <= 0 {
		return nil, errors.New("clickup: time entry duration must be positive")
	}
	var out struct {
		Data TimeEntry `json:"data"`
	}
	path := "/v2/team/" + url.PathEscape(teamID) + "/time_entries"
	if err := c.do(ctx, http.MethodPost, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}
