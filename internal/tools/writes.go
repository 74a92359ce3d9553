package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/HendryAvila/clickup-mcp/internal/clickup"
	"github.com/HendryAvila/clickup-mcp/internal/config"
	"github.com/HendryAvila/clickup-mcp/internal/members"
	"github.com/HendryAvila/clickup-mcp/internal/taskcache"
)

// ─── Write policy ────────────────────────────────────────────────────────────

// checkList authorizes a mutation inside listID. The list is only looked
// up when the policy needs its space.
func (d *Deps) checkList(ctx context.Context, listID string) error {
	target := config.Target{ListID: listID}
	if d.Policy.NeedsTarget() {
		l, err := d.API.GetList(ctx, listID)
		if err != nil {
			return fmt.Errorf("looking up list %s: %w", listID, err)
		}
		if l.Space != nil {
			target.SpaceID = l.Space.ID
		}
	}
	return d.Policy.Check(target)
}

// checkTask authorizes a mutation of an existing task. It returns the
// task's list id when it is known without an extra call, or when the
// policy made the lookup necessary anyway.
func (d *Deps) checkTask(ctx context.Context, taskID string) (string, error) {
	listID := ""
	if rec, ok := d.Sessions.For(ctx).Tasks.LookupTask(taskID); ok {
		listID = rec.ListID
	}
	if !d.Policy.NeedsTarget() {
		return listID, d.Policy.Check(config.Target{ListID: listID})
	}

	task, err := d.API.GetTask(ctx, taskID)
	if err != nil {
		return "", fmt.Errorf("looking up task %s: %w", taskID, err)
	}
	return task.List.ID, d.Policy.Check(config.Target{SpaceID: task.Space.ID, ListID: task.List.ID})
}

// ─── Invalidation ────────────────────────────────────────────────────────────

// taskChanged drops everything cached about a task, the lists it is known
// in and every search result.
func (d *Deps) taskChanged(ctx context.Context, taskID string, listIDs ...string) {
	cat := d.Sessions.For(ctx).Tasks
	if taskID != "" {
		cat.InvalidateTask(taskID)
	}
	seen := map[string]bool{}
	for _, id := range listIDs {
		if id != "" && !seen[id] {
			seen[id] = true
			cat.InvalidateList(id)
		}
	}
	cat.InvalidateSearch()
	d.logger().Debug("task caches invalidated", slog.String("task", taskID), slog.Any("lists", listIDs))
}

// ─── Assignees ───────────────────────────────────────────────────────────────

// resolveAssignees turns user ids or member names into user ids. A name
// must have a single best match in the workspace roster.
func (d *Deps) resolveAssignees(ctx context.Context, teamID string, values []string) ([]int64, error) {
	if len(values) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			ids = append(ids, id)
			continue
		}
		if teamID == "" {
			return nil, fmt.Errorf("assignee %q is a name; 'workspace_id' is needed to look it up", v)
		}
		res, err := d.searchMembers(ctx, teamID, v, members.SearchOptions{Limit: members.DefaultLimit})
		if err != nil {
			return nil, fmt.Errorf("looking up assignee %q: %w", v, err)
		}
		if len(res.Matches) == 0 {
			return nil, fmt.Errorf("no workspace member matches %q", v)
		}
		if !members.Unique(res.Matches) {
			return nil, fmt.Errorf("assignee %q is ambiguous: %s", v, candidates(res.Matches))
		}
		id, err := strconv.ParseInt(res.Matches[0].ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("member %q has a non-numeric id %q", res.Matches[0].DisplayName, res.Matches[0].ID)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func candidates(ms []members.Match) string {
	names := make([]string, 0, len(ms))
	for _, m := range ms {
		if m.Score != ms[0].Score {
			break
		}
		names = append(names, fmt.Sprintf("%s (%s)", m.DisplayName, m.ID))
	}
	return strings.Join(names, ", ")
}

// ─── Task fields ─────────────────────────────────────────────────────────────

// updateFromArgs builds a task update out of tool arguments. It is shared
// by the single and bulk update tools.
func (d *Deps) updateFromArgs(ctx context.Context, teamID string, args map[string]any) (clickup.TaskUpdate, error) {
	var u clickup.TaskUpdate
	for name, dst := range map[string]**string{
		"name":        &u.Name,
		"description": &u.Description,
		"status":      &u.Status,
		"parent":      &u.Parent,
	} {
		if v, ok := args[name]; ok && v != nil {
			s := strings.TrimSpace(argString(v))
			*dst = &s
		}
	}
	if u.Name != nil && *u.Name == "" {
		return u, fmt.Errorf("'name' must not be empty")
	}

	priority, err := optionalInt(args, "priority")
	if err != nil {
		return u, err
	}
	if priority != nil {
		if *priority < 1 || *priority > 4 {
			return u, fmt.Errorf("'priority' must be 1 (urgent) to 4 (low), got %d", *priority)
		}
		p := int(*priority)
		u.Priority = &p
	}
	if u.DueDate, err = optionalInt(args, "due_date"); err != nil {
		return u, err
	}

	add, err := d.resolveAssignees(ctx, teamID, stringsArg(args, "add_assignees"))
	if err != nil {
		return u, err
	}
	rem, err := d.resolveAssignees(ctx, teamID, stringsArg(args, "remove_assignees"))
	if err != nil {
		return u, err
	}
	if len(add) > 0 || len(rem) > 0 {
		u.Assignees = &clickup.AssigneeChange{Add: add, Remove: rem}
	}
	return u, nil
}

// changedRecord remembers the API's view of a task after a mutation so
// later lookups see fresh data.
func (d *Deps) changedRecord(ctx context.Context, task *clickup.Task) *taskcache.TaskRecord {
	if task == nil || task.ID == "" {
		return nil
	}
	rec := taskcache.RecordFromTask(*task)
	d.Sessions.For(ctx).Tasks.Remember(rec)
	return &rec
}
