package taskcache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ListFilters are the task page filters that change what a list returns.
type ListFilters struct {
	IncludeClosed               bool `json:"includeClosed"`
	IncludeSubtasks             bool `json:"includeSubtasks"`
	IncludeTasksInMultipleLists bool `json:"includeTasksInMultipleLists"`
}

// FiltersFromArgs reads the filters out of tool arguments, coercing each
// to a boolean so "true", 1 and true produce the same key.
func FiltersFromArgs(args map[string]any) ListFilters {
	return ListFilters{
		IncludeClosed:               truthy(args["include_closed"]),
		IncludeSubtasks:             truthy(args["subtasks"]),
		IncludeTasksInMultipleLists: truthy(args["include_timl"]),
	}
}

// ListKey is the list-page cache key. It depends only on its arguments.
func ListKey(listID string, f ListFilters, page int) string {
	return fmt.Sprintf("%s|closed=%t|subtasks=%t|multi=%t|page=%d",
		listID, f.IncludeClosed, f.IncludeSubtasks, f.IncludeTasksInMultipleLists, page)
}

// SearchKey is the search cache key: teamID followed by the sorted
// key=value pairs of params. Nested maps are serialized with sorted keys,
// so insertion order never matters. Nil values are skipped.
func SearchKey(teamID string, params map[string]any) string {
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		pairs = append(pairs, k+"="+serialize(v))
	}
	sort.Strings(pairs)
	return teamID + "|" + strings.Join(pairs, "&")
}

func serialize(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + serialize(x[k])
		}
		return "{" + strings.Join(parts, ",") + "}"
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = serialize(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case []string:
		return "[" + strings.Join(x, ",") + "]"
	default:
		if s := stringify(v); s != "" {
			return s
		}
		return fmt.Sprint(v)
	}
}

// BuildSignature sorts and joins the non-empty ids of records. Two result
// sets with the same ids share a signature whatever their order.
func BuildSignature(records []TaskRecord) string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if r.ID != "" {
			ids = append(ids, r.ID)
		}
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return err == nil && b
	case float64:
		return x != 0
	case int:
		return x != 0
	default:
		return false
	}
}
