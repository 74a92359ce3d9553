package cache

import (
	"sort"
	"time"
)

// EvictOldest deletes entries from m, oldest fetch time first, until at
// most limit remain. Ties break on key so eviction is deterministic.
// A non-positive limit means unbounded. It returns the evicted keys.
func EvictOldest[V any](m map[string]V, limit int, fetchedAt func(V) time.Time) []string {
	if limit <= 0 || len(m) <= limit {
		return nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ti, tj := fetchedAt(m[keys[i]]), fetchedAt(m[keys[j]])
		if ti.Equal(tj) {
			return keys[i] < keys[j]
		}
		return ti.Before(tj)
	})

	overflow := len(m) - limit
	evicted := keys[:overflow]
	for _, k := range evicted {
		delete(m, k)
	}
	return evicted
}
