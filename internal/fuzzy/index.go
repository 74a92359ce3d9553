package fuzzy

import (
	"math"
	"sort"
)

// DefaultThreshold is the largest per-field Score that still counts as a match.
const DefaultThreshold = 0.35

// Key describes one weighted field of an indexed item. Values may return
// several strings (for example a keyword list); the best of them counts.
type Key[T any] struct {
	Name   string
	Weight float64
	Values func(T) []string
}

// Hit is one search result. Lower Score is better; 0 is a verbatim match.
type Hit[T any] struct {
	Item  T
	Score float64
	Keys  []string
}

// Index is an immutable weighted approximate-match index.
// Rebuild it with NewIndex whenever the item set changes.
type Index[T any] struct {
	keys      []Key[T]
	weights   []float64
	threshold float64
	items     []T
	fields    [][][]string
}

// NewIndex normalizes every field value of items up front.
// A non-positive threshold selects DefaultThreshold.
func NewIndex[T any](items []T, keys []Key[T], threshold float64) *Index[T] {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	total := 0.0
	for _, k := range keys {
		total += k.Weight
	}
	weights := make([]float64, len(keys))
	for i, k := range keys {
		if total > 0 {
			weights[i] = k.Weight / total
		} else {
			weights[i] = 1 / float64(len(keys))
		}
	}

	fields := make([][][]string, len(items))
	for i, item := range items {
		fields[i] = make([][]string, len(keys))
		for j, k := range keys {
			raw := k.Values(item)
			vals := make([]string, 0, len(raw))
			for _, v := range raw {
				if n := Normalize(v); n != "" {
					vals = append(vals, n)
				}
			}
			fields[i][j] = vals
		}
	}

	return &Index[T]{
		keys:      keys,
		weights:   weights,
		threshold: threshold,
		items:     items,
		fields:    fields,
	}
}

// Len reports the number of indexed items.
func (ix *Index[T]) Len() int { return len(ix.items) }

// Search scores every item against query and returns matches in ascending
// score order, ties kept in index order. limit <= 0 returns every match.
//
// An item matches when at least one field scores within the threshold.
// Its score is the product of matched field scores, each raised to the
// field's normalized weight, so a verbatim field match scores 0 and
// agreeing fields pull the score down together.
func (ix *Index[T]) Search(query string, limit int) []Hit[T] {
	q := Normalize(query)
	if q == "" || len(ix.items) == 0 {
		return nil
	}
	qLen := float64(len([]rune(q)))

	type scored struct {
		pos int
		hit Hit[T]
	}
	var results []scored

	for i, item := range ix.items {
		total := 1.0
		var matched []string
		for j, k := range ix.keys {
			best := math.Inf(1)
			for _, v := range ix.fields[i][j] {
				s := float64(SubstringDistance(q, v)) / qLen
				if s < best {
					best = s
				}
			}
			if best > ix.threshold {
				continue
			}
			matched = append(matched, k.Name)
			total *= math.Pow(best, ix.weights[j])
		}
		if len(matched) == 0 {
			continue
		}
		results = append(results, scored{pos: i, hit: Hit[T]{Item: item, Score: total, Keys: matched}})
	}

	sort.SliceStable(results, func(a, b int) bool {
		if results[a].hit.Score != results[b].hit.Score {
			return results[a].hit.Score < results[b].hit.Score
		}
		return results[a].pos < results[b].pos
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	hits := make([]Hit[T], len(results))
	for i, r := range results {
		hits[i] = r.hit
	}
	return hits
}
