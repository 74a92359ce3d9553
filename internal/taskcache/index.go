package taskcache

import (
	"sync"

	"github.com/HendryAvila/clickup-mcp/internal/fuzzy"
)

var taskKeys = []fuzzy.Key[TaskRecord]{
	{Name: "name", Weight: 0.5, Values: func(r TaskRecord) []string { return []string{r.Name} }},
	{Name: "description", Weight: 0.3, Values: func(r TaskRecord) []string { return []string{r.Description} }},
	{Name: "status", Weight: 0.2, Values: func(r TaskRecord) []string { return []string{r.Status} }},
}

// TaskHit is one ranked search result. Lower Score is better.
type TaskHit struct {
	Record TaskRecord `json:"record"`
	Score  float64    `json:"score"`
}

// SearchIndex is a weighted fuzzy index over task records with an id lookup
// into the same records. It is safe for concurrent use.
type SearchIndex struct {
	onBuild func(records int)

	mu      sync.RWMutex
	records map[string]TaskRecord
	order   []string
	index   *fuzzy.Index[TaskRecord]
}

// NewSearchIndex returns an empty index. onBuild, if set, is called after
// every rebuild with the number of indexed records.
func NewSearchIndex(onBuild func(records int)) *SearchIndex {
	return &SearchIndex{
		onBuild: onBuild,
		records: make(map[string]TaskRecord),
	}
}

// Index merges records by id, last write wins, and rebuilds the whole
// fuzzy index. Records keep the position of their first appearance.
func (s *SearchIndex) Index(records []TaskRecord) {
	s.mu.Lock()
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		if _, ok := s.records[r.ID]; !ok {
			s.order = append(s.order, r.ID)
		}
		s.records[r.ID] = r
	}
	items := make([]TaskRecord, len(s.order))
	for i, id := range s.order {
		items[i] = s.records[id]
	}
	s.index = fuzzy.NewIndex(items, taskKeys, fuzzy.DefaultThreshold)
	s.mu.Unlock()

	if s.onBuild != nil {
		s.onBuild(len(items))
	}
}

// Search ranks records against query. limit <= 0 returns every hit.
func (s *SearchIndex) Search(query string, limit int) []TaskHit {
	s.mu.RLock()
	ix := s.index
	s.mu.RUnlock()
	if ix == nil {
		return nil
	}

	hits := ix.Search(query, limit)
	out := make([]TaskHit, len(hits))
	for i, h := range hits {
		out[i] = TaskHit{Record: h.Item, Score: h.Score}
	}
	return out
}

// Lookup returns the record with the given id.
func (s *SearchIndex) Lookup(id string) (TaskRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	return r, ok
}

// Records returns the indexed records in index order.
func (s *SearchIndex) Records() []TaskRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TaskRecord, len(s.order))
	for i, id := range s.order {
		out[i] = s.records[id]
	}
	return out
}

// Len reports the number of indexed records.
func (s *SearchIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// contains reports whether id is indexed.
func (s *SearchIndex) contains(id string) bool {
	_, ok := s.Lookup(id)
	return ok
}

// referencesList reports whether any record belongs to listID.
func (s *SearchIndex) referencesList(listID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ListID == listID {
			return true
		}
	}
	return false
}
