package members

import (
	"slices"
	"sort"
	"strings"

	"github.com/HendryAvila/clickup-mcp/internal/fuzzy"
)

// DefaultLimit caps Rank results when no limit is given.
const DefaultLimit = 5

// Scores of the deterministic match rules. Lower is better.
const (
	scoreExact        = 0
	scorePrefix       = 0.02
	scoreToken        = 0.05
	scoreSubstring    = 0.08
	scorePartialToken = 0.12
)

var memberKeys = []fuzzy.Key[MemberRecord]{
	{Name: "displayName", Weight: 0.45, Values: func(m MemberRecord) []string { return []string{m.DisplayName} }},
	{Name: "email", Weight: 0.20, Values: func(m MemberRecord) []string { return []string{m.Email} }},
	{Name: "username", Weight: 0.15, Values: func(m MemberRecord) []string { return []string{m.Username} }},
	{Name: "keywords", Weight: 0.20, Values: func(m MemberRecord) []string { return m.Keywords }},
}

// Roster is a prepared member list with its fuzzy index.
type Roster struct {
	Members []MemberRecord
	index   *fuzzy.Index[MemberRecord]
}

// NewRoster indexes members.
func NewRoster(members []MemberRecord) *Roster {
	return &Roster{
		Members: members,
		index:   fuzzy.NewIndex(members, memberKeys, fuzzy.DefaultThreshold),
	}
}

// Match is one ranked member with the reasons it matched.
type Match struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"displayName"`
	Email        string   `json:"email,omitempty"`
	Username     string   `json:"username,omitempty"`
	Score        float64  `json:"score"`
	Reasons      []string `json:"reasons"`
	MatchedTerms []string `json:"matchedTerms"`
}

func (m *Match) add(score float64, reason, term string) {
	if score < m.Score {
		m.Score = score
	}
	if !slices.Contains(m.Reasons, reason) {
		m.Reasons = append(m.Reasons, reason)
	}
	if term != "" && !slices.Contains(m.MatchedTerms, term) {
		m.MatchedTerms = append(m.MatchedTerms, term)
	}
}

// Rank scores every member of r against query and returns the best limit
// matches, lowest score first. Ties are ordered by display name, then id.
//
// Candidates come from the fuzzy index and from direct identifier rules:
// exact (0), prefix (0.02), substring (0.08), token-set (0.05) and partial
// token (0.12). A member keeps its lowest score and every reason it earned.
func Rank(r *Roster, query string, limit int) []Match {
	if r == nil {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := fuzzy.Normalize(query)
	if q == "" {
		return nil
	}
	qTokens := fuzzy.Tokenize(query)

	byID := make(map[string]*Match)
	get := func(m MemberRecord) *Match {
		if c, ok := byID[m.ID]; ok {
			return c
		}
		c := &Match{ID: m.ID, DisplayName: m.DisplayName, Email: m.Email, Username: m.Username, Score: 1}
		byID[m.ID] = c
		return c
	}

	for _, hit := range r.index.Search(query, 0) {
		get(hit.Item).add(hit.Score, "Fuzzy similarity", q)
	}

	for _, m := range r.Members {
		for _, ident := range m.Identifiers {
			// An identifier earns every rule it satisfies: an exact match is
			// also a prefix and a substring match.
			if ident.Normalized == q {
				get(m).add(scoreExact, "Exact "+ident.Source+" match", ident.Value)
			}
			if strings.HasPrefix(ident.Normalized, q) {
				get(m).add(scorePrefix, "Prefix "+ident.Source+" match", ident.Value)
			}
			if strings.Contains(ident.Normalized, q) {
				get(m).add(scoreSubstring, "Substring "+ident.Source+" match", ident.Value)
			}

			if len(qTokens) == 0 || len(ident.Tokens) == 0 {
				continue
			}
			var covered []string
			for _, tok := range ident.Tokens {
				if slices.Contains(qTokens, tok) {
					covered = append(covered, tok)
				}
			}
			switch {
			case len(covered) == len(ident.Tokens):
				get(m).add(scoreToken, "Token match", ident.Value)
			case len(covered) > 0:
				c := get(m)
				for _, tok := range covered {
					c.add(scorePartialToken, "Partial token match", tok)
				}
			}
		}
	}

	out := make([]Match, 0, len(byID))
	for _, c := range byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		if c := strings.Compare(out[i].DisplayName, out[j].DisplayName); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
