// Package members caches a workspace's member roster and ranks members
// against a free-text query (a name, email, username or id).
package members

import (
	"math"
	"strconv"
	"strings"

	"github.com/HendryAvila/clickup-mcp/internal/fuzzy"
)

// Identifier is one identity value of a member and where it came from.
// Source is the dotted field path, for example "user.profile.email".
type Identifier struct {
	Value      string   `json:"value"`
	Source     string   `json:"source"`
	Normalized string   `json:"normalized"`
	Tokens     []string `json:"tokens"`
}

// MemberRecord is a normalized roster entry.
type MemberRecord struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"displayName"`
	Email       string         `json:"email,omitempty"`
	Username    string         `json:"username,omitempty"`
	Identifiers []Identifier   `json:"identifiers"`
	Keywords    []string       `json:"keywords"`
	Raw         map[string]any `json:"-"`
}

// emailLocalSource is the source of identifiers derived from the part of
// an email address before the "@".
const emailLocalSource = "emailLocal"

// identitySources are read in this order. The API nests the user object
// differently per endpoint, so flat and nested paths are both tried.
var identitySources = []string{
	"id",
	"user.id",
	"name",
	"displayName",
	"user.name",
	"user.profile.name",
	"user.profile.displayName",
	"username",
	"user.username",
	"user.profile.username",
	"email",
	"user.email",
	"user.profile.email",
}

var (
	idSources       = []string{"id", "user.id"}
	displaySources  = []string{"name", "displayName", "user.name", "user.profile.name", "user.profile.displayName", "username", "user.username", "user.profile.username", "email", "user.email"}
	emailSources    = []string{"email", "user.email", "user.profile.email"}
	usernameSources = []string{"username", "user.username", "user.profile.username"}
)

// Prepare normalizes a raw roster. Members without an id are dropped and
// duplicate ids keep their first occurrence.
func Prepare(raw []map[string]any) []MemberRecord {
	out := make([]MemberRecord, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		m, ok := prepareOne(r)
		if !ok {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func prepareOne(raw map[string]any) (MemberRecord, bool) {
	id := first(raw, idSources)
	if id == "" {
		return MemberRecord{}, false
	}
	m := MemberRecord{
		ID:          id,
		DisplayName: first(raw, displaySources),
		Email:       first(raw, emailSources),
		Username:    first(raw, usernameSources),
		Raw:         raw,
	}
	if m.DisplayName == "" {
		m.DisplayName = id
	}

	seen := make(map[string]struct{})
	add := func(value, source string) {
		norm := fuzzy.Normalize(value)
		if norm == "" {
			return
		}
		k := source + "\x00" + norm
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		m.Identifiers = append(m.Identifiers, Identifier{
			Value:      strings.TrimSpace(value),
			Source:     source,
			Normalized: norm,
			Tokens:     fuzzy.Tokenize(value),
		})
	}
	for _, src := range identitySources {
		v := lookup(raw, src)
		if v == "" {
			continue
		}
		add(v, src)
		if strings.HasSuffix(src, "email") {
			if local, _, ok := strings.Cut(v, "@"); ok {
				add(local, emailLocalSource)
			}
		}
	}

	kw := make(map[string]struct{})
	for _, ident := range m.Identifiers {
		for _, w := range append([]string{ident.Value}, ident.Tokens...) {
			if _, ok := kw[w]; ok {
				continue
			}
			kw[w] = struct{}{}
			m.Keywords = append(m.Keywords, w)
		}
	}
	return m, true
}

func first(raw map[string]any, sources []string) string {
	for _, src := range sources {
		if v := lookup(raw, src); v != "" {
			return v
		}
	}
	return ""
}

// lookup walks a dotted path through nested maps.
func lookup(raw map[string]any, path string) string {
	var cur any = raw
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[part]
	}
	switch v := cur.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
