package members

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func annRoster() []map[string]any {
	return []map[string]any{
		{"id": "1", "name": "Ann Lee", "email": "ann@x.com"},
		{"id": "2", "name": "Anna Lee", "email": "anna@x.com"},
	}
}

func ids(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.ID
	}
	return out
}

// ─── Prepare ─────────────────────────────────────────────────────────────────

func TestPrepare_IdentifiersDedupedBySourceAndValue(t *testing.T) {
	raw := []map[string]any{{
		"id":    float64(7),
		"email": "x@y.com",
		"user": map[string]any{
			"id":      float64(7),
			"email":   "X@Y.com",
			"profile": map[string]any{"email": "x@y.com"},
		},
	}}

	got := Prepare(raw)
	if len(got) != 1 {
		t.Fatalf("Prepare returned %d members, want 1", len(got))
	}
	m := got[0]
	if m.ID != "7" || m.DisplayName != "x@y.com" || m.Email != "x@y.com" {
		t.Errorf("member = %+v", m)
	}

	var sources []string
	for _, ident := range m.Identifiers {
		sources = append(sources, ident.Source)
	}
	want := []string{"id", "user.id", "email", "emailLocal", "user.email", "user.profile.email"}
	if diff := cmp.Diff(want, sources); diff != "" {
		t.Errorf("identifier sources (-want +got):\n%s", diff)
	}
}

func TestPrepare_DropsMembersWithoutIDAndDuplicates(t *testing.T) {
	got := Prepare([]map[string]any{
		{"name": "ghost"},
		{"id": "1", "name": "First"},
		{"id": "1", "name": "Second"},
	})
	if len(got) != 1 || got[0].DisplayName != "First" {
		t.Errorf("Prepare = %+v", got)
	}
}

func TestPrepare_StripsDiacritics(t *testing.T) {
	m := Prepare([]map[string]any{{"id": "3", "username": "José Núñez"}})[0]
	if m.Identifiers[1].Normalized != "jose nunez" {
		t.Errorf("normalized = %q", m.Identifiers[1].Normalized)
	}
	if !slices.Contains(m.Keywords, "nunez") {
		t.Errorf("keywords = %v, want token nunez", m.Keywords)
	}
}

// ─── Rank ────────────────────────────────────────────────────────────────────

func TestRank_ShortNamePrefersExactMember(t *testing.T) {
	r := NewRoster(Prepare(annRoster()))
	got := Rank(r, "ann", 0)

	if diff := cmp.Diff([]string{"1", "2"}, ids(got)); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	for _, m := range got {
		if m.Score > 0.08 {
			t.Errorf("member %s score = %v, want <= 0.08", m.ID, m.Score)
		}
	}
	if !slices.Contains(got[0].Reasons, "Exact emailLocal match") {
		t.Errorf("member 1 reasons = %v", got[0].Reasons)
	}
	if !slices.Contains(got[1].Reasons, "Prefix name match") {
		t.Errorf("member 2 reasons = %v", got[1].Reasons)
	}
}

func TestRank_ExactEmailBeatsFuzzy(t *testing.T) {
	r := NewRoster(Prepare(annRoster()))
	got := Rank(r, "ann@x.com", 0)

	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(got), got)
	}
	if got[0].ID != "1" || got[0].Score != 0 {
		t.Errorf("first = %s at %v, want 1 at 0", got[0].ID, got[0].Score)
	}
	if !slices.Contains(got[0].Reasons, "Exact email match") {
		t.Errorf("reasons = %v", got[0].Reasons)
	}
	if got[1].ID != "2" || got[1].Score <= 0 {
		t.Errorf("second = %s at %v", got[1].ID, got[1].Score)
	}
	if !Unique(got) {
		t.Error("exact email match should be unique")
	}
}

func TestRank_ExactMatchAlsoEarnsPrefixAndSubstring(t *testing.T) {
	r := NewRoster(Prepare(annRoster()))
	got := Rank(r, "ann@x.com", 0)
	if len(got) == 0 || got[0].ID != "1" {
		t.Fatalf("matches = %+v, want member 1 first", got)
	}

	want := []string{
		"Exact email match",
		"Fuzzy similarity",
		"Partial token match",
		"Prefix email match",
		"Substring email match",
		"Token match",
	}
	reasons := slices.Clone(got[0].Reasons)
	slices.Sort(reasons)
	if diff := cmp.Diff(want, reasons); diff != "" {
		t.Errorf("member 1 reasons (-want +got):\n%s", diff)
	}
	if got[0].Score != 0 {
		t.Errorf("member 1 score = %v, want 0", got[0].Score)
	}
}

func TestRank_PrefixMatchAlsoEarnsSubstring(t *testing.T) {
	r := NewRoster(Prepare(annRoster()))
	got := Rank(r, "anna@x", 0)
	if len(got) == 0 || got[0].ID != "2" {
		t.Fatalf("matches = %+v, want member 2 first", got)
	}
	for _, reason := range []string{"Prefix email match", "Substring email match"} {
		if !slices.Contains(got[0].Reasons, reason) {
			t.Errorf("member 2 reasons = %v, missing %q", got[0].Reasons, reason)
		}
	}
	if slices.Contains(got[0].Reasons, "Exact email match") {
		t.Errorf("member 2 reasons = %v, want no exact match", got[0].Reasons)
	}
}

func TestRank_Deterministic(t *testing.T) {
	r := NewRoster(Prepare(annRoster()))
	first := Rank(r, "lee", 0)
	for i := 0; i < 20; i++ {
		if diff := cmp.Diff(first, Rank(r, "lee", 0)); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
	// Equal scores fall back to display name order.
	if diff := cmp.Diff([]string{"1", "2"}, ids(first)); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
}

func TestRank_TokenMatches(t *testing.T) {
	r := NewRoster(Prepare([]map[string]any{{"id": "9", "name": "Grace Hopper"}}))

	got := Rank(r, "hopper grace", 0)
	if len(got) != 1 || got[0].Score != 0.05 || !slices.Contains(got[0].Reasons, "Token match") {
		t.Errorf("full token set = %+v", got)
	}

	got = Rank(r, "grace kelly", 0)
	if len(got) != 1 || !slices.Contains(got[0].Reasons, "Partial token match") {
		t.Errorf("partial tokens = %+v", got)
	}
}

func TestRank_LimitAndEmptyQuery(t *testing.T) {
	var raw []map[string]any
	for i := 0; i < 8; i++ {
		raw = append(raw, map[string]any{"id": fmt.Sprint(i), "name": fmt.Sprintf("Sam %d", i)})
	}
	r := NewRoster(Prepare(raw))

	if got := Rank(r, "sam", 0); len(got) != DefaultLimit {
		t.Errorf("default limit: got %d", len(got))
	}
	if got := Rank(r, "sam", 2); len(got) != 2 {
		t.Errorf("limit 2: got %d", len(got))
	}
	if got := Rank(r, "  ", 0); got != nil {
		t.Errorf("blank query = %+v, want nil", got)
	}
}

// ─── Directory ───────────────────────────────────────────────────────────────

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestDirectory_EnsureCachesPerTeam(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)}
	d := NewDirectory(Config{Credential: "pk_1", TTL: time.Minute, Clock: clock.now})
	calls := 0
	fetch := func(context.Context) ([]map[string]any, error) {
		calls++
		return annRoster(), nil
	}

	for i := 0; i < 2; i++ {
		if _, _, err := d.Ensure(ctx, "team-a", fetch, Options{}); err != nil {
			t.Fatal(err)
		}
	}
	if _, _, err := d.Ensure(ctx, "team-b", fetch, Options{}); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("fetch calls = %d, want one per team", calls)
	}

	clock.t = clock.t.Add(time.Minute + time.Millisecond)
	_, meta, err := d.Ensure(ctx, "team-a", fetch, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 || meta.AgeMs != 0 {
		t.Errorf("calls = %d ageMs = %d, want refetch after TTL", calls, meta.AgeMs)
	}

	d.Clear("team-b")
	if d.Len() != 1 {
		t.Errorf("Len after Clear(team-b) = %d", d.Len())
	}
	d.Clear("")
	if d.Len() != 0 {
		t.Errorf("Len after Clear() = %d", d.Len())
	}
}

func TestDirectory_SearchPropagatesFetchError(t *testing.T) {
	d := NewDirectory(Config{TTL: time.Minute})
	boom := errors.New("401 unauthorized")
	_, err := d.Search(context.Background(), "t", "ann", func(context.Context) ([]map[string]any, error) {
		return nil, boom
	}, SearchOptions{})
	if err != boom {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestDirectory_Search(t *testing.T) {
	d := NewDirectory(Config{TTL: time.Minute})
	res, err := d.Search(context.Background(), "t", "anna", func(context.Context) ([]map[string]any, error) {
		return annRoster(), nil
	}, SearchOptions{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Matches) != 1 || res.Matches[0].ID != "2" {
		t.Errorf("matches = %+v", res.Matches)
	}
	if res.Metadata.TotalItems != 2 || res.Metadata.Scope != "members" {
		t.Errorf("metadata = %+v", res.Metadata)
	}
}
