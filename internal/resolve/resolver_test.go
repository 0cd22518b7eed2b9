package resolve

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"lorefield/internal/attr"
	"lorefield/internal/config"
	"lorefield/internal/store"
)

type fakeHost struct {
	records map[string]*store.Record
	schema  *config.Schema
	// reject fails any update whose patch touches a path it returns true for.
	reject func(path string) bool
	// redirect moves a patched path elsewhere, like a host that coerces writes.
	redirect map[string]string
	panics   bool
	updates  []*attr.Node
}

func newFakeHost(records ...*store.Record) *fakeHost {
	h := &fakeHost{records: make(map[string]*store.Record)}
	for _, r := range records {
		h.records[r.ID] = r.Clone()
	}
	return h
}

func (h *fakeHost) GetRecord(ctx context.Context, id string) (*store.Record, error) {
	r, ok := h.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r.Clone(), nil
}

func (h *fakeHost) UpdateRecord(ctx context.Context, id string, patch *attr.Node) error {
	if h.panics {
		panic("host exploded")
	}
	h.updates = append(h.updates, patch.Clone())
	r, ok := h.records[id]
	if !ok {
		return store.ErrNotFound
	}
	for _, path := range attr.Leaves(patch) {
		if h.reject != nil && h.reject(path) {
			return errors.New("rejected " + path)
		}
	}
	for from, to := range h.redirect {
		if v, ok := attr.Lookup(patch, from); ok {
			moved := attr.NewNode()
			attr.SetPath(moved, to, v)
			patch = moved
		}
	}
	store.ApplyPatch(r, patch, h.schema)
	return nil
}

type fakeSuggester struct {
	path  string
	err   error
	calls int
	pool  []string
}

// SuggestBestPath picks s.path only when it was offered, like a matcher that
// can only rank the candidates it is given.
func (s *fakeSuggester) SuggestBestPath(ctx context.Context, candidates []string, concepts []string) (string, bool, error) {
	s.calls++
	s.pool = append([]string(nil), candidates...)
	if s.err != nil {
		return "", false, s.err
	}
	if !slices.Contains(candidates, s.path) {
		return "", false, nil
	}
	return s.path, true, nil
}

func record(t *testing.T, id, recordType, system string) *store.Record {
	t.Helper()
	tree, err := attr.Decode([]byte(system))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return &store.Record{ID: id, Type: recordType, Name: id, System: tree}
}

func TestScan(t *testing.T) {
	tree, err := attr.Decode([]byte(`{
		"details": {
			"biography": {"value": "Born in a storm", "public": "   "},
			"notes": 4
		},
		"appearance": ["tall"],
		"a": {"b": {"c": {"d": {"e": {"f": {"description": "too deep"}}}}}},
		"x": {"y": {"z": {"w": {"description": "deep enough"}}}}
	}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	got := Scan(tree, "system", ReadPattern, DefaultMaxDepth)
	want := []string{
		"system.details.biography.value",
		"system.x.y.z.w.description",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
	}

	if got := Scan(nil, "system", ReadPattern, DefaultMaxDepth); got != nil {
		t.Errorf("Scan(nil) = %v, want nil", got)
	}
}

func TestScanMatchesFullPath(t *testing.T) {
	tree, _ := attr.Decode([]byte(`{"biography": {"text": "hello"}, "misc": {"text": "other"}}`))
	got := Scan(tree, "system", ReadPattern, 2)
	if diff := cmp.Diff([]string{"system.biography.text"}, got); diff != "" {
		t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{"system.details.biography.value", 1000 - 4},
		{"system.bio", 1000 - 2},
		{"system.description.value", 500 - 3},
		{"system.desc", 500 - 2},
		{"system.summary", 120 - 2},
		{"system.notes", 100 - 2},
		{"system.details.publicNotes", 100 - 3},
		{"system.details.biography.notes", 1100 - 4},
		{"system.hp.value", -3},
		{"", 0},
	}
	for _, tt := range tests {
		if got := Score(tt.path); got != tt.want {
			t.Errorf("Score(%q) = %d, want %d", tt.path, got, tt.want)
		}
		if Score(tt.path) != Score(tt.path) {
			t.Errorf("Score(%q) is not stable", tt.path)
		}
	}
	if Score("system.details.biography.value") <= Score("system.notes") {
		t.Error("biography should outrank notes")
	}
}

func TestRankIsOrderIndependent(t *testing.T) {
	declared := []string{BiographyValue, BiographyPublic}
	a := []string{"system.notes", BiographyPublic, "system.zeta.description", BiographyValue, "system.alpha.description", "system.notes"}
	b := []string{"system.alpha.description", BiographyValue, "system.notes", "system.zeta.description", BiographyPublic}

	paths := func(cs []Candidate) []string {
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = c.Path
		}
		return out
	}

	got := paths(Rank(a, declared))
	want := []string{
		BiographyValue,
		BiographyPublic,
		"system.alpha.description",
		"system.zeta.description",
		"system.notes",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rank() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(got, paths(Rank(b, declared))); diff != "" {
		t.Errorf("Rank() depends on input order (-a +b):\n%s", diff)
	}
}

func TestReadBest(t *testing.T) {
	t.Run("description only", func(t *testing.T) {
		rec := record(t, "c1", "character", `{"description": {"value": "<p>Hi</p>"}}`)
		r := New(nil, nil, Options{}, zap.NewNop())
		res := r.ReadBest(context.Background(), rec)
		if !res.OK || res.Value != "<p>Hi</p>" || res.Path != "system.description.value" {
			t.Fatalf("ReadBest() = %+v", res)
		}
	})

	t.Run("editable biography before public", func(t *testing.T) {
		rec := record(t, "c1", "character", `{"details": {"biography": {"public": "public", "value": "private"}}}`)
		r := New(nil, nil, Options{}, zap.NewNop())
		if got := r.Read(context.Background(), rec); got != "private" {
			t.Fatalf("Read() = %q, want %q", got, "private")
		}
	})

	t.Run("value is returned untrimmed", func(t *testing.T) {
		rec := record(t, "c1", "character", `{"details": {"biography": {"value": "  spaced  "}}}`)
		r := New(nil, nil, Options{}, zap.NewNop())
		if got := r.Read(context.Background(), rec); got != "  spaced  " {
			t.Fatalf("Read() = %q", got)
		}
	})

	t.Run("whitespace is skipped", func(t *testing.T) {
		rec := record(t, "c1", "character", `{"details": {"biography": {"value": " \n ", "public": "shown"}}}`)
		r := New(nil, nil, Options{}, zap.NewNop())
		if got := r.Read(context.Background(), rec); got != "shown" {
			t.Fatalf("Read() = %q, want %q", got, "shown")
		}
	})

	t.Run("no matching fields", func(t *testing.T) {
		rec := record(t, "c1", "character", `{"hp": {"value": 10}}`)
		suggester := &fakeSuggester{path: "system.hp.value"}
		r := New(nil, suggester, Options{}, zap.NewNop())
		res := r.ReadBest(context.Background(), rec)
		if res.OK || res.Value != "" {
			t.Fatalf("ReadBest() = %+v, want empty", res)
		}
		if suggester.calls != 0 {
			t.Fatalf("suggester called %d times while disabled", suggester.calls)
		}
	})

	t.Run("nil tree", func(t *testing.T) {
		r := New(nil, nil, Options{}, zap.NewNop())
		rec := &store.Record{ID: "x"}
		if got := r.Read(context.Background(), rec); got != "" {
			t.Fatalf("Read() = %q", got)
		}
		if rec.System != nil {
			t.Fatalf("Read() mutated the record")
		}
	})

	t.Run("semantic fallback", func(t *testing.T) {
		rec := record(t, "c1", "character", `{"lore": {"text": "An old tale"}}`)
		suggester := &fakeSuggester{path: "system.lore.text"}
		r := New(nil, suggester, Options{SemanticEnabled: true}, zap.NewNop())
		res := r.ReadBest(context.Background(), rec)
		if !res.OK || res.Value != "An old tale" {
			t.Fatalf("ReadBest() = %+v", res)
		}
		if suggester.calls != 1 {
			t.Fatalf("suggester called %d times, want 1", suggester.calls)
		}
		want := []string{"system.lore.text"}
		if diff := cmp.Diff(want, suggester.pool); diff != "" {
			t.Errorf("suggestion pool mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("semantic pool holds only text leaves", func(t *testing.T) {
		rec := record(t, "c1", "character", `{
			"details": {"biography": {"value": ""}},
			"label": "  ",
			"lore": {"text": "An old tale"},
			"hp": 3
		}`)
		suggester := &fakeSuggester{}
		r := New(nil, suggester, Options{SemanticEnabled: true}, zap.NewNop())
		if got := r.Read(context.Background(), rec); got != "" {
			t.Fatalf("Read() = %q, want empty", got)
		}
		want := []string{"system.lore.text"}
		if diff := cmp.Diff(want, suggester.pool); diff != "" {
			t.Errorf("suggestion pool mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no text leaves skips the suggester", func(t *testing.T) {
		rec := record(t, "c1", "character", `{"hp": 3}`)
		suggester := &fakeSuggester{path: BiographyValue}
		r := New(nil, suggester, Options{SemanticEnabled: true}, zap.NewNop())
		if res := r.ReadBest(context.Background(), rec); res.OK {
			t.Fatalf("ReadBest() = %+v", res)
		}
		if suggester.calls != 0 {
			t.Fatalf("suggester called %d times with an empty pool", suggester.calls)
		}
	})

	t.Run("semantic error is no suggestion", func(t *testing.T) {
		rec := record(t, "c1", "character", `{"lore": {"text": "An old tale"}}`)
		suggester := &fakeSuggester{err: errors.New("offline")}
		r := New(nil, suggester, Options{SemanticEnabled: true}, zap.NewNop())
		if got := r.Read(context.Background(), rec); got != "" {
			t.Fatalf("Read() = %q", got)
		}
	})
}

func TestWriteBest(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip mirrors biography", func(t *testing.T) {
		rec := record(t, "c1", "character", `{"details": {"biography": {"value": "", "public": ""}}}`)
		host := newFakeHost(rec)
		r := New(host, nil, Options{}, zap.NewNop())

		for i := 0; i < 2; i++ {
			res := r.WriteBest(ctx, rec, "X")
			if !res.OK || res.Path != BiographyValue {
				t.Fatalf("WriteBest() = %+v", res)
			}
			if got := r.Read(ctx, rec); got != "X" {
				t.Fatalf("Read() after write = %q, want X", got)
			}
		}
		stored, _ := host.GetRecord(ctx, "c1")
		for _, path := range []string{BiographyValue, BiographyPublic} {
			if got, _ := attr.StringAt(stored.Root(), path); got != "X" {
				t.Errorf("%s = %q, want X", path, got)
			}
		}
	})

	t.Run("item writes description", func(t *testing.T) {
		rec := record(t, "i1", "weapon", `{"damage": "1d8"}`)
		host := newFakeHost(rec)
		r := New(host, nil, Options{}, zap.NewNop())
		res := r.WriteBest(ctx, rec, "<p>Sharp</p>")
		if !res.OK || res.Path != ItemDescription {
			t.Fatalf("WriteBest() = %+v", res)
		}
		if got := r.Read(ctx, rec); got != "<p>Sharp</p>" {
			t.Fatalf("Read() = %q", got)
		}
	})

	t.Run("no accepted fields", func(t *testing.T) {
		rec := record(t, "c1", "character", `{"hp": {"value": 10}}`)
		host := newFakeHost(rec)
		host.schema = &config.Schema{Version: 1, RecordTypes: []config.RecordType{
			{Name: "character", Fields: []config.Field{{Path: "system.hp.value", Type: "number"}}},
		}}
		r := New(host, nil, Options{}, zap.NewNop())

		if got := r.Read(ctx, rec); got != "" {
			t.Fatalf("Read() = %q, want empty", got)
		}
		res := r.WriteBest(ctx, rec, "Y")
		if res.OK {
			t.Fatalf("WriteBest() = %+v, want failure", res)
		}
		want := []string{BiographyValue, BiographyPublic}
		if diff := cmp.Diff(want, res.PathsTried); diff != "" {
			t.Errorf("PathsTried mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("rejected candidates fall through", func(t *testing.T) {
		rec := record(t, "c1", "character", `{"notes": "old"}`)
		host := newFakeHost(rec)
		host.reject = func(path string) bool { return strings.Contains(path, "biography") }
		r := New(host, nil, Options{}, zap.NewNop())

		res := r.WriteBest(ctx, rec, "new")
		if !res.OK || res.Path != "system.notes" {
			t.Fatalf("WriteBest() = %+v", res)
		}
		if got := r.Read(ctx, rec); got != "new" {
			t.Fatalf("Read() = %q", got)
		}
	})

	t.Run("redistributed write verifies through canonical field", func(t *testing.T) {
		rec := record(t, "c1", "character", `{"bio": "old"}`)
		host := newFakeHost(rec)
		host.redirect = map[string]string{"system.bio": BiographyValue}
		r := New(host, nil, Options{}, zap.NewNop())

		res := r.WriteBest(ctx, rec, "moved")
		if !res.OK || res.Path != "system.bio" {
			t.Fatalf("WriteBest() = %+v", res)
		}
		if got, _ := attr.StringAt(rec.Root(), BiographyValue); got != "moved" {
			t.Fatalf("record not refreshed: %q", got)
		}
	})

	t.Run("panicking host", func(t *testing.T) {
		rec := record(t, "c1", "character", `{}`)
		host := newFakeHost(rec)
		host.panics = true
		r := New(host, nil, Options{}, zap.NewNop())
		res := r.WriteBest(ctx, rec, "Z")
		if res.OK || len(res.PathsTried) == 0 {
			t.Fatalf("WriteBest() = %+v", res)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		r := New(newFakeHost(), nil, Options{}, zap.NewNop())
		res := r.WriteBest(ctx, &store.Record{ID: "ghost", Type: "npc"}, "Z")
		if res.OK || len(res.PathsTried) == 0 {
			t.Fatalf("WriteBest() = %+v", res)
		}
	})

	t.Run("semantic suggestion is attempted once", func(t *testing.T) {
		rec := record(t, "c1", "character", `{"lore": {"text": ""}}`)
		host := newFakeHost(rec)
		host.schema = &config.Schema{Version: 1, RecordTypes: []config.RecordType{
			{Name: "character", Fields: []config.Field{{Path: "system.lore.text", Type: "html"}}},
		}}
		suggester := &fakeSuggester{path: "system.lore.text"}
		r := New(host, suggester, Options{SemanticEnabled: true}, zap.NewNop())

		res := r.WriteBest(ctx, rec, "legend")
		if !res.OK || res.Path != "system.lore.text" {
			t.Fatalf("WriteBest() = %+v", res)
		}
		if suggester.calls != 1 {
			t.Fatalf("suggester called %d times, want 1", suggester.calls)
		}
		if diff := cmp.Diff([]string{"system.lore.text"}, suggester.pool); diff != "" {
			t.Errorf("suggestion pool mismatch (-want +got):\n%s", diff)
		}
		if got := r.Read(ctx, rec); got != "legend" {
			t.Fatalf("Read() after write = %q", got)
		}
	})

	t.Run("failed paths are not offered again", func(t *testing.T) {
		rec := record(t, "c1", "character", `{"details": {"biography": {"value": ""}}, "notes": ""}`)
		host := newFakeHost(rec)
		host.reject = func(string) bool { return true }
		suggester := &fakeSuggester{path: "system.notes"}
		r := New(host, suggester, Options{SemanticEnabled: true}, zap.NewNop())

		res := r.WriteBest(ctx, rec, "legend")
		if res.OK {
			t.Fatalf("WriteBest() = %+v", res)
		}
		if diff := cmp.Diff([]string{"system.notes"}, suggester.pool); diff != "" {
			t.Errorf("suggestion pool mismatch (-want +got):\n%s", diff)
		}
		if len(host.updates) != 3 {
			t.Fatalf("host saw %d updates, want 3", len(host.updates))
		}
		want := []string{BiographyValue, BiographyPublic, "system.notes"}
		if diff := cmp.Diff(want, res.PathsTried); diff != "" {
			t.Errorf("PathsTried mismatch (-want +got):\n%s", diff)
		}
	})
}
