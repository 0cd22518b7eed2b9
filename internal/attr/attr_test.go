package attr

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func mustDecode(t *testing.T, data string) *Node {
	t.Helper()
	node, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return node
}

func TestDecodeKeepsKeyOrder(t *testing.T) {
	node := mustDecode(t, `{"zeta":1,"alpha":{"b":"x","a":true},"mid":[1,"two",null]}`)

	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, node.Keys()); diff != "" {
		t.Fatalf("unexpected key order (-want +got):\n%s", diff)
	}
	alpha, _ := node.Get("alpha")
	if diff := cmp.Diff([]string{"b", "a"}, alpha.(*Node).Keys()); diff != "" {
		t.Fatalf("unexpected nested key order (-want +got):\n%s", diff)
	}

	out, err := node.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"zeta":1,"alpha":{"b":"x","a":true},"mid":[1,"two",null]}`
	if string(out) != want {
		t.Fatalf("expected %s, got %s", want, out)
	}
}

func TestDecodeRejectsNonObject(t *testing.T) {
	if _, err := Decode([]byte(`[1,2]`)); err == nil {
		t.Fatalf("expected error")
	}
	node, err := Decode([]byte("  "))
	if err != nil || node.Len() != 0 {
		t.Fatalf("expected empty node, got %v %v", node, err)
	}
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	for _, input := range []string{
		`{} junk`,
		`{"a":1} {}`,
		`null null`,
		`{"a":1}]`,
	} {
		if _, err := Decode([]byte(input)); err == nil {
			t.Errorf("Decode(%q): expected error", input)
		}
	}

	node := mustDecode(t, "{\"a\":1}\n\t ")
	if diff := cmp.Diff([]string{"a"}, node.Keys()); diff != "" {
		t.Fatalf("trailing whitespace should be accepted (-want +got):\n%s", diff)
	}
}

func TestLookupAndStringAt(t *testing.T) {
	root := mustDecode(t, `{"system":{"details":{"biography":{"value":"<p>Hi</p>"},"level":3}}}`)

	if got, ok := StringAt(root, "system.details.biography.value"); !ok || got != "<p>Hi</p>" {
		t.Fatalf("unexpected value %q %v", got, ok)
	}
	if _, ok := StringAt(root, "system.details.level"); ok {
		t.Fatalf("number leaf must not read as string")
	}
	if _, ok := Lookup(root, "system.details.level.deeper"); ok {
		t.Fatalf("lookup through a leaf must fail")
	}
	if _, ok := Lookup(nil, "system"); ok {
		t.Fatalf("nil root must not resolve")
	}
	if _, ok := Lookup(root, ""); ok {
		t.Fatalf("empty path must not resolve")
	}
}

func TestSetPathAndMerge(t *testing.T) {
	dst := mustDecode(t, `{"system":{"details":{"biography":{"value":"old","public":"pub"},"level":2}}}`)

	patch := NewNode()
	SetPath(patch, "system.details.biography.value", String("new"))
	SetPath(patch, "system.notes", String("n"))
	Merge(dst, patch)

	if got, _ := StringAt(dst, "system.details.biography.value"); got != "new" {
		t.Fatalf("expected merged value, got %q", got)
	}
	if got, _ := StringAt(dst, "system.details.biography.public"); got != "pub" {
		t.Fatalf("sibling must survive merge, got %q", got)
	}
	if got, _ := StringAt(dst, "system.notes"); got != "n" {
		t.Fatalf("expected new key, got %q", got)
	}

	// mutating the patch afterwards must not leak into dst
	SetPath(patch, "system.notes", String("changed"))
	if got, _ := StringAt(dst, "system.notes"); got != "n" {
		t.Fatalf("merge must copy values, got %q", got)
	}
}

func TestSetPathReplacesLeafOnTheWay(t *testing.T) {
	patch := mustDecode(t, `{"system":{"biography":"flat"}}`)
	SetPath(patch, "system.biography.value", String("nested"))
	if got, _ := StringAt(patch, "system.biography.value"); got != "nested" {
		t.Fatalf("expected nested value, got %q", got)
	}
}

func TestFilter(t *testing.T) {
	patch := mustDecode(t, `{"system":{"details":{"biography":{"value":"a","public":"b"}},"junk":"c"}}`)
	allowed := map[string]bool{"system.details.biography.value": true}

	out := Filter(patch, func(path string) bool { return allowed[path] })

	if diff := cmp.Diff([]string{"system.details.biography.value"}, Leaves(out)); diff != "" {
		t.Fatalf("unexpected leaves (-want +got):\n%s", diff)
	}
}

func TestFromYAMLKeepsOrder(t *testing.T) {
	var doc yaml.Node
	src := "details:\n  zeal: 1\n  biography:\n    value: hello\n  flags: [true, 2.5, ~]\n"
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	value, err := FromYAML(&doc)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	node := value.(*Node)
	details, _ := node.Get("details")
	if diff := cmp.Diff([]string{"zeal", "biography", "flags"}, details.(*Node).Keys()); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	flags, _ := Lookup(node, "details.flags")
	list := flags.(List)
	if list[0] != Bool(true) || list[1] != Number(2.5) || list[2] != (Null{}) {
		t.Fatalf("unexpected scalars: %#v", list)
	}
}

func TestFromAnyAndBack(t *testing.T) {
	in := map[string]any{"b": "x", "a": map[string]any{"n": 3, "ok": true}}
	node := NodeFromMap(in)
	if diff := cmp.Diff([]string{"a", "b"}, node.Keys()); diff != "" {
		t.Fatalf("map keys must be sorted (-want +got):\n%s", diff)
	}
	out := ToAny(node).(map[string]any)
	if out["b"] != "x" || out["a"].(map[string]any)["n"] != float64(3) {
		t.Fatalf("unexpected round trip: %#v", out)
	}
}

func TestText(t *testing.T) {
	if _, ok := Text(String("   ")); ok {
		t.Fatalf("whitespace must not count as text")
	}
	if _, ok := Text(Number(1)); ok {
		t.Fatalf("numbers are not text")
	}
	if s, ok := Text(String(" hi ")); !ok || s != " hi " {
		t.Fatalf("text must be returned untrimmed, got %q", s)
	}
}

func TestWords(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"backstory", "Backstory"},
		{"publicNotes", "Public Notes"},
		{"catch_phrases", "Catch Phrases"},
		{"HTMLBody", "HTML Body"},
		{"birth-place", "Birth Place"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := TitleWords(tt.in); got != tt.want {
			t.Errorf("TitleWords(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
