package store

import (
	"testing"

	"lorefield/internal/attr"
	"lorefield/internal/config"
)

func TestApplyPatch(t *testing.T) {
	rec := &Record{ID: "a1", Type: "character", Name: "Old"}
	patch := attr.NewNode()
	attr.SetPath(patch, "system.details.biography.value", attr.String("bio"))
	patch.Set("name", attr.String("New"))
	patch.Set("flags", attr.String("ignored"))

	ApplyPatch(rec, patch, nil)

	if rec.Name != "New" {
		t.Fatalf("expected name update, got %q", rec.Name)
	}
	if got, _ := attr.StringAt(rec.Root(), "system.details.biography.value"); got != "bio" {
		t.Fatalf("expected biography, got %q", got)
	}
}

func TestApplyPatchDropsUndeclaredFields(t *testing.T) {
	schema := &config.Schema{
		Version: 1,
		RecordTypes: []config.RecordType{{
			Name:   "item",
			Fields: []config.Field{{Path: "system.description.value"}},
		}},
	}
	rec := &Record{ID: "i1", Type: "item"}
	patch := attr.NewNode()
	attr.SetPath(patch, "system.details.biography.value", attr.String("nope"))
	attr.SetPath(patch, "system.description.value", attr.String("yes"))

	ApplyPatch(rec, patch, schema)

	if _, ok := attr.Lookup(rec.Root(), "system.details"); ok {
		t.Fatalf("undeclared path must be dropped")
	}
	if got, _ := attr.StringAt(rec.Root(), "system.description.value"); got != "yes" {
		t.Fatalf("expected declared path to be written, got %q", got)
	}
}

func TestKind(t *testing.T) {
	cases := map[string]Kind{
		"character": KindCharacter,
		"NPC":       KindNPC,
		"weapon":    KindItem,
		"journal":   KindOther,
	}
	for typ, want := range cases {
		rec := &Record{Type: typ}
		if got := rec.Kind(); got != want {
			t.Errorf("Kind(%q) = %q, want %q", typ, got, want)
		}
	}
}

func TestSearchText(t *testing.T) {
	sys, err := attr.Decode([]byte(`{"a":"one","b":{"c":"two","d":3},"e":"  "}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := SearchText(&Record{System: sys}); got != "one\ntwo" {
		t.Fatalf("unexpected search text %q", got)
	}
}

func TestRootLeavesRecordUnchanged(t *testing.T) {
	rec := &Record{ID: "a1", Type: "npc"}
	root := rec.Root()
	if rec.System != nil {
		t.Fatalf("Root() set System on a record without one")
	}
	if _, ok := attr.Lookup(root, SystemKey); !ok {
		t.Fatalf("expected an empty system node under the root")
	}

	rec.System = attr.NewNode()
	rec.System.Set("hp", attr.Number(3))
	if v, _ := attr.Lookup(rec.Root(), "system.hp"); v != attr.Number(3) {
		t.Fatalf("system.hp = %v, want 3", v)
	}
}
