package parser

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	"lorefield/internal/attr"
)

func TestParse(t *testing.T) {
	t.Run("valid record with system tree", func(t *testing.T) {
		content := []byte("---\ntitle: Test NPC\ntype: npc\nprofile: pf2e\nid: npc-1\ntags: [guard, watch]\nsystem:\n  details:\n    publicNotes: Stern.\n    level: 3\n  traits: [human]\n---\n\nThis is the body describing the NPC.\n")
		doc, err := Parse(content)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Title != "Test NPC" || doc.Type != "npc" || doc.Profile != "pf2e" || doc.ID != "npc-1" {
			t.Fatalf("unexpected header fields: %+v", doc)
		}
		if doc.Body != "\nThis is the body describing the NPC.\n" {
			t.Fatalf("unexpected body %q", doc.Body)
		}
		if !reflect.DeepEqual(doc.Tags, []string{"guard", "watch"}) {
			t.Fatalf("unexpected tags: %#v", doc.Tags)
		}
		if diff := cmp.Diff([]string{"details", "traits"}, doc.System.Keys()); diff != "" {
			t.Fatalf("system keys mismatch (-want +got):\n%s", diff)
		}
		if s, _ := attr.StringAt(doc.System, "details.publicNotes"); s != "Stern." {
			t.Fatalf("publicNotes = %q", s)
		}
		if v, _ := attr.Lookup(doc.System, "details.level"); v != attr.Number(3) {
			t.Fatalf("level = %#v", v)
		}
	})

	t.Run("minimal frontmatter", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: Minimal\ntype: lore\n---\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Tags != nil {
			t.Fatalf("expected nil tags, got %#v", doc.Tags)
		}
		if doc.Body != "" {
			t.Fatalf("expected empty body, got %q", doc.Body)
		}
		if doc.System == nil || doc.System.Len() != 0 {
			t.Fatalf("expected empty system tree")
		}
	})

	t.Run("closing marker at end of file", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: End\ntype: lore\n---"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Title != "End" {
			t.Fatalf("unexpected title %q", doc.Title)
		}
	})

	t.Run("crlf line endings", func(t *testing.T) {
		doc, err := Parse([]byte("---\r\ntitle: Windows\r\ntype: lore\r\n---\r\nBody\r\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Body != "Body\n" {
			t.Fatalf("unexpected body %q", doc.Body)
		}
	})

	t.Run("items", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: Pack\ntype: character\nitems:\n  - name: Rope\n    type: loot\n    description: Fifty feet.\n  - name: Dagger\n    type: weapon\n    system:\n      damage: 1d4\n---\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(doc.Items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(doc.Items))
		}
		if doc.Items[0].Name != "Rope" || doc.Items[0].Description != "Fifty feet." {
			t.Fatalf("unexpected first item: %+v", doc.Items[0])
		}
		if s, _ := attr.StringAt(doc.Items[1].System, "damage"); s != "1d4" {
			t.Fatalf("unexpected dagger damage %q", s)
		}
	})

	errorCases := []struct {
		name    string
		content string
		want    error
	}{
		{"no frontmatter", "Just text", ErrNoFrontmatter},
		{"missing closing marker", "---\ntitle: Missing\n", ErrNoFrontmatter},
		{"invalid yaml", "---\ntitle: [\n---\n", ErrInvalidYAML},
		{"missing title", "---\ntype: npc\n---\n", ErrMissingTitle},
		{"missing type", "---\ntitle: Something\n---\n", ErrMissingType},
		{"system not a mapping", "---\ntitle: S\ntype: npc\nsystem: [1, 2]\n---\n", ErrInvalidSystem},
		{"item without name", "---\ntitle: S\ntype: npc\nitems:\n  - type: loot\n---\n", ErrMissingItemName},
		{"item without type", "---\ntitle: S\ntype: npc\nitems:\n  - name: Rope\n---\n", ErrInvalidItem},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.content))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	t.Run("tags single string", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: Tags\ntype: npc\ntags: lone\n---\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !reflect.DeepEqual(doc.Tags, []string{"lone"}) {
			t.Fatalf("unexpected tags: %#v", doc.Tags)
		}
	})

	t.Run("tags with non-string", func(t *testing.T) {
		if _, err := Parse([]byte("---\ntitle: Tags\ntype: npc\ntags: [1, {a: b}]\n---\n")); err == nil {
			t.Fatalf("expected error for non-string tags")
		}
	})
}

func TestParseFile(t *testing.T) {
	doc, err := ParseFile(filepath.Join("testdata", "valid_character.md"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if doc.Title != "Mira Thorne" || doc.Profile != "dnd5e" || doc.Img != "portraits/mira.webp" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.SourceFile == "" {
		t.Fatalf("expected source file set")
	}
	if len(doc.Items) != 1 || doc.Items[0].Type != "weapon" {
		t.Fatalf("unexpected items: %+v", doc.Items)
	}
	if s, _ := attr.StringAt(doc.System, "details.appearance"); s != "Tall, weathered, green cloak." {
		t.Fatalf("unexpected appearance %q", s)
	}
}

func TestParseFile_NoFrontmatter(t *testing.T) {
	_, err := ParseFile(filepath.Join("testdata", "no_frontmatter.md"))
	if !errors.Is(err, ErrNoFrontmatter) {
		t.Fatalf("expected ErrNoFrontmatter, got %v", err)
	}
}

func TestParseFile_MissingType(t *testing.T) {
	_, err := ParseFile(filepath.Join("testdata", "missing_type.md"))
	if !errors.Is(err, ErrMissingType) {
		t.Fatalf("expected ErrMissingType, got %v", err)
	}
}
