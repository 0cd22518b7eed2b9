package profile

import (
	"testing"

	"lorefield/internal/attr"
	"lorefield/internal/store"
)

func rec(t *testing.T, profile, recordType, system string) *store.Record {
	t.Helper()
	tree, err := attr.Decode([]byte(system))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return &store.Record{ID: "r", Type: recordType, Profile: profile, Name: "  Mira ", Img: "mira.webp", System: tree}
}

func TestDescription(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		typ     string
		system  string
		want    string
	}{
		{"dnd5e character value", "dnd5e", "character", `{"details": {"biography": {"value": "V", "public": "P"}}}`, "V"},
		{"dnd5e falls to public", "DnD5e", "npc", `{"details": {"biography": {"value": " ", "public": "P"}}}`, "P"},
		{"dnd5e item", "dnd5e", "weapon", `{"description": {"value": "", "chat": "C"}}`, "C"},
		{"pf2e character backstory", "pf2e", "character", `{"details": {"biography": {"backstory": "B", "appearance": "A"}}}`, "B"},
		{"pf2e npc notes", "pf2e", "npc", `{"details": {"publicNotes": "N"}}`, "N"},
		{"pf2e npc ignores character layout", "pf2e", "npc", `{"details": {"biography": {"backstory": "B"}}}`, ""},
		{"generic character", "swade", "character", `{"biography": "G"}`, "G"},
		{"generic npc", "", "monster", `{"details": {"publicNotes": "Lurks"}}`, "Lurks"},
		{"generic item", "", "loot", `{"description": "Shiny"}`, "Shiny"},
		{"generic other kind reads like character", "", "journal", `{"notes": "n"}`, "n"},
		{"non-string ignored", "dnd5e", "character", `{"details": {"biography": {"value": 3}}}`, ""},
		{"missing", "dnd5e", "character", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Description(rec(t, tt.profile, tt.typ, tt.system)); got != tt.want {
				t.Errorf("Description() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNameAndImage(t *testing.T) {
	r := rec(t, "dnd5e", "character", `{}`)
	if got := Name(r); got != "Mira" {
		t.Errorf("Name() = %q", got)
	}
	if got := Image(r); got != "mira.webp" {
		t.Errorf("Image() = %q", got)
	}
	if Name(nil) != "" || Image(nil) != "" || Description(nil) != "" {
		t.Error("nil record should yield empty strings")
	}
}
