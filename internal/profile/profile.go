// Package profile reads a record's display fields from the fixed paths each
// known rule system uses. It never writes and never searches.
package profile

import (
	"strings"

	"lorefield/internal/attr"
	"lorefield/internal/store"
)

const (
	DnD5e = "dnd5e"
	PF2e  = "pf2e"
)

var descriptionPaths = map[string]map[store.Kind][]string{
	DnD5e: {
		store.KindCharacter: {"system.details.biography.value", "system.details.biography.public"},
		store.KindNPC:       {"system.details.biography.value", "system.details.biography.public"},
		store.KindItem:      {"system.description.value", "system.description.chat"},
	},
	PF2e: {
		store.KindCharacter: {"system.details.biography.backstory", "system.details.biography.appearance"},
		store.KindNPC:       {"system.details.publicNotes", "system.details.privateNotes"},
		store.KindItem:      {"system.description.value"},
	},
	"": {
		store.KindCharacter: {"system.details.biography.value", "system.biography", "system.description.value", "system.notes"},
		store.KindNPC:       {"system.details.biography.value", "system.details.publicNotes", "system.description.value", "system.notes"},
		store.KindItem:      {"system.description.value", "system.description", "system.notes"},
	},
}

func Name(rec *store.Record) string {
	if rec == nil {
		return ""
	}
	return strings.TrimSpace(rec.Name)
}

func Image(rec *store.Record) string {
	if rec == nil {
		return ""
	}
	return rec.Img
}

// Description returns the first non-blank string among the fixed description
// paths for the record's profile and kind, or "".
func Description(rec *store.Record) string {
	if rec == nil {
		return ""
	}
	root := rec.Root()
	for _, path := range DescriptionPaths(rec.Profile, rec.Kind()) {
		if v, ok := attr.Lookup(root, path); ok {
			if text, ok := attr.Text(v); ok {
				return text
			}
		}
	}
	return ""
}

// DescriptionPaths lists where profile keeps the description of a kind.
// Unknown profiles use the generic layout; kinds other than item read like
// characters.
func DescriptionPaths(profile string, kind store.Kind) []string {
	layouts, ok := descriptionPaths[strings.ToLower(strings.TrimSpace(profile))]
	if !ok {
		layouts = descriptionPaths[""]
	}
	if paths, ok := layouts[kind]; ok {
		return paths
	}
	return layouts[store.KindCharacter]
}
