package store

import (
	"strings"

	"lorefield/internal/attr"
	"lorefield/internal/config"
)

// ApplyPatch merges patch into r the way a host update does: "system" merges
// into the attribute tree, top-level "name" and "img" strings replace the
// corresponding fields, anything else is ignored. Leaves rejected by schema
// are dropped first.
func ApplyPatch(r *Record, patch *attr.Node, schema *config.Schema) {
	if r == nil || patch == nil {
		return
	}
	cleaned := attr.Filter(patch, func(path string) bool {
		return schema.AllowsPath(r.Type, path)
	})

	if v, ok := cleaned.Get("name"); ok {
		if s, ok := v.(attr.String); ok {
			r.Name = string(s)
		}
	}
	if v, ok := cleaned.Get("img"); ok {
		if s, ok := v.(attr.String); ok {
			r.Img = string(s)
		}
	}
	if v, ok := cleaned.Get(SystemKey); ok {
		if sys, ok := v.(*attr.Node); ok {
			if r.System == nil {
				r.System = attr.NewNode()
			}
			attr.Merge(r.System, sys)
		}
	}
}

// SearchText flattens every string leaf of the attribute tree into one
// document for full-text indexing.
func SearchText(r *Record) string {
	if r == nil || r.System == nil {
		return ""
	}
	var parts []string
	for _, path := range attr.Leaves(r.System) {
		if s, ok := attr.StringAt(r.System, path); ok && strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}
