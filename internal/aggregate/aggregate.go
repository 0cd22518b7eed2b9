// Package aggregate collects every narrative field of a record into a single
// document.
package aggregate

import (
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"lorefield/internal/attr"
	"lorefield/internal/markup"
	"lorefield/internal/resolve"
	"lorefield/internal/store"
)

// FieldRecord is one narrative leaf found on a record.
type FieldRecord struct {
	Path      string `json:"path"`
	Value     string `json:"value"`
	FieldName string `json:"field_name"`
}

type Options struct {
	IncludeFieldLabels bool
	PreserveVisibility bool
	ConvertToFormat    bool
}

type Result struct {
	StructuredText string
	ConvertedText  string
	Fields         []FieldRecord
}

// Converter turns the structured HTML into a lighter text format.
type Converter func(html string) string

var priority = map[string]int{
	"biography":   1000,
	"bio":         1000,
	"backstory":   900,
	"appearance":  800,
	"description": 700,
	"personality": 600,
	"traits":      500,
	"background":  400,
	"history":     300,
	"notes":       200,
	"summary":     100,
}

var valueLike = map[string]struct{}{
	"value":   {},
	"public":  {},
	"text":    {},
	"content": {},
}

// DiscoverAll returns every non-empty narrative leaf of rec in document
// order, values trimmed.
func DiscoverAll(rec *store.Record) []FieldRecord {
	if rec == nil {
		return nil
	}
	root := rec.Root()
	paths := resolve.Scan(rec.System, store.SystemKey, resolve.NarrativePattern, resolve.DefaultMaxDepth)

	fields := make([]FieldRecord, 0, len(paths))
	for _, path := range paths {
		value, _ := attr.StringAt(root, path)
		fields = append(fields, FieldRecord{
			Path:      path,
			Value:     strings.TrimSpace(value),
			FieldName: fieldName(path),
		})
	}
	return fields
}

func fieldName(path string) string {
	parent, last := attr.Parent(path)
	if _, ok := valueLike[strings.ToLower(last)]; ok && parent != "" {
		_, name := attr.Parent(parent)
		if name != store.SystemKey {
			return name
		}
	}
	return last
}

type Aggregator struct {
	convert Converter
	logger  *zap.Logger
}

// New returns an Aggregator converting with convert, or with Markdown when
// convert is nil.
func New(convert Converter, logger *zap.Logger) *Aggregator {
	if convert == nil {
		convert = markup.ToMarkdown
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{convert: convert, logger: logger}
}

// Aggregate orders the narrative fields of rec by priority, drops hidden ones
// when asked, and joins them into one HTML document. Fields in the result are
// the ones included, in output order.
func (a *Aggregator) Aggregate(rec *store.Record, opts Options) Result {
	fields := DiscoverAll(rec)
	if len(fields) == 0 {
		return Result{}
	}

	sort.SliceStable(fields, func(i, j int) bool {
		return priorityOf(fields[i].FieldName) > priorityOf(fields[j].FieldName)
	})

	root := rec.Root()
	parts := make([]string, 0, len(fields))
	included := make([]FieldRecord, 0, len(fields))
	for _, f := range fields {
		if opts.PreserveVisibility && hidden(root, f) {
			a.logger.Debug("narrative field hidden", zap.String("record", rec.ID), zap.String("path", f.Path))
			continue
		}
		var part strings.Builder
		if opts.IncludeFieldLabels {
			part.WriteString("<h2>" + html.EscapeString(attr.TitleWords(f.FieldName)) + "</h2>\n")
		}
		if isMarkup(f.Value) {
			part.WriteString(f.Value)
		} else {
			part.WriteString("<p>" + html.EscapeString(f.Value) + "</p>")
		}
		parts = append(parts, part.String())
		included = append(included, f)
	}

	res := Result{
		StructuredText: strings.Join(parts, "\n\n"),
		Fields:         included,
	}
	if opts.ConvertToFormat && res.StructuredText != "" {
		res.ConvertedText = a.convert(res.StructuredText)
	}
	return res
}

func priorityOf(name string) int {
	return priority[strings.ToLower(name)]
}

// hidden reports whether a visibility flag next to the field is explicitly
// false. Missing or non-boolean flags leave the field visible.
func hidden(root *attr.Node, f FieldRecord) bool {
	parent, last := attr.Parent(f.Path)
	var flags []string
	if _, ok := valueLike[strings.ToLower(last)]; ok {
		container := parent
		grand, _ := attr.Parent(container)
		flags = append(flags,
			attr.Join(container, "visible"),
			attr.Join(grand, "visibility", f.FieldName))
	} else {
		flags = append(flags, attr.Join(parent, "visibility", f.FieldName))
	}
	for _, path := range flags {
		if v, ok := attr.Lookup(root, path); ok {
			if b, ok := v.(attr.Bool); ok && !bool(b) {
				return true
			}
		}
	}
	return false
}

func isMarkup(s string) bool {
	return strings.HasPrefix(s, "<") && strings.Contains(s, ">")
}
