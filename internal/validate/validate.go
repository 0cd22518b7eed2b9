package validate

import (
	"context"
	"fmt"

	"lorefield/internal/attr"
	"lorefield/internal/config"
	"lorefield/internal/resolve"
	"lorefield/internal/store"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeUnknownType        = "unknown_record_type"
	codeUndeclaredField    = "undeclared_attribute"
	codeNoNarrativeField   = "no_narrative_field"
	codeEmptyNarrative     = "empty_narrative"
	codeDivergentBiography = "divergent_biography"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Record   string
	Name     string
	FilePath string
}

type Report struct {
	Issues []Issue
}

type Store interface {
	ListRecordsWithAttributes(ctx context.Context) ([]store.Record, error)
}

// Run checks every stored record. A nil schema skips the type and attribute
// checks.
func Run(ctx context.Context, schema *config.Schema, db Store) (*Report, error) {
	if db == nil {
		return nil, fmt.Errorf("store is required")
	}

	records, err := db.ListRecordsWithAttributes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	resolver := resolve.New(nil, nil, resolve.Options{}, nil)
	issues := make([]Issue, 0)
	for i := range records {
		rec := &records[i]
		if schema != nil {
			issues = append(issues, validateType(rec, schema)...)
		}
		issues = append(issues, validateNarrative(ctx, rec, resolver)...)
	}

	return &Report{Issues: issues}, nil
}

func validateType(rec *store.Record, schema *config.Schema) []Issue {
	if !schema.IsValidRecordType(rec.Type) {
		return []Issue{newIssue(rec, SeverityError, codeUnknownType,
			fmt.Sprintf("record type %q is not declared in the schema", rec.Type))}
	}

	var issues []Issue
	for _, leaf := range attr.Leaves(rec.System) {
		path := attr.Join(store.SystemKey, leaf)
		if !schema.AllowsPath(rec.Type, path) {
			issues = append(issues, newIssue(rec, SeverityWarn, codeUndeclaredField,
				fmt.Sprintf("attribute %s is not declared for %s and will be dropped on update", path, rec.Type)))
		}
	}
	return issues
}

func validateNarrative(ctx context.Context, rec *store.Record, resolver *resolve.Resolver) []Issue {
	var issues []Issue
	root := rec.Root()

	present := false
	for _, c := range resolver.Candidates(rec) {
		if _, ok := attr.StringAt(root, c.Path); ok {
			present = true
			break
		}
	}
	switch {
	case !present:
		issues = append(issues, newIssue(rec, SeverityWarn, codeNoNarrativeField, "no narrative field present"))
	case resolver.Read(ctx, rec) == "":
		issues = append(issues, newIssue(rec, SeverityWarn, codeEmptyNarrative, "narrative fields are all empty"))
	}

	value, hasValue := attr.StringAt(root, resolve.BiographyValue)
	public, hasPublic := attr.StringAt(root, resolve.BiographyPublic)
	if hasValue && hasPublic && value != "" && public != "" && value != public {
		issues = append(issues, newIssue(rec, SeverityWarn, codeDivergentBiography,
			"biography value and public fields differ"))
	}
	return issues
}

func newIssue(rec *store.Record, severity Severity, code, message string) Issue {
	return Issue{
		Severity: severity,
		Code:     code,
		Message:  message,
		Record:   rec.ID,
		Name:     rec.Name,
		FilePath: rec.SourceFile,
	}
}
