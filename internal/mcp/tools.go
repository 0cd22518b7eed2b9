package mcp

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"lorefield/internal/aggregate"
	"lorefield/internal/attr"
	"lorefield/internal/config"
	"lorefield/internal/markup"
	"lorefield/internal/profile"
	"lorefield/internal/store"
)

type GetRecordInput struct {
	ID string `json:"id" jsonschema:"record id"`
}

type ListRecordsInput struct {
	Type    string `json:"type,omitempty" jsonschema:"record type filter"`
	Profile string `json:"profile,omitempty" jsonschema:"schema profile filter"`
}

type SearchRecordsInput struct {
	Query string `json:"query" jsonschema:"search terms"`
	Type  string `json:"type,omitempty" jsonschema:"restrict to a specific record type"`
}

type ReadNarrativeInput struct {
	ID       string `json:"id" jsonschema:"record id"`
	Markdown bool   `json:"markdown,omitempty" jsonschema:"convert the stored HTML to markdown"`
}

type WriteNarrativeInput struct {
	ID       string `json:"id" jsonschema:"record id"`
	Text     string `json:"text" jsonschema:"narrative HTML, or markdown when markdown is set"`
	Markdown bool   `json:"markdown,omitempty" jsonschema:"treat text as markdown"`
}

type AggregateNarrativeInput struct {
	ID                 string `json:"id" jsonschema:"record id"`
	IncludeFieldLabels bool   `json:"include_field_labels,omitempty" jsonschema:"prefix each field with a heading"`
	PreserveVisibility bool   `json:"preserve_visibility,omitempty" jsonschema:"omit fields the record marks hidden"`
	Markdown           bool   `json:"markdown,omitempty" jsonschema:"also return a markdown rendition"`
}

type DiscoverFieldsInput struct {
	ID string `json:"id" jsonschema:"record id"`
}

type GetSchemaInput struct{}

type RecordOutput struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Profile    string `json:"profile"`
	Name       string `json:"name"`
	Img        string `json:"img,omitempty"`
	ParentID   string `json:"parent_id,omitempty"`
	SourceFile string `json:"source_file,omitempty"`
	SourceHash string `json:"source_hash,omitempty"`

	// Description is read from the fixed profile layout, not resolved.
	Description string                `json:"description,omitempty"`
	System      any                   `json:"system"`
	Embedded    []RecordSummaryOutput `json:"embedded,omitempty"`
}

type RecordSummaryOutput struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Profile  string `json:"profile"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

type ListRecordsOutput struct {
	Records []RecordSummaryOutput `json:"records"`
}

type SearchResultOutput struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Profile string  `json:"profile"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet,omitempty"`
}

type SearchRecordsOutput struct {
	Results []SearchResultOutput `json:"results"`
}

type ReadNarrativeOutput struct {
	Found      bool     `json:"found"`
	Path       string   `json:"path,omitempty"`
	Text       string   `json:"text"`
	PathsTried []string `json:"paths_tried,omitempty"`
}

type WriteNarrativeOutput struct {
	OK         bool     `json:"ok"`
	Path       string   `json:"path,omitempty"`
	PathsTried []string `json:"paths_tried,omitempty"`
}

type AggregateNarrativeOutput struct {
	Text      string                  `json:"text"`
	Converted string                  `json:"converted,omitempty"`
	Fields    []aggregate.FieldRecord `json:"fields"`
}

type CandidateOutput struct {
	Path  string `json:"path"`
	Score int    `json:"score"`
}

type DiscoverFieldsOutput struct {
	Candidates []CandidateOutput        `json:"candidates"`
	Fields     []aggregate.FieldRecord `json:"fields"`
}

type SchemaOutput struct {
	Version     int                `json:"version"`
	RecordTypes []RecordTypeOutput `json:"record_types"`
}

type RecordTypeOutput struct {
	Name    string        `json:"name"`
	Profile string        `json:"profile,omitempty"`
	Fields  []FieldOutput `json:"fields"`
}

type FieldOutput struct {
	Path string `json:"path"`
	Type string `json:"type,omitempty"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_record",
		Description: "Retrieve a record with its attribute tree and embedded records",
	}, s.handleGetRecord)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_records",
		Description: "List records with optional type and profile filters",
	}, s.handleListRecords)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_records",
		Description: "Search records by name and narrative text",
	}, s.handleSearchRecords)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "read_narrative",
		Description: "Read the best narrative field of a record",
	}, s.handleReadNarrative)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "write_narrative",
		Description: "Write narrative text into the best field the record accepts",
	}, s.handleWriteNarrative)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "aggregate_narrative",
		Description: "Combine every narrative field of a record into one document",
	}, s.handleAggregateNarrative)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "discover_fields",
		Description: "List ranked narrative candidates and every narrative field of a record",
	}, s.handleDiscoverFields)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_schema",
		Description: "Return the current record schema",
	}, s.handleGetSchema)
}

func (s *Server) loadRecord(ctx context.Context, id string) (*store.Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id is required")
	}
	rec, err := s.db.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("record %q: %w", id, store.ErrNotFound)
	}
	return rec, nil
}

func (s *Server) handleGetRecord(ctx context.Context, req *sdk.CallToolRequest, input GetRecordInput) (*sdk.CallToolResult, RecordOutput, error) {
	rec, err := s.loadRecord(ctx, input.ID)
	if err != nil {
		return nil, RecordOutput{}, err
	}
	embedded, err := s.db.ListEmbedded(ctx, rec.ID)
	if err != nil {
		return nil, RecordOutput{}, err
	}

	out := recordOutputFromStore(rec)
	for _, child := range embedded {
		out.Embedded = append(out.Embedded, RecordSummaryOutput{
			ID:       child.ID,
			Type:     child.Type,
			Profile:  child.Profile,
			Name:     child.Name,
			ParentID: child.ParentID,
		})
	}
	return nil, out, nil
}

func (s *Server) handleListRecords(ctx context.Context, req *sdk.CallToolRequest, input ListRecordsInput) (*sdk.CallToolResult, ListRecordsOutput, error) {
	items, err := s.db.ListRecords(ctx, input.Type, input.Profile)
	if err != nil {
		return nil, ListRecordsOutput{}, err
	}

	output := make([]RecordSummaryOutput, 0, len(items))
	for _, item := range items {
		output = append(output, RecordSummaryOutput{
			ID:       item.ID,
			Type:     item.Type,
			Profile:  item.Profile,
			Name:     item.Name,
			ParentID: item.ParentID,
		})
	}
	return nil, ListRecordsOutput{Records: output}, nil
}

func (s *Server) handleSearchRecords(ctx context.Context, req *sdk.CallToolRequest, input SearchRecordsInput) (*sdk.CallToolResult, SearchRecordsOutput, error) {
	if input.Query == "" {
		return nil, SearchRecordsOutput{}, fmt.Errorf("query is required")
	}
	results, err := s.db.Search(ctx, input.Query, input.Type)
	if err != nil {
		return nil, SearchRecordsOutput{}, err
	}

	output := make([]SearchResultOutput, 0, len(results))
	for _, result := range results {
		output = append(output, SearchResultOutput{
			ID:      result.ID,
			Name:    result.Name,
			Type:    result.Type,
			Profile: result.Profile,
			Score:   result.Score,
			Snippet: result.Snippet,
		})
	}
	return nil, SearchRecordsOutput{Results: output}, nil
}

func (s *Server) handleReadNarrative(ctx context.Context, req *sdk.CallToolRequest, input ReadNarrativeInput) (*sdk.CallToolResult, ReadNarrativeOutput, error) {
	rec, err := s.loadRecord(ctx, input.ID)
	if err != nil {
		return nil, ReadNarrativeOutput{}, err
	}

	result := s.resolver.ReadBest(ctx, rec)
	text := result.Value
	if input.Markdown {
		text = markup.ToMarkdown(text)
	}
	return nil, ReadNarrativeOutput{
		Found:      result.OK,
		Path:       result.Path,
		Text:       text,
		PathsTried: result.PathsTried,
	}, nil
}

func (s *Server) handleWriteNarrative(ctx context.Context, req *sdk.CallToolRequest, input WriteNarrativeInput) (*sdk.CallToolResult, WriteNarrativeOutput, error) {
	rec, err := s.loadRecord(ctx, input.ID)
	if err != nil {
		return nil, WriteNarrativeOutput{}, err
	}

	body := input.Text
	if input.Markdown {
		body, err = markup.FromMarkdown(body)
		if err != nil {
			return nil, WriteNarrativeOutput{}, err
		}
	}
	result := s.resolver.WriteBest(ctx, rec, markup.Sanitize(body))
	if !result.OK {
		s.logger.Info("narrative tool write rejected", zap.String("record", rec.ID))
	}
	return nil, WriteNarrativeOutput{
		OK:         result.OK,
		Path:       result.Path,
		PathsTried: result.PathsTried,
	}, nil
}

func (s *Server) handleAggregateNarrative(ctx context.Context, req *sdk.CallToolRequest, input AggregateNarrativeInput) (*sdk.CallToolResult, AggregateNarrativeOutput, error) {
	rec, err := s.loadRecord(ctx, input.ID)
	if err != nil {
		return nil, AggregateNarrativeOutput{}, err
	}

	result := s.aggregator.Aggregate(rec, aggregate.Options{
		IncludeFieldLabels: input.IncludeFieldLabels,
		PreserveVisibility: input.PreserveVisibility,
		ConvertToFormat:    input.Markdown,
	})
	fields := result.Fields
	if fields == nil {
		fields = []aggregate.FieldRecord{}
	}
	return nil, AggregateNarrativeOutput{
		Text:      result.StructuredText,
		Converted: result.ConvertedText,
		Fields:    fields,
	}, nil
}

func (s *Server) handleDiscoverFields(ctx context.Context, req *sdk.CallToolRequest, input DiscoverFieldsInput) (*sdk.CallToolResult, DiscoverFieldsOutput, error) {
	rec, err := s.loadRecord(ctx, input.ID)
	if err != nil {
		return nil, DiscoverFieldsOutput{}, err
	}

	candidates := s.resolver.Candidates(rec)
	out := DiscoverFieldsOutput{
		Candidates: make([]CandidateOutput, 0, len(candidates)),
		Fields:     aggregate.DiscoverAll(rec),
	}
	for _, c := range candidates {
		out.Candidates = append(out.Candidates, CandidateOutput{Path: c.Path, Score: c.Score})
	}
	if out.Fields == nil {
		out.Fields = []aggregate.FieldRecord{}
	}
	return nil, out, nil
}

func (s *Server) handleGetSchema(ctx context.Context, req *sdk.CallToolRequest, input GetSchemaInput) (*sdk.CallToolResult, SchemaOutput, error) {
	return nil, schemaOutputFromConfig(s.schema), nil
}

func schemaOutputFromConfig(schema *config.Schema) SchemaOutput {
	if schema == nil {
		return SchemaOutput{RecordTypes: []RecordTypeOutput{}}
	}

	out := SchemaOutput{
		Version:     schema.Version,
		RecordTypes: make([]RecordTypeOutput, 0, len(schema.RecordTypes)),
	}
	for _, rt := range schema.RecordTypes {
		typeOut := RecordTypeOutput{
			Name:    rt.Name,
			Profile: rt.Profile,
			Fields:  make([]FieldOutput, 0, len(rt.Fields)),
		}
		for _, field := range rt.Fields {
			typeOut.Fields = append(typeOut.Fields, FieldOutput{Path: field.Path, Type: field.Type})
		}
		out.RecordTypes = append(out.RecordTypes, typeOut)
	}
	return out
}

func recordOutputFromStore(rec *store.Record) RecordOutput {
	return RecordOutput{
		ID:          rec.ID,
		Type:        rec.Type,
		Profile:     rec.Profile,
		Name:        profile.Name(rec),
		Img:         profile.Image(rec),
		ParentID:    rec.ParentID,
		SourceFile:  rec.SourceFile,
		SourceHash:  rec.SourceHash,
		Description: profile.Description(rec),
		System:      attr.ToAny(rec.System),
	}
}
