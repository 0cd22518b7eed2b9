package store

import (
	"context"
	"errors"

	"lorefield/internal/attr"
	"lorefield/internal/config"
)

var ErrNotFound = errors.New("record not found")

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context, schema *config.Schema) error

	UpsertRecord(ctx context.Context, r Record) error
	// UpdateRecord applies a partial patch rooted above "system". Leaves the
	// record schema does not declare are dropped silently.
	UpdateRecord(ctx context.Context, id string, patch *attr.Node) error
	CreateEmbedded(ctx context.Context, parentID string, entries []Record) error
	RemoveStaleRecords(ctx context.Context, currentSourceFiles []string) (int64, error)
	RemoveSourceRecords(ctx context.Context, sourceFile string, keepIDs []string) (int64, error)
	GetSourceHashes(ctx context.Context) (map[string]string, error)

	// GetRecord returns nil, nil when no record has the id.
	GetRecord(ctx context.Context, id string) (*Record, error)
	ListRecords(ctx context.Context, recordType, profile string) ([]RecordSummary, error)
	ListEmbedded(ctx context.Context, parentID string) ([]Record, error)
	ListRecordsWithAttributes(ctx context.Context) ([]Record, error)
	Search(ctx context.Context, query, recordType string) ([]SearchResult, error)

	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
