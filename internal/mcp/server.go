package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"lorefield/internal/aggregate"
	"lorefield/internal/config"
	"lorefield/internal/resolve"
	"lorefield/internal/store"
)

// Querier is the slice of the store the tools read and write through.
type Querier interface {
	resolve.Host
	ListRecords(ctx context.Context, recordType, profile string) ([]store.RecordSummary, error)
	ListEmbedded(ctx context.Context, parentID string) ([]store.Record, error)
	Search(ctx context.Context, query, recordType string) ([]store.SearchResult, error)
}

type Server struct {
	schema     *config.Schema
	db         Querier
	resolver   *resolve.Resolver
	aggregator *aggregate.Aggregator
	logger     *zap.Logger
	mcp        *sdk.Server
}

// NewServer wires the tools. A nil resolver falls back to one without
// semantic mapping.
func NewServer(schema *config.Schema, db Querier, resolver *resolve.Resolver, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = resolve.New(db, nil, resolve.Options{}, logger)
	}
	s := &Server{
		schema:     schema,
		db:         db,
		resolver:   resolver,
		aggregator: aggregate.New(nil, logger),
		logger:     logger,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "lorefield",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
