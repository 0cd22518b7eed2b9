package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lorefield/internal/config"
	"lorefield/internal/resolve"
	"lorefield/internal/semantic"
	"lorefield/internal/store"
	"lorefield/internal/store/postgres"
	"lorefield/internal/store/sqlite"
)

// loadConfig reads the project config and applies its log level unless
// --verbose already asked for debug output.
func loadConfig() (*config.ProjectConfig, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	if !verbose {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Log.Level, err)
		}
		logLevel.SetLevel(level)
	}
	return cfg, nil
}

// loadSchema returns nil when the schema file does not exist.
func loadSchema() (*config.Schema, error) {
	if _, err := os.Stat(schemaPath); errors.Is(err, os.ErrNotExist) {
		logger.Debug("no record schema, accepting every type and path")
		return nil, nil
	}
	return config.LoadSchema(schemaPath)
}

func openDB(ctx context.Context, cfg *config.ProjectConfig, schema *config.Schema) (store.Store, error) {
	var (
		db  store.Store
		err error
	)
	dsn := cfg.Database.DSN
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		db, err = sqlite.New(ctx, dsn, cfg)
	default:
		db, err = postgres.New(ctx, dsn, cfg)
	}
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx, schema); err != nil {
		_ = db.Close(ctx)
		return nil, err
	}
	return db, nil
}

// newSuggester returns nil when semantic mapping is disabled or the matcher
// cannot be built; resolution then runs without suggestions.
func newSuggester(ctx context.Context, cfg *config.ProjectConfig) resolve.Suggester {
	if !cfg.Semantic.Enabled {
		return nil
	}
	matcher, err := semantic.NewFromConfig(ctx, cfg.Semantic, logger)
	if err != nil {
		logger.Warn("semantic matcher unavailable, continuing without suggestions",
			zap.String("provider", cfg.Semantic.Provider), zap.Error(err))
		return nil
	}
	return matcher
}

func newResolver(ctx context.Context, cfg *config.ProjectConfig, host resolve.Host) *resolve.Resolver {
	suggester := newSuggester(ctx, cfg)
	return resolve.New(host, suggester, resolve.Options{
		SemanticEnabled: suggester != nil,
		Concepts:        cfg.Semantic.Concepts,
	}, logger)
}

// session bundles what the record commands need; close releases the store.
type session struct {
	cfg    *config.ProjectConfig
	schema *config.Schema
	db     store.Store
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}
	db, err := openDB(ctx, cfg, schema)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, schema: schema, db: db}, nil
}

func (s *session) close(ctx context.Context) {
	_ = s.db.Close(ctx)
}

func (s *session) record(ctx context.Context, id string) (*store.Record, error) {
	rec, err := s.db.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("record %q: %w", id, store.ErrNotFound)
	}
	return rec, nil
}
