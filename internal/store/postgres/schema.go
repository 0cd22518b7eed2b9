package postgres

import (
	"context"
	"fmt"

	"lorefield/internal/config"
)

func (c *Client) EnsureSchema(ctx context.Context, schema *config.Schema) error {
	// system is stored as TEXT rather than JSONB: JSONB reorders object keys,
	// and candidate discovery depends on document order.
	ddl := `
CREATE TABLE IF NOT EXISTS records (
    id           TEXT PRIMARY KEY,
    record_type  TEXT NOT NULL,
    profile      TEXT NOT NULL DEFAULT '',
    name         TEXT NOT NULL,
    img          TEXT DEFAULT '',
    parent_id    TEXT REFERENCES records(id) ON DELETE CASCADE,
    source_file  TEXT DEFAULT '',
    source_hash  TEXT DEFAULT '',
    system       TEXT DEFAULT '{}',
    search_text  TEXT DEFAULT '',
    updated_at   TIMESTAMPTZ DEFAULT now()
);

ALTER TABLE records ADD COLUMN IF NOT EXISTS search_vector TSVECTOR;

CREATE INDEX IF NOT EXISTS idx_records_search ON records USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_records_type ON records (record_type);
CREATE INDEX IF NOT EXISTS idx_records_profile ON records (profile);
CREATE INDEX IF NOT EXISTS idx_records_parent ON records (parent_id);
CREATE INDEX IF NOT EXISTS idx_records_source_file ON records (source_file);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	c.schema = schema
	return nil
}
