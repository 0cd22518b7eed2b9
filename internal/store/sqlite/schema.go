package sqlite

import (
	"context"
	"fmt"
	"strings"

	"lorefield/internal/config"
)

func (c *Client) EnsureSchema(ctx context.Context, schema *config.Schema) error {
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
		updated_at   TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_records_type ON records (record_type);
	CREATE INDEX IF NOT EXISTS idx_records_profile ON records (profile);
	CREATE INDEX IF NOT EXISTS idx_records_parent ON records (parent_id);
	CREATE INDEX IF NOT EXISTS idx_records_source_file ON records (source_file);

	CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
		name,
		search_text,
		content=records,
		content_rowid=rowid
	);

	CREATE TRIGGER IF NOT EXISTS records_ai AFTER INSERT ON records BEGIN
		INSERT INTO records_fts(rowid, name, search_text)
		VALUES (new.rowid, new.name, new.search_text);
	END;

	CREATE TRIGGER IF NOT EXISTS records_ad AFTER DELETE ON records BEGIN
		INSERT INTO records_fts(records_fts, rowid, name, search_text)
		VALUES ('delete', old.rowid, old.name, old.search_text);
	END;

	CREATE TRIGGER IF NOT EXISTS records_au AFTER UPDATE ON records BEGIN
		INSERT INTO records_fts(records_fts, rowid, name, search_text)
		VALUES ('delete', old.rowid, old.name, old.search_text);
		INSERT INTO records_fts(rowid, name, search_text)
		VALUES (new.rowid, new.name, new.search_text);
	END;
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	statements := splitStatements(ddl)
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	c.schema = schema
	return nil
}

// splitStatements cuts the DDL on statement-terminating semicolons, keeping
// trigger bodies (whose inner statements end in ';' too) in one piece.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder
	inTrigger := false

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		upper := strings.ToUpper(stripped)
		if strings.HasPrefix(upper, "CREATE TRIGGER") {
			inTrigger = true
		}
		if inTrigger {
			if upper == "END;" {
				inTrigger = false
				statements = append(statements, current.String())
				current.Reset()
			}
			continue
		}
		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}

	return statements
}
