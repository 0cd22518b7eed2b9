package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lorefield/internal/attr"
	"lorefield/internal/store"
)

const recordColumns = `id, record_type, profile, name, img, COALESCE(parent_id, ''), source_file, source_hash, system`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*store.Record, error) {
	var r store.Record
	var system []byte
	if err := row.Scan(&r.ID, &r.Type, &r.Profile, &r.Name, &r.Img, &r.ParentID, &r.SourceFile, &r.SourceHash, &system); err != nil {
		return nil, err
	}
	tree, err := attr.Decode(system)
	if err != nil {
		return nil, fmt.Errorf("decoding attributes of %s: %w", r.ID, err)
	}
	r.System = tree
	return &r, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (c *Client) UpsertRecord(ctx context.Context, r store.Record) error {
	return upsert(ctx, c.db, r)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, r store.Record) error {
	if r.ID == "" {
		return fmt.Errorf("upserting record: id is required")
	}
	system, err := r.System.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling attributes: %w", err)
	}

	query := `
	INSERT INTO records (id, record_type, profile, name, img, parent_id, source_file, source_hash, system, search_text, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	ON CONFLICT (id) DO UPDATE SET
		record_type = excluded.record_type,
		profile = excluded.profile,
		name = excluded.name,
		img = excluded.img,
		parent_id = excluded.parent_id,
		source_file = excluded.source_file,
		source_hash = excluded.source_hash,
		system = excluded.system,
		search_text = excluded.search_text,
		updated_at = datetime('now')
	`

	_, err = db.ExecContext(ctx, query,
		r.ID,
		r.Type,
		r.Profile,
		r.Name,
		r.Img,
		nullable(r.ParentID),
		r.SourceFile,
		r.SourceHash,
		string(system),
		store.SearchText(&r),
	)
	if err != nil {
		return fmt.Errorf("upserting record: %w", err)
	}
	return nil
}

func (c *Client) GetRecord(ctx context.Context, id string) (*store.Record, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting record: %w", err)
	}
	return r, nil
}

func (c *Client) UpdateRecord(ctx context.Context, id string, patch *attr.Node) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("updating record %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}

	store.ApplyPatch(r, patch, c.schema)

	system, err := r.System.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling attributes: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
	UPDATE records
	SET name = ?, img = ?, system = ?, search_text = ?, updated_at = datetime('now')
	WHERE id = ?
	`, r.Name, r.Img, string(system), store.SearchText(r), id)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing record update: %w", err)
	}
	return nil
}

func (c *Client) CreateEmbedded(ctx context.Context, parentID string, entries []store.Record) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE id = ?`, parentID).Scan(&exists); err != nil {
		return fmt.Errorf("checking parent record: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("creating embedded records under %s: %w", parentID, store.ErrNotFound)
	}

	for _, entry := range entries {
		entry.ParentID = parentID
		if err := upsert(ctx, tx, entry); err != nil {
			return fmt.Errorf("creating embedded record %s: %w", entry.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing embedded records: %w", err)
	}
	return nil
}

func (c *Client) ListEmbedded(ctx context.Context, parentID string) ([]store.Record, error) {
	return c.queryRecords(ctx, `SELECT `+recordColumns+` FROM records WHERE parent_id = ? ORDER BY name, id`, parentID)
}

func (c *Client) ListRecordsWithAttributes(ctx context.Context) ([]store.Record, error) {
	return c.queryRecords(ctx, `SELECT `+recordColumns+` FROM records ORDER BY name, id`)
}

func (c *Client) queryRecords(ctx context.Context, query string, args ...any) ([]store.Record, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	records := []store.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

func (c *Client) ListRecords(ctx context.Context, recordType, profile string) ([]store.RecordSummary, error) {
	query := `
	SELECT id, record_type, profile, name, COALESCE(parent_id, '')
	FROM records
	WHERE (? = '' OR record_type = ?)
	  AND (? = '' OR profile = ?)
	ORDER BY name, id
	`

	rows, err := c.db.QueryContext(ctx, query, recordType, recordType, profile, profile)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	summaries := []store.RecordSummary{}
	for rows.Next() {
		var s store.RecordSummary
		if err := rows.Scan(&s.ID, &s.Type, &s.Profile, &s.Name, &s.ParentID); err != nil {
			return nil, fmt.Errorf("scanning record summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating record summaries: %w", err)
	}

	return summaries, nil
}
