package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"lorefield/internal/attr"
	"lorefield/internal/store"
)

const recordColumns = `id, record_type, profile, name, img, COALESCE(parent_id, ''), source_file, source_hash, system`

const searchVector = `setweight(to_tsvector('simple', coalesce($4, '')), 'A') ||
    setweight(to_tsvector('english', coalesce($10, '')), 'B')`

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func scanRecord(row pgx.Row) (*store.Record, error) {
	var r store.Record
	var system string
	if err := row.Scan(&r.ID, &r.Type, &r.Profile, &r.Name, &r.Img, &r.ParentID, &r.SourceFile, &r.SourceHash, &system); err != nil {
		return nil, err
	}
	tree, err := attr.Decode([]byte(system))
	if err != nil {
		return nil, fmt.Errorf("decoding attributes of %s: %w", r.ID, err)
	}
	r.System = tree
	return &r, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (c *Client) UpsertRecord(ctx context.Context, r store.Record) error {
	return upsert(ctx, c.pool, r)
}

func upsert(ctx context.Context, db querier, r store.Record) error {
	if r.ID == "" {
		return fmt.Errorf("upserting record: id is required")
	}
	system, err := r.System.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling attributes: %w", err)
	}

	query := `
INSERT INTO records (id, record_type, profile, name, img, parent_id, source_file, source_hash, system, search_text, updated_at, search_vector)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), ` + searchVector + `)
ON CONFLICT (id) DO UPDATE SET
    record_type = EXCLUDED.record_type,
    profile = EXCLUDED.profile,
    name = EXCLUDED.name,
    img = EXCLUDED.img,
    parent_id = EXCLUDED.parent_id,
    source_file = EXCLUDED.source_file,
    source_hash = EXCLUDED.source_hash,
    system = EXCLUDED.system,
    search_text = EXCLUDED.search_text,
    updated_at = now(),
    search_vector = EXCLUDED.search_vector
`

	_, err = db.Exec(ctx, query,
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
	row := c.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM records WHERE id = $1`, id)
	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting record: %w", err)
	}
	return r, nil
}

func (c *Client) UpdateRecord(ctx context.Context, id string, patch *attr.Node) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+recordColumns+` FROM records WHERE id = $1 FOR UPDATE`, id)
	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("updating record %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}

	store.ApplyPatch(r, patch, c.schema)

	if err := upsert(ctx, tx, *r); err != nil {
		return fmt.Errorf("updating record: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing record update: %w", err)
	}
	return nil
}

func (c *Client) CreateEmbedded(ctx context.Context, parentID string, entries []store.Record) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM records WHERE id = $1)`, parentID).Scan(&exists); err != nil {
		return fmt.Errorf("checking parent record: %w", err)
	}
	if !exists {
		return fmt.Errorf("creating embedded records under %s: %w", parentID, store.ErrNotFound)
	}

	for _, entry := range entries {
		entry.ParentID = parentID
		if err := upsert(ctx, tx, entry); err != nil {
			return fmt.Errorf("creating embedded record %s: %w", entry.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing embedded records: %w", err)
	}
	return nil
}

func (c *Client) ListEmbedded(ctx context.Context, parentID string) ([]store.Record, error) {
	return c.queryRecords(ctx, `SELECT `+recordColumns+` FROM records WHERE parent_id = $1 ORDER BY name, id`, parentID)
}

func (c *Client) ListRecordsWithAttributes(ctx context.Context) ([]store.Record, error) {
	return c.queryRecords(ctx, `SELECT `+recordColumns+` FROM records ORDER BY name, id`)
}

func (c *Client) queryRecords(ctx context.Context, query string, args ...any) ([]store.Record, error) {
	rows, err := c.pool.Query(ctx, query, args...)
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
WHERE ($1 = '' OR record_type = $1)
  AND ($2 = '' OR profile = $2)
ORDER BY name, id
`

	rows, err := c.pool.Query(ctx, query, recordType, profile)
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
