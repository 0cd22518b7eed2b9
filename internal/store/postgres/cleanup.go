package postgres

import (
	"context"
	"fmt"
)

func (c *Client) RemoveStaleRecords(ctx context.Context, currentSourceFiles []string) (int64, error) {
	if len(currentSourceFiles) == 0 {
		return 0, nil
	}

	query := `
DELETE FROM records
WHERE source_file IS NOT NULL
  AND source_file <> ''
  AND NOT (source_file = ANY($1))
`

	tag, err := c.pool.Exec(ctx, query, currentSourceFiles)
	if err != nil {
		return 0, fmt.Errorf("removing stale records: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RemoveSourceRecords deletes the records ingested from sourceFile whose ids
// are not in keepIDs.
func (c *Client) RemoveSourceRecords(ctx context.Context, sourceFile string, keepIDs []string) (int64, error) {
	if sourceFile == "" {
		return 0, nil
	}
	if keepIDs == nil {
		keepIDs = []string{}
	}

	query := `
DELETE FROM records
WHERE source_file = $1
  AND NOT (id = ANY($2))
`

	tag, err := c.pool.Exec(ctx, query, sourceFile, keepIDs)
	if err != nil {
		return 0, fmt.Errorf("removing records of %s: %w", sourceFile, err)
	}
	return tag.RowsAffected(), nil
}

func (c *Client) GetSourceHashes(ctx context.Context) (map[string]string, error) {
	query := `
SELECT source_file, source_hash FROM records
WHERE source_file IS NOT NULL
  AND source_file <> ''
  AND parent_id IS NULL
`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query source hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var sourceFile, sourceHash string
		if err := rows.Scan(&sourceFile, &sourceHash); err != nil {
			return nil, fmt.Errorf("scanning source hash: %w", err)
		}
		hashes[sourceFile] = sourceHash
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source hashes: %w", err)
	}

	return hashes, nil
}
