package postgres

import (
	"context"
	"fmt"
	"strings"

	"lorefield/internal/store"
)

func (c *Client) Search(ctx context.Context, query, recordType string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	sql := `
SELECT id, name, record_type, profile,
    ts_rank(search_vector, websearch_to_tsquery('english', $1)) AS score,
    CASE WHEN search_text <> '' THEN
        ts_headline('english', search_text, websearch_to_tsquery('english', $1),
            'MaxFragments=2, MaxWords=40, MinWords=20, StartSel=**, StopSel=**')
    ELSE '' END AS snippet
FROM records
WHERE search_vector @@ websearch_to_tsquery('english', $1)
  AND ($2 = '' OR record_type = $2)
ORDER BY score DESC, name ASC
LIMIT 50
`

	rows, err := c.pool.Query(ctx, sql, query, recordType)
	if err != nil {
		return nil, fmt.Errorf("searching records: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		var score float32
		if err := rows.Scan(&r.ID, &r.Name, &r.Type, &r.Profile, &score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Score = float64(score)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	return results, nil
}
