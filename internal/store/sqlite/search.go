package sqlite

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

	ftsQuery := convertWebsearchToFTS5(query)

	sqlQuery := `
	SELECT r.id, r.name, r.record_type, r.profile,
		   -bm25(records_fts, 10.0, 1.0) AS score,
		   snippet(records_fts, 1, '**', '**', '...', 24) AS snippet
	FROM records_fts
	JOIN records r ON records_fts.rowid = r.rowid
	WHERE records_fts MATCH ?
	  AND (? = '' OR r.record_type = ?)
	ORDER BY score DESC, r.name ASC
	LIMIT 50
	`

	rows, err := c.db.QueryContext(ctx, sqlQuery, ftsQuery, recordType, recordType)
	if err != nil {
		return nil, fmt.Errorf("searching records: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		if err := rows.Scan(&r.ID, &r.Name, &r.Type, &r.Profile, &r.Score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	return results, nil
}

// convertWebsearchToFTS5 rewrites web-style queries (quoted phrases, -term,
// implicit AND, explicit AND/OR/NOT) into FTS5 MATCH syntax. Bare terms with
// punctuation are quoted so FTS5 does not read them as column filters or
// operators.
func convertWebsearchToFTS5(query string) string {
	var out []string
	needsJoin := func() bool {
		if len(out) == 0 {
			return false
		}
		switch out[len(out)-1] {
		case "AND", "OR", "NOT", "AND NOT":
			return false
		}
		return true
	}
	emit := func(term string) {
		if needsJoin() {
			out = append(out, "AND")
		}
		out = append(out, term)
	}

	for _, tok := range tokenizeQuery(query) {
		if tok.phrase {
			emit(`"` + tok.text + `"`)
			continue
		}
		switch upper := strings.ToUpper(tok.text); upper {
		case "AND", "OR", "NOT":
			out = append(out, upper)
			continue
		}
		if strings.HasPrefix(tok.text, "-") && len(tok.text) > 1 {
			if needsJoin() {
				out = append(out, "AND NOT")
			} else {
				out = append(out, "NOT")
			}
			out = append(out, quoteTerm(tok.text[1:]))
			continue
		}
		emit(quoteTerm(tok.text))
	}

	return strings.Join(out, " ")
}

type queryToken struct {
	text   string
	phrase bool
}

func tokenizeQuery(query string) []queryToken {
	var tokens []queryToken
	var current strings.Builder
	inQuote := false

	flush := func(phrase bool) {
		if current.Len() > 0 {
			tokens = append(tokens, queryToken{text: current.String(), phrase: phrase})
			current.Reset()
		}
	}

	for _, ch := range query {
		switch {
		case ch == '"':
			flush(inQuote)
			inQuote = !inQuote
		case inQuote:
			current.WriteRune(ch)
		case ch == ' ' || ch == '\t':
			flush(false)
		default:
			current.WriteRune(ch)
		}
	}
	flush(inQuote)
	return tokens
}

func quoteTerm(term string) string {
	body := strings.TrimSuffix(term, "*")
	for _, ch := range body {
		if !(ch == '_' || ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch > 127) {
			return `"` + strings.ReplaceAll(body, `"`, "") + `"` + strings.TrimPrefix(term, body)
		}
	}
	return term
}
