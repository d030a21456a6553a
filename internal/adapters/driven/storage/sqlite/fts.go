package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

// searchEngine implements driven.SearchEngine on the chunks_fts table.
type searchEngine struct {
	db *sql.DB
}

var _ driven.SearchEngine = (*searchEngine)(nil)

// Index updates the text of a stored chunk, or stores it if it is new.
// The FTS triggers keep chunks_fts in step.
func (e *searchEngine) Index(ctx context.Context, chunk domain.Chunk) error {
	_, err := e.db.ExecContext(ctx, `
		INSERT INTO chunks (id, document_id, content, position)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content
	`, chunk.ID, chunk.DocumentID, chunk.Content, chunk.Position)
	if err != nil {
		return fmt.Errorf("indexing chunk %s: %w", chunk.ID, err)
	}
	return nil
}

// Delete removes a chunk, and with it its FTS entry.
func (e *searchEngine) Delete(ctx context.Context, chunkID string) error {
	if _, err := e.db.ExecContext(ctx, "DELETE FROM chunks WHERE id = ?", chunkID); err != nil {
		return fmt.Errorf("deleting chunk %s: %w", chunkID, err)
	}
	return nil
}

// Search returns chunks matching any query term, best bm25 first.
// Scores are negated bm25 values, so higher is better.
func (e *searchEngine) Search(ctx context.Context, query string, limit int) ([]driven.SearchHit, error) {
	match := matchExpression(query)
	if match == "" || limit <= 0 {
		return []driven.SearchHit{}, nil
	}

	rows, err := e.db.QueryContext(ctx, `
		SELECT c.id, -bm25(chunks_fts) AS score
		FROM chunks_fts
		JOIN chunks c ON c.rowid = chunks_fts.rowid
		WHERE chunks_fts MATCH ?
		ORDER BY score DESC, c.id
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("fts query %q: %w", match, err)
	}
	defer rows.Close()

	hits := []driven.SearchHit{}
	for rows.Next() {
		var hit driven.SearchHit
		if err := rows.Scan(&hit.ChunkID, &hit.Score); err != nil {
			return nil, fmt.Errorf("scanning fts hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fts hits: %w", err)
	}
	return hits, nil
}

// Close is a no-op; the Store owns the connection.
func (e *searchEngine) Close() error {
	return nil
}

// matchExpression turns free text into an FTS5 query of quoted terms joined
// by OR. Terms never contain quotes, so user input cannot reach FTS syntax.
func matchExpression(query string) string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !isTermRune(r)
	})

	terms := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		term := strings.ToLower(f)
		if seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, `"`+term+`"`)
	}
	return strings.Join(terms, " OR ")
}

// isTermRune reports whether r belongs inside a search term.
func isTermRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '\''
}
