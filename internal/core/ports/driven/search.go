package driven

import (
	"context"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// SearchEngine is the keyword index over chunk text.
type SearchEngine interface {
	Index(ctx context.Context, chunk domain.Chunk) error
	Delete(ctx context.Context, chunkID string) error

	// Search treats query as plain words, not engine syntax. Hits are
	// ordered best first.
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)

	Close() error
}

// SearchHit is a keyword match. Score is higher for better matches.
type SearchHit struct {
	ChunkID string
	Score   float64
}
