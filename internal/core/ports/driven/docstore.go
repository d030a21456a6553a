package driven

import (
	"context"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// DocumentStore reads documents and chunks from the index.
// Missing IDs return domain.ErrNotFound.
type DocumentStore interface {
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks returns a document's chunks ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	ListDocuments(ctx context.Context, sourceID string) ([]domain.Document, error)

	// The write side is used by tests and by tooling that seeds an index.
	SaveDocument(ctx context.Context, doc *domain.Document) error
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error
	DeleteDocument(ctx context.Context, id string) error
}
