package driven

import "context"

// VectorIndex finds chunks by embedding similarity.
type VectorIndex interface {
	Add(ctx context.Context, chunkID string, embedding []float32) error
	Delete(ctx context.Context, chunkID string) error

	// Search returns up to k chunks, most similar first. Vectors whose
	// dimensions differ from the query are skipped.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	Close() error
}

// VectorHit is a chunk and its cosine similarity to the query.
type VectorHit struct {
	ChunkID    string
	Similarity float64
}
