package driven

import "context"

// EmbeddingService turns text into vectors for similarity search.
// It is optional: without one, search is keyword-only and answers are
// grounded on keyword hits.
//
// The chat embeds queries only. Chunk embeddings are written by the sync
// pipeline, so Dimensions must match what the index was built with.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int
	ModelName() string

	// Ping checks the provider is reachable without embedding anything.
	Ping(ctx context.Context) error

	Close() error
}
