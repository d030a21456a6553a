package driven

import "context"

// SourceCatalog resolves source IDs to the names shown next to results.
type SourceCatalog interface {
	// SourceName returns the display name of a source.
	// Unknown sources return an empty name and no error.
	SourceName(ctx context.Context, sourceID string) (string, error)
}
