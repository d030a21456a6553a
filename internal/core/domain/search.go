package domain

// SearchOptions configures a search query.
type SearchOptions struct {
	Limit  int
	Offset int

	// SourceIDs restricts results to these sources. Empty means all.
	SourceIDs []string

	// Semantic and Hybrid request vector search. They only take effect when
	// an embedding service and vector index are configured.
	Semantic bool
	Hybrid   bool
}

// SearchResult is one retrieved chunk with its document.
type SearchResult struct {
	Document Document
	Chunk    Chunk

	// Score is the fused relevance score. Higher is better.
	Score float64

	// Highlights are chunk excerpts around the query terms.
	Highlights []string

	SourceName string
}
