package domain

import "errors"

// Lookup and input errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrReadOnly is returned by index readers asked to write.
	ErrReadOnly = errors.New("index is read-only")
)

// Capability errors. A missing capability degrades the command that needs
// it rather than failing startup.
var (
	// ErrLLMUnavailable disables answering and query rewriting.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable disables vector search.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	ErrSearchUnavailable      = errors.New("search engine unavailable")
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrRateLimited is wrapped into provider 429 responses.
	ErrRateLimited = errors.New("rate limited")
)

// Answer stream errors.
var (
	// ErrDuplicateContextDocument means two context documents share an ID,
	// which would make citation numbers ambiguous.
	ErrDuplicateContextDocument = errors.New("duplicate context document")

	// ErrStreamFinished is returned for input pushed after the stream ended.
	ErrStreamFinished = errors.New("answer stream already finished")
)
