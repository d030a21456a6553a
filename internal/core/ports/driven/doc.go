// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: read access to indexed documents and chunks
//   - SearchEngine: keyword search (SQLite FTS5, BM25)
//   - ConfigStore: application configuration
//   - PromptStore: prompt templates for the LLM
//
// # Optional Interfaces
//
// These can be nil and the application degrades:
//
//   - VectorIndex: similarity search over chunk embeddings
//   - EmbeddingService: query embeddings. Without it, VectorIndex is unused.
//   - LLMService: query rewriting and answer streaming. Without it, Ask fails
//     with domain.ErrLLMUnavailable and search is keyword-only.
//   - SourceCatalog: source display names for results
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: any adapter package
package driven
