// Package sqlite reads the local sercha index.
//
// It uses modernc.org/sqlite, a pure Go SQLite implementation, so no CGO is
// needed. One Store serves several driven ports over a single connection pool:
//
//   - DocumentStore: documents and their chunks
//   - SearchEngine: FTS5 keyword search ranked by bm25
//   - VectorIndex: cosine similarity over chunk embeddings
//   - SourceCatalog: display names of sources
//
// # Schema
//
// The schema lives in migrations/ and is applied on open. chunks_fts is an
// external-content FTS5 table kept in sync with chunks by triggers, so
// writing a chunk is enough to index it.
//
// # Data Location
//
// By default the index is stored at ~/.sercha/data/metadata.db, alongside
// the sercha indexer that fills it.
package sqlite
