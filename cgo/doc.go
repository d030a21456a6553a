// Package cgo holds the native readers for the indexes the sercha indexer
// writes next to metadata.db. They are built only with
// CGO_ENABLED=1 and the sercha_native tag; other builds get stubs whose
// Open fails, and the chat falls back to the SQLite tables.
//
// Sub-packages:
//   - hnsw: HNSWlib vector index reader
//   - xapian: Xapian full-text index reader
package cgo
