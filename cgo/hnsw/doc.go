// Package hnsw opens an HNSWlib index read-only as a driven.VectorIndex.
//
// Build requires:
//   - the sercha hnsw_wrapper.h and hnswlib headers on CGO_CPPFLAGS
//   - a C++17 compiler
package hnsw
