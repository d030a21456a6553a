//go:build cgo && sercha_native

package hnsw

/*
#cgo CXXFLAGS: -std=c++17 -O3
#cgo LDFLAGS: -lstdc++

#include "hnsw_wrapper.h"
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*Index)(nil)

// Index searches an HNSW file written by the indexer.
type Index struct {
	mu        sync.RWMutex
	idx       *C.HnswIndex
	path      string
	dimension int
}

// Open loads the index at path. It never creates one: a missing file means
// the indexer has not embedded anything yet.
func Open(path string, dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("hnsw: dimension must be positive: %w", domain.ErrInvalidInput)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("hnsw: %w", err)
	}

	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	idx := C.hnsw_open(cpath, C.int(dimension))
	if idx == nil {
		return nil, fmt.Errorf("hnsw: cannot open %s with dimension %d", path, dimension)
	}
	return &Index{idx: idx, path: path, dimension: dimension}, nil
}

// Add is refused; the indexer owns the file.
func (idx *Index) Add(context.Context, string, []float32) error {
	return fmt.Errorf("hnsw: %w", domain.ErrReadOnly)
}

// Delete is refused; the indexer owns the file.
func (idx *Index) Delete(context.Context, string) error {
	return fmt.Errorf("hnsw: %w", domain.ErrReadOnly)
}

// Search returns up to k nearest chunks. A query of another dimension
// matches nothing, as in the SQLite index.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.idx == nil {
		return nil, errors.New("hnsw: index is closed")
	}
	if k <= 0 || len(query) != idx.dimension {
		return []driven.VectorHit{}, nil
	}

	var results *C.HnswSearchResult
	count := C.hnsw_search(
		idx.idx,
		(*C.float)(unsafe.Pointer(&query[0])),
		C.int(idx.dimension),
		C.int(k),
		&results,
	)
	if count < 0 {
		return nil, fmt.Errorf("hnsw: search %s failed", idx.path)
	}
	if count == 0 || results == nil {
		return []driven.VectorHit{}, nil
	}
	defer C.hnsw_free_results(results, count)

	hits := make([]driven.VectorHit, 0, int(count))
	for _, r := range unsafe.Slice(results, int(count)) {
		hits = append(hits, driven.VectorHit{
			ChunkID:    C.GoString(r.chunk_id),
			Similarity: float64(r.similarity),
		})
	}
	return hits, nil
}

// Close releases the native index. It is safe to call twice.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.idx != nil {
		C.hnsw_close(idx.idx)
		idx.idx = nil
	}
	return nil
}
