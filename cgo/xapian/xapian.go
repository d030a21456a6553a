//go:build cgo && sercha_native

package xapian

/*
#cgo pkg-config: xapian-core
#cgo CXXFLAGS: -std=c++17

#include "xapian_wrapper.h"
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"unsafe"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

var _ driven.SearchEngine = (*Engine)(nil)

// Engine runs keyword queries against the indexer's Xapian database.
type Engine struct {
	mu   sync.RWMutex
	db   C.xapian_db
	path string
}

// Open opens the database directory at path. A missing directory is an
// error rather than a new empty database.
func Open(path string) (*Engine, error) {
	if info, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("xapian: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("xapian: %s is not a directory", path)
	}

	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	db := C.xapian_open(cpath)
	if db == nil {
		return nil, fmt.Errorf("xapian: open %s: %s", path, lastError())
	}
	return &Engine{db: db, path: path}, nil
}

// Index is refused; the indexer owns the database.
func (e *Engine) Index(context.Context, domain.Chunk) error {
	return fmt.Errorf("xapian: %w", domain.ErrReadOnly)
}

// Delete is refused; the indexer owns the database.
func (e *Engine) Delete(context.Context, string) error {
	return fmt.Errorf("xapian: %w", domain.ErrReadOnly)
}

// Search returns chunk IDs best first. Blank queries match nothing.
func (e *Engine) Search(_ context.Context, query string, limit int) ([]driven.SearchHit, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.db == nil {
		return nil, errors.New("xapian: database is closed")
	}
	if limit <= 0 || strings.TrimSpace(query) == "" {
		return []driven.SearchHit{}, nil
	}

	cQuery := C.CString(query)
	defer C.free(unsafe.Pointer(cQuery))

	results := C.xapian_search(e.db, cQuery, C.int(limit))
	defer C.xapian_free_results(results)

	if results.results == nil {
		if msg := lastError(); msg != "" {
			return nil, fmt.Errorf("xapian: search: %s", msg)
		}
		return []driven.SearchHit{}, nil
	}

	hits := make([]driven.SearchHit, 0, int(results.count))
	for _, r := range unsafe.Slice(results.results, int(results.count)) {
		hits = append(hits, driven.SearchHit{
			ChunkID: C.GoString(r.chunk_id),
			Score:   float64(r.score),
		})
	}
	return hits, nil
}

// Close releases the database. It is safe to call twice.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db != nil {
		C.xapian_close(e.db)
		e.db = nil
	}
	return nil
}

func lastError() string {
	return C.GoString(C.xapian_get_error())
}
