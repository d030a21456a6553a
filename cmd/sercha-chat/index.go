package main

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/custodia-labs/sercha-chat/cgo/hnsw"
	"github.com/custodia-labs/sercha-chat/cgo/xapian"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// Native index locations inside the data directory.
const (
	xapianDir = "xapian"
	hnswFile  = "vectors.hnsw"
)

// indexOpeners open the native readers. Tests swap them for fakes.
type indexOpeners struct {
	keyword func(path string) (driven.SearchEngine, error)
	vector  func(path string, dimension int) (driven.VectorIndex, error)
}

var nativeOpeners = indexOpeners{
	keyword: func(path string) (driven.SearchEngine, error) {
		e, err := xapian.Open(path)
		if err != nil {
			return nil, err
		}
		return e, nil
	},
	vector: func(path string, dimension int) (driven.VectorIndex, error) {
		idx, err := hnsw.Open(path, dimension)
		if err != nil {
			return nil, err
		}
		return idx, nil
	},
}

// indexes is the search and vector pair the search service reads.
type indexes struct {
	engine  driven.SearchEngine
	vectors driven.VectorIndex
	native  []io.Closer
}

func (ix *indexes) Close() {
	for _, c := range ix.native {
		if err := c.Close(); err != nil {
			logger.Warn("Closing native index: %v", err)
		}
	}
}

// openIndexes prefers the indexer's Xapian and HNSW files and falls back to
// the SQLite tables for whichever cannot be opened. dimension 0 skips the
// vector index, since no query can be embedded.
func openIndexes(dataDir string, dimension int, engine driven.SearchEngine, vectors driven.VectorIndex, open indexOpeners) *indexes {
	ix := &indexes{engine: engine, vectors: vectors}

	if e, err := open.keyword(filepath.Join(dataDir, xapianDir)); err == nil {
		ix.engine = e
		ix.native = append(ix.native, e)
		logger.Debug("Keyword search: xapian")
	} else {
		logNativeFallback("keyword", err)
	}

	if dimension > 0 {
		if v, err := open.vector(filepath.Join(dataDir, hnswFile), dimension); err == nil {
			ix.vectors = v
			ix.native = append(ix.native, v)
			logger.Debug("Vector search: hnsw (%d dimensions)", dimension)
		} else {
			logNativeFallback("vector", err)
		}
	}
	return ix
}

func logNativeFallback(kind string, err error) {
	// Stub builds and indexes without native files end up here.
	if errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, domain.ErrSearchUnavailable) ||
		errors.Is(err, domain.ErrVectorIndexUnavailable) {
		logger.Debug("No native %s index, using sqlite: %v", kind, err)
		return
	}
	logger.Warn("Native %s index unusable, using sqlite: %v", kind, err)
}
