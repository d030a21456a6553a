package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

type fakeEngine struct {
	name   string
	closed bool
}

func (f *fakeEngine) Index(context.Context, domain.Chunk) error { return nil }
func (f *fakeEngine) Delete(context.Context, string) error      { return nil }

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

func (f *fakeEngine) Search(context.Context, string, int) ([]driven.SearchHit, error) {
	return nil, nil
}

type fakeVectors struct {
	name   string
	closed bool
}

func (f *fakeVectors) Add(context.Context, string, []float32) error { return nil }
func (f *fakeVectors) Delete(context.Context, string) error         { return nil }

func (f *fakeVectors) Close() error {
	f.closed = true
	return nil
}

func (f *fakeVectors) Search(context.Context, []float32, int) ([]driven.VectorHit, error) {
	return nil, nil
}

func TestOpenIndexes_PrefersNative(t *testing.T) {
	native := &fakeEngine{name: "xapian"}
	nativeVectors := &fakeVectors{name: "hnsw"}
	var gotPath string
	var gotDim int

	open := indexOpeners{
		keyword: func(path string) (driven.SearchEngine, error) {
			assert.Equal(t, filepath.Join("/data", xapianDir), path)
			return native, nil
		},
		vector: func(path string, dimension int) (driven.VectorIndex, error) {
			gotPath, gotDim = path, dimension
			return nativeVectors, nil
		},
	}

	ix := openIndexes("/data", 768, &fakeEngine{name: "sqlite"}, &fakeVectors{name: "sqlite"}, open)

	assert.Same(t, native, ix.engine)
	assert.Same(t, nativeVectors, ix.vectors)
	assert.Equal(t, filepath.Join("/data", hnswFile), gotPath)
	assert.Equal(t, 768, gotDim)

	ix.Close()
	assert.True(t, native.closed)
	assert.True(t, nativeVectors.closed)
}

func TestOpenIndexes_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "stub build", err: domain.ErrSearchUnavailable},
		{name: "missing files", err: fmt.Errorf("xapian: %w", fs.ErrNotExist)},
		{name: "corrupt index", err: errors.New("xapian: open: bad header")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{name: "sqlite"}
			vectors := &fakeVectors{name: "sqlite"}
			open := indexOpeners{
				keyword: func(string) (driven.SearchEngine, error) { return nil, tt.err },
				vector:  func(string, int) (driven.VectorIndex, error) { return nil, tt.err },
			}

			ix := openIndexes("/data", 384, engine, vectors, open)

			assert.Same(t, engine, ix.engine)
			assert.Same(t, vectors, ix.vectors)
			assert.Empty(t, ix.native)
			ix.Close()
			assert.False(t, engine.closed, "the store owns the sqlite readers")
		})
	}
}

func TestOpenIndexes_NoEmbeddingSkipsVectors(t *testing.T) {
	open := indexOpeners{
		keyword: func(string) (driven.SearchEngine, error) { return nil, domain.ErrSearchUnavailable },
		vector: func(string, int) (driven.VectorIndex, error) {
			t.Fatal("vector index opened without an embedding model")
			return nil, nil
		},
	}
	vectors := &fakeVectors{name: "sqlite"}

	ix := openIndexes("/data", 0, &fakeEngine{}, vectors, open)
	assert.Same(t, vectors, ix.vectors)
}

func TestNativeOpeners_MissingFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := nativeOpeners.keyword(filepath.Join(dir, xapianDir))
	require.Error(t, err)
	_, err = nativeOpeners.vector(filepath.Join(dir, hnswFile), 3)
	require.Error(t, err)
}
