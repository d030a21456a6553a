//go:build !cgo || !sercha_native

package hnsw

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*Index)(nil)

// Index is the stand-in for builds without the native library.
type Index struct{}

// Open always fails with domain.ErrVectorIndexUnavailable.
func Open(path string, _ int) (*Index, error) {
	return nil, fmt.Errorf("hnsw: %s: built without sercha_native: %w", path, domain.ErrVectorIndexUnavailable)
}

func (*Index) Add(context.Context, string, []float32) error { return domain.ErrVectorIndexUnavailable }
func (*Index) Delete(context.Context, string) error         { return domain.ErrVectorIndexUnavailable }
func (*Index) Close() error                                 { return nil }

func (*Index) Search(context.Context, []float32, int) ([]driven.VectorHit, error) {
	return nil, domain.ErrVectorIndexUnavailable
}
