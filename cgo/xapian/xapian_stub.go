//go:build !cgo || !sercha_native

package xapian

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

var _ driven.SearchEngine = (*Engine)(nil)

// Engine is the stand-in for builds without the native library.
type Engine struct{}

// Open always fails with domain.ErrSearchUnavailable.
func Open(path string) (*Engine, error) {
	return nil, fmt.Errorf("xapian: %s: built without sercha_native: %w", path, domain.ErrSearchUnavailable)
}

func (*Engine) Index(context.Context, domain.Chunk) error { return domain.ErrSearchUnavailable }
func (*Engine) Delete(context.Context, string) error      { return domain.ErrSearchUnavailable }
func (*Engine) Close() error                              { return nil }

func (*Engine) Search(context.Context, string, int) ([]driven.SearchHit, error) {
	return nil, domain.ErrSearchUnavailable
}
