package driving

import (
	"context"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// SearchService retrieves ranked chunks. AnswerService uses it to build the
// context for a question; the search command and view call it directly.
type SearchService interface {
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
