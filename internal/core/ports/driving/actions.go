package driving

import (
	"context"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// ActionService acts on answers and the documents they cite.
// It is used by the TUI.
type ActionService interface {
	// CopyAnswer copies an answer and its source list to the system clipboard.
	CopyAnswer(ctx context.Context, answer *domain.Answer) error

	// OpenSource opens a cited document in the default application.
	OpenSource(ctx context.Context, source domain.SourceDocument) error

	// OpenResult opens a search result's document in the default application.
	OpenResult(ctx context.Context, result *domain.SearchResult) error
}
