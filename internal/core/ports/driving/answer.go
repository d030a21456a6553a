package driving

import (
	"context"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// AnswerService answers questions from indexed documents.
type AnswerService interface {
	// Ask retrieves context for question and streams the model's answer.
	//
	// Validation errors are returned directly. Once streaming starts, every
	// outcome is delivered on the channel: a context event, text and citation
	// events, then exactly one done or error event. The channel is always
	// closed.
	Ask(ctx context.Context, question string, opts domain.AnswerOptions) (<-chan domain.AnswerEvent, error)
}
