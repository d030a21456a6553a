package driven

import "github.com/custodia-labs/sercha-chat/internal/core/domain"

// AIConfigValidator checks provider settings before they are saved.
// Unconfigured providers validate as nil.
type AIConfigValidator interface {
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the provider, so a bad key or an unreachable Ollama is
	// reported by `settings llm` rather than by the first question.
	ValidateLLM(config *domain.LLMSettings) error
}
