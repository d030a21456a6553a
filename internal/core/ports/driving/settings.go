package driving

import "github.com/custodia-labs/sercha-chat/internal/core/domain"

// SettingsService reads and updates the persisted configuration. Get applies
// SERCHA_* environment overrides; the setters and Save never write them back.
type SettingsService interface {
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	SetSearchMode(mode domain.SearchMode) error
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	// SetLLM leaves model and baseURL at the provider defaults when empty.
	SetLLM(provider domain.AIProvider, model, baseURL, apiKey string) error
	SetChat(chat domain.ChatSettings) error

	// Validate reports whether the services the search mode needs are
	// configured. It does not contact them.
	Validate() error
	// ValidateEmbeddingConfig and ValidateLLMConfig ping the configured
	// provider and return its error.
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}
