package services

import (
	"fmt"
	"os"
	"slices"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keySearchMode    = "search.mode"
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"

	keyChatStopSequence = "chat.stop_sequence"
	keyChatMaxDocuments = "chat.max_documents"
	keyChatResetTokens  = "chat.recent_reset_tokens"
	keyChatLanguageHint = "chat.language_hint"
	keyChatRequestsPM   = "chat.requests_per_minute"
)

// Environment variables that override stored settings.
//
//nolint:gosec // G101: variable names, not credentials.
const (
	EnvLLMAPIKey    = "SERCHA_LLM_API_KEY"
	EnvStopSequence = "SERCHA_STOP_SEQUENCE"
)

// defaultOllamaURL is used for local providers without a base URL.
const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.stored()
	s.applyEnv(settings)
	return settings, nil
}

// stored reads settings from the config store without environment overrides.
func (s *SettingsService) stored() *domain.AppSettings {
	defaults := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Search: domain.SearchSettings{
			Mode: s.getSearchMode(defaults.Search.Mode),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Chat: domain.ChatSettings{
			// An explicit empty stop sequence is meaningful, so only absence falls back.
			StopSequence:      s.getStringOrUnset(keyChatStopSequence, defaults.Chat.StopSequence),
			MaxDocuments:      s.getInt(keyChatMaxDocuments, defaults.Chat.MaxDocuments),
			RecentResetTokens: s.getIntOrUnset(keyChatResetTokens, defaults.Chat.RecentResetTokens),
			LanguageHint:      s.getStringOrUnset(keyChatLanguageHint, defaults.Chat.LanguageHint),
			RequestsPerMinute: s.getIntOrUnset(keyChatRequestsPM, defaults.Chat.RequestsPerMinute),
		},
	}
}

func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if key, ok := s.lookupEnv(EnvLLMAPIKey); ok && key != "" {
		logger.Debug("Using LLM API key from %s", EnvLLMAPIKey)
		settings.LLM.APIKey = key
	}
	if seq, ok := s.lookupEnv(EnvStopSequence); ok {
		logger.Debug("Using stop sequence from %s", EnvStopSequence)
		settings.Chat.StopSequence = seq
	}
}

// Save persists application settings. Empty API keys leave the stored key
// untouched.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
		skip  bool
	}{
		{key: keySearchMode, value: settings.Search.Mode.String()},
		{key: keyEmbedProvider, value: settings.Embedding.Provider.String()},
		{key: keyEmbedModel, value: settings.Embedding.Model},
		{key: keyEmbedBaseURL, value: settings.Embedding.BaseURL},
		{key: keyEmbedAPIKey, value: settings.Embedding.APIKey, skip: settings.Embedding.APIKey == ""},
		{key: keyLLMProvider, value: settings.LLM.Provider.String()},
		{key: keyLLMModel, value: settings.LLM.Model},
		{key: keyLLMBaseURL, value: settings.LLM.BaseURL},
		{key: keyLLMAPIKey, value: settings.LLM.APIKey, skip: settings.LLM.APIKey == ""},
		{key: keyChatStopSequence, value: settings.Chat.StopSequence},
		{key: keyChatMaxDocuments, value: settings.Chat.MaxDocuments},
		{key: keyChatResetTokens, value: settings.Chat.RecentResetTokens},
		{key: keyChatLanguageHint, value: settings.Chat.LanguageHint},
		{key: keyChatRequestsPM, value: settings.Chat.RequestsPerMinute},
	}

	for _, v := range values {
		if v.skip {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetSearchMode updates the search mode.
func (s *SettingsService) SetSearchMode(mode domain.SearchMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: search mode %q", domain.ErrInvalidInput, mode)
	}

	settings := s.stored()
	settings.Search.Mode = mode
	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %q does not support embeddings", domain.ErrUnsupportedType, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings := s.stored()
	settings.Embedding = domain.EmbeddingSettings{
		Provider: provider,
		Model:    model,
		BaseURL:  providerBaseURL(provider, "", settings.Embedding.BaseURL),
		APIKey:   apiKey,
	}
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	return s.Save(settings)
}

// SetLLM configures the LLM provider. The API key may instead come from
// SERCHA_LLM_API_KEY.
func (s *SettingsService) SetLLM(provider domain.AIProvider, model, baseURL, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		if env, ok := s.lookupEnv(EnvLLMAPIKey); !ok || env == "" {
			return fmt.Errorf("%w: API key required for %s (or set %s)", domain.ErrInvalidInput, provider, EnvLLMAPIKey)
		}
	}

	settings := s.stored()
	settings.LLM = domain.LLMSettings{
		Provider: provider,
		Model:    model,
		BaseURL:  providerBaseURL(provider, baseURL, settings.LLM.BaseURL),
		APIKey:   apiKey,
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	return s.Save(settings)
}

// providerBaseURL picks the endpoint for a provider: an explicit value wins,
// local providers keep their previous URL or the Ollama default, and cloud
// providers use their SDK default.
func providerBaseURL(provider domain.AIProvider, explicit, previous string) string {
	switch {
	case explicit != "":
		return explicit
	case !provider.IsLocal():
		return ""
	case previous != "":
		return previous
	default:
		return defaultOllamaURL
	}
}

// SetChat updates answer generation settings.
func (s *SettingsService) SetChat(chat domain.ChatSettings) error {
	if chat.MaxDocuments < 1 {
		return fmt.Errorf("%w: max documents must be at least 1", domain.ErrInvalidInput)
	}
	if chat.RecentResetTokens < 0 || chat.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: negative chat limits", domain.ErrInvalidInput)
	}

	settings := s.stored()
	settings.Chat = chat
	return s.Save(settings)
}

// Validate checks if current settings are valid for the configured mode.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	mode := settings.Search.Mode
	if !mode.IsValid() {
		return fmt.Errorf("%w: search mode %q", domain.ErrInvalidInput, mode)
	}
	if mode.RequiresEmbedding() && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("search mode %q requires embedding provider to be configured", mode.Description())
	}
	if mode.RequiresLLM() && !settings.LLM.IsConfigured() {
		return fmt.Errorf("search mode %q requires LLM provider to be configured", mode.Description())
	}
	if settings.Chat.MaxDocuments < 1 {
		return fmt.Errorf("%w: chat.max_documents must be at least 1", domain.ErrInvalidInput)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getStringOrUnset(key, defaultVal string) string {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetString(key)
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if val := s.configStore.GetInt(key); val != 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getIntOrUnset(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getSearchMode(defaultVal domain.SearchMode) domain.SearchMode {
	mode := domain.SearchMode(s.configStore.GetString(keySearchMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
