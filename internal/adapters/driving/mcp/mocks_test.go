package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	opts    domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.opts = opts
	return m.results, m.err
}

// mockAnswerService replays canned events on a closed channel.
type mockAnswerService struct {
	events []domain.AnswerEvent
	err    error
	opts   domain.AnswerOptions
}

func (m *mockAnswerService) Ask(
	_ context.Context,
	_ string,
	opts domain.AnswerOptions,
) (<-chan domain.AnswerEvent, error) {
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan domain.AnswerEvent, len(m.events))
	for _, ev := range m.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

// mockSettingsService returns fixed settings.
type mockSettingsService struct {
	settings *domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) { return m.settings, m.err }
func (m *mockSettingsService) Save(_ *domain.AppSettings) error  { return m.err }
func (m *mockSettingsService) SetSearchMode(_ domain.SearchMode) error {
	return m.err
}

func (m *mockSettingsService) SetEmbeddingProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetLLM(_ domain.AIProvider, _, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetChat(_ domain.ChatSettings) error { return m.err }
func (m *mockSettingsService) Validate() error                     { return m.err }
func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}
func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.err }
func (m *mockSettingsService) ValidateLLMConfig() error       { return m.err }
