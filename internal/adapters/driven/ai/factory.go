// Package ai builds the embedding and LLM adapters named in the settings.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/sercha-chat/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-chat/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/sercha-chat/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/sercha-chat/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sercha-chat/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// DefaultPingTimeout bounds the startup connectivity check of each provider.
const DefaultPingTimeout = 5 * time.Second

const settingsHint = "Run 'sercha-chat settings llm' or 'sercha-chat settings embedding' to fix"

// InitResult holds the AI services that passed their connectivity check.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	PromptStore      driven.PromptStore

	// Warnings explain why a configured provider was left out.
	Warnings []string

	// FellBack is set when the configured search mode lost a provider it needs.
	FellBack bool
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Initialise creates the configured AI services and pings them.
//
// A provider that cannot be built or reached is left nil with a warning
// instead of failing startup: search degrades to keyword-only, and asking a
// question reports domain.ErrLLMUnavailable.
func Initialise(ctx context.Context, settings *domain.AppSettings, prompts driven.PromptStore) *InitResult {
	result := &InitResult{PromptStore: prompts}
	if settings == nil {
		return result
	}

	embedding, err := ConnectEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.EmbeddingService = embedding

	llm, err := ConnectLLMService(ctx, &settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	if aware, ok := llm.(driven.PromptStoreAware); ok && prompts != nil {
		aware.SetPromptStore(prompts)
	}
	result.LLMService = llm

	mode := settings.Search.Mode
	result.FellBack = (mode.RequiresEmbedding() && embedding == nil) || (mode.RequiresLLM() && llm == nil)
	return result
}

type pingable interface {
	Ping(ctx context.Context) error
	Close() error
}

// ping checks svc within DefaultPingTimeout and closes it on failure.
func ping(ctx context.Context, svc pingable) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	start := time.Now()
	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return err
	}
	logger.Debug("ai: ping ok in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// ConnectEmbeddingService builds the embedding service and checks it answers.
// Unconfigured settings return (nil, nil).
func ConnectEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, settingsHint)
	}
	if svc == nil {
		return nil, nil
	}
	if err := ping(ctx, svc); err != nil {
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, settingsHint)
	}
	return svc, nil
}

// ConnectLLMService builds the LLM service and checks it answers.
// Unconfigured settings return (nil, nil).
func ConnectLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, settingsHint)
	}
	if svc == nil {
		return nil, nil
	}
	if err := ping(ctx, svc); err != nil {
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrLLMUnavailable, err, settingsHint)
	}
	return svc, nil
}

// CreateEmbeddingService returns the adapter for settings.Provider, or nil
// when no provider is configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService returns the adapter for settings.Provider, or nil when no
// provider is configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	case domain.AIProviderOpenAI:
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	case domain.AIProviderAnthropic:
		svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

