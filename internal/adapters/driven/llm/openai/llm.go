// Package openai talks to the OpenAI chat completions API and compatible servers.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/llm"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

var (
	_ driven.LLMService       = (*LLMService)(nil)
	_ driven.PromptStoreAware = (*LLMService)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second

	provider = "openai"
)

// LLMConfig configures the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is required.
	APIKey string

	// BaseURL can point at Azure OpenAI or any compatible server.
	BaseURL string

	Model   string
	Timeout time.Duration
}

// LLMService answers questions through /chat/completions.
type LLMService struct {
	api     *llm.Client
	model   string
	prompts driven.PromptStore
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type completionResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// NewLLMService creates an OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	api := llm.NewClient(provider, cfg.BaseURL, cfg.Timeout).
		WithHeader("Authorization", "Bearer "+cfg.APIKey)
	return &LLMService{api: api, model: cfg.Model}, nil
}

func (s *LLMService) request(messages []driven.ChatMessage, opts driven.ChatOptions, stream bool) completionRequest {
	body := completionRequest{
		Model:       s.model,
		Messages:    make([]message, len(messages)),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        opts.StopWords,
		Stream:      stream,
	}
	for i, m := range messages {
		body.Messages[i] = message{Role: m.Role, Content: m.Content}
	}
	return body
}

// Chat returns the first choice of a non-streamed completion.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var out completionResponse
	if err := s.api.Post(ctx, "/chat/completions", s.request(messages, opts, false), &out); err != nil {
		return "", err
	}
	switch {
	case out.Error != nil:
		return "", fmt.Errorf("openai error: %s", out.Error.Message)
	case len(out.Choices) == 0:
		return "", fmt.Errorf("openai: no response choices returned")
	}
	return out.Choices[0].Message.Content, nil
}

// RewriteQuery asks the model for a recall-friendlier version of query.
func (s *LLMService) RewriteQuery(ctx context.Context, query string) (string, error) {
	reply, err := s.Chat(ctx, llm.RewriteMessages(s.prompts, query), llm.RewriteOptions)
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}
	return llm.CleanRewrite(reply, query), nil
}

// ModelName returns the configured model.
func (s *LLMService) ModelName() string {
	return s.model
}

// SetPromptStore makes RewriteQuery use the store's query_rewrite template.
func (s *LLMService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Ping lists models, which checks the key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/models")
}

// Close is a no-op; the HTTP clients hold no resources that need releasing.
func (s *LLMService) Close() error {
	return nil
}
