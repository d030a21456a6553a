// Package anthropic provides an LLM service adapter using the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"
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
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"
	provider         = "anthropic"
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService provides LLM operations using the Anthropic API.
type LLMService struct {
	api     *llm.Client
	model   string
	prompts driven.PromptStore
}

type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
	StopSeqs    []string          `json:"stop_sequences,omitempty"`
	Stream      bool              `json:"stream,omitempty"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string    `json:"stop_reason"`
	Error      *apiError `json:"error,omitempty"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	api := llm.NewClient(provider, cfg.BaseURL, cfg.Timeout).
		WithHeader("x-api-key", cfg.APIKey).
		WithHeader("anthropic-version", anthropicVersion)
	return &LLMService{api: api, model: cfg.Model}, nil
}

// request builds a /v1/messages body. The API takes the system prompt as a
// top-level field, so system messages are joined and lifted out.
func (s *LLMService) request(messages []driven.ChatMessage, opts driven.ChatOptions, stream bool) messagesRequest {
	body := messagesRequest{
		Model:       s.model,
		Messages:    make([]messagesMessage, 0, len(messages)),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		StopSeqs:    opts.StopWords,
		Stream:      stream,
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = DefaultMaxTokens
	}

	var system []string
	for _, m := range messages {
		if m.Role == driven.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		body.Messages = append(body.Messages, messagesMessage{Role: m.Role, Content: m.Content})
	}
	body.System = strings.Join(system, "\n\n")
	return body
}

// Chat returns the concatenated text blocks of a non-streamed reply.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var out messagesResponse
	if err := s.api.Post(ctx, "/v1/messages", s.request(messages, opts, false), &out); err != nil {
		return "", err
	}
	switch {
	case out.Error != nil:
		return "", fmt.Errorf("anthropic error: %s", out.Error.Message)
	case len(out.Content) == 0:
		return "", fmt.Errorf("anthropic: no response content returned")
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

// RewriteQuery expands or rewrites a search query for better recall.
func (s *LLMService) RewriteQuery(ctx context.Context, query string) (string, error) {
	reply, err := s.Chat(ctx, llm.RewriteMessages(s.prompts, query), llm.RewriteOptions)
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}
	return llm.CleanRewrite(reply, query), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// SetPromptStore sets the store RewriteQuery loads its template from.
func (s *LLMService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Ping lists models to validate the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/v1/models")
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
