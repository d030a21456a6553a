// Package ollama provides an LLM service adapter for a local Ollama server.
package ollama

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
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second

	provider = "ollama"
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	BaseURL string
	Model   string

	// Timeout bounds non-streaming calls. Streams follow the caller's context.
	Timeout time.Duration
}

// LLMService provides chat and query rewriting on /api/chat.
type LLMService struct {
	api     *llm.Client
	model   string
	prompts driven.PromptStore
}

// options holds Ollama generation parameters.
type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

func newOptions(opts driven.ChatOptions) *options {
	if opts.MaxTokens == 0 && opts.Temperature == 0 && len(opts.StopWords) == 0 {
		return nil
	}
	return &options{NumPredict: opts.MaxTokens, Temperature: opts.Temperature, Stop: opts.StopWords}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

// chatResponse is one /api/chat reply. Streaming sends one per NDJSON line.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		api:   llm.NewClient(provider, cfg.BaseURL, cfg.Timeout),
		model: cfg.Model,
	}
}

func (s *LLMService) request(messages []driven.ChatMessage, opts driven.ChatOptions, stream bool) chatRequest {
	body := chatRequest{
		Model:    s.model,
		Messages: make([]chatMessage, len(messages)),
		Stream:   stream,
		Options:  newOptions(opts),
	}
	for i, m := range messages {
		body.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	return body
}

// Chat conducts a multi-turn conversation without streaming.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var out chatResponse
	if err := s.api.Post(ctx, "/api/chat", s.request(messages, opts, false), &out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}
	return out.Message.Content, nil
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

// Ping checks /api/tags, which answers without loading a model.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/api/tags")
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
