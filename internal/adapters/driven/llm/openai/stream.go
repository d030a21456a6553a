package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/llm"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// streamDone is the payload of the last server-sent event.
const streamDone = "[DONE]"

type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// ChatStream streams a completion as server-sent events.
func (s *LLMService) ChatStream(
	ctx context.Context,
	messages []driven.ChatMessage,
	opts driven.ChatOptions,
) (<-chan driven.StreamChunk, error) {
	body, err := s.api.Open(ctx, "/chat/completions", s.request(messages, opts, true))
	if err != nil {
		return nil, err
	}

	stream := llm.NewStream(ctx)
	// Some compatible servers close the connection without [DONE].
	go stream.Lines(body, func(line string) bool {
		return handleEvent(stream, line)
	}, stream.Done)
	return stream.Chunks(), nil
}

// handleEvent forwards one SSE line and reports whether to keep reading.
func handleEvent(stream *llm.Stream, line string) bool {
	data, ok := llm.SSEData(line)
	if !ok {
		return true
	}
	if data == streamDone {
		stream.Done()
		return false
	}

	var chunk completionChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		logger.Debug("openai: skipping unparseable stream event: %v", err)
		return true
	}
	if chunk.Error != nil {
		stream.Fail(fmt.Errorf("openai error: %s", chunk.Error.Message))
		return false
	}
	for _, choice := range chunk.Choices {
		if !stream.Text(choice.Delta.Content) {
			return false
		}
	}
	return true
}
