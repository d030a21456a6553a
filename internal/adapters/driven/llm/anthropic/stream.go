package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/llm"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// streamEvent is the data payload of an Anthropic server-sent event.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Error *apiError `json:"error,omitempty"`
}

// ChatStream conducts a multi-turn conversation and streams the reply.
func (s *LLMService) ChatStream(
	ctx context.Context,
	messages []driven.ChatMessage,
	opts driven.ChatOptions,
) (<-chan driven.StreamChunk, error) {
	body, err := s.api.Open(ctx, "/v1/messages", s.request(messages, opts, true))
	if err != nil {
		return nil, err
	}

	stream := llm.NewStream(ctx)
	go stream.Lines(body, func(line string) bool {
		return handleEvent(stream, line)
	}, func() {
		stream.Fail(fmt.Errorf("anthropic: stream ended without message_stop"))
	})
	return stream.Chunks(), nil
}

// handleEvent forwards one SSE line. Event names repeat inside the JSON
// payload, so only data lines are read.
func handleEvent(stream *llm.Stream, line string) bool {
	data, ok := llm.SSEData(line)
	if !ok {
		return true
	}

	var event streamEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		logger.Debug("anthropic: skipping unparseable stream event: %v", err)
		return true
	}

	switch event.Type {
	case "content_block_delta":
		if event.Delta.Type != "text_delta" {
			return true
		}
		return stream.Text(event.Delta.Text)
	case "message_delta":
		if event.Delta.StopReason != "" {
			logger.Debug("anthropic: stream stopped: %s", event.Delta.StopReason)
		}
	case "message_stop":
		stream.Done()
		return false
	case "error":
		msg := "unknown error"
		if event.Error != nil {
			msg = event.Error.Message
		}
		stream.Fail(fmt.Errorf("anthropic error: %s", msg))
		return false
	}
	return true
}
