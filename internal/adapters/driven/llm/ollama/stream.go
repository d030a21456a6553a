package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/llm"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

// ChatStream conducts a multi-turn conversation and streams the reply.
// Ollama streams newline-delimited JSON objects, the last with done=true.
func (s *LLMService) ChatStream(
	ctx context.Context,
	messages []driven.ChatMessage,
	opts driven.ChatOptions,
) (<-chan driven.StreamChunk, error) {
	body, err := s.api.Open(ctx, "/api/chat", s.request(messages, opts, true))
	if err != nil {
		return nil, err
	}

	stream := llm.NewStream(ctx)
	go stream.Lines(body, func(line string) bool {
		return handleLine(stream, line)
	}, func() {
		stream.Fail(fmt.Errorf("ollama: stream ended before done"))
	})
	return stream.Chunks(), nil
}

func handleLine(stream *llm.Stream, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}

	var resp chatResponse
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		stream.Fail(fmt.Errorf("decode stream line: %w", err))
		return false
	}
	if resp.Error != "" {
		stream.Fail(fmt.Errorf("ollama error: %s", resp.Error))
		return false
	}
	if !stream.Text(resp.Message.Content) {
		return false
	}
	if resp.Done {
		stream.Done()
		return false
	}
	return true
}
