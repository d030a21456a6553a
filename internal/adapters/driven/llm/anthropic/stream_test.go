package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(Config{APIKey: "key", BaseURL: server.URL, Model: "claude-test"})
	require.NoError(t, err)
	return svc
}

func drain(chunks <-chan driven.StreamChunk) (string, driven.StreamChunk) {
	var text strings.Builder
	var last driven.StreamChunk
	for c := range chunks {
		text.WriteString(c.Content)
		last = c
	}
	return text.String(), last
}

func writeEvent(w http.ResponseWriter, typ, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", typ, data)
}

func TestChatStream_Events(t *testing.T) {
	var got messagesRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeEvent(w, "message_start", `{"type":"message_start","message":{"model":"claude-test"}}`)
		writeEvent(w, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		writeEvent(w, "ping", `{"type":"ping"}`)
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello "}}`)
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"[1]"}}`)
		writeEvent(w, "content_block_stop", `{"type":"content_block_stop","index":0}`)
		writeEvent(w, "message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`)
		writeEvent(w, "message_stop", `{"type":"message_stop"}`)
	})

	chunks, err := svc.ChatStream(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "rules"},
		{Role: driven.RoleSystem, Content: "more rules"},
		{Role: driven.RoleUser, Content: "hi"},
	}, driven.ChatOptions{StopWords: []string{"STOP"}})
	require.NoError(t, err)

	text, last := drain(chunks)

	assert.Equal(t, "Hello [1]", text)
	assert.True(t, last.Done)
	assert.True(t, got.Stream)
	assert.Equal(t, "rules\n\nmore rules", got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, 1024, got.MaxTokens)
	assert.Equal(t, []string{"STOP"}, got.StopSeqs)
}

func TestChatStream_ErrorEvent(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"par"}}`)
		writeEvent(w, "error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	})

	chunks, err := svc.ChatStream(context.Background(), nil, driven.ChatOptions{})
	require.NoError(t, err)

	text, last := drain(chunks)

	assert.Equal(t, "par", text)
	require.Error(t, last.Err)
	assert.Contains(t, last.Err.Error(), "Overloaded")
}

func TestChatStream_MissingStop(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"x"}}`)
	})

	chunks, err := svc.ChatStream(context.Background(), nil, driven.ChatOptions{})
	require.NoError(t, err)

	_, last := drain(chunks)

	assert.Error(t, last.Err)
}

func TestChatStream_StatusError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
	})

	_, err := svc.ChatStream(context.Background(), nil, driven.ChatOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "slow down")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestChat_LiftsSystemPrompt(t *testing.T) {
	var got messagesRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}`)
	})

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "sys"},
		{Role: driven.RoleUser, Content: "q"},
	}, driven.ChatOptions{})

	require.NoError(t, err)
	assert.Equal(t, "ab", out)
	assert.Equal(t, "sys", got.System)
	assert.False(t, got.Stream)
}
