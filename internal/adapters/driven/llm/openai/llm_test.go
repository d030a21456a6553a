package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

type prompts map[string]string

func (p prompts) Load(name string) (string, error) {
	if v, ok := p[name]; ok {
		return v, nil
	}
	return "", domain.ErrNotFound
}

func (p prompts) Reload() {}

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	require.Error(t, err)

	svc, err := NewLLMService(LLMConfig{APIKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.api.BaseURL())
	assert.NoError(t, svc.Close())
}

func TestChat(t *testing.T) {
	var got completionRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"done"}}]}`)
	})

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "be brief"},
		{Role: driven.RoleUser, Content: "hi"},
	}, driven.ChatOptions{StopWords: []string{"###"}, Temperature: 0.2})

	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, []string{"###"}, got.Stop)
	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "error body", status: http.StatusOK, body: `{"error":{"message":"model gone"}}`, wantErr: "model gone"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "no response choices"},
		{name: "bad status", status: http.StatusBadGateway, body: "upstream", wantErr: "status 502"},
		{name: "bad json", status: http.StatusOK, body: "{", wantErr: "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRewriteQuery(t *testing.T) {
	var got completionRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"Rewritten: \"kubernetes k8s deploy\"\n"}}]}`)
	})
	svc.SetPromptStore(prompts{driven.PromptQueryRewrite: "Expand: %s"})

	out, err := svc.RewriteQuery(context.Background(), "k8s deploy")

	require.NoError(t, err)
	assert.Equal(t, "kubernetes k8s deploy", out)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "Expand: k8s deploy", got.Messages[0].Content)
}

func TestRewriteQuery_Error(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := svc.RewriteQuery(context.Background(), "q")

	require.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Contains(t, err.Error(), "rewrite query")
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"data":[]}`)
	})

	require.NoError(t, svc.Ping(context.Background()))

	svc.api.WithHeader("Authorization", "Bearer wrong")
	err := svc.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
