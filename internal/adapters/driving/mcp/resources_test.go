package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

func TestServer_handleSettingsResource(t *testing.T) {
	req := &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: settingsURI}}

	t.Run("returns settings without API keys", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.LLM = domain.LLMSettings{
			Provider: domain.AIProviderOpenAI,
			Model:    "gpt-4o-mini",
			APIKey:   "sk-secret",
		}
		server, err := NewServer(&Ports{
			Search:   &mockSearchService{},
			Answer:   &mockAnswerService{},
			Settings: &mockSettingsService{settings: &settings},
		})
		require.NoError(t, err)

		result, err := server.handleSettingsResource(context.Background(), req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		text := result.Contents[0].Text
		assert.NotContains(t, text, "sk-secret")

		var info settingsInfo
		require.NoError(t, json.Unmarshal([]byte(text), &info))
		assert.Equal(t, "openai", info.LLMProvider)
		assert.Equal(t, "gpt-4o-mini", info.LLMModel)
		assert.Equal(t, settings.Chat.MaxDocuments, info.MaxDocuments)
	})

	t.Run("settings error", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Search:   &mockSearchService{},
			Answer:   &mockAnswerService{},
			Settings: &mockSettingsService{err: errors.New("unreadable")},
		})
		require.NoError(t, err)

		_, err = server.handleSettingsResource(context.Background(), req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading settings")
	})
}
