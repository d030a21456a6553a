package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for Sercha resources.
	uriScheme = "sercha://"

	settingsURI = uriScheme + "settings"
)

// settingsInfo is the settings resource body. API keys are never included.
type settingsInfo struct {
	SearchMode        string `json:"search_mode"`
	EmbeddingProvider string `json:"embedding_provider,omitempty"`
	EmbeddingModel    string `json:"embedding_model,omitempty"`
	LLMProvider       string `json:"llm_provider,omitempty"`
	LLMModel          string `json:"llm_model,omitempty"`
	MaxDocuments      int    `json:"max_documents"`
	StopSequence      string `json:"stop_sequence"`
	RecentResetTokens int    `json:"recent_reset_tokens"`
	RequestsPerMinute int    `json:"requests_per_minute"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Settings == nil {
		return
	}
	s.server.AddResource(&mcp.Resource{
		URI:         settingsURI,
		Name:        "settings",
		Description: "Active search and answer settings",
		MIMEType:    "application/json",
	}, s.handleSettingsResource)
}

// handleSettingsResource returns the active settings without credentials.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	settings, err := s.ports.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	info := settingsInfo{
		SearchMode:        settings.Search.Mode.String(),
		EmbeddingProvider: settings.Embedding.Provider.String(),
		EmbeddingModel:    settings.Embedding.Model,
		LLMProvider:       settings.LLM.Provider.String(),
		LLMModel:          settings.LLM.Model,
		MaxDocuments:      settings.Chat.MaxDocuments,
		StopSequence:      settings.Chat.StopSequence,
		RecentResetTokens: settings.Chat.RecentResetTokens,
		RequestsPerMinute: settings.Chat.RequestsPerMinute,
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling settings: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
