// Package mcp serves the local index to MCP clients: a search tool, an ask
// tool that returns a cited answer, and the active settings as a resource.
package mcp

import (
	"errors"

	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
)

var (
	ErrMissingSearchService = errors.New("mcp: search service is required")
	ErrMissingAnswerService = errors.New("mcp: answer service is required")

	// ErrIncompleteAnswer means the answer stream closed without a done event.
	ErrIncompleteAnswer = errors.New("mcp: answer stream ended without a result")
)

// Ports are the services the tools and resources call. Settings is
// optional; without it the settings resource is not registered.
type Ports struct {
	Search   driving.SearchService
	Answer   driving.AnswerService
	Settings driving.SettingsService
}

// Validate reports the first missing required service.
func (p *Ports) Validate() error {
	switch {
	case p.Search == nil:
		return ErrMissingSearchService
	case p.Answer == nil:
		return ErrMissingAnswerService
	}
	return nil
}
