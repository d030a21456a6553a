// Package tui provides an interactive terminal user interface for sercha-chat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Answer streams answers to questions.
	Answer driving.AnswerService

	// Search finds documents.
	Search driving.SearchService

	// Actions copies answers and opens documents. Optional.
	Actions driving.ActionService

	// Settings supplies the configured model for display. Optional.
	Settings driving.SettingsService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
