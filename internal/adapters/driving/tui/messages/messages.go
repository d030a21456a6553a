// Package messages holds the tea.Msg types passed between the TUI views.
package messages

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// ViewType identifies a top-level view.
type ViewType int

const (
	ViewMenu ViewType = iota
	ViewChat
	ViewSearch
	ViewHelp
)

var viewNames = [...]string{
	ViewMenu:   "menu",
	ViewChat:   "chat",
	ViewSearch: "search",
	ViewHelp:   "help",
}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// ViewChanged asks the app to switch to View.
type ViewChanged struct {
	View ViewType
}

// Navigate returns a command that switches to view.
func Navigate(view ViewType) tea.Cmd {
	return func() tea.Msg { return ViewChanged{View: view} }
}

// AskQuestion asks the chat view to answer Question, switching to it.
type AskQuestion struct {
	Question string
}

// SearchCompleted carries the results of a search run in the background.
type SearchCompleted struct {
	Results []domain.SearchResult
	Err     error
}

// AnswerStarted carries the event stream for Question. Err is set when
// retrieval or the model request failed before any event.
type AnswerStarted struct {
	Question string
	Events   <-chan domain.AnswerEvent
	Err      error
}

// AnswerEventReceived carries the next event of the active answer. Closed
// means the channel is drained and Event is zero.
type AnswerEventReceived struct {
	Event  domain.AnswerEvent
	Closed bool
}

// ErrorOccurred reports a failure to the status bar.
type ErrorOccurred struct {
	Err error
}

// Quit exits the program.
type Quit struct{}
