// Package status renders the one-line status bar under each view.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/styles"
)

// State selects the left-hand label and the key hints.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateResults   State = "results"
	StateAnswering State = "answering"
	StateAnswered  State = "answered"
	StateError     State = "error"
)

// Bar shows what the view is doing on the left and the keys that apply on
// the right. Count is the number of results or cited sources.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	state   State
	message string
	count   int
	width   int
}

// NewBar creates a status bar in the ready state.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	h := help.New()
	h.Styles.ShortKey = s.Muted.Bold(true)
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted

	return &Bar{styles: s, keymap: km, help: h, state: StateReady, width: 80}
}

// View pads between the two halves so the bar fills its width.
func (s *Bar) View() string {
	left := s.label()
	right := s.help.ShortHelpView(s.bindings())

	inner := s.width - s.styles.StatusBar.GetHorizontalFrameSize()
	gap := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *Bar) label() string {
	switch s.state {
	case StateSearching:
		return s.styles.Muted.Render("Searching...")
	case StateAnswering:
		return s.styles.Muted.Render(s.detail("Answering..."))
	case StateAnswered:
		return s.styles.Normal.Render(s.detail(countOf(s.count, "source")))
	case StateResults:
		return s.styles.Normal.Render(countOf(s.count, "result"))
	case StateError:
		if s.message == "" {
			return s.styles.Error.Render("Error")
		}
		return s.styles.Error.Render("Error: " + s.message)
	case StateReady:
	}
	if s.message == "" {
		return s.styles.Muted.Render("Ready")
	}
	return s.styles.Muted.Render(s.message)
}

func (s *Bar) detail(text string) string {
	if s.message == "" {
		return text
	}
	return text + " · " + s.message
}

func (s *Bar) bindings() []key.Binding {
	switch s.state {
	case StateAnswering:
		return s.keymap.AnsweringHelp()
	case StateAnswered:
		return s.keymap.ChatHelp()
	case StateResults:
		return s.keymap.ResultsHelp()
	case StateReady, StateSearching, StateError:
	}
	return s.keymap.ShortHelp()
}

func countOf(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func (s *Bar) SetState(state State)      { s.state = state }
func (s *Bar) State() State              { return s.state }
func (s *Bar) SetMessage(message string) { s.message = message }
func (s *Bar) Message() string           { return s.message }
func (s *Bar) SetCount(count int)        { s.count = count }
func (s *Bar) Count() int                { return s.count }
func (s *Bar) SetWidth(width int)        { s.width = width }
func (s *Bar) Width() int                { return s.width }

// Clear returns to the ready state with no message.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.count = 0
}
