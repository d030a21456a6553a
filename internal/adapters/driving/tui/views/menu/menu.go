// Package menu is the TUI start screen.
package menu

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. Choosing it opens View, or quits when Quit is set.
type Item struct {
	Label       string
	Description string
	View        messages.ViewType
	Quit        bool
}

func DefaultItems() []Item {
	return []Item{
		{Label: "Ask", Description: "Chat with your indexed documents", View: messages.ViewChat},
		{Label: "Search", Description: "Find documents by keyword or meaning", View: messages.ViewSearch},
		{Label: "Help", Description: "Key bindings", View: messages.ViewHelp},
		{Label: "Quit", Quit: true},
	}
}

type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	help     help.Model
	items    []Item
	selected int
	ready    bool
}

func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	h := help.New()
	h.Styles.ShortKey = s.Help.Bold(true)
	h.Styles.ShortDesc = s.Help
	h.Styles.ShortSeparator = s.Help

	return &View{styles: s, keymap: km, help: h, items: DefaultItems()}
}

func (v *View) Init() tea.Cmd { return nil }

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.handleKey(msg.String())
	}
	return v, nil
}

func (v *View) handleKey(k string) tea.Cmd {
	switch {
	case keymap.Matches(k, v.keymap.Up):
		v.selected = max(v.selected-1, 0)
	case keymap.Matches(k, v.keymap.Down):
		v.selected = min(v.selected+1, len(v.items)-1)
	case keymap.Matches(k, v.keymap.Submit):
		if item := v.items[v.selected]; !item.Quit {
			return messages.Navigate(item.View)
		}
		return tea.Quit
	case keymap.Matches(k, v.keymap.Help):
		return messages.Navigate(messages.ViewHelp)
	case keymap.Matches(k, v.keymap.Quit):
		return tea.Quit
	}
	return nil
}

func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Sercha Chat") + "\n")
	b.WriteString(v.styles.Muted.Render("Ask your documents") + "\n\n")

	for i, item := range v.items {
		line := "  " + v.styles.Normal.Render(item.Label)
		if i == v.selected {
			line = v.styles.Selected.Render("> " + item.Label)
		}
		if item.Description != "" {
			line += "  " + v.styles.Muted.Render(item.Description)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + v.help.ShortHelpView(v.keymap.MenuHelp()))
	return b.String()
}

// SetDimensions marks the view ready; the menu does not depend on size
// beyond the help line.
func (v *View) SetDimensions(width, _ int) {
	v.help.Width = width
	v.ready = true
}

func (v *View) Selected() int { return v.selected }
func (v *View) Items() []Item { return v.items }
