// Package styles holds the palette and lipgloss styles shared by the TUI views.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette. Accents are used for emphasis, the neutral
// shades for text and chrome.
type Theme struct {
	Primary   lipgloss.Color // citations, titles, spinner
	Secondary lipgloss.Color // the user's questions

	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Surface    lipgloss.Color // status bar background
	Border     lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme returns the dark palette.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    "#7C3AED",
		Secondary:  "#06B6D4",
		Foreground: "#CDD6F4",
		Muted:      "#6C7086",
		Surface:    "#181825",
		Border:     "#45475A",
		Success:    "#A6E3A1",
		Warning:    "#F9E2AF",
		Error:      "#F38BA8",
	}
}

// Styles are the rendered styles derived from a Theme.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style

	Error   lipgloss.Style
	Warning lipgloss.Style

	// InputField frames the question and query inputs.
	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	// Chat transcript.
	Question lipgloss.Style
	Answer   lipgloss.Style
	Citation lipgloss.Style // [n] markers and source numbers
	Link     lipgloss.Style // document URIs under each source
}

// NewStyles derives styles from theme. A nil theme means DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	framed := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)

	return &Styles{
		theme: theme,

		Title:    fg(theme.Primary).Bold(true),
		Subtitle: fg(theme.Secondary).Bold(true),
		Normal:   fg(theme.Foreground),
		Muted:    fg(theme.Muted),
		Selected: fg(theme.Foreground).Background(theme.Primary).Bold(true),
		Help:     fg(theme.Muted),

		Error:   fg(theme.Error),
		Warning: fg(theme.Warning),

		InputField: framed.Padding(0, 1),
		StatusBar:  fg(theme.Muted).Background(theme.Surface).Padding(0, 1),

		Question: fg(theme.Secondary).Bold(true),
		Answer:   fg(theme.Foreground),
		Citation: fg(theme.Primary).Bold(true),
		Link:     fg(theme.Muted).Underline(true),
	}
}

// DefaultStyles returns NewStyles(DefaultTheme()).
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
