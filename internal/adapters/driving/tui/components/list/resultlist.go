// Package list renders ranked search results with a movable selection.
package list

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// rowsPerResult is the height of one entry: title, location and preview.
const rowsPerResult = 3

// headerRows covers the "Results (n)" line, its gap and the view margins.
const headerRows = 4

var (
	upKey   = key.NewBinding(key.WithKeys("up", "k"))
	downKey = key.NewBinding(key.WithKeys("down", "j"))
)

// ResultList shows as many results as fit, scrolled to keep the selection
// in view.
type ResultList struct {
	styles   *styles.Styles
	results  []domain.SearchResult
	selected int
	width    int
	height   int
}

func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{styles: s, width: 80, height: 10}
}

func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, upKey):
			r.MoveUp()
		case key.Matches(k, downKey):
			r.MoveDown()
		}
	}
	return r, nil
}

func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	first, last := r.window()
	var b strings.Builder
	b.WriteString(r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))))
	b.WriteString("\n")
	for i := first; i < last; i++ {
		b.WriteString("\n")
		b.WriteString(r.entry(i))
	}
	return b.String()
}

// window returns the half-open range of results that fit the height.
func (r *ResultList) window() (int, int) {
	fit := max((r.height-headerRows)/rowsPerResult, 1)
	first := max(r.selected-fit+1, 0)
	return first, min(first+fit, len(r.results))
}

func (r *ResultList) entry(i int) string {
	res := &r.results[i]
	titleWidth := max(r.width-20, 10)
	detailWidth := max(r.width-6, 20)

	title := Clip(res.Document.DisplayTitle(), titleWidth)
	if title == "" {
		title = "(Untitled)"
	}
	score := fmt.Sprintf("%.2f", res.Score)

	var head string
	if i == r.selected {
		head = r.styles.Selected.Render(fmt.Sprintf("> %-*s  %s", titleWidth, title, score))
	} else {
		head = r.styles.Normal.Render(fmt.Sprintf("  %-*s  ", titleWidth, title)) + r.styles.Muted.Render(score)
	}
	rows := []string{head}

	location := strings.TrimSpace(res.SourceName + "  " + res.Document.URI)
	if location != "" {
		rows = append(rows, r.styles.Subtitle.Render("    "+Clip(location, detailWidth)))
	}

	preview := res.Chunk.Content
	if len(res.Highlights) > 0 {
		preview = res.Highlights[0]
	}
	preview = strings.Join(strings.Fields(preview), " ")
	rows = append(rows, r.styles.Muted.Render("    "+Clip(preview, detailWidth)))

	return strings.Join(rows, "\n")
}

// Clip shortens s to n display cells, ending in "..." when there is room.
func Clip(s string, n int) string {
	if n <= 3 {
		return ansi.Truncate(s, n, "")
	}
	return ansi.Truncate(s, n, "...")
}

// SetResults replaces the results and selects the first.
func (r *ResultList) SetResults(results []domain.SearchResult) {
	r.results = results
	r.selected = 0
}

// SetSelected ignores out-of-range indexes.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.results) {
		r.selected = index
	}
}

// SelectedResult returns nil when the list is empty.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

func (r *ResultList) MoveUp() {
	r.selected = max(r.selected-1, 0)
}

func (r *ResultList) MoveDown() {
	r.selected = max(min(r.selected+1, len(r.results)-1), 0)
}

func (r *ResultList) SetDimensions(width, height int) {
	r.width, r.height = width, height
}

func (r *ResultList) Results() []domain.SearchResult { return r.results }
func (r *ResultList) Selected() int                  { return r.selected }
func (r *ResultList) Count() int                     { return len(r.results) }
