// Package search is the TUI view for trying out retrieval: it runs a query
// through the same search service that picks an answer's context documents.
package search

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
)

const resultLimit = 20

// chromeHeight is the rows taken by the title, input and status bar.
const chromeHeight = 10

// View has two modes: typing a query, and browsing its results. From the
// results the query can be opened, refined or asked in the chat view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Field
	list      *list.ResultList
	statusbar *status.Bar

	searchService driving.SearchService
	actionService driving.ActionService
	ctx           context.Context

	// searched is the query the listed results belong to.
	searched string
	err      error
	browsing bool
	ready    bool
}

// NewView creates a search view. actionService may be nil, which disables
// opening results.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	searchService driving.SearchService,
	actionService driving.ActionService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewSearchInput(s),
		list:          list.NewResultList(s),
		statusbar:     status.NewBar(s, km),
		searchService: searchService,
		actionService: actionService,
		ctx:           context.Background(),
	}
}

// WithContext sets the context searches and actions run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil
	case tea.KeyMsg:
		if keymap.Matches(msg.String(), v.keymap.Back) {
			return v, messages.Navigate(messages.ViewMenu)
		}
		if v.browsing {
			return v, v.browseKey(msg)
		}
		return v, v.typingKey(msg)
	case messages.SearchCompleted:
		v.showResults(msg)
		return v, nil
	case messages.ErrorOccurred:
		v.fail(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) typingKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type != tea.KeyEnter {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return cmd
	}

	query := v.input.Value()
	if query == "" {
		return nil
	}
	v.searched = query
	v.browsing = true
	v.input.Blur()
	v.statusbar.SetState(status.StateSearching)
	return v.search(query)
}

func (v *View) browseKey(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	switch {
	case msg.Type == tea.KeyEnter:
		v.openSelected()
	case keymap.Matches(k, v.keymap.AskQuery):
		if v.searched == "" {
			return nil
		}
		question := v.searched
		return func() tea.Msg { return messages.AskQuestion{Question: question} }
	case keymap.Matches(k, v.keymap.NewSearch):
		v.browsing = false
		v.input.SetValue("")
		return v.input.Focus()
	default:
		v.list, _ = v.list.Update(msg)
	}
	return nil
}

// search runs off the update loop and reports back with SearchCompleted.
func (v *View) search(query string) tea.Cmd {
	ctx, svc := v.ctx, v.searchService
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoSearchService}
		}
		results, err := svc.Search(ctx, query, domain.SearchOptions{Limit: resultLimit})
		return messages.SearchCompleted{Results: results, Err: err}
	}
}

func (v *View) showResults(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.fail(msg.Err)
		return
	}
	v.err = nil
	v.browsing = true
	v.input.Blur()
	v.list.SetResults(msg.Results)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetMessage("")
	v.statusbar.SetCount(len(msg.Results))
}

func (v *View) fail(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) openSelected() {
	result := v.list.SelectedResult()
	switch {
	case result == nil:
		return
	case v.actionService == nil:
		v.statusbar.SetMessage("Open not available")
	default:
		if err := v.actionService.OpenResult(v.ctx, result); err != nil {
			v.statusbar.SetMessage("Open: " + err.Error())
			return
		}
		v.statusbar.SetMessage("Opening " + result.Document.URI)
	}
}

func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	rows := []string{v.styles.Title.Render("Search"), "", v.input.View(), ""}
	if v.err != nil {
		rows = append(rows, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	rows = append(rows, v.list.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *View) SetDimensions(width, height int) {
	v.ready = true
	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-chromeHeight)
	v.statusbar.SetWidth(width)
}

// Reset clears the query, results and error and focuses the input.
func (v *View) Reset() {
	v.browsing = false
	v.searched = ""
	v.err = nil
	v.input.SetValue("")
	v.input.Focus()
	v.list.SetResults(nil)
	v.statusbar.Clear()
}

func (v *View) Ready() bool                    { return v.ready }
func (v *View) Query() string                  { return v.input.Value() }
func (v *View) Results() []domain.SearchResult { return v.list.Results() }
func (v *View) SelectedIndex() int             { return v.list.Selected() }
func (v *View) Err() error                     { return v.err }
func (v *View) InputFocused() bool             { return !v.browsing }
