// Package chat provides the question and answer view for the TUI.
//
// A question starts an answer stream. Each event is read by a tea.Cmd and
// delivered back as messages.AnswerEventReceived, so the transcript grows
// as the model writes.
package chat

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
)

const (
	// historyTurns is how many earlier turns are sent with a question.
	historyTurns = 3

	// chromeHeight is the space taken by the header, input and status bar.
	chromeHeight = 9
)

// resolvedCitation matches a rewritten citation such as [[2]](https://...).
var resolvedCitation = regexp.MustCompile(`\[\[(\d+)\]\]\(([^)\s]*)\)`)

// turn is one question and its answer.
type turn struct {
	question string
	text     strings.Builder
	answer   *domain.Answer
	err      string
	stopped  bool
}

// View is the chat view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Field
	spinner   spinner.Model
	viewport  viewport.Model
	statusbar *status.Bar

	answerService driving.AnswerService
	actionService driving.ActionService
	ctx           context.Context
	cancel        context.CancelFunc

	turns     []*turn
	answering bool
	events    <-chan domain.AnswerEvent

	width  int
	height int
	ready  bool
}

// NewView creates a chat view. actionService may be nil.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	answerService driving.AnswerService,
	actionService driving.ActionService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(s.Theme().Primary)

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQuestionInput(s),
		spinner:       sp,
		viewport:      viewport.New(80, 24-chromeHeight),
		statusbar:     status.NewBar(s, km),
		answerService: answerService,
		actionService: actionService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
	}
}

// WithContext sets the parent context of every answer.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor blinking.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerStarted:
		return v, v.handleAnswerStarted(msg)

	case messages.AnswerEventReceived:
		return v, v.handleAnswerEvent(msg)

	case spinner.TickMsg:
		if !v.answering {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refresh()
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Back):
		if v.answering {
			v.stop()
			return v, nil
		}
		return v, messages.Navigate(messages.ViewMenu)

	case keymap.Matches(k, v.keymap.Stop):
		v.stop()
		return v, nil

	case keymap.Matches(k, v.keymap.ScrollUp):
		v.viewport.HalfViewUp()
		return v, nil

	case keymap.Matches(k, v.keymap.ScrollDown):
		v.viewport.HalfViewDown()
		return v, nil

	case keymap.Matches(k, v.keymap.NewQuestion):
		if !v.answering {
			v.Reset()
		}
		return v, nil

	case keymap.Matches(k, v.keymap.CopyAnswer):
		v.copyLastAnswer()
		return v, nil

	case keymap.Matches(k, v.keymap.OpenSource):
		n, _ := strconv.Atoi(strings.TrimPrefix(k, "alt+")) //nolint:errcheck // binding only holds digits
		v.openSource(n)
		return v, nil

	case msg.Type == tea.KeyEnter:
		return v, v.submit()
	}

	if v.answering {
		return v, nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// Ask submits question as if it had been typed. It is ignored while an
// answer is streaming.
func (v *View) Ask(question string) tea.Cmd {
	if v.answering {
		return nil
	}
	v.input.SetValue(question)
	return v.submit()
}

// submit starts answering the typed question.
func (v *View) submit() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.answering {
		return nil
	}

	history := v.history()
	v.turns = append(v.turns, &turn{question: question})
	v.answering = true
	v.input.Reset()
	v.input.Blur()
	v.statusbar.SetState(status.StateAnswering)
	v.statusbar.SetMessage("")
	v.refresh()

	ctx, cancel := context.WithCancel(v.ctx)
	v.cancel = cancel
	svc := v.answerService
	ask := func() tea.Msg {
		if svc == nil {
			return messages.AnswerStarted{Question: question, Err: ErrNoAnswerService}
		}
		events, err := svc.Ask(ctx, question, domain.AnswerOptions{History: history})
		return messages.AnswerStarted{Question: question, Events: events, Err: err}
	}
	return tea.Batch(ask, v.spinner.Tick)
}

// history returns the most recent completed turns, oldest first.
func (v *View) history() []domain.ChatTurn {
	var out []domain.ChatTurn
	for _, t := range v.turns {
		if t.answer != nil {
			out = append(out, domain.ChatTurn{Question: t.question, Answer: t.answer.Text})
		}
	}
	if len(out) > historyTurns {
		out = out[len(out)-historyTurns:]
	}
	return out
}

func (v *View) handleAnswerStarted(msg messages.AnswerStarted) tea.Cmd {
	if msg.Err != nil {
		v.current().err = msg.Err.Error()
		v.finish()
		return nil
	}
	v.events = msg.Events
	return waitForEvent(v.events)
}

func (v *View) handleAnswerEvent(msg messages.AnswerEventReceived) tea.Cmd {
	t := v.current()
	if msg.Closed || t == nil || v.events == nil {
		v.finish()
		return nil
	}

	switch msg.Event.Type {
	case domain.AnswerEventText:
		t.text.WriteString(msg.Event.Text)
	case domain.AnswerEventDone:
		t.answer = msg.Event.Answer
	case domain.AnswerEventError:
		if !t.stopped {
			t.err = msg.Event.Error
		}
	case domain.AnswerEventContext, domain.AnswerEventCitation:
	}
	v.refresh()
	return waitForEvent(v.events)
}

// waitForEvent reads the next event from an answer stream.
func waitForEvent(events <-chan domain.AnswerEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return messages.AnswerEventReceived{Closed: true}
		}
		return messages.AnswerEventReceived{Event: ev}
	}
}

// finish ends the current answer.
func (v *View) finish() {
	v.answering = false
	v.events = nil
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}

	t := v.current()
	switch {
	case t == nil:
		v.statusbar.Clear()
	case t.stopped:
		v.statusbar.SetState(status.StateReady)
		v.statusbar.SetMessage("Stopped")
	case t.err != "":
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(t.err)
	case t.answer != nil:
		v.statusbar.SetState(status.StateAnswered)
		v.statusbar.SetCount(len(t.answer.Sources))
		v.statusbar.SetMessage(fmt.Sprintf("%s · %.1fs", t.answer.Model, t.answer.Duration().Seconds()))
	default:
		v.statusbar.SetState(status.StateReady)
		v.statusbar.SetMessage("")
	}
	v.input.Focus()
	v.refresh()
}

// stop cancels the answer being streamed.
func (v *View) stop() {
	if !v.answering || v.cancel == nil {
		return
	}
	v.current().stopped = true
	v.cancel()
}

func (v *View) current() *turn {
	if len(v.turns) == 0 {
		return nil
	}
	return v.turns[len(v.turns)-1]
}

// lastAnswer returns the most recent completed answer.
func (v *View) lastAnswer() *domain.Answer {
	for i := len(v.turns) - 1; i >= 0; i-- {
		if v.turns[i].answer != nil {
			return v.turns[i].answer
		}
	}
	return nil
}

func (v *View) copyLastAnswer() {
	answer := v.lastAnswer()
	if answer == nil || v.actionService == nil {
		v.statusbar.SetMessage("Nothing to copy")
		return
	}
	if err := v.actionService.CopyAnswer(v.ctx, answer); err != nil {
		v.statusbar.SetMessage("Copy: " + err.Error())
		return
	}
	v.statusbar.SetMessage("Copied answer")
}

// openSource opens the cited document shown as [n] in the last answer.
func (v *View) openSource(n int) {
	answer := v.lastAnswer()
	if answer == nil || v.actionService == nil {
		return
	}
	for _, src := range answer.Sources {
		if src.DisplayNumber != n {
			continue
		}
		if err := v.actionService.OpenSource(v.ctx, src); err != nil {
			v.statusbar.SetMessage("Open: " + err.Error())
			return
		}
		v.statusbar.SetMessage("Opening " + src.URI)
		return
	}
	v.statusbar.SetMessage(fmt.Sprintf("No source [%d]", n))
}

// refresh re-renders the transcript, following the end while answering.
func (v *View) refresh() {
	atBottom := v.viewport.AtBottom()
	v.viewport.SetContent(v.Transcript())
	if v.answering || atBottom {
		v.viewport.GotoBottom()
	}
}

// Transcript renders every turn of the conversation.
func (v *View) Transcript() string {
	if len(v.turns) == 0 {
		return v.styles.Muted.Render("Ask a question about your indexed documents.")
	}

	width := max(v.viewport.Width, 20)
	answerStyle := v.styles.Answer.Width(width)

	blocks := make([]string, 0, len(v.turns))
	for i, t := range v.turns {
		var b strings.Builder
		b.WriteString(v.styles.Question.Render("You: " + t.question))
		b.WriteString("\n")

		text := t.text.String()
		if t.answer != nil {
			text = t.answer.Text
		}
		switch {
		case text != "":
			b.WriteString(answerStyle.Render(v.renderCitations(text)))
		case v.answering && i == len(v.turns)-1:
			b.WriteString(v.spinner.View() + v.styles.Muted.Render(" Thinking..."))
		}

		if t.stopped {
			b.WriteString("\n" + v.styles.Warning.Render("(stopped)"))
		} else if t.err != "" {
			b.WriteString("\n" + v.styles.Error.Render("Error: "+t.err))
		}
		if t.answer != nil && len(t.answer.Sources) > 0 {
			b.WriteString("\n\n")
			b.WriteString(v.renderSources(t.answer.Sources, width))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// renderCitations shows [[n]](link) citations as a styled [n].
func (v *View) renderCitations(text string) string {
	return resolvedCitation.ReplaceAllStringFunc(text, func(m string) string {
		sub := resolvedCitation.FindStringSubmatch(m)
		return v.styles.Citation.Render("[" + sub[1] + "]")
	})
}

func (v *View) renderSources(sources []domain.SourceDocument, width int) string {
	lines := []string{v.styles.Subtitle.Render("Sources")}
	for _, src := range sources {
		title := src.Title
		if title == "" {
			title = src.DocumentID
		}
		lines = append(lines, fmt.Sprintf("%s %s",
			v.styles.Citation.Render(fmt.Sprintf("[%d]", src.DisplayNumber)),
			v.styles.Normal.Render(title)))

		detail := src.URI
		if src.SourceName != "" {
			detail = strings.TrimSpace(src.SourceName + "  " + detail)
		}
		if detail != "" {
			lines = append(lines, "    "+v.styles.Link.MaxWidth(width-4).Render(detail))
		}
	}
	return strings.Join(lines, "\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("Sercha Chat"),
		"",
		v.viewport.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.viewport.Width = width
	v.viewport.Height = max(height-chromeHeight, 3)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Reset clears the conversation.
func (v *View) Reset() {
	v.turns = nil
	v.input.Reset()
	v.input.Focus()
	v.statusbar.Clear()
	v.viewport.GotoTop()
	v.refresh()
}

// Answering reports whether an answer is streaming.
func (v *View) Answering() bool {
	return v.answering
}

// Turns returns the number of questions asked in this conversation.
func (v *View) Turns() int {
	return len(v.turns)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}
