package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

type mockAnswerService struct {
	events   []domain.AnswerEvent
	err      error
	question string
	opts     domain.AnswerOptions
	ctx      context.Context
}

func (m *mockAnswerService) Ask(
	ctx context.Context, question string, opts domain.AnswerOptions,
) (<-chan domain.AnswerEvent, error) {
	m.ctx = ctx
	m.question = question
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan domain.AnswerEvent, len(m.events))
	for _, ev := range m.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

type mockActionService struct {
	copied  []*domain.Answer
	opened  []string
	copyErr error
}

func (m *mockActionService) CopyAnswer(_ context.Context, a *domain.Answer) error {
	m.copied = append(m.copied, a)
	return m.copyErr
}

func (m *mockActionService) OpenSource(_ context.Context, src domain.SourceDocument) error {
	m.opened = append(m.opened, src.URI)
	return nil
}

func (m *mockActionService) OpenResult(_ context.Context, _ *domain.SearchResult) error { return nil }

func testAnswer() *domain.Answer {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.Answer{
		Question: "how do I install?",
		Text:     "Run the installer [[1]](https://wiki/install).",
		Model:    "test-model",
		Sources: []domain.SourceDocument{
			{DocumentID: "d1", Title: "Install guide", URI: "https://wiki/install", SourceName: "Wiki", DisplayNumber: 1},
		},
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
	}
}

func answerEvents() []domain.AnswerEvent {
	return []domain.AnswerEvent{
		{Type: domain.AnswerEventContext},
		domain.TextEvent("Run the installer "),
		domain.TextEvent("[[1]](https://wiki/install)."),
		domain.CitationEvent(1, "d1"),
		{Type: domain.AnswerEventDone, Answer: testAnswer()},
	}
}

func newReadyView(svc *mockAnswerService, actions *mockActionService) *View {
	var v *View
	if actions == nil {
		v = NewView(nil, nil, svc, nil)
	} else {
		v = NewView(nil, nil, svc, actions)
	}
	v.SetDimensions(100, 30)
	return v
}

func typeText(v *View, s string) {
	for _, r := range s {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// started runs the submit command and returns its AnswerStarted message.
func started(t *testing.T, cmd tea.Cmd) messages.AnswerStarted {
	t.Helper()
	require.NotNil(t, cmd)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(messages.AnswerStarted); ok {
			return msg
		}
	}
	t.Fatal("no AnswerStarted message in batch")
	return messages.AnswerStarted{}
}

// drain feeds every stream message back into the view.
func drain(v *View, cmd tea.Cmd) {
	for cmd != nil {
		_, cmd = v.Update(cmd())
	}
}

func ask(t *testing.T, v *View, question string) {
	t.Helper()
	typeText(v, question)
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, next := v.Update(started(t, cmd))
	drain(v, next)
}

func TestView_AskStreamsAnswer(t *testing.T) {
	svc := &mockAnswerService{events: answerEvents()}
	v := newReadyView(svc, nil)

	typeText(v, "how do I install?")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, v.Answering())

	msg := started(t, cmd)
	assert.Equal(t, "how do I install?", svc.question)
	assert.Empty(t, svc.opts.History)

	_, next := v.Update(msg)
	drain(v, next)

	assert.False(t, v.Answering())
	out := v.Transcript()
	assert.Contains(t, out, "You: how do I install?")
	assert.Contains(t, out, "Run the installer [1].")
	assert.NotContains(t, out, "https://wiki/install).")
	assert.Contains(t, out, "[1] Install guide")
	assert.Contains(t, out, "Wiki  https://wiki/install")
	assert.Contains(t, v.View(), "test-model")
}

func TestView_EmptyQuestionDoesNothing(t *testing.T) {
	v := newReadyView(&mockAnswerService{}, nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Zero(t, v.Turns())
}

func TestView_HistorySentWithFollowUp(t *testing.T) {
	svc := &mockAnswerService{events: answerEvents()}
	v := newReadyView(svc, nil)

	ask(t, v, "first")
	ask(t, v, "second")

	require.Len(t, svc.opts.History, 1)
	assert.Equal(t, "first", svc.opts.History[0].Question)
	assert.Equal(t, testAnswer().Text, svc.opts.History[0].Answer)
	assert.Equal(t, 2, v.Turns())
}

func TestView_HistoryIsCapped(t *testing.T) {
	svc := &mockAnswerService{events: answerEvents()}
	v := newReadyView(svc, nil)

	for _, q := range []string{"a", "b", "c", "d", "e"} {
		ask(t, v, q)
	}

	require.Len(t, svc.opts.History, historyTurns)
	assert.Equal(t, "b", svc.opts.History[0].Question)
}

func TestView_AskError(t *testing.T) {
	v := newReadyView(&mockAnswerService{err: errors.New("no documents indexed")}, nil)

	ask(t, v, "anything")

	assert.False(t, v.Answering())
	assert.Contains(t, v.Transcript(), "Error: no documents indexed")
}

func TestView_StreamError(t *testing.T) {
	svc := &mockAnswerService{events: []domain.AnswerEvent{
		domain.TextEvent("Partial"),
		{Type: domain.AnswerEventError, Error: "llm unavailable"},
	}}
	v := newReadyView(svc, nil)

	ask(t, v, "anything")

	out := v.Transcript()
	assert.Contains(t, out, "Partial")
	assert.Contains(t, out, "Error: llm unavailable")
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil, nil, nil)
	v.SetDimensions(80, 24)

	ask(t, v, "q")

	assert.Contains(t, v.Transcript(), ErrNoAnswerService.Error())
}

func TestView_StopCancelsAnswer(t *testing.T) {
	svc := &mockAnswerService{events: []domain.AnswerEvent{
		domain.TextEvent("Half an"),
		{Type: domain.AnswerEventError, Error: "context canceled"},
	}}
	v := newReadyView(svc, nil)

	typeText(v, "long question")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg := started(t, cmd)

	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.Error(t, svc.ctx.Err())

	_, next := v.Update(msg)
	drain(v, next)

	out := v.Transcript()
	assert.Contains(t, out, "(stopped)")
	assert.NotContains(t, out, "context canceled")
	assert.False(t, v.Answering())
}

func TestView_NewQuestionClearsConversation(t *testing.T) {
	v := newReadyView(&mockAnswerService{events: answerEvents()}, nil)
	ask(t, v, "first")

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlN})

	assert.Zero(t, v.Turns())
}

func TestView_EscGoesToMenu(t *testing.T) {
	v := newReadyView(&mockAnswerService{}, nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_CopyAndOpenSource(t *testing.T) {
	actions := &mockActionService{}
	v := newReadyView(&mockAnswerService{events: answerEvents()}, actions)
	ask(t, v, "how do I install?")

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	require.Len(t, actions.copied, 1)
	assert.Equal(t, "test-model", actions.copied[0].Model)
	assert.Contains(t, v.View(), "Copied answer")

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}, Alt: true})
	assert.Equal(t, []string{"https://wiki/install"}, actions.opened)

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'7'}, Alt: true})
	assert.Contains(t, v.View(), "No source [7]")
}

func TestView_CopyWithoutAnswer(t *testing.T) {
	actions := &mockActionService{}
	v := newReadyView(&mockAnswerService{}, actions)

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlY})

	assert.Empty(t, actions.copied)
	assert.Contains(t, v.View(), "Nothing to copy")
}

func TestView_NotReady(t *testing.T) {
	v := NewView(nil, nil, nil, nil)

	assert.False(t, v.Ready())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_AskSubmitsQuestion(t *testing.T) {
	svc := &mockAnswerService{events: answerEvents()}
	v := newReadyView(svc, nil)

	cmd := v.Ask("how do I install?")
	require.NotNil(t, cmd)
	started(t, cmd)

	assert.Equal(t, "how do I install?", svc.question)
	assert.True(t, v.Answering())
	assert.Nil(t, v.Ask("second question"), "ignored while answering")
	assert.Equal(t, 1, v.Turns())
}
