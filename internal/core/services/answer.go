package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/sercha-chat/internal/citations"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-chat/internal/logger"
	"github.com/custodia-labs/sercha-chat/internal/metrics"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

const (
	// searchOverfetch multiplies the document cap when searching, since
	// several chunks of one document collapse into one context entry.
	searchOverfetch = 3

	// maxDocumentChars caps the text of one document in the prompt.
	maxDocumentChars = 4000

	// answerMaxTokens is the reply budget requested from the model.
	answerMaxTokens = 1024

	// eventBuffer is the capacity of the answer event channel.
	eventBuffer = 32
)

// defaultAnswerPrompt is used when no prompt store is configured.
const defaultAnswerPrompt = `Answer the question using only the numbered documents provided. ` +
	`Cite supporting documents as [1] or [1, 2]. If the documents do not contain the answer, say so.`

var tracer = otel.Tracer("github.com/custodia-labs/sercha-chat/internal/core/services")

// AnswerService answers questions with retrieval-augmented generation.
type AnswerService struct {
	search   driving.SearchService
	llm      driven.LLMService
	prompts  driven.PromptStore
	settings domain.ChatSettings
	limiter  *requestLimiter

	now   func() time.Time
	newID func() string
}

// NewAnswerService creates an answer service.
// llm may be nil, in which case Ask fails with domain.ErrLLMUnavailable.
// prompts may be nil to use the built-in system prompt.
func NewAnswerService(
	search driving.SearchService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings domain.ChatSettings,
) *AnswerService {
	return &AnswerService{
		search:   search,
		llm:      llm,
		prompts:  prompts,
		settings: settings,
		limiter:  newRequestLimiter(settings.RequestsPerMinute),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Ask retrieves documents for question and streams a cited answer.
func (s *AnswerService) Ask(
	ctx context.Context, question string, opts domain.AnswerOptions,
) (<-chan domain.AnswerEvent, error) {
	logger.Section("Answer")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	started := s.now()
	maxDocs := opts.MaxDocuments
	if maxDocs <= 0 {
		maxDocs = s.settings.MaxDocuments
	}
	if maxDocs <= 0 {
		maxDocs = domain.DefaultChatSettings().MaxDocuments
	}

	ctx, span := tracer.Start(ctx, "AnswerService.Ask", trace.WithAttributes(
		attribute.Int("answer.question_length", len(question)),
		attribute.Int("answer.max_documents", maxDocs),
		attribute.String("llm.model", s.llm.ModelName()),
	))

	results, err := s.search.Search(ctx, question, domain.SearchOptions{
		Limit:     maxDocs * searchOverfetch,
		SourceIDs: opts.SourceIDs,
	})
	if err != nil {
		return nil, s.abort(span, fmt.Errorf("search: %w", err))
	}

	actx := BuildAnswerContext(results, maxDocs)
	logger.Info("Answer context: %d documents from %d hits", actx.Len(), len(results))
	span.SetAttributes(attribute.Int("answer.context_documents", actx.Len()))
	metrics.RecordContextDocuments(actx.Len())

	proc, err := citations.New(actx.Documents, actx.Final, actx.Display,
		citations.WithStopSequence(s.settings.StopSequence),
		citations.WithRecentResetTokens(s.settings.RecentResetTokens),
		citations.WithLanguageHint(s.settings.LanguageHint),
	)
	if err != nil {
		return nil, s.abort(span, fmt.Errorf("create citation processor: %w", err))
	}

	messages := s.buildMessages(question, actx, opts.History)

	waited, err := s.limiter.Wait(ctx)
	metrics.RecordRateLimitWait(waited)
	if err != nil {
		return nil, s.abort(span, fmt.Errorf("wait for rate limiter: %w", err))
	}
	if waited > time.Millisecond {
		logger.Debug("Rate limiter delayed request by %s", waited)
	}

	// The run cancels the provider stream itself once the stop sequence is
	// seen, so the model stops generating text nobody will read.
	ctx, cancel := context.WithCancel(ctx)
	chunks, err := s.llm.ChatStream(ctx, messages, driven.ChatOptions{MaxTokens: answerMaxTokens})
	if err != nil {
		cancel()
		if errors.Is(err, domain.ErrRateLimited) {
			s.limiter.Backoff(0)
		}
		return nil, s.abort(span, fmt.Errorf("start answer stream: %w", err))
	}

	run := &answerRun{
		service:  s,
		span:     span,
		proc:     proc,
		actx:     actx,
		events:   make(chan domain.AnswerEvent, eventBuffer),
		question: question,
		model:    s.llm.ModelName(),
		started:  started,
	}
	go func() {
		defer cancel()
		run.stream(ctx, chunks)
	}()

	return run.events, nil
}

// abort ends span with err and returns err.
func (s *AnswerService) abort(span trace.Span, err error) error {
	logger.Warn("Answer failed: %v", err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
	return err
}

// buildMessages assembles the system prompt, earlier turns and the question
// with its numbered documents.
func (s *AnswerService) buildMessages(
	question string, actx *AnswerContext, history []domain.ChatTurn,
) []driven.ChatMessage {
	messages := make([]driven.ChatMessage, 0, 2+2*len(history))
	messages = append(messages, driven.ChatMessage{Role: driven.RoleSystem, Content: s.systemPrompt()})

	for _, turn := range history {
		messages = append(messages,
			driven.ChatMessage{Role: driven.RoleUser, Content: turn.Question},
			driven.ChatMessage{Role: driven.RoleAssistant, Content: turn.Answer},
		)
	}

	return append(messages, driven.ChatMessage{Role: driven.RoleUser, Content: userPrompt(question, actx)})
}

func (s *AnswerService) systemPrompt() string {
	if s.prompts == nil {
		return defaultAnswerPrompt
	}
	prompt, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil || strings.TrimSpace(prompt) == "" {
		logger.Warn("Answer prompt unavailable (%v), using built-in prompt", err)
		return defaultAnswerPrompt
	}
	return prompt
}

// userPrompt lists the context documents by citation number, then the question.
func userPrompt(question string, actx *AnswerContext) string {
	var b strings.Builder

	if actx.Len() == 0 {
		b.WriteString("No documents matched this question. Say that you could not find relevant documents.\n\n")
	} else {
		b.WriteString("Documents:\n")
		for i, src := range actx.Sources {
			fmt.Fprintf(&b, "\n[%d] %s\n", i+1, documentTitle(src))
			if src.URI != "" {
				fmt.Fprintf(&b, "Location: %s\n", src.URI)
			}
			b.WriteString(truncate(actx.Texts[i], maxDocumentChars))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func documentTitle(src domain.SourceDocument) string {
	switch {
	case src.Title != "":
		return src.Title
	case src.URI != "":
		return src.URI
	default:
		return src.DocumentID
	}
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// answerRun is the state of one streaming answer. It is owned by the
// goroutine running stream.
type answerRun struct {
	service *AnswerService
	span    trace.Span
	proc    *citations.Processor
	actx    *AnswerContext
	events  chan domain.AnswerEvent

	question  string
	model     string
	started   time.Time
	text      strings.Builder
	citations []domain.CitationInfo
	gotText   bool
}

// stream forwards model output through the citation processor until the
// model finishes, the stop sequence is seen, the model fails, or ctx is
// cancelled. It always closes the events channel.
func (r *answerRun) stream(ctx context.Context, chunks <-chan driven.StreamChunk) {
	defer close(r.events)
	defer r.span.End()

	if !r.send(ctx, domain.AnswerEvent{Type: domain.AnswerEventContext, Sources: r.actx.Sources}) {
		r.fail(ctx.Err())
		return
	}

	for {
		select {
		case <-ctx.Done():
			r.fail(ctx.Err())
			return

		case chunk, ok := <-chunks:
			switch {
			case !ok && ctx.Err() != nil:
				r.fail(ctx.Err())
				return
			case !ok:
				logger.Debug("Answer stream closed without a done marker")
				r.finish(ctx)
				return
			case chunk.Err != nil:
				if errors.Is(chunk.Err, domain.ErrRateLimited) {
					r.service.limiter.Backoff(0)
				}
				r.fail(fmt.Errorf("answer stream: %w", chunk.Err))
				return
			}

			if chunk.Content != "" {
				events, err := r.proc.ProcessToken(chunk.Content)
				if err != nil {
					r.fail(err)
					return
				}
				if !r.forward(ctx, events) {
					r.fail(ctx.Err())
					return
				}
			}
			if chunk.Done || r.proc.Stats().StopSequenceHit {
				r.finish(ctx)
				return
			}
		}
	}
}

// forward sends processor events, recording the answer text and citations.
func (r *answerRun) forward(ctx context.Context, events []domain.AnswerEvent) bool {
	for _, ev := range events {
		switch ev.Type {
		case domain.AnswerEventText:
			if !r.gotText {
				r.gotText = true
				elapsed := r.service.now().Sub(r.started)
				logger.Debug("First answer text after %s", elapsed)
				metrics.RecordFirstToken(r.model, elapsed)
			}
			r.text.WriteString(ev.Text)
		case domain.AnswerEventCitation:
			r.citations = append(r.citations, *ev.Citation)
		}
		if !r.send(ctx, ev) {
			return false
		}
	}
	return true
}

// finish flushes the processor and emits the completed answer.
func (r *answerRun) finish(ctx context.Context) {
	events, err := r.proc.Finish()
	if err != nil {
		r.fail(err)
		return
	}
	if !r.forward(ctx, events) {
		r.fail(ctx.Err())
		return
	}

	answer := r.answer()
	for _, w := range answer.Warnings {
		logger.Warn("Citation: %s", w)
	}
	logger.Info("Answer %s: %d bytes, %d citations in %s",
		answer.ID, len(answer.Text), len(answer.Citations), answer.Duration())

	r.span.SetAttributes(
		attribute.String("answer.id", answer.ID),
		attribute.Int("answer.citations", len(answer.Citations)),
		attribute.Int("answer.invalid_citations", answer.Stats.InvalidNumbers),
		attribute.Bool("answer.stop_sequence_hit", answer.Stats.StopSequenceHit),
	)
	r.span.SetStatus(codes.Ok, "")
	metrics.RecordCitations(answer.Stats)
	metrics.RecordAnswer(r.model, metrics.StatusOK, answer.Duration())

	r.send(ctx, domain.AnswerEvent{Type: domain.AnswerEventDone, Answer: answer})
}

// fail emits a terminal error event. After cancellation the consumer may be
// gone, so the event is only delivered if the buffer has room.
func (r *answerRun) fail(err error) {
	if err == nil {
		err = context.Canceled
	}

	status := metrics.StatusError
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = metrics.StatusCancelled
	}
	logger.Warn("Answer ended early: %v", err)
	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, err.Error())
	metrics.RecordAnswer(r.model, status, r.service.now().Sub(r.started))

	select {
	case r.events <- domain.AnswerEvent{Type: domain.AnswerEventError, Error: err.Error()}:
	default:
	}
}

func (r *answerRun) send(ctx context.Context, ev domain.AnswerEvent) bool {
	select {
	case r.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// answer assembles the final Answer from the run so far.
func (r *answerRun) answer() *domain.Answer {
	sources := make([]domain.SourceDocument, 0, len(r.citations))
	for _, c := range r.citations {
		if src, ok := r.actx.Source(c.DocumentID); ok {
			sources = append(sources, src)
		}
	}
	slices.SortStableFunc(sources, func(a, b domain.SourceDocument) int {
		if a.DisplayNumber != b.DisplayNumber {
			return a.DisplayNumber - b.DisplayNumber
		}
		return a.FinalNumber - b.FinalNumber
	})

	return &domain.Answer{
		ID:         r.service.newID(),
		Question:   r.question,
		Text:       r.text.String(),
		Citations:  append([]domain.CitationInfo{}, r.citations...),
		Sources:    sources,
		Stats:      r.proc.Stats(),
		Warnings:   r.proc.Warnings(),
		Model:      r.model,
		StartedAt:  r.started,
		FinishedAt: r.service.now(),
	}
}
