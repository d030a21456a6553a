package citations

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// Defaults applied by New.
const (
	// DefaultRecentResetTokens is how many citation-free tokens clear the
	// recently-cited set.
	DefaultRecentResetTokens = 5

	// DefaultLanguageHint is inserted after untagged opening code fences.
	DefaultLanguageHint = "plaintext"
)

// Option configures a Processor.
type Option func(*Processor)

// WithStopSequence truncates the answer where seq first appears.
// domain.NoStopSequence disables truncation.
func WithStopSequence(seq string) Option {
	return func(p *Processor) {
		p.stop.seq = seq
	}
}

// WithRecentResetTokens sets how many consecutive tokens without a citation
// clear the recently-cited set. Values below 1 never clear it.
func WithRecentResetTokens(n int) Option {
	return func(p *Processor) {
		p.resetAfter = n
	}
}

// WithLanguageHint sets the tag added to untagged code fences.
// An empty hint disables tagging.
func WithLanguageHint(hint string) Option {
	return func(p *Processor) {
		p.hint = hint
	}
}

// Processor rewrites citations for one streamed answer.
type Processor struct {
	docs    []domain.ContextDocument
	final   domain.OrderMapping
	display domain.OrderMapping

	stop       stopMatcher
	fence      fenceTracker
	hint       string
	resetAfter int

	emitted strings.Builder
	pending string

	citedEver map[string]bool
	recent    map[string]bool
	order     []int

	textSinceLastCitation   int
	tokensSinceLastCitation int

	warned   map[string]bool
	warnings []string
	stats    domain.CitationStats

	stopped  bool
	finished bool
}

// New creates a processor for one answer.
//
// docs is the list the model was shown; position i is cited as i+1.
// final and display map document IDs to the model-facing and user-facing
// numbers. A document ID appearing twice in docs is rejected with
// domain.ErrDuplicateContextDocument.
func New(
	docs []domain.ContextDocument,
	final, display domain.OrderMapping,
	opts ...Option,
) (*Processor, error) {
	seen := make(map[string]int, len(docs))
	for i, doc := range docs {
		if prev, ok := seen[doc.ID]; ok {
			return nil, fmt.Errorf("%w: %q at positions %d and %d",
				domain.ErrDuplicateContextDocument, doc.ID, prev+1, i+1)
		}
		seen[doc.ID] = i
	}

	p := &Processor{
		docs:       docs,
		final:      final,
		display:    display,
		hint:       DefaultLanguageHint,
		resetAfter: DefaultRecentResetTokens,
		citedEver:  make(map[string]bool),
		recent:     make(map[string]bool),
		warned:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ProcessToken consumes the next token of the answer and returns the
// events it completes: citation events first, then at most one text event.
//
// Once the stop sequence has been seen every further token is dropped.
// Calling ProcessToken after Finish returns domain.ErrStreamFinished.
func (p *Processor) ProcessToken(token string) ([]domain.AnswerEvent, error) {
	if p.finished {
		return nil, domain.ErrStreamFinished
	}
	if p.stopped {
		return nil, nil
	}

	text, hit := p.stop.push(token)
	events, found := p.consume(text, hit)
	if hit {
		logger.Debug("Stop sequence reached after %d bytes", p.emitted.Len())
		p.stopped = true
		p.stats.StopSequenceHit = true
	}
	p.trackRecency(text, found)
	return events, nil
}

// Finish ends the answer. Any held text, including an incomplete marker or
// an incomplete stop sequence, is released as literal text.
// Calling Finish twice returns domain.ErrStreamFinished.
func (p *Processor) Finish() ([]domain.AnswerEvent, error) {
	if p.finished {
		return nil, domain.ErrStreamFinished
	}
	p.finished = true

	var rest string
	if !p.stopped {
		rest = p.stop.flush()
	}
	events, _ := p.consume(rest, true)
	return events, nil
}

// CitationOrder returns the model-facing numbers of cited documents in the
// order they were first cited.
func (p *Processor) CitationOrder() []int {
	return append([]int(nil), p.order...)
}

// Stats returns counters for the answer so far.
func (p *Processor) Stats() domain.CitationStats {
	return p.stats
}

// Warnings returns the non-fatal problems recorded so far.
func (p *Processor) Warnings() []string {
	return append([]string(nil), p.warnings...)
}

// RawText returns the model output received so far, after stop truncation.
func (p *Processor) RawText() string {
	return p.emitted.String()
}

// consume runs text through the marker scanner together with any held
// suffix. When final is set nothing is held back.
func (p *Processor) consume(text string, final bool) ([]domain.AnswerEvent, bool) {
	p.emitted.WriteString(text)

	buf := p.pending + text
	if buf == "" {
		return nil, false
	}

	out, events, held, found := p.scan(buf, final)
	p.pending = held
	if out != "" {
		events = append(events, domain.TextEvent(out))
	}
	return events, found
}

// scan walks buf from the start. It returns the text ready for display,
// the citation events it produced, the suffix that must wait for more
// input and whether any valid citation was seen.
func (p *Processor) scan(buf string, final bool) (string, []domain.AnswerEvent, string, bool) {
	var (
		out    strings.Builder
		events []domain.AnswerEvent
		found  bool
	)

	i := 0
	for i < len(buf) {
		c := buf[i]

		if c == '`' {
			j := i
			for j < len(buf) && buf[j] == '`' {
				j++
			}
			if j == len(buf) && !final && p.hint != "" {
				// The byte after the run decides whether a hint is needed.
				return out.String(), events, buf[i:], found
			}
			p.writeBackticks(&out, buf, i, j)
			i = j
			continue
		}

		if c != '[' {
			p.fence.feed(c)
			out.WriteByte(c)
			i++
			continue
		}

		m := scanMarker(buf[i:])

		if p.fence.inCode() {
			// Code is copied verbatim and never held.
			if m.complete() {
				p.stats.CodeBlockSkipped++
				p.fence.write(buf[i : i+m.size])
				out.WriteString(buf[i : i+m.size])
				i += m.size
				continue
			}
			p.fence.feed(c)
			out.WriteByte(c)
			i++
			continue
		}

		switch m.state() {
		case statePartialMarker:
			if !final {
				return out.String(), events, buf[i:], found
			}
			p.fence.feed(c)
			out.WriteByte(c)
			i++

		case stateResolvingMarker:
			raw := buf[i : i+m.size]
			rendered, cites, ok := p.resolve(m, raw)
			p.fence.write(raw)
			if ok {
				found = true
				events = append(events, cites...)
				out.WriteString(rendered)
			} else {
				out.WriteString(raw)
			}
			i += m.size

		default:
			p.fence.feed(c)
			out.WriteByte(c)
			i++
		}
	}

	return out.String(), events, "", found
}

// writeBackticks copies buf[from:to], a run of backticks, and inserts the
// language hint after a fence that opens directly onto a new line.
func (p *Processor) writeBackticks(out *strings.Builder, buf string, from, to int) {
	for k := from; k < to; k++ {
		out.WriteByte('`')
		toggled := p.fence.feed('`')
		if toggled && p.fence.inCode() && p.hint != "" && k+1 < len(buf) && buf[k+1] == '\n' {
			out.WriteString(p.hint)
		}
	}
}

// resolve maps a complete marker to its display form. ok is false when the
// marker is malformed or cites nothing valid; the raw text is kept then.
func (p *Processor) resolve(m marker, raw string) (string, []domain.AnswerEvent, bool) {
	nums := make([]int, len(m.numbers))
	for i, s := range m.numbers {
		n, err := strconv.Atoi(s)
		if err != nil {
			return "", nil, false
		}
		nums[i] = n
	}

	valid := false
	for _, n := range nums {
		if p.inRange(n) {
			valid = true
			break
		}
	}
	if !valid {
		p.stats.InvalidNumbers += len(nums)
		return "", nil, false
	}

	var (
		b      strings.Builder
		events []domain.AnswerEvent
	)
	for i, n := range nums {
		if !p.inRange(n) {
			p.stats.InvalidNumbers++
			b.WriteString("[" + m.numbers[i] + "]")
			continue
		}

		doc := p.docs[n-1]
		display := p.displayNumber(doc.ID, n)

		if m.kind == markerUnresolved {
			if p.recent[doc.ID] {
				p.stats.SuppressedRepeats++
				continue
			}
			fmt.Fprintf(&b, "[[%d]](%s)", display, doc.Link)
		}

		p.recent[doc.ID] = true
		p.stats.Resolved++
		if !p.citedEver[doc.ID] {
			p.citedEver[doc.ID] = true
			p.order = append(p.order, p.finalNumber(doc.ID, n))
			events = append(events, domain.CitationEvent(display, doc.ID))
		}
	}

	if m.kind == markerResolved {
		return raw, events, true
	}
	return b.String(), events, true
}

func (p *Processor) inRange(n int) bool {
	return n >= 1 && n <= len(p.docs)
}

// displayNumber returns the user-facing number for a document, falling back
// to the model-facing number and finally to the number the model used.
func (p *Processor) displayNumber(id string, cited int) int {
	if n, ok := p.display.Lookup(id); ok {
		return n
	}

	p.stats.DisplayFallbacks++
	n := p.finalNumber(id, cited)
	if !p.warned[id] {
		p.warned[id] = true
		p.warnings = append(p.warnings, fmt.Sprintf("document %q has no display number, using %d", id, n))
	}
	return n
}

// finalNumber returns the model-facing number for a document, or the number
// the model used when the final mapping lacks it.
func (p *Processor) finalNumber(id string, cited int) int {
	if n, ok := p.final.Lookup(id); ok {
		return n
	}
	return cited
}

// trackRecency clears the recently-cited set once enough consecutive tokens
// have passed without a citation.
func (p *Processor) trackRecency(text string, found bool) {
	if found {
		p.tokensSinceLastCitation = 0
		p.textSinceLastCitation = 0
		return
	}

	p.tokensSinceLastCitation++
	p.textSinceLastCitation += len(text)
	if p.resetAfter > 0 && p.tokensSinceLastCitation >= p.resetAfter && len(p.recent) > 0 {
		logger.Debug("Clearing %d recent citations after %d tokens (%d bytes)",
			len(p.recent), p.tokensSinceLastCitation, p.textSinceLastCitation)
		clear(p.recent)
	}
}
