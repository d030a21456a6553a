// Package llm holds the plumbing shared by the LLM provider adapters:
// status error mapping, stream reading helpers and query rewriting.
package llm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

// DefaultRewritePrompt is used when no prompt store is set or the store
// has no query_rewrite template. %s is the original query.
const DefaultRewritePrompt = `Rewrite this search query to improve recall. Add synonyms and fix typos.
Return ONLY the rewritten query, nothing else.

Original: %s
Rewritten:`

// RewriteOptions are the chat options used for query rewriting.
var RewriteOptions = driven.ChatOptions{MaxTokens: 100, Temperature: 0.3}

// maxLine bounds a single streamed line.
const maxLine = 1024 * 1024

// StatusError reports a non-200 provider response.
// 429 wraps domain.ErrRateLimited so callers can back off.
func StatusError(provider string, code int, body []byte) error {
	err := fmt.Errorf("%s error (status %d): %s", provider, code, strings.TrimSpace(string(body)))
	if code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return err
}

// CheckResponse drains and closes resp when its status is not 200.
func CheckResponse(provider string, resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("%s error (status %d): read body: %w", provider, resp.StatusCode, err)
	}
	return StatusError(provider, resp.StatusCode, body)
}

// RewriteMessages builds the single-turn conversation that asks a model to
// rewrite query. Templates without a %s get the query appended.
func RewriteMessages(store driven.PromptStore, query string) []driven.ChatMessage {
	tmpl := DefaultRewritePrompt
	if store != nil {
		if p, err := store.Load(driven.PromptQueryRewrite); err == nil && strings.TrimSpace(p) != "" {
			tmpl = p
		}
	}

	var prompt string
	if strings.Contains(tmpl, "%s") {
		prompt = fmt.Sprintf(tmpl, query)
	} else {
		prompt = strings.TrimRight(tmpl, "\n") + "\n\n" + query
	}
	return []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}
}

// CleanRewrite extracts the rewritten query from a model reply. Models often
// echo the label or wrap the answer in quotes. An empty result yields query.
func CleanRewrite(reply, query string) string {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if label, rest, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(label), "rewritten") {
			line = strings.TrimSpace(rest)
		}
		line = strings.Trim(line, "\"'`")
		if line != "" {
			return line
		}
	}
	return query
}

// Stream wraps the channel a provider adapter feeds while reading a reply.
type Stream struct {
	ctx    context.Context
	chunks chan driven.StreamChunk
}

// NewStream creates a buffered stream bound to ctx.
func NewStream(ctx context.Context) *Stream {
	return &Stream{ctx: ctx, chunks: make(chan driven.StreamChunk, 16)}
}

// Chunks returns the receive side handed to the caller.
func (s *Stream) Chunks() <-chan driven.StreamChunk {
	return s.chunks
}

// Send delivers c unless the context is done first.
func (s *Stream) Send(c driven.StreamChunk) bool {
	select {
	case s.chunks <- c:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// Text sends a content delta. Empty deltas are dropped.
func (s *Stream) Text(content string) bool {
	if content == "" {
		return true
	}
	return s.Send(driven.StreamChunk{Content: content})
}

// Done sends the terminal success chunk.
func (s *Stream) Done() {
	s.Send(driven.StreamChunk{Done: true})
}

// Fail sends the terminal error chunk.
func (s *Stream) Fail(err error) {
	s.Send(driven.StreamChunk{Err: err})
}

// Cancelled reports ctx.Err() as the terminal chunk when the context is done.
func (s *Stream) Cancelled() bool {
	if err := s.ctx.Err(); err != nil {
		s.Fail(err)
		return true
	}
	return false
}

// Lines calls fn for every line of body until fn returns false or the
// context is cancelled, then closes body and the channel. When the body ends
// without fn stopping, eof decides the terminal chunk.
func (s *Stream) Lines(body io.ReadCloser, fn func(line string) bool, eof func()) {
	defer close(s.chunks)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	for scanner.Scan() {
		if s.Cancelled() {
			return
		}
		if !fn(scanner.Text()) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		if s.Cancelled() {
			return
		}
		s.Fail(fmt.Errorf("read stream: %w", err))
		return
	}
	if s.Cancelled() {
		return
	}
	eof()
}

// SSEData returns the payload of a server-sent "data:" line.
func SSEData(line string) (string, bool) {
	data, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return "", false
	}
	data = strings.TrimSpace(data)
	return data, data != ""
}
