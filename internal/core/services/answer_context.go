package services

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// snippetLength caps SourceDocument.Snippet.
const snippetLength = 200

// AnswerContext is everything one answer needs to know about its documents.
type AnswerContext struct {
	// Documents is the list shown to the model. Position i is cited as i+1.
	Documents []domain.ContextDocument

	// Texts holds the concatenated chunk text of each document, aligned with Documents.
	Texts []string

	// Sources holds display details for each document, aligned with Documents.
	Sources []domain.SourceDocument

	// Final maps document IDs to the number the model uses.
	Final domain.OrderMapping

	// Display maps document IDs to the number shown to the user.
	Display domain.OrderMapping
}

// Len returns the number of context documents.
func (c *AnswerContext) Len() int {
	return len(c.Documents)
}

// Source returns the display details of a context document.
func (c *AnswerContext) Source(documentID string) (domain.SourceDocument, bool) {
	n, ok := c.Final.Lookup(documentID)
	if !ok || n < 1 || n > len(c.Sources) {
		return domain.SourceDocument{}, false
	}
	return c.Sources[n-1], true
}

// BuildAnswerContext turns ranked search hits into an answer context.
//
// Hits are grouped by document: the first hit fixes the document's rank and
// later chunks of the same document are appended to its text. At most max
// documents are kept; max < 1 keeps all of them. Documents whose URIs
// normalise to the same value share one display number.
func BuildAnswerContext(results []domain.SearchResult, maxDocs int) *AnswerContext {
	ctx := &AnswerContext{
		Final:   make(domain.OrderMapping),
		Display: make(domain.OrderMapping),
	}

	texts := make(map[string]*strings.Builder)
	for i := range results {
		r := &results[i]
		id := r.Document.ID
		if id == "" {
			continue
		}

		if b, seen := texts[id]; seen {
			if r.Chunk.Content != "" {
				if b.Len() > 0 {
					b.WriteString("\n\n")
				}
				b.WriteString(r.Chunk.Content)
			}
			continue
		}
		if maxDocs > 0 && len(ctx.Documents) >= maxDocs {
			continue
		}

		b := &strings.Builder{}
		b.WriteString(r.Chunk.Content)
		texts[id] = b

		ctx.Documents = append(ctx.Documents, domain.ContextDocument{ID: id, Link: r.Document.URI})
		ctx.Final[id] = len(ctx.Documents)
		ctx.Sources = append(ctx.Sources, domain.SourceDocument{
			DocumentID:  id,
			Title:       r.Document.DisplayTitle(),
			URI:         r.Document.URI,
			SourceName:  r.SourceName,
			Snippet:     snippet(r),
			Score:       r.Score,
			FinalNumber: len(ctx.Documents),
		})
	}

	ctx.Texts = make([]string, len(ctx.Documents))
	for i, doc := range ctx.Documents {
		ctx.Texts[i] = texts[doc.ID].String()
	}

	assignDisplayNumbers(ctx)
	return ctx
}

// assignDisplayNumbers numbers documents in first-appearance order, sharing a
// number between documents that point at the same place.
func assignDisplayNumbers(ctx *AnswerContext) {
	byURI := make(map[string]int)
	next := 0
	for i := range ctx.Sources {
		src := &ctx.Sources[i]
		key := normaliseURI(src.URI)

		n, ok := byURI[key]
		if key == "" || !ok {
			next++
			n = next
			if key != "" {
				byURI[key] = n
			}
		}
		src.DisplayNumber = n
		ctx.Display[src.DocumentID] = n
	}
}

// normaliseURI makes URIs that differ only in case or a trailing slash equal.
func normaliseURI(uri string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(uri)), "/")
}

// snippet prefers the search highlight and falls back to the chunk text.
func snippet(r *domain.SearchResult) string {
	text := r.Chunk.Content
	if len(r.Highlights) > 0 {
		text = r.Highlights[0]
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= snippetLength {
		return text
	}
	cut := strings.LastIndexByte(text[:snippetLength], ' ')
	if cut <= 0 {
		cut = snippetLength
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
	}
	return text[:cut] + "..."
}
