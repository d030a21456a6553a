package domain

import "time"

// AnswerEventType identifies the kind of an AnswerEvent.
type AnswerEventType string

// Answer event types, in the order a consumer typically sees them.
const (
	// AnswerEventContext carries the documents given to the model.
	AnswerEventContext AnswerEventType = "context"

	// AnswerEventText carries a fragment of answer text ready for display.
	AnswerEventText AnswerEventType = "text"

	// AnswerEventCitation reports the first citation of a document.
	AnswerEventCitation AnswerEventType = "citation"

	// AnswerEventDone carries the completed answer. It is always the last
	// event of a successful answer.
	AnswerEventDone AnswerEventType = "done"

	// AnswerEventError reports a failure that ended the answer.
	AnswerEventError AnswerEventType = "error"
)

// AnswerEvent is a single item of a streamed answer.
// Exactly one payload field is set, matching Type.
type AnswerEvent struct {
	Type     AnswerEventType  `json:"type"`
	Text     string           `json:"text,omitempty"`
	Citation *CitationInfo    `json:"citation,omitempty"`
	Sources  []SourceDocument `json:"sources,omitempty"`
	Answer   *Answer          `json:"answer,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// TextEvent returns a text fragment event.
func TextEvent(text string) AnswerEvent {
	return AnswerEvent{Type: AnswerEventText, Text: text}
}

// CitationEvent returns a citation-discovered event.
func CitationEvent(number int, documentID string) AnswerEvent {
	return AnswerEvent{
		Type:     AnswerEventCitation,
		Citation: &CitationInfo{Number: number, DocumentID: documentID},
	}
}

// SourceDocument is a context document enriched for display.
type SourceDocument struct {
	DocumentID    string  `json:"document_id"`
	Title         string  `json:"title"`
	URI           string  `json:"uri"`
	SourceName    string  `json:"source_name,omitempty"`
	Snippet       string  `json:"snippet,omitempty"`
	Score         float64 `json:"score"`
	FinalNumber   int     `json:"final_number"`
	DisplayNumber int     `json:"display_number"`
}

// Answer is the completed result of asking a question.
type Answer struct {
	// ID uniquely identifies this answer.
	ID string `json:"id"`

	// Question is the question as asked.
	Question string `json:"question"`

	// Text is the full processed answer text, with citations rewritten.
	Text string `json:"text"`

	// Citations lists cited documents in order of first citation.
	Citations []CitationInfo `json:"citations"`

	// Sources lists the cited documents ordered by display number.
	Sources []SourceDocument `json:"sources"`

	// Stats summarises citation handling.
	Stats CitationStats `json:"stats"`

	// Warnings are non-fatal problems seen while processing citations.
	Warnings []string `json:"warnings,omitempty"`

	// Model is the LLM model that produced the answer.
	Model string `json:"model"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the answer took to produce.
func (a *Answer) Duration() time.Duration {
	if a.FinishedAt.IsZero() {
		return 0
	}
	return a.FinishedAt.Sub(a.StartedAt)
}

// AnswerOptions configures a single question.
type AnswerOptions struct {
	// MaxDocuments caps the context documents. Zero uses the configured default.
	MaxDocuments int

	// SourceIDs restricts retrieval to specific sources.
	SourceIDs []string

	// History holds earlier turns of the conversation, oldest first.
	History []ChatTurn
}

// ChatTurn is one question and its answer text in a conversation.
type ChatTurn struct {
	Question string
	Answer   string
}
