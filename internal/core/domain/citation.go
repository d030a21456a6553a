package domain

// ContextDocument is a document handed to the model for one answer.
// Its position in the context list, plus one, is the citation number
// the model is told to use.
type ContextDocument struct {
	// ID uniquely identifies the document within the answer.
	ID string

	// Link is where a reader can open the document. May be empty.
	Link string
}

// OrderMapping maps document IDs to a 1-based rank.
// Two mappings exist per answer: the final (model-facing) order and the
// display (user-facing) order.
type OrderMapping map[string]int

// Lookup returns the rank for id and whether it was present.
func (m OrderMapping) Lookup(id string) (int, bool) {
	if m == nil {
		return 0, false
	}
	n, ok := m[id]
	return n, ok
}

// CitationInfo records that a document was cited in an answer.
type CitationInfo struct {
	// Number is the display number shown to the user.
	Number int `json:"citation_num"`

	// DocumentID identifies the cited document.
	DocumentID string `json:"document_id"`
}

// CitationStats counts what the citation processor did during one answer.
type CitationStats struct {
	Resolved          int  `json:"resolved"`
	InvalidNumbers    int  `json:"invalid_numbers"`
	SuppressedRepeats int  `json:"suppressed_repeats"`
	DisplayFallbacks  int  `json:"display_fallbacks"`
	CodeBlockSkipped  int  `json:"code_block_skipped"`
	StopSequenceHit   bool `json:"stop_sequence_hit"`
}
