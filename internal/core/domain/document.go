package domain

import (
	"path"
	"strings"
	"time"
)

// Document is an indexed document as stored by the sync pipeline.
// The chat only reads documents; it never writes them outside tests.
type Document struct {
	ID       string
	SourceID string

	// URI is where the document lives: a file path, URL or app link.
	// Citations link to it.
	URI string

	Title string

	// Content is the full normalised text before chunking.
	Content string

	// ParentID is set for documents nested under another, like pages in a space.
	ParentID *string

	Metadata map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayTitle returns Title, falling back to the last URI segment and then
// the ID, so a source list never shows an empty entry.
func (d *Document) DisplayTitle() string {
	if t := strings.TrimSpace(d.Title); t != "" {
		return t
	}
	if d.URI != "" {
		if base := path.Base(strings.TrimRight(d.URI, "/")); base != "." && base != "/" {
			return base
		}
	}
	return d.ID
}

// Chunk is the unit of retrieval. Answers are grounded on chunk text.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string

	// Position orders chunks within their document.
	Position int

	// Embedding is nil for documents indexed without an embedding provider.
	Embedding []float32

	Metadata map[string]any
}
