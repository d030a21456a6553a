package list

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			Document:   domain.Document{ID: "doc-1", Title: "Document One", URI: "https://wiki/one"},
			Chunk:      domain.Chunk{Content: "first   chunk\ncontent"},
			Score:      0.95,
			SourceName: "Wiki",
		},
		{Document: domain.Document{ID: "doc-2", Title: "Document Two"}, Score: 0.85, Highlights: []string{"matched"}},
		{Document: domain.Document{ID: "doc-3"}, Score: 0.75},
	}
}

func TestResultList_Empty(t *testing.T) {
	list := NewResultList(nil)

	assert.Zero(t, list.Count())
	assert.Nil(t, list.SelectedResult())
	assert.Contains(t, list.View(), "No results")
}

func TestResultList_Navigation(t *testing.T) {
	list := NewResultList(nil)
	list.SetResults(sampleResults())

	list.MoveUp()
	assert.Equal(t, 0, list.Selected(), "stays at top")

	list.Update(tea.KeyMsg{Type: tea.KeyDown})
	list.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 2, list.Selected())

	list.MoveDown()
	assert.Equal(t, 2, list.Selected(), "stays at bottom")

	list.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 1, list.Selected())

	require.NotNil(t, list.SelectedResult())
	assert.Equal(t, "doc-2", list.SelectedResult().Document.ID)
}

func TestResultList_SetSelected(t *testing.T) {
	list := NewResultList(nil)
	list.SetResults(sampleResults())

	list.SetSelected(2)
	assert.Equal(t, 2, list.Selected())

	list.SetSelected(99)
	list.SetSelected(-1)
	assert.Equal(t, 2, list.Selected())

	list.SetResults(sampleResults())
	assert.Equal(t, 0, list.Selected(), "new results reset the selection")
}

func TestResultList_View(t *testing.T) {
	list := NewResultList(nil)
	list.SetDimensions(100, 30)
	list.SetResults(sampleResults())

	view := list.View()

	assert.Contains(t, view, "Results (3)")
	assert.Contains(t, view, "Document One")
	assert.Contains(t, view, "Wiki  https://wiki/one")
	assert.Contains(t, view, "first chunk content")
	assert.Contains(t, view, "matched")
	assert.Contains(t, view, "doc-3", "untitled documents show their ID")
}

func TestResultList_ViewScrollsToSelection(t *testing.T) {
	list := NewResultList(nil)
	list.SetDimensions(100, 7) // room for one result
	list.SetResults(sampleResults())
	list.SetSelected(2)

	view := list.View()

	assert.Contains(t, view, "doc-3")
	assert.NotContains(t, view, "Document One")
}

func TestClip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"fits", "short", 10, "short"},
		{"cut", "a long title here", 10, "a long ..."},
		{"runes", strings.Repeat("é", 12), 10, strings.Repeat("é", 7) + "..."},
		{"tiny limit", "abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clip(tt.in, tt.n))
		})
	}
}
