package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

func hit(docID, uri, content string, score float64) domain.SearchResult {
	return domain.SearchResult{
		Document: domain.Document{ID: docID, URI: uri, Title: strings.ToUpper(docID)},
		Chunk:    domain.Chunk{ID: "chunk-" + content, DocumentID: docID, Content: content},
		Score:    score,
	}
}

func TestBuildAnswerContext_GroupsChunksByDocument(t *testing.T) {
	results := []domain.SearchResult{
		hit("a", "https://wiki/a", "first a", 0.9),
		hit("b", "https://wiki/b", "only b", 0.8),
		hit("a", "https://wiki/a", "second a", 0.7),
		hit("", "", "no id", 0.6),
	}

	actx := BuildAnswerContext(results, 0)

	require.Equal(t, 2, actx.Len())
	assert.Equal(t, []domain.ContextDocument{
		{ID: "a", Link: "https://wiki/a"},
		{ID: "b", Link: "https://wiki/b"},
	}, actx.Documents)
	assert.Equal(t, []string{"first a\n\nsecond a", "only b"}, actx.Texts)
	assert.Equal(t, domain.OrderMapping{"a": 1, "b": 2}, actx.Final)
	assert.Equal(t, 1, actx.Sources[0].FinalNumber)
	assert.Equal(t, "A", actx.Sources[0].Title)
	assert.InDelta(t, 0.9, actx.Sources[0].Score, 1e-9)
}

func TestBuildAnswerContext_MaxDocuments(t *testing.T) {
	results := []domain.SearchResult{
		hit("a", "", "a1", 3),
		hit("b", "", "b1", 2),
		hit("c", "", "c1", 1),
		hit("a", "", "a2", 0.5),
	}

	actx := BuildAnswerContext(results, 2)

	require.Equal(t, 2, actx.Len())
	assert.Equal(t, "a1\n\na2", actx.Texts[0])
	_, ok := actx.Final.Lookup("c")
	assert.False(t, ok)
}

func TestBuildAnswerContext_DisplayNumbersShareNormalisedURIs(t *testing.T) {
	results := []domain.SearchResult{
		hit("a", "https://Wiki/Page/", "x", 1),
		hit("b", "", "y", 1),
		hit("c", "https://wiki/page", "z", 1),
		hit("d", "", "w", 1),
		hit("e", "https://wiki/other", "v", 1),
	}

	actx := BuildAnswerContext(results, 0)

	assert.Equal(t, domain.OrderMapping{"a": 1, "b": 2, "c": 1, "d": 3, "e": 4}, actx.Display)
	assert.Equal(t, domain.OrderMapping{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5}, actx.Final)
	assert.Equal(t, 1, actx.Sources[2].DisplayNumber)
}

func TestBuildAnswerContext_Empty(t *testing.T) {
	actx := BuildAnswerContext(nil, 5)

	assert.Zero(t, actx.Len())
	assert.NotNil(t, actx.Final)
	assert.NotNil(t, actx.Display)
	_, ok := actx.Source("missing")
	assert.False(t, ok)
}

func TestAnswerContext_Source(t *testing.T) {
	actx := BuildAnswerContext([]domain.SearchResult{hit("a", "u", "x", 1), hit("b", "v", "y", 1)}, 0)

	src, ok := actx.Source("b")
	require.True(t, ok)
	assert.Equal(t, "b", src.DocumentID)
	assert.Equal(t, 2, src.FinalNumber)
}

func TestSnippet(t *testing.T) {
	t.Run("prefers highlight", func(t *testing.T) {
		r := hit("a", "", "body text", 1)
		r.Highlights = []string{"the   highlighted\nsentence"}
		assert.Equal(t, "the highlighted sentence", snippet(&r))
	})

	t.Run("cuts on a word boundary", func(t *testing.T) {
		r := hit("a", "", strings.Repeat("word ", 60), 1)
		got := snippet(&r)
		assert.True(t, strings.HasSuffix(got, "word..."))
		assert.LessOrEqual(t, len(got), snippetLength+3)
	})

	t.Run("cuts on a rune boundary", func(t *testing.T) {
		r := hit("a", "", strings.Repeat("é", 150), 1)
		got := snippet(&r)
		assert.True(t, strings.HasSuffix(got, "..."))
		assert.Equal(t, strings.Repeat("é", 100)+"...", got)
	})
}

func TestNormaliseURI(t *testing.T) {
	assert.Equal(t, "https://example.com/a", normaliseURI("  HTTPS://Example.com/a//  "))
	assert.Empty(t, normaliseURI("   "))
}
