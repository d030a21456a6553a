package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderMapping_Lookup(t *testing.T) {
	var empty OrderMapping
	_, ok := empty.Lookup("a")
	assert.False(t, ok)

	m := OrderMapping{"a": 2}
	n, ok := m.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, 2, n)
}

func TestEventConstructors(t *testing.T) {
	text := TextEvent("hello")
	assert.Equal(t, AnswerEventText, text.Type)
	assert.Equal(t, "hello", text.Text)

	cite := CitationEvent(3, "doc-7")
	assert.Equal(t, AnswerEventCitation, cite.Type)
	require.NotNil(t, cite.Citation)
	assert.Equal(t, CitationInfo{Number: 3, DocumentID: "doc-7"}, *cite.Citation)
}

func TestAnswerEvent_JSON(t *testing.T) {
	data, err := json.Marshal(CitationEvent(1, "doc-1"))
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"citation","citation":{"citation_num":1,"document_id":"doc-1"}}`, string(data))
}

func TestAnswer_Duration(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.Zero(t, (&Answer{StartedAt: start}).Duration())
	assert.Equal(t, 1500*time.Millisecond,
		(&Answer{StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)}).Duration())
}
