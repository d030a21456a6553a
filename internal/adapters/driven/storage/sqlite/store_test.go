package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func saveDocument(t *testing.T, store *Store, docID, sourceID string, chunks ...string) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	docs := store.DocumentStore()

	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{
		ID: docID, SourceID: sourceID, URI: "file:///notes/" + docID, Title: "Doc " + docID,
		CreatedAt: now, UpdatedAt: now,
	}))

	saved := make([]domain.Chunk, len(chunks))
	for i, content := range chunks {
		saved[i] = domain.Chunk{ID: chunkID(docID, i), DocumentID: docID, Content: content, Position: i}
	}
	require.NoError(t, docs.SaveChunks(ctx, saved))
}

func chunkID(docID string, i int) string {
	return docID + "#" + string(rune('0'+i))
}

func hitIDs[T any](hits []T, id func(T) string) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = id(h)
	}
	return ids
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "metadata.db"), store.Path())
	require.NoError(t, store.Close())

	// Reopening must not re-run migrations.
	again, err := NewStore(dir)
	require.NoError(t, err)
	defer again.Close()

	var versions int
	require.NoError(t, again.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions)
}

func TestNewStore_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = NewStore(store.Path())
	assert.Error(t, err)
}

func TestDocumentStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()
	parent := "root"

	doc := &domain.Document{
		ID: "doc-1", SourceID: "src-1", URI: "https://wiki/page", Title: "Page", Content: "full text",
		ParentID: &parent, Metadata: map[string]any{"author": "kim"},
		CreatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), UpdatedAt: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, docs.SaveDocument(ctx, doc))
	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{ID: "c2", DocumentID: "doc-1", Content: "second", Position: 1},
		{ID: "c1", DocumentID: "doc-1", Content: "first", Position: 0, Embedding: []float32{0.5, -1}},
	}))

	got, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Page", got.Title)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, "root", *got.ParentID)
	assert.Equal(t, "kim", got.Metadata["author"])
	assert.True(t, doc.CreatedAt.Equal(got.CreatedAt))

	chunks, err := docs.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, hitIDs(chunks, func(c domain.Chunk) string { return c.ID }))
	assert.Equal(t, []float32{0.5, -1}, chunks[0].Embedding)
	assert.Nil(t, chunks[1].Embedding)

	chunk, err := docs.GetChunk(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "second", chunk.Content)

	listed, err := docs.ListDocuments(ctx, "src-1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestDocumentStore_NotFound(t *testing.T) {
	docs := setupTestStore(t).DocumentStore()
	ctx := context.Background()

	_, err := docs.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = docs.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := docs.GetChunks(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDocumentStore_ChunkRequiresDocument(t *testing.T) {
	docs := setupTestStore(t).DocumentStore()

	err := docs.SaveChunks(context.Background(), []domain.Chunk{{ID: "c", DocumentID: "nope", Content: "x"}})

	assert.Error(t, err)
}

func TestSearchEngine_RanksByRelevance(t *testing.T) {
	store := setupTestStore(t)
	saveDocument(t, store, "a", "s", "The quick brown fox jumps over the lazy dog.")
	saveDocument(t, store, "b", "s", "Foxes are quick. A fox is quick and a fox is clever.")
	saveDocument(t, store, "c", "s", "Nothing relevant lives here.")

	hits, err := store.SearchEngine().Search(context.Background(), "fox", 10)

	require.NoError(t, err)
	ids := hitIDs(hits, func(h driven.SearchHit) string { return h.ChunkID })
	assert.Equal(t, []string{"b#0", "a#0"}, ids)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.Positive(t, hits[1].Score)
}

func TestSearchEngine_QueryIsNotFTSSyntax(t *testing.T) {
	store := setupTestStore(t)
	saveDocument(t, store, "a", "s", "config NEAR the content column")
	engine := store.SearchEngine()
	ctx := context.Background()

	for _, q := range []string{`content:config`, `"unbalanced`, `config AND OR NOT`, `NEAR(config)`, `*`, `col^umn-`} {
		_, err := engine.Search(ctx, q, 5)
		assert.NoError(t, err, "query %q", q)
	}

	hits, err := engine.Search(ctx, "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchEngine_FollowsChunkChanges(t *testing.T) {
	store := setupTestStore(t)
	saveDocument(t, store, "a", "s", "original wording")
	engine := store.SearchEngine()
	ctx := context.Background()

	require.NoError(t, engine.Index(ctx, domain.Chunk{ID: "a#0", DocumentID: "a", Content: "replacement wording"}))

	hits, err := engine.Search(ctx, "original", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
	hits, err = engine.Search(ctx, "replacement", 5)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	require.NoError(t, engine.Delete(ctx, "a#0"))
	hits, err = engine.Search(ctx, "wording", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchEngine_DeleteDocumentCascades(t *testing.T) {
	store := setupTestStore(t)
	saveDocument(t, store, "a", "s", "ephemeral note", "another ephemeral line")
	ctx := context.Background()

	require.NoError(t, store.DocumentStore().DeleteDocument(ctx, "a"))

	hits, err := store.SearchEngine().Search(ctx, "ephemeral", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
	_, err = store.DocumentStore().GetChunk(ctx, "a#1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMatchExpression(t *testing.T) {
	assert.Equal(t, `"hello" OR "world"`, matchExpression("Hello, world! hello"))
	assert.Equal(t, `"content" OR "x"`, matchExpression(`content:"x"`))
	assert.Equal(t, `"naïve" OR "café"`, matchExpression("naïve café"))
	assert.Empty(t, matchExpression(" ?! "))
}

func TestVectorIndex(t *testing.T) {
	store := setupTestStore(t)
	saveDocument(t, store, "a", "s", "one", "two", "three", "four")
	index := store.VectorIndex()
	ctx := context.Background()

	require.NoError(t, index.Add(ctx, "a#0", []float32{1, 0}))
	require.NoError(t, index.Add(ctx, "a#1", []float32{0.8, 0.6}))
	require.NoError(t, index.Add(ctx, "a#2", []float32{0, 1}))
	require.NoError(t, index.Add(ctx, "a#3", []float32{1, 0, 0}))

	hits, err := index.Search(ctx, []float32{2, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a#0", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, "a#1", hits[1].ChunkID)
	assert.InDelta(t, 0.8, hits[1].Similarity, 1e-6)

	require.NoError(t, index.Delete(ctx, "a#0"))
	hits, err = index.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a#1", "a#2"}, hitIDs(hits, func(h driven.VectorHit) string { return h.ChunkID }))

	assert.ErrorIs(t, index.Add(ctx, "missing", []float32{1}), domain.ErrNotFound)

	empty, err := index.Search(ctx, []float32{0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSourceCatalog(t *testing.T) {
	catalog := setupTestStore(t).SourceCatalog()
	ctx := context.Background()

	require.NoError(t, catalog.SaveSource(ctx, "src-1", "filesystem", "Notes"))
	require.NoError(t, catalog.SaveSource(ctx, "src-1", "filesystem", "Work Notes"))

	name, err := catalog.SourceName(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, "Work Notes", name)

	name, err = catalog.SourceName(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestEmbeddingEncoding(t *testing.T) {
	v := []float32{0, 1.5, -2.25, 3e-7}
	assert.Equal(t, v, decodeEmbedding(encodeEmbedding(v)))
	assert.Nil(t, encodeEmbedding(nil))
	assert.Nil(t, decodeEmbedding([]byte{1, 2}))
}
