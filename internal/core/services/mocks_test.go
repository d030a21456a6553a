package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

// mockSearchEngine implements driven.SearchEngine for testing.
type mockSearchEngine struct {
	hits      []driven.SearchHit
	searchErr error
	queries   []string
}

func (m *mockSearchEngine) Index(_ context.Context, _ domain.Chunk) error { return nil }
func (m *mockSearchEngine) Delete(_ context.Context, _ string) error      { return nil }
func (m *mockSearchEngine) Close() error                                  { return nil }

func (m *mockSearchEngine) Search(_ context.Context, query string, limit int) ([]driven.SearchHit, error) {
	m.queries = append(m.queries, query)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits[:min(limit, len(m.hits))], nil
}

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	hits      []driven.VectorHit
	searchErr error
}

func (m *mockVectorIndex) Add(_ context.Context, _ string, _ []float32) error { return nil }
func (m *mockVectorIndex) Delete(_ context.Context, _ string) error           { return nil }
func (m *mockVectorIndex) Close() error                                       { return nil }

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits[:min(k, len(m.hits))], nil
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	return m.embedding, m.embedErr
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.embedding
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return len(m.embedding) }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLMService implements driven.LLMService. ChatStream replays tokens.
type mockLLMService struct {
	rewriteResult string
	rewriteErr    error

	tokens    []string
	streamErr error // returned by ChatStream itself
	chunkErr  error // sent after the tokens instead of Done
	noDone    bool  // close the channel without Done
	hold      chan struct{}
	exited    chan struct{} // closed when the stream goroutine returns

	mu       sync.Mutex
	messages []driven.ChatMessage
}

func (m *mockLLMService) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return "", nil
}

func (m *mockLLMService) ChatStream(
	ctx context.Context, messages []driven.ChatMessage, _ driven.ChatOptions,
) (<-chan driven.StreamChunk, error) {
	m.mu.Lock()
	m.messages = messages
	m.mu.Unlock()

	if m.streamErr != nil {
		return nil, m.streamErr
	}

	out := make(chan driven.StreamChunk)
	go func() {
		defer close(out)
		if m.exited != nil {
			defer close(m.exited)
		}
		send := func(c driven.StreamChunk) bool {
			select {
			case out <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, tok := range m.tokens {
			if !send(driven.StreamChunk{Content: tok}) {
				return
			}
		}
		if m.hold != nil {
			select {
			case <-m.hold:
			case <-ctx.Done():
				return
			}
		}
		switch {
		case m.chunkErr != nil:
			send(driven.StreamChunk{Err: m.chunkErr})
		case !m.noDone:
			send(driven.StreamChunk{Done: true})
		}
	}()
	return out, nil
}

func (m *mockLLMService) sentMessages() []driven.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages
}

func (m *mockLLMService) RewriteQuery(_ context.Context, query string) (string, error) {
	if m.rewriteErr != nil {
		return "", m.rewriteErr
	}
	if m.rewriteResult != "" {
		return m.rewriteResult, nil
	}
	return query + " expanded", nil
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// stubSearch implements driving.SearchService with canned results.
type stubSearch struct {
	results []domain.SearchResult
	err     error
	opts    domain.SearchOptions
}

func (s *stubSearch) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	s.opts = opts
	return s.results, s.err
}

// mapPromptStore implements driven.PromptStore from a map.
type mapPromptStore map[string]string

func (m mapPromptStore) Load(name string) (string, error) {
	if p, ok := m[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (m mapPromptStore) Reload() {}

// mapSourceCatalog implements driven.SourceCatalog from a map.
type mapSourceCatalog map[string]string

func (m mapSourceCatalog) SourceName(_ context.Context, sourceID string) (string, error) {
	return m[sourceID], nil
}

// mapConfigStore implements driven.ConfigStore over a map.
type mapConfigStore map[string]any

func (m mapConfigStore) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapConfigStore) GetString(key string) string {
	s, _ := m[key].(string)
	return s
}

func (m mapConfigStore) GetInt(key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

func (m mapConfigStore) GetBool(key string) bool {
	b, _ := m[key].(bool)
	return b
}

func (m mapConfigStore) GetStringSlice(key string) []string {
	s, _ := m[key].([]string)
	return s
}

func (m mapConfigStore) Set(key string, value any) error {
	m[key] = value
	return nil
}

func (m mapConfigStore) Save() error  { return nil }
func (m mapConfigStore) Load() error  { return nil }
func (m mapConfigStore) Path() string { return "" }

// fakeDocStore implements driven.DocumentStore with maps.
type fakeDocStore struct {
	docs   map[string]domain.Document
	chunks map[string]domain.Chunk
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: make(map[string]domain.Document), chunks: make(map[string]domain.Chunk)}
}

func (f *fakeDocStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	f.docs[doc.ID] = *doc
	return nil
}

func (f *fakeDocStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	for _, c := range chunks {
		f.chunks[c.ID] = c
	}
	return nil
}

func (f *fakeDocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (f *fakeDocStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	var out []domain.Chunk
	for _, c := range f.chunks {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeDocStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	c, ok := f.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (f *fakeDocStore) DeleteDocument(_ context.Context, id string) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeDocStore) ListDocuments(_ context.Context, sourceID string) ([]domain.Document, error) {
	var out []domain.Document
	for _, d := range f.docs {
		if d.SourceID == sourceID {
			out = append(out, d)
		}
	}
	return out, nil
}
