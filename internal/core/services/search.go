package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-chat/internal/logger"
	"github.com/custodia-labs/sercha-chat/internal/metrics"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

const (
	// defaultSearchLimit applies when SearchOptions.Limit is not set.
	defaultSearchLimit = 20

	// rrfK damps the influence of top ranks in reciprocal rank fusion.
	rrfK = 60

	// maxHighlights and highlightLength bound the snippets per result.
	maxHighlights   = 3
	highlightLength = 200
)

// scoredChunk is a ranked hit before it is hydrated into a SearchResult.
type scoredChunk struct {
	chunkID string
	score   float64
}

// SearchService retrieves chunks from the index, using whichever of keyword,
// vector and LLM query expansion are available.
type SearchService struct {
	docStore         driven.DocumentStore
	searchIndex      driven.SearchEngine
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	llmService       driven.LLMService
	sourceCatalog    driven.SourceCatalog
}

// NewSearchService creates a new search service.
// vectorIndex, embeddingService and llmService are optional (can be nil).
func NewSearchService(
	docStore driven.DocumentStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	llmService driven.LLMService,
) *SearchService {
	return &SearchService{
		docStore:         docStore,
		searchIndex:      searchIndex,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		llmService:       llmService,
	}
}

// SetSourceCatalog sets the catalog used to fill SearchResult.SourceName.
func (s *SearchService) SetSourceCatalog(catalog driven.SourceCatalog) {
	s.sourceCatalog = catalog
}

// Search runs query in the best mode the configured services allow and
// returns hydrated, filtered and paginated results.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	// Over-fetch so filtering and chunk collapse still leave enough results.
	fetch := limit * 2
	if len(opts.SourceIDs) > 0 {
		fetch = limit * 3
	}

	mode := s.effectiveMode(opts)
	logger.Info("Search mode: %s (limit %d, offset %d, fetch %d)", mode.Description(), limit, opts.Offset, fetch)

	started := time.Now()
	chunks, err := s.run(ctx, mode, query, fetch)
	metrics.RecordSearch(mode, time.Since(started))
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, fmt.Errorf("search: %w", err)
	}

	results, err := s.hydrateResults(ctx, chunks, query)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}

	if len(opts.SourceIDs) > 0 {
		results = filterBySourceIDs(results, opts.SourceIDs)
	}
	results = paginate(results, opts.Offset, limit)

	logger.Info("Search returned %d of %d hits", len(results), len(chunks))
	return results, nil
}

func (s *SearchService) run(ctx context.Context, mode domain.SearchMode, query string, limit int) ([]scoredChunk, error) {
	switch mode {
	case domain.SearchModeHybrid:
		return s.hybridSearch(ctx, query, limit)
	case domain.SearchModeLLMAssisted:
		return s.keywordSearch(ctx, s.expandQuery(ctx, query), limit)
	case domain.SearchModeFull:
		return s.hybridSearch(ctx, s.expandQuery(ctx, query), limit)
	default:
		return s.keywordSearch(ctx, query, limit)
	}
}

// effectiveMode picks a search mode from the options and the services that
// are actually available, degrading rather than failing.
func (s *SearchService) effectiveMode(opts domain.SearchOptions) domain.SearchMode {
	canDoVector := s.vectorIndex != nil && s.embeddingService != nil
	canDoLLM := s.llmService != nil

	switch {
	case opts.Semantic && canDoVector:
		return domain.SearchModeHybrid
	case opts.Hybrid && canDoVector:
		return domain.SearchModeHybrid
	case opts.Hybrid:
		return domain.SearchModeTextOnly
	case canDoVector && canDoLLM:
		return domain.SearchModeFull
	case canDoVector:
		return domain.SearchModeHybrid
	case canDoLLM:
		return domain.SearchModeLLMAssisted
	default:
		return domain.SearchModeTextOnly
	}
}

// expandQuery asks the LLM to rewrite query for recall. Failures fall back
// to the original query.
func (s *SearchService) expandQuery(ctx context.Context, query string) string {
	if s.llmService == nil {
		return query
	}

	expanded, err := s.llmService.RewriteQuery(ctx, query)
	if err != nil {
		logger.Warn("Query rewrite failed, using original query: %v", err)
		return query
	}
	if expanded = strings.TrimSpace(expanded); expanded == "" {
		return query
	}

	logger.Info("Query rewritten: %q -> %q", query, expanded)
	return expanded
}

func (s *SearchService) keywordSearch(ctx context.Context, query string, limit int) ([]scoredChunk, error) {
	if s.searchIndex == nil {
		return nil, domain.ErrSearchUnavailable
	}

	hits, err := s.searchIndex.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	logger.Debug("Keyword search: %d hits", len(hits))

	results := make([]scoredChunk, len(hits))
	for i, hit := range hits {
		results[i] = scoredChunk{chunkID: hit.ChunkID, score: hit.Score}
	}
	return results, nil
}

func (s *SearchService) vectorSearch(ctx context.Context, query string, limit int) ([]scoredChunk, error) {
	if s.vectorIndex == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	embedding, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectorIndex.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d hits (%d dimensions)", len(hits), len(embedding))

	results := make([]scoredChunk, len(hits))
	for i, hit := range hits {
		results[i] = scoredChunk{chunkID: hit.ChunkID, score: hit.Similarity}
	}
	return results, nil
}

// hybridSearch runs keyword and vector search concurrently and fuses the
// rankings. If one side fails the other is used alone.
func (s *SearchService) hybridSearch(ctx context.Context, query string, limit int) ([]scoredChunk, error) {
	var keyword, vector []scoredChunk
	var keywordErr, vectorErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		keyword, keywordErr = s.keywordSearch(ctx, query, limit)
	}()
	go func() {
		defer wg.Done()
		vector, vectorErr = s.vectorSearch(ctx, query, limit)
	}()
	wg.Wait()

	switch {
	case keywordErr != nil && vectorErr != nil:
		return nil, fmt.Errorf("hybrid search: %w", errors.Join(keywordErr, vectorErr))
	case keywordErr != nil:
		logger.Warn("Keyword search failed, using vector results only: %v", keywordErr)
		return vector, nil
	case vectorErr != nil:
		logger.Warn("Vector search failed, using keyword results only: %v", vectorErr)
		return keyword, nil
	}

	return reciprocalRankFusion(rrfK, keyword, vector), nil
}

// reciprocalRankFusion merges rankings by summing 1/(k+rank) per chunk.
// Ties keep the order in which chunks were first seen.
func reciprocalRankFusion(k int, lists ...[]scoredChunk) []scoredChunk {
	scores := make(map[string]float64)
	firstSeen := make(map[string]int)

	for _, list := range lists {
		for rank, chunk := range list {
			if _, ok := firstSeen[chunk.chunkID]; !ok {
				firstSeen[chunk.chunkID] = len(firstSeen)
			}
			scores[chunk.chunkID] += 1.0 / float64(k+rank+1)
		}
	}

	ids := slices.Collect(maps.Keys(scores))
	slices.SortFunc(ids, func(a, b string) int {
		if c := cmp.Compare(scores[b], scores[a]); c != 0 {
			return c
		}
		return cmp.Compare(firstSeen[a], firstSeen[b])
	})

	merged := make([]scoredChunk, len(ids))
	for i, id := range ids {
		merged[i] = scoredChunk{chunkID: id, score: scores[id]}
	}
	return merged
}

// hydrateResults loads the chunk and document behind each hit. Hits whose
// chunk or document has disappeared are skipped.
func (s *SearchService) hydrateResults(
	ctx context.Context, chunks []scoredChunk, query string,
) ([]domain.SearchResult, error) {
	if s.docStore == nil {
		return nil, errors.New("document store unavailable")
	}

	results := make([]domain.SearchResult, 0, len(chunks))
	for _, sc := range chunks {
		chunk, err := s.docStore.GetChunk(ctx, sc.chunkID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get chunk %s: %w", sc.chunkID, err)
		}

		doc, err := s.docStore.GetDocument(ctx, chunk.DocumentID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get document %s: %w", chunk.DocumentID, err)
		}

		results = append(results, domain.SearchResult{
			Document:   *doc,
			Chunk:      *chunk,
			Score:      sc.score,
			Highlights: highlights(chunk.Content, query),
			SourceName: s.sourceName(ctx, doc.SourceID),
		})
	}
	return results, nil
}

// sourceName looks up the display name of a source. Lookup failures only
// lose the label, so they are logged and ignored.
func (s *SearchService) sourceName(ctx context.Context, sourceID string) string {
	if s.sourceCatalog == nil || sourceID == "" {
		return ""
	}

	name, err := s.sourceCatalog.SourceName(ctx, sourceID)
	if err != nil {
		logger.Debug("Source name for %s unavailable: %v", sourceID, err)
		return ""
	}
	return name
}

// highlights returns up to maxHighlights sentences containing a query term.
func highlights(content, query string) []string {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	var out []string
	for _, sentence := range splitSentences(content) {
		lower := strings.ToLower(sentence)
		if !slices.ContainsFunc(terms, func(term string) bool { return strings.Contains(lower, term) }) {
			continue
		}
		if len(sentence) > highlightLength {
			sentence = truncate(sentence, highlightLength)
		}
		out = append(out, sentence)
		if len(out) == maxHighlights {
			break
		}
	}
	return out
}

// splitSentences splits content after '.', '!', '?' and newlines.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for _, r := range content {
		current.WriteRune(r)
		switch r {
		case '.', '!', '?', '\n':
			flush()
		}
	}
	flush()

	return sentences
}

func filterBySourceIDs(results []domain.SearchResult, sourceIDs []string) []domain.SearchResult {
	filtered := make([]domain.SearchResult, 0, len(results))
	for i := range results {
		if slices.Contains(sourceIDs, results[i].Document.SourceID) {
			filtered = append(filtered, results[i])
		}
	}
	return filtered
}

func paginate(results []domain.SearchResult, offset, limit int) []domain.SearchResult {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []domain.SearchResult{}
	}
	return results[offset:min(offset+limit, len(results))]
}
