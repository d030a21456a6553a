package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"math"
	"slices"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

// vectorIndex implements driven.VectorIndex with an exhaustive cosine scan
// over chunks.embedding. Fine for a personal index; there is no ANN structure.
type vectorIndex struct {
	db *sql.DB
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Add stores the embedding of an existing chunk.
func (v *vectorIndex) Add(ctx context.Context, chunkID string, embedding []float32) error {
	res, err := v.db.ExecContext(ctx, "UPDATE chunks SET embedding = ? WHERE id = ?", encodeEmbedding(embedding), chunkID)
	if err != nil {
		return fmt.Errorf("storing embedding for %s: %w", chunkID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("chunk %s: %w", chunkID, domain.ErrNotFound)
	}
	return nil
}

// Delete clears the embedding of a chunk.
func (v *vectorIndex) Delete(ctx context.Context, chunkID string) error {
	if _, err := v.db.ExecContext(ctx, "UPDATE chunks SET embedding = NULL WHERE id = ?", chunkID); err != nil {
		return fmt.Errorf("clearing embedding for %s: %w", chunkID, err)
	}
	return nil
}

// Search returns the k chunks most similar to query. Embeddings of a
// different dimension are skipped.
func (v *vectorIndex) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	queryNorm := norm(query)
	if k <= 0 || queryNorm == 0 {
		return []driven.VectorHit{}, nil
	}

	rows, err := v.db.QueryContext(ctx, "SELECT id, embedding FROM chunks WHERE embedding IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	hits := []driven.VectorHit{}
	for rows.Next() {
		var (
			id   string
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}

		emb := decodeEmbedding(blob)
		if len(emb) != len(query) {
			continue
		}
		if sim, ok := cosine(query, emb, queryNorm); ok {
			hits = append(hits, driven.VectorHit{ChunkID: id, Similarity: sim})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	slices.SortFunc(hits, func(a, b driven.VectorHit) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.ChunkID, b.ChunkID)
	})
	return hits[:min(k, len(hits))], nil
}

// Close is a no-op; the Store owns the connection.
func (v *vectorIndex) Close() error {
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns the cosine similarity of a and b given |a|.
// ok is false when b is the zero vector.
func cosine(a, b []float32, aNorm float64) (float64, bool) {
	var dot, bSum float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		bSum += float64(b[i]) * float64(b[i])
	}
	if bSum == 0 {
		return 0, false
	}
	return dot / (aNorm * math.Sqrt(bSum)), true
}
