// Package vectorstore holds the in-memory similarity index the RAG pipeline
// retrieves from. A linear cosine scan is deliberate: the corpus is bounded by
// ingestion volume, and the contract leaves room to swap in an ANN structure
// behind the same interface later.
package vectorstore

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// SimilarityThreshold filters out weak matches; anything at or below this
// score is noise for grounding purposes.
const SimilarityThreshold = 0.5

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Chunk is the unit of retrieval: a span of article text with its embedding.
// Immutable once added; ArticleID is a lookup key into the article store, not
// an owned reference.
type Chunk struct {
	ID        string
	ArticleID int64
	Text      string
	Embedding []float32
}

// Result pairs a chunk with its similarity to the query.
type Result struct {
	Chunk      Chunk
	Similarity float64
}

// Index stores chunks and answers top-k cosine similarity queries.
// All methods are safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	dimension int
	chunks    []Chunk
}

// NewIndex creates an index that accepts vectors of the given dimension.
func NewIndex(dimension int) *Index {
	return &Index{dimension: dimension}
}

// Dimension returns the fixed embedding dimension of this index.
func (ix *Index) Dimension() int {
	return ix.dimension
}

// Len returns the number of stored chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// Add appends a chunk. No uniqueness constraint on ID beyond caller
// discipline. Vectors of the wrong dimension are rejected rather than
// silently truncated or padded.
func (ix *Index) Add(chunk Chunk) error {
	if len(chunk.Embedding) != ix.dimension {
		return fmt.Errorf("%w: chunk %q has dimension %d, index expects %d",
			ErrDimensionMismatch, chunk.ID, len(chunk.Embedding), ix.dimension)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.chunks = append(ix.chunks, chunk)
	return nil
}

// Search returns up to k chunks with the highest cosine similarity to the
// query, filtered to similarity > SimilarityThreshold and sorted descending.
// Ties keep insertion order (earlier-inserted wins). An empty index yields an
// empty slice, not an error.
func (ix *Index) Search(query []float32, k int) ([]Result, error) {
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			ErrDimensionMismatch, len(query), ix.dimension)
	}
	if k <= 0 {
		return []Result{}, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	results := make([]Result, 0, k)
	for _, chunk := range ix.chunks {
		sim := cosineSimilarity(query, chunk.Embedding)
		if sim > SimilarityThreshold {
			results = append(results, Result{Chunk: chunk, Similarity: sim})
		}
	}

	// Stable sort keeps insertion order among equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// cosineSimilarity computes dot(a,b) / (|a| * |b|). A zero-norm vector has
// similarity 0 with anything; never a division error.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
