// Package vectorstore stores legal chunks with their vectors and answers
// nearest-neighbour queries by cosine similarity.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"tendercheck-backend/models"
)

var (
	// ErrIndexUnavailable is returned when the backing store cannot be reached
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrTimeout is returned when an index call exceeds its deadline
	ErrTimeout = errors.New("vector index call timed out")
	// ErrDimensionMismatch is returned when a vector does not match the index
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Index is a nearest-neighbour store for legal chunks.
// Upsert is idempotent on chunk id. Query orders by descending cosine
// similarity, ties by insertion order.
type Index interface {
	Upsert(ctx context.Context, chunk models.LegalChunk, vector []float32) error
	Query(ctx context.Context, vector []float32, k int) ([]models.RetrievalResult, error)
}

// CosineSimilarity returns dot(a,b)/(|a||b|), or 0 when either vector is
// all-zero or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim))
}

// Relevance maps a cosine similarity onto [0,1]
func Relevance(similarity float64) float64 {
	return (similarity + 1) / 2
}

type entry struct {
	chunk  models.LegalChunk
	vector []float32
}

// rank scores entries (already in insertion order) and returns the top k
func rank(entries []entry, query []float32, k int) []models.RetrievalResult {
	type scored struct {
		chunk models.LegalChunk
		sim   float64
	}
	all := make([]scored, len(entries))
	for i, e := range entries {
		all[i] = scored{chunk: e.chunk, sim: CosineSimilarity(query, e.vector)}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].sim > all[j].sim
	})

	if k < 0 {
		k = 0
	}
	if k > len(all) {
		k = len(all)
	}
	results := make([]models.RetrievalResult, 0, k)
	for _, s := range all[:k] {
		results = append(results, models.RetrievalResult{
			Chunk:          s.chunk,
			RelevanceScore: Relevance(s.sim),
			MatchedText:    s.chunk.Text,
		})
	}
	return results
}

// TimeoutIndex bounds every call to an underlying index
type TimeoutIndex struct {
	next    Index
	timeout time.Duration
}

// NewTimeoutIndex wraps next so each call fails with ErrTimeout after d
func NewTimeoutIndex(next Index, d time.Duration) *TimeoutIndex {
	return &TimeoutIndex{next: next, timeout: d}
}

// Upsert forwards with a deadline
func (t *TimeoutIndex) Upsert(ctx context.Context, chunk models.LegalChunk, vector []float32) error {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.mapDeadline(callCtx, t.next.Upsert(callCtx, chunk, vector))
}

// Query forwards with a deadline
func (t *TimeoutIndex) Query(ctx context.Context, vector []float32, k int) ([]models.RetrievalResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type outcome struct {
		results []models.RetrievalResult
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		results, err := t.next.Query(callCtx, vector, k)
		done <- outcome{results, err}
	}()

	select {
	case out := <-done:
		return out.results, t.mapDeadline(callCtx, out.err)
	case <-callCtx.Done():
		return nil, t.mapDeadline(callCtx, callCtx.Err())
	}
}

func (t *TimeoutIndex) mapDeadline(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w after %s: %v", ErrTimeout, t.timeout, err)
	}
	return err
}
