// Package retrieval finds the legal passages relevant to a checklist question.
//
// Queries are embedded and answered by the vector index. Whenever that path
// cannot serve (degraded embedding, unavailable or slow index, rate limit,
// empty index) the retriever answers from the static corpus with keyword
// scoring instead, so retrieval never blocks an analysis.
package retrieval

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"tendercheck-backend/embedding"
	"tendercheck-backend/lexicon"
	"tendercheck-backend/models"
	"tendercheck-backend/ratelimit"
	"tendercheck-backend/vectorstore"
)

// DuplicateThreshold is the word-set Jaccard similarity above which two
// passages count as the same
const DuplicateThreshold = 0.85

// Mode tells which path served a retrieval
type Mode string

const (
	ModeVector  Mode = "vector"
	ModeKeyword Mode = "keyword"
)

// QueryEmbedder embeds a query and reports whether the vector is degraded
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) embedding.Result
}

// Retriever answers legal context queries
type Retriever struct {
	embedder QueryEmbedder
	index    vectorstore.Index
	fallback *KeywordScorer
}

// Option configures a Retriever
type Option func(*Retriever)

// WithIndex sets the vector index, bounding each query with timeout
func WithIndex(index vectorstore.Index, timeout time.Duration) Option {
	return func(r *Retriever) {
		if index == nil {
			return
		}
		if timeout > 0 {
			index = vectorstore.NewTimeoutIndex(index, timeout)
		}
		r.index = index
	}
}

// NewRetriever creates a retriever whose fallback corpus is fallbackCorpus
func NewRetriever(embedder QueryEmbedder, fallbackCorpus []models.LegalChunk, opts ...Option) *Retriever {
	r := &Retriever{
		embedder: embedder,
		fallback: NewKeywordScorer(fallbackCorpus),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns up to k chunks relevant to query and the path that served them
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]models.RetrievalResult, Mode) {
	if k <= 0 {
		return nil, ModeKeyword
	}
	if r.index == nil || r.embedder == nil {
		return r.fallback.Search(query, k), ModeKeyword
	}

	emb := r.embedder.Embed(ctx, query)
	if emb.Degraded {
		return r.fallback.Search(query, k), ModeKeyword
	}

	results, err := r.index.Query(ctx, emb.Vector, k)
	switch {
	case err == nil && len(results) > 0:
		return results, ModeVector
	case err == nil:
		log.Printf("Warning: vector index returned no results, using keyword fallback")
	case errors.Is(err, vectorstore.ErrIndexUnavailable),
		errors.Is(err, vectorstore.ErrTimeout),
		errors.Is(err, ratelimit.ErrRateLimited):
		log.Printf("Warning: vector index unavailable, using keyword fallback: %v", err)
	default:
		log.Printf("Warning: vector index query failed, using keyword fallback: %v", err)
	}
	return r.fallback.Search(query, k), ModeKeyword
}

// RetrieveAll runs every query, merges the results, drops repeated chunks
// and near-duplicate passages, and returns the top k.
//
// Vector relevance is on the same cosine scale for every query and ranks
// first. Keyword results are ranked by their raw term score and rescaled
// against the best raw score of the merged set, since Search normalises
// per query.
func (r *Retriever) RetrieveAll(ctx context.Context, queries []string, k int) []models.RetrievalResult {
	type keywordHit struct {
		res models.RetrievalResult
		raw int
	}
	var (
		vector  []models.RetrievalResult
		keyword []keywordHit
	)
	for _, q := range queries {
		if q == "" {
			continue
		}
		results, mode := r.Retrieve(ctx, q, k)
		if mode == ModeVector {
			vector = append(vector, results...)
			continue
		}
		terms := lexicon.Terms(q)
		for _, res := range results {
			keyword = append(keyword, keywordHit{res: res, raw: Score(res.Chunk, terms)})
		}
	}

	sort.SliceStable(vector, func(i, j int) bool {
		return vector[i].RelevanceScore > vector[j].RelevanceScore
	})
	sort.SliceStable(keyword, func(i, j int) bool {
		return keyword[i].raw > keyword[j].raw
	})

	merged := vector
	for _, hit := range keyword {
		hit.res.RelevanceScore = 0
		if best := keyword[0].raw; best > 0 {
			hit.res.RelevanceScore = float64(hit.raw) / float64(best)
		}
		merged = append(merged, hit.res)
	}
	deduped := Dedupe(merged)
	if len(deduped) > k {
		deduped = deduped[:k]
	}
	return deduped
}

// Dedupe keeps the first occurrence of each chunk id and drops passages
// whose text is a near duplicate of an earlier one.
func Dedupe(results []models.RetrievalResult) []models.RetrievalResult {
	kept := make([]models.RetrievalResult, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, res := range results {
		if seen[res.Chunk.ID] {
			continue
		}
		duplicate := false
		for _, k := range kept {
			if lexicon.Jaccard(k.MatchedText, res.MatchedText) > DuplicateThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		seen[res.Chunk.ID] = true
		kept = append(kept, res)
	}
	return kept
}
