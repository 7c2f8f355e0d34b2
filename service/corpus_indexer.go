package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"tendercheck-backend/chunker"
	"tendercheck-backend/models"
	"tendercheck-backend/vectorstore"
)

// StrictEmbedder embeds without falling back to placeholder vectors
type StrictEmbedder interface {
	EmbedStrict(ctx context.Context, text string) ([]float32, error)
}

// IndexFailure records one chunk that could not be indexed
type IndexFailure struct {
	ChunkID string
	Err     error
}

// IndexReport summarises a batch indexing run
type IndexReport struct {
	Total    int
	Indexed  int
	Failures []IndexFailure
	// ByCategory counts indexed chunks per corpus category
	ByCategory map[string]int
}

// AllFailed reports whether there was work and none of it succeeded
func (r IndexReport) AllFailed() bool {
	return r.Total > 0 && r.Indexed == 0
}

// CorpusIndexer embeds legal chunks and upserts them into an index
type CorpusIndexer struct {
	embedder  StrictEmbedder
	index     vectorstore.Index
	maxTokens int
}

// NewCorpusIndexer creates an indexer. With maxTokens > 0, chunks whose text
// exceeds the budget are split on sentence boundaries first.
func NewCorpusIndexer(embedder StrictEmbedder, index vectorstore.Index, maxTokens int) *CorpusIndexer {
	return &CorpusIndexer{embedder: embedder, index: index, maxTokens: maxTokens}
}

// Index processes every chunk, continuing past failures
func (ix *CorpusIndexer) Index(ctx context.Context, chunks []models.LegalChunk) IndexReport {
	report := IndexReport{ByCategory: make(map[string]int)}
	for _, chunk := range ix.split(chunks) {
		report.Total++
		if err := ctx.Err(); err != nil {
			report.Failures = append(report.Failures, IndexFailure{ChunkID: chunk.ID, Err: err})
			continue
		}

		log.Printf("📄 Indexing: %s (%s, %s)", chunk.ID, chunk.Citation(), chunk.Category())
		vector, err := ix.embedder.EmbedStrict(ctx, chunk.Text)
		if err == nil && len(vector) == 0 {
			err = errors.New("empty embedding")
		}
		if err != nil {
			log.Printf("   ❌ Error generating embedding: %v", err)
			report.Failures = append(report.Failures, IndexFailure{ChunkID: chunk.ID, Err: fmt.Errorf("failed to embed: %w", err)})
			continue
		}

		if err := ix.index.Upsert(ctx, chunk, vector); err != nil {
			log.Printf("   ❌ Error storing chunk: %v", err)
			report.Failures = append(report.Failures, IndexFailure{ChunkID: chunk.ID, Err: fmt.Errorf("failed to upsert: %w", err)})
			continue
		}

		report.Indexed++
		report.ByCategory[chunk.Category()]++
		log.Printf("   ✓ Stored %s", chunk.ID)
	}
	return report
}

// split breaks oversized chunks into sentence-aligned parts with derived ids
func (ix *CorpusIndexer) split(chunks []models.LegalChunk) []models.LegalChunk {
	if ix.maxTokens <= 0 {
		return chunks
	}
	out := make([]models.LegalChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunker.EstimateTokens(chunk.Text) <= float64(ix.maxTokens) {
			out = append(out, chunk)
			continue
		}
		parts := chunker.Chunk(chunk.Text, ix.maxTokens)
		for i, text := range parts {
			part := chunk
			part.ID = fmt.Sprintf("%s#%d", chunk.ID, i+1)
			part.Text = text
			out = append(out, part)
		}
	}
	return out
}
