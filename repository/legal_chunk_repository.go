package repository

import (
	"context"
	"fmt"
	"time"

	"tendercheck-backend/models"
	"tendercheck-backend/vectorstore"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LegalChunkRepository is the pgvector implementation of vectorstore.Index
type LegalChunkRepository struct {
	db   *pgxpool.Pool
	dims int
}

// NewLegalChunkRepository creates a new legal chunk repository. dims must
// match the vector column of the legal_chunks table.
func NewLegalChunkRepository(db *pgxpool.Pool, dims int) *LegalChunkRepository {
	return &LegalChunkRepository{db: db, dims: dims}
}

// Upsert inserts the chunk or replaces it in place, keeping its position
func (r *LegalChunkRepository) Upsert(ctx context.Context, chunk models.LegalChunk, vector []float32) error {
	if r.dims > 0 && len(vector) != r.dims {
		return fmt.Errorf("%w: got %d, want %d", vectorstore.ErrDimensionMismatch, len(vector), r.dims)
	}

	var date *time.Time
	if !chunk.Date.IsZero() {
		date = &chunk.Date
	}
	tags := chunk.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `
		INSERT INTO legal_chunks (
			id, source, chapter, article, paragraph, chunk_text, tags, effective_date, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::vector)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			chapter = EXCLUDED.chapter,
			article = EXCLUDED.article,
			paragraph = EXCLUDED.paragraph,
			chunk_text = EXCLUDED.chunk_text,
			tags = EXCLUDED.tags,
			effective_date = EXCLUDED.effective_date,
			embedding = EXCLUDED.embedding,
			updated_at = NOW()`

	_, err := r.db.Exec(ctx, query,
		chunk.ID,
		chunk.Source,
		chunk.Chapter,
		chunk.Article,
		chunk.Paragraph,
		chunk.Text,
		tags,
		date,
		formatVector(vector),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert legal chunk %s: %v", vectorstore.ErrIndexUnavailable, chunk.ID, err)
	}
	return nil
}

// Query returns the k chunks nearest to vector by cosine distance, ties in
// insertion order
func (r *LegalChunkRepository) Query(ctx context.Context, vector []float32, k int) ([]models.RetrievalResult, error) {
	if k <= 0 {
		return []models.RetrievalResult{}, nil
	}
	if r.dims > 0 && len(vector) != r.dims {
		return nil, fmt.Errorf("%w: got %d, want %d", vectorstore.ErrDimensionMismatch, len(vector), r.dims)
	}

	query := `
		SELECT
			id,
			source,
			chapter,
			article,
			paragraph,
			chunk_text,
			tags,
			effective_date,
			embedding <=> $1::vector AS distance
		FROM legal_chunks
		WHERE embedding IS NOT NULL
		ORDER BY distance, seq
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, formatVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query legal chunks: %v", vectorstore.ErrIndexUnavailable, err)
	}
	defer rows.Close()

	results := make([]models.RetrievalResult, 0, k)
	for rows.Next() {
		var (
			chunk    models.LegalChunk
			date     *time.Time
			distance float64
		)
		err := rows.Scan(
			&chunk.ID,
			&chunk.Source,
			&chunk.Chapter,
			&chunk.Article,
			&chunk.Paragraph,
			&chunk.Text,
			&chunk.Tags,
			&date,
			&distance,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan legal chunk: %v", vectorstore.ErrIndexUnavailable, err)
		}
		if date != nil {
			chunk.Date = *date
		}
		results = append(results, models.RetrievalResult{
			Chunk:          chunk,
			RelevanceScore: distanceRelevance(distance),
			MatchedText:    chunk.Text,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating legal chunks: %v", vectorstore.ErrIndexUnavailable, err)
	}

	return results, nil
}

// Count returns the number of indexed chunks
func (r *LegalChunkRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM legal_chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: failed to count legal chunks: %v", vectorstore.ErrIndexUnavailable, err)
	}
	return n, nil
}

// distanceRelevance converts a pgvector cosine distance (1 - similarity)
// to the relevance scale used by every index
func distanceRelevance(distance float64) float64 {
	return vectorstore.Relevance(1 - distance)
}
