package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tendercheck-backend/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS legal_chunks (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    source TEXT NOT NULL,
    chapter TEXT NOT NULL DEFAULT '',
    article TEXT NOT NULL DEFAULT '',
    paragraph TEXT NOT NULL DEFAULT '',
    text TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '[]',
    date TEXT NOT NULL DEFAULT '',
    embedding TEXT NOT NULL
);`

// SQLiteIndex persists chunks in a local SQLite file and ranks them in
// process. Suited to the small statutory corpus.
type SQLiteIndex struct {
	db *sql.DB
}

// OpenSQLiteIndex opens (and if needed creates) the index at path
func OpenSQLiteIndex(ctx context.Context, path string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite index: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return &SQLiteIndex{db: db}, nil
}

// Close releases the database handle
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// Upsert inserts the chunk or replaces it in place
func (s *SQLiteIndex) Upsert(ctx context.Context, chunk models.LegalChunk, vector []float32) error {
	tags, err := json.Marshal(chunk.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	embedding, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}
	var date string
	if !chunk.Date.IsZero() {
		date = chunk.Date.Format(time.RFC3339)
	}

	query := `
		INSERT INTO legal_chunks (id, source, chapter, article, paragraph, text, tags, date, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			chapter = excluded.chapter,
			article = excluded.article,
			paragraph = excluded.paragraph,
			text = excluded.text,
			tags = excluded.tags,
			date = excluded.date,
			embedding = excluded.embedding`

	_, err = s.db.ExecContext(ctx, query,
		chunk.ID, chunk.Source, chunk.Chapter, chunk.Article, chunk.Paragraph,
		chunk.Text, string(tags), date, string(embedding),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert chunk %s: %v", ErrIndexUnavailable, chunk.ID, err)
	}
	return nil
}

// Query ranks every stored chunk against vector
func (s *SQLiteIndex) Query(ctx context.Context, vector []float32, k int) ([]models.RetrievalResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, chapter, article, paragraph, text, tags, date, embedding
		FROM legal_chunks
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query chunks: %v", ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var entries []entry
	for rows.Next() {
		var (
			chunk           models.LegalChunk
			tags, embedding string
			date            string
		)
		if err := rows.Scan(&chunk.ID, &chunk.Source, &chunk.Chapter, &chunk.Article,
			&chunk.Paragraph, &chunk.Text, &tags, &date, &embedding); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &chunk.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags of %s: %w", chunk.ID, err)
		}
		if date != "" {
			if chunk.Date, err = time.Parse(time.RFC3339, date); err != nil {
				return nil, fmt.Errorf("failed to parse date of %s: %w", chunk.ID, err)
			}
		}
		var stored []float32
		if err := json.Unmarshal([]byte(embedding), &stored); err != nil {
			return nil, fmt.Errorf("failed to decode embedding of %s: %w", chunk.ID, err)
		}
		entries = append(entries, entry{chunk: chunk, vector: stored})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating chunks: %v", ErrIndexUnavailable, err)
	}

	return rank(entries, vector, k), nil
}
