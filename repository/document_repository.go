package repository

import (
	"context"
	"fmt"
	"strings"

	"tendercheck-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 200
)

// DocumentRepository handles database operations for documents
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Save inserts a document and fills in its id and creation time
func (r *DocumentRepository) Save(ctx context.Context, doc *models.Document) (uuid.UUID, error) {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `
		INSERT INTO documents (
			id, kind, filename, mime_type, size, storage_path, content, tags, metadata, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::vector)
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		doc.ID,
		doc.Kind,
		doc.Filename,
		doc.MimeType,
		doc.Size,
		doc.StoragePath,
		doc.Content,
		tags,
		doc.Metadata,
		nullableVector(doc.Embedding),
	).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert document: %w", err)
	}

	return doc.ID, nil
}

const documentColumns = `id, kind, filename, mime_type, size, storage_path, content, tags, metadata, created_at`

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc := &models.Document{}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.Kind,
		&doc.Filename,
		&doc.MimeType,
		&doc.Size,
		&doc.StoragePath,
		&doc.Content,
		&doc.Tags,
		&doc.Metadata,
		&doc.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	return doc, nil
}

// Search lists documents matching the filter, newest first
func (r *DocumentRepository) Search(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error) {
	query, args := buildDocumentSearch(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		var doc models.Document
		err := rows.Scan(
			&doc.ID,
			&doc.Kind,
			&doc.Filename,
			&doc.MimeType,
			&doc.Size,
			&doc.StoragePath,
			&doc.Content,
			&doc.Tags,
			&doc.Metadata,
			&doc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// buildDocumentSearch renders the filter as a parameterised query
func buildDocumentSearch(filter models.DocumentFilter) (string, []interface{}) {
	var (
		p     placeholder
		where []string
	)
	if filter.Kind != "" {
		where = append(where, "kind = "+p.add(string(filter.Kind)))
	}
	if filter.Tag != "" {
		where = append(where, p.add(filter.Tag)+" = ANY(tags)")
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		ph := p.add(likePattern(q))
		where = append(where, "(content ILIKE "+ph+" OR filename ILIKE "+ph+")")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + documentColumns + ` FROM documents`)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC LIMIT " + p.add(limit))
	return sb.String(), p.args
}
