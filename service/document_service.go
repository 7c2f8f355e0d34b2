package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"

	"tendercheck-backend/embedding"
	"tendercheck-backend/extract"
	"tendercheck-backend/models"
	"tendercheck-backend/repository"
	"tendercheck-backend/storage"

	"github.com/google/uuid"
)

// DocumentStore persists documents and their extracted text
type DocumentStore interface {
	Save(ctx context.Context, doc *models.Document) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	Search(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error)
}

// DocumentEmbedder produces the vector stored with a document
type DocumentEmbedder interface {
	Embed(ctx context.Context, text string) embedding.Result
}

var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrInvalidKind        = errors.New("invalid document kind")
	ErrDocumentsDisabled  = errors.New("document storage is not configured")
	ErrUnsupportedFormat  = extract.ErrUnsupportedFormat
	ErrInvalidFilename    = extract.ErrInvalidFilename
	ErrUnreadableDocument = extract.ErrCorruptDocument
)

// embeddingPrefix bounds the text sent to the embedder per document
const embeddingPrefix = 8000

// DocumentService ingests uploaded documents
type DocumentService struct {
	docs     DocumentStore
	blobs    storage.Storage
	embedder DocumentEmbedder
}

// DocumentServiceOption is a functional option for DocumentService
type DocumentServiceOption func(*DocumentService)

// DocumentWithStore sets the document repository
func DocumentWithStore(store DocumentStore) DocumentServiceOption {
	return func(s *DocumentService) {
		s.docs = store
	}
}

// DocumentWithStorage sets the blob storage for the raw upload
func DocumentWithStorage(blobs storage.Storage) DocumentServiceOption {
	return func(s *DocumentService) {
		s.blobs = blobs
	}
}

// DocumentWithEmbedder enables document embeddings
func DocumentWithEmbedder(e DocumentEmbedder) DocumentServiceOption {
	return func(s *DocumentService) {
		s.embedder = e
	}
}

// NewDocumentService creates a new document service
func NewDocumentService(opts ...DocumentServiceOption) *DocumentService {
	s := &DocumentService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractedDocument is an upload after validation and text extraction
type ExtractedDocument struct {
	Filename string
	MimeType string
	Size     int64
	Text     string
}

// Extract validates the filename, sniffs the content type and extracts text
func Extract(filename string, data []byte) (*ExtractedDocument, error) {
	if err := extract.ValidateFilename(filename); err != nil {
		return nil, err
	}
	if !extract.AllowedExtension(filename) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}

	mimeType := extract.DetectMIME(data, filename)
	if !extract.Supported(mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}

	text, err := extract.Text(data, mimeType)
	if err != nil {
		return nil, err
	}

	return &ExtractedDocument{
		Filename: filename,
		MimeType: mimeType,
		Size:     int64(len(data)),
		Text:     text,
	}, nil
}

// IngestRequest represents a document upload
type IngestRequest struct {
	Kind     models.DocumentKind
	Filename string
	Data     []byte
	Tags     []string
	Metadata models.DocumentMetadata
}

// Enabled reports whether documents can be stored
func (s *DocumentService) Enabled() bool {
	return s.docs != nil
}

// Ingest extracts, stores and records a document. The raw upload is removed
// again when the record cannot be saved.
func (s *DocumentService) Ingest(ctx context.Context, req IngestRequest) (*models.Document, error) {
	if s.docs == nil {
		return nil, ErrDocumentsDisabled
	}
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, req.Kind)
	}

	extracted, err := Extract(req.Filename, req.Data)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:       uuid.New(),
		Kind:     req.Kind,
		Filename: extracted.Filename,
		MimeType: extracted.MimeType,
		Size:     extracted.Size,
		Content:  extracted.Text,
		Tags:     req.Tags,
		Metadata: req.Metadata,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}

	if s.blobs != nil {
		key, err := s.blobs.Put(ctx, storage.Object{
			Kind:        doc.Kind,
			ID:          doc.ID,
			Filename:    doc.Filename,
			ContentType: doc.MimeType,
		}, bytes.NewReader(req.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}
		doc.StoragePath = key
	}

	if s.embedder != nil && doc.Content != "" {
		res := s.embedder.Embed(ctx, prefix(doc.Content, embeddingPrefix))
		if res.Degraded {
			log.Printf("Warning: Document %s stored without embedding: %v", doc.ID, res.Cause)
		} else {
			doc.Embedding = res.Vector
		}
	}

	if _, err := s.docs.Save(ctx, doc); err != nil {
		if doc.StoragePath != "" {
			if delErr := s.blobs.Delete(ctx, doc.StoragePath); delErr != nil {
				log.Printf("Warning: Failed to clean up %s: %v", doc.StoragePath, delErr)
			}
		}
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	return doc, nil
}

// GetDocument loads a document by id
func (s *DocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	if s.docs == nil {
		return nil, ErrDocumentsDisabled
	}
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return doc, nil
}

// SearchDocuments lists documents matching filter
func (s *DocumentService) SearchDocuments(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error) {
	if s.docs == nil {
		return nil, ErrDocumentsDisabled
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, filter.Kind)
	}
	docs, err := s.docs.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	return docs, nil
}

// prefix returns at most n runes of s
func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
