package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"tendercheck-backend/models"
	"tendercheck-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentHandler handles HTTP requests for stored documents
type DocumentHandler struct {
	documents   *service.DocumentService
	maxFileSize int64
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents *service.DocumentService, maxFileSize int64) *DocumentHandler {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &DocumentHandler{documents: documents, maxFileSize: maxFileSize}
}

// UploadDocument handles POST /api/documents
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	if !h.documents.Enabled() {
		respondNotConfigured(c)
		return
	}

	kind := models.DocumentKind(c.PostForm("kind"))
	if !kind.Valid() {
		respondError(c, http.StatusBadRequest, "INVALID_KIND", "kind must be bestek, inschrijving or legal")
		return
	}

	up, ok := readUpload(c, "file", h.maxFileSize)
	if !ok {
		return
	}

	doc, err := h.documents.Ingest(c.Request.Context(), service.IngestRequest{
		Kind:     kind,
		Filename: up.Filename,
		Data:     up.Data,
		Tags:     splitTags(c.PostForm("tags")),
	})
	if err != nil {
		respondDocumentError(c, "file", err)
		return
	}

	respondData(c, http.StatusCreated, doc)
}

// GetDocument handles GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid document id format")
		return
	}

	doc, err := h.documents.GetDocument(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDocumentsDisabled):
			respondNotConfigured(c)
		case errors.Is(err, service.ErrDocumentNotFound):
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
		default:
			respondInternal(c, "get document", err)
		}
		return
	}

	respondData(c, http.StatusOK, doc)
}

// ListDocuments handles GET /api/documents?kind=&tag=&q=&limit=
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	filter := models.DocumentFilter{
		Kind:  models.DocumentKind(c.Query("kind")),
		Tag:   c.Query("tag"),
		Query: strings.TrimSpace(c.Query("q")),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	docs, err := h.documents.SearchDocuments(c.Request.Context(), filter)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDocumentsDisabled):
			respondNotConfigured(c)
		case errors.Is(err, service.ErrInvalidKind):
			respondError(c, http.StatusBadRequest, "INVALID_KIND", "kind must be bestek, inschrijving or legal")
		default:
			respondInternal(c, "list documents", err)
		}
		return
	}

	respondData(c, http.StatusOK, docs)
}

func respondNotConfigured(c *gin.Context) {
	respondError(c, http.StatusNotImplemented, "NOT_CONFIGURED", "Document storage is not configured")
}

// splitTags parses a comma separated tag list
func splitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
