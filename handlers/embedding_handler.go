package handlers

import (
	"context"
	"net/http"
	"strings"

	"tendercheck-backend/embedding"

	"github.com/gin-gonic/gin"
)

const maxEmbeddingText = 32 << 10

// TextEmbedder produces a vector for arbitrary text, degrading instead of failing
type TextEmbedder interface {
	Embed(ctx context.Context, text string) embedding.Result
}

// EmbeddingHandler exposes the query embedder
type EmbeddingHandler struct {
	embedder TextEmbedder
}

// NewEmbeddingHandler creates a new embedding handler
func NewEmbeddingHandler(embedder TextEmbedder) *EmbeddingHandler {
	return &EmbeddingHandler{embedder: embedder}
}

// EmbeddingRequest is the body of POST /api/embeddings
type EmbeddingRequest struct {
	Text string `json:"text" binding:"required"`
}

// EmbeddingResponse carries the vector. Degraded vectors are placeholders
// and carry no meaning.
type EmbeddingResponse struct {
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
	Degraded   bool      `json:"degraded"`
	Cause      string    `json:"cause,omitempty"`
}

// CreateEmbedding handles POST /api/embeddings
func (h *EmbeddingHandler) CreateEmbedding(c *gin.Context) {
	if h.embedder == nil {
		respondError(c, http.StatusNotImplemented, "NOT_CONFIGURED", "Embeddings are not configured")
		return
	}

	var req EmbeddingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Text parameter is required")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Text parameter is required")
		return
	}
	if len(text) > maxEmbeddingText {
		respondError(c, http.StatusRequestEntityTooLarge, "TEXT_TOO_LONG", "Text exceeds the embedding limit")
		return
	}

	res := h.embedder.Embed(c.Request.Context(), text)
	resp := EmbeddingResponse{
		Embedding:  res.Vector,
		Dimensions: len(res.Vector),
		Degraded:   res.Degraded,
	}
	if res.Cause != nil {
		resp.Cause = res.Cause.Error()
	}
	respondData(c, http.StatusOK, resp)
}
