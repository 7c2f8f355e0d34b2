package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"tendercheck-backend/service"

	"github.com/gin-gonic/gin"
)

const maxSearchResults = 20

// LegalHandler exposes legal retrieval for inspection
type LegalHandler struct {
	analyses *service.AnalysisService
}

// NewLegalHandler creates a new legal handler
func NewLegalHandler(analyses *service.AnalysisService) *LegalHandler {
	return &LegalHandler{analyses: analyses}
}

// Search handles GET /api/legal/search?q=&k=
func (h *LegalHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondError(c, http.StatusBadRequest, "MISSING_QUERY", "Query parameter q is required")
		return
	}

	k := service.DefaultTopK
	if raw := c.Query("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, http.StatusBadRequest, "INVALID_K", "k must be a positive integer")
			return
		}
		k = min(n, maxSearchResults)
	}

	results, mode, err := h.analyses.SearchLegal(c.Request.Context(), query, k)
	if err != nil {
		respondInternal(c, "search legal corpus", err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"query":   query,
		"mode":    mode,
		"results": results,
	})
}
