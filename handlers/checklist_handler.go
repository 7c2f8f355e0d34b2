package handlers

import (
	"errors"
	"net/http"

	"tendercheck-backend/corpus"

	"github.com/gin-gonic/gin"
)

// ChecklistHandler serves the checklist catalogue
type ChecklistHandler struct {
	checklists *corpus.Checklists
}

// NewChecklistHandler creates a new checklist handler
func NewChecklistHandler(checklists *corpus.Checklists) *ChecklistHandler {
	return &ChecklistHandler{checklists: checklists}
}

// ListChecklists handles GET /api/checklists
func (h *ChecklistHandler) ListChecklists(c *gin.Context) {
	all := h.checklists.All()
	summaries := make([]gin.H, 0, len(all))
	for _, cl := range all {
		summaries = append(summaries, gin.H{
			"id":          cl.ID,
			"name":        cl.Name,
			"description": cl.Description,
			"version":     cl.Version,
			"item_count":  len(cl.Items),
		})
	}
	respondData(c, http.StatusOK, summaries)
}

// GetChecklist handles GET /api/checklists/:id
func (h *ChecklistHandler) GetChecklist(c *gin.Context) {
	cl, err := h.checklists.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, corpus.ErrUnknownChecklist) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Checklist not found")
			return
		}
		respondInternal(c, "get checklist", err)
		return
	}
	respondData(c, http.StatusOK, cl)
}
