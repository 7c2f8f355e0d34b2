package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"tendercheck-backend/corpus"
	"tendercheck-backend/models"
	"tendercheck-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AnalysisHandler handles HTTP requests for compliance analyses
type AnalysisHandler struct {
	analyses    *service.AnalysisService
	documents   *service.DocumentService
	maxFileSize int64
}

// NewAnalysisHandler creates a new analysis handler. documents may be nil.
func NewAnalysisHandler(analyses *service.AnalysisService, documents *service.DocumentService, maxFileSize int64) *AnalysisHandler {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &AnalysisHandler{
		analyses:    analyses,
		documents:   documents,
		maxFileSize: maxFileSize,
	}
}

// ItemResponse is one classified checklist item as returned by the API
type ItemResponse struct {
	ID               string            `json:"id"`
	Status           models.ItemStatus `json:"status"`
	Explanation      string            `json:"explanation"`
	Confidence       float64           `json:"confidence"`
	Evidence         []string          `json:"evidence"`
	SourceReferences []string          `json:"sourceReferences"`
	NeedsReview      bool              `json:"needsReview"`
}

// AnalysisMetadata describes the run that produced a report
type AnalysisMetadata struct {
	AnalyzedAt       time.Time `json:"analyzedAt"`
	TotalItems       int       `json:"totalItems"`
	ComplianceScore  int       `json:"complianceScore"`
	ChecklistID      string    `json:"checklistId"`
	ChecklistVersion string    `json:"checklistVersion"`
	BestekFile       string    `json:"bestekFile"`
	InschrijvingFile string    `json:"inschrijvingFile"`
}

// AnalysisResponse is the API shape of a compliance report
type AnalysisResponse struct {
	ID              uuid.UUID        `json:"id"`
	Results         []ItemResponse   `json:"results"`
	OverallScore    int              `json:"overallScore"`
	RiskLevel       models.RiskLevel `json:"riskLevel"`
	CriticalIssues  []string         `json:"criticalIssues"`
	Recommendations []string         `json:"recommendations"`
	Metadata        AnalysisMetadata `json:"metadata"`
}

func newAnalysisResponse(a *models.Analysis) AnalysisResponse {
	report := a.Report
	results := make([]ItemResponse, 0, len(report.Results))
	for _, r := range report.Results {
		evidence := r.Evidence
		if evidence == nil {
			evidence = []string{}
		}
		refs := r.SourceReferences
		if refs == nil {
			refs = []string{}
		}
		results = append(results, ItemResponse{
			ID:               r.ItemID,
			Status:           r.Status,
			Explanation:      r.Notes,
			Confidence:       r.Confidence,
			Evidence:         evidence,
			SourceReferences: refs,
			NeedsReview:      r.NeedsReview,
		})
	}

	return AnalysisResponse{
		ID:              a.ID,
		Results:         results,
		OverallScore:    report.OverallScore,
		RiskLevel:       report.RiskLevel,
		CriticalIssues:  report.CriticalIssues,
		Recommendations: report.Recommendations,
		Metadata: AnalysisMetadata{
			AnalyzedAt:       report.AnalyzedAt,
			TotalItems:       len(report.Results),
			ComplianceScore:  report.OverallScore,
			ChecklistID:      report.ChecklistID,
			ChecklistVersion: report.ChecklistVersion,
			BestekFile:       a.BestekFile,
			InschrijvingFile: a.SubmissionFile,
		},
	}
}

// CreateAnalysis handles POST /api/analyses
func (h *AnalysisHandler) CreateAnalysis(c *gin.Context) {
	checklistID := c.DefaultPostForm("checklist_id", corpus.DefaultChecklistID)
	if _, err := h.analyses.Checklists().Get(checklistID); err != nil {
		respondError(c, http.StatusBadRequest, "UNKNOWN_CHECKLIST", "Unknown checklist: "+checklistID)
		return
	}

	bestek, ok := readUpload(c, "bestek", h.maxFileSize)
	if !ok {
		return
	}
	submission, ok := readUpload(c, "inschrijving", h.maxFileSize)
	if !ok {
		return
	}

	// Both files must extract before any analysis work starts
	bestekDoc, err := service.Extract(bestek.Filename, bestek.Data)
	if err != nil {
		respondDocumentError(c, "bestek", err)
		return
	}
	submissionDoc, err := service.Extract(submission.Filename, submission.Data)
	if err != nil {
		respondDocumentError(c, "inschrijving", err)
		return
	}

	req := service.AnalysisRequest{
		ChecklistID:    checklistID,
		BestekText:     bestekDoc.Text,
		SubmissionText: submissionDoc.Text,
		BestekFile:     bestekDoc.Filename,
		SubmissionFile: submissionDoc.Filename,
	}

	ctx := c.Request.Context()
	if h.documents != nil && h.documents.Enabled() {
		req.BestekDocumentID = h.ingest(c, models.DocumentBestek, bestek)
		req.SubmissionDocumentID = h.ingest(c, models.DocumentInschrijving, submission)
	}

	result, err := h.analyses.Analyze(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrUnknownChecklist) {
			respondError(c, http.StatusBadRequest, "UNKNOWN_CHECKLIST", "Unknown checklist: "+checklistID)
			return
		}
		respondInternal(c, "analyze submission", err)
		return
	}

	respondData(c, http.StatusOK, newAnalysisResponse(result.Analysis))
}

// ingest stores an upload as a document; failures only lose the link
func (h *AnalysisHandler) ingest(c *gin.Context, kind models.DocumentKind, up *upload) *uuid.UUID {
	doc, err := h.documents.Ingest(c.Request.Context(), service.IngestRequest{
		Kind:     kind,
		Filename: up.Filename,
		Data:     up.Data,
	})
	if err != nil {
		log.Printf("Warning: Failed to store %s document %s: %v", kind, up.Filename, err)
		return nil
	}
	return &doc.ID
}

// GetAnalysis handles GET /api/analyses/:id
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid analysis id format")
		return
	}

	analysis, err := h.analyses.GetAnalysis(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPersistenceDisabled):
			respondError(c, http.StatusNotImplemented, "NOT_CONFIGURED", "Analysis storage is not configured")
		case errors.Is(err, service.ErrAnalysisNotFound):
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Analysis not found")
		default:
			respondInternal(c, "get analysis", err)
		}
		return
	}

	respondData(c, http.StatusOK, newAnalysisResponse(analysis))
}
