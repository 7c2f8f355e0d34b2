package models

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is a persisted compliance run
type Analysis struct {
	ID                   uuid.UUID        `json:"id"`
	ChecklistID          string           `json:"checklist_id"`
	BestekDocumentID     *uuid.UUID       `json:"bestek_document_id,omitempty"`
	SubmissionDocumentID *uuid.UUID       `json:"submission_document_id,omitempty"`
	BestekFile           string           `json:"bestek_file"`
	SubmissionFile       string           `json:"submission_file"`
	OverallScore         int              `json:"overall_score"`
	RiskLevel            RiskLevel        `json:"risk_level"`
	Report               ComplianceReport `json:"report"`
	CreatedAt            time.Time        `json:"created_at"`
}
