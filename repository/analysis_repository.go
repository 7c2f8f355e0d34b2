package repository

import (
	"context"
	"fmt"

	"tendercheck-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalysisRepository handles database operations for compliance analyses
type AnalysisRepository struct {
	db *pgxpool.Pool
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create stores a finished analysis with its full report as JSONB
func (r *AnalysisRepository) Create(ctx context.Context, analysis *models.Analysis) error {
	if analysis.ID == uuid.Nil {
		analysis.ID = uuid.New()
	}

	query := `
		INSERT INTO analyses (
			id, checklist_id, bestek_document_id, inschrijving_document_id,
			bestek_file, inschrijving_file, overall_score, risk_level, report
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := r.db.QueryRow(
		ctx, query,
		analysis.ID,
		analysis.ChecklistID,
		analysis.BestekDocumentID,
		analysis.SubmissionDocumentID,
		analysis.BestekFile,
		analysis.SubmissionFile,
		analysis.OverallScore,
		analysis.RiskLevel,
		analysis.Report,
	).Scan(&analysis.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	return nil
}

// GetByID retrieves an analysis by ID
func (r *AnalysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	analysis := &models.Analysis{}
	query := `
		SELECT id, checklist_id, bestek_document_id, inschrijving_document_id,
			bestek_file, inschrijving_file, overall_score, risk_level, report, created_at
		FROM analyses
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&analysis.ID,
		&analysis.ChecklistID,
		&analysis.BestekDocumentID,
		&analysis.SubmissionDocumentID,
		&analysis.BestekFile,
		&analysis.SubmissionFile,
		&analysis.OverallScore,
		&analysis.RiskLevel,
		&analysis.Report,
		&analysis.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	return analysis, nil
}
