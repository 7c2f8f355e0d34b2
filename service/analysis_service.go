package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"tendercheck-backend/compliance"
	"tendercheck-backend/corpus"
	"tendercheck-backend/models"
	"tendercheck-backend/repository"
	"tendercheck-backend/retrieval"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// LegalRetriever finds legal context for checklist items
type LegalRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.RetrievalResult, retrieval.Mode)
	RetrieveAll(ctx context.Context, queries []string, k int) []models.RetrievalResult
}

// ItemClassifier judges one checklist item against a submission
type ItemClassifier interface {
	Classify(item models.ChecklistItem, bestek, submission string, legalContext []models.LegalChunk) models.ClassificationResult
}

// AnalysisStore persists finished analyses
type AnalysisStore interface {
	Create(ctx context.Context, analysis *models.Analysis) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error)
}

const (
	DefaultConcurrency = 4
	DefaultTopK        = 3

	// keywords per item added to the retrieval queries
	queryKeywords = 2
)

var (
	ErrUnknownChecklist    = corpus.ErrUnknownChecklist
	ErrAnalysisNotFound    = errors.New("analysis not found")
	ErrPersistenceDisabled = errors.New("analysis persistence is not configured")
)

// AnalysisService checks a submission against a checklist
type AnalysisService struct {
	retriever   LegalRetriever
	classifier  ItemClassifier
	checklists  *corpus.Checklists
	analyses    AnalysisStore
	concurrency int
	topK        int
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithRetriever sets the legal context retriever
func AnalysisWithRetriever(r LegalRetriever) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.retriever = r
	}
}

// AnalysisWithClassifier sets the item classifier
func AnalysisWithClassifier(c ItemClassifier) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.classifier = c
	}
}

// AnalysisWithChecklists sets the checklist catalogue
func AnalysisWithChecklists(c *corpus.Checklists) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.checklists = c
	}
}

// AnalysisWithStore enables persistence of analyses
func AnalysisWithStore(store AnalysisStore) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.analyses = store
	}
}

// AnalysisWithConcurrency bounds the number of items analysed in parallel
func AnalysisWithConcurrency(n int) AnalysisServiceOption {
	return func(s *AnalysisService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// AnalysisWithTopK sets how many legal chunks are retrieved per item
func AnalysisWithTopK(k int) AnalysisServiceOption {
	return func(s *AnalysisService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{
		checklists:  corpus.DefaultChecklists(),
		concurrency: DefaultConcurrency,
		topK:        DefaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalysisRequest represents a request to analyse a submission
type AnalysisRequest struct {
	ChecklistID          string
	BestekText           string
	SubmissionText       string
	BestekFile           string
	SubmissionFile       string
	BestekDocumentID     *uuid.UUID
	SubmissionDocumentID *uuid.UUID
}

// AnalysisResult represents the outcome of an analysis
type AnalysisResult struct {
	Analysis  *models.Analysis
	Checklist models.Checklist
}

// Checklists returns the configured checklist catalogue
func (s *AnalysisService) Checklists() *corpus.Checklists {
	return s.checklists
}

// Analyze classifies every checklist item and aggregates the report.
// Items are processed concurrently; a failing item is reported as
// unclassified and never aborts the analysis.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	if s.retriever == nil {
		return nil, errors.New("legal retriever not set")
	}
	if s.classifier == nil {
		return nil, errors.New("classifier not set")
	}

	checklistID := req.ChecklistID
	if checklistID == "" {
		checklistID = corpus.DefaultChecklistID
	}
	checklist, err := s.checklists.Get(checklistID)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results = make(map[string]models.ClassificationResult, len(checklist.Items))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, item := range checklist.Items {
		g.Go(func() error {
			res, ok := s.analyzeItem(gctx, item, req.BestekText, req.SubmissionText)
			if !ok {
				return nil
			}
			mu.Lock()
			results[item.ID] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	ordered := make([]models.ClassificationResult, 0, len(results))
	for _, item := range checklist.Items {
		if res, ok := results[item.ID]; ok {
			ordered = append(ordered, res)
		}
	}
	report := compliance.Aggregate(ordered, checklist)

	analysis := &models.Analysis{
		ID:                   uuid.New(),
		ChecklistID:          checklist.ID,
		BestekDocumentID:     req.BestekDocumentID,
		SubmissionDocumentID: req.SubmissionDocumentID,
		BestekFile:           req.BestekFile,
		SubmissionFile:       req.SubmissionFile,
		OverallScore:         report.OverallScore,
		RiskLevel:            report.RiskLevel,
		Report:               report,
		CreatedAt:            report.AnalyzedAt,
	}

	if s.analyses != nil {
		if err := s.analyses.Create(ctx, analysis); err != nil {
			log.Printf("Warning: Failed to store analysis %s: %v", analysis.ID, err)
		}
	}

	return &AnalysisResult{Analysis: analysis, Checklist: checklist}, nil
}

// analyzeItem retrieves legal context and classifies one item. ok is false
// when the item could not be processed.
func (s *AnalysisService) analyzeItem(ctx context.Context, item models.ChecklistItem, bestek, submission string) (res models.ClassificationResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: analysis of item %s failed: %v", item.ID, r)
			ok = false
		}
	}()
	if ctx.Err() != nil {
		return models.ClassificationResult{}, false
	}

	start := time.Now()
	legal := s.retriever.RetrieveAll(ctx, itemQueries(item), s.topK)
	res = s.classifier.Classify(item, bestek, submission, supporting(legal))
	log.Printf("Item %s classified as %s (%.0f%%) in %v", item.ID, res.Status, res.Confidence, time.Since(start).Round(time.Millisecond))
	return res, true
}

// supporting keeps the chunks that matched the item at all. The keyword
// fallback fills up to k with zero-relevance chunks.
func supporting(results []models.RetrievalResult) []models.LegalChunk {
	var kept []models.RetrievalResult
	for _, r := range results {
		if r.RelevanceScore > 0 {
			kept = append(kept, r)
		}
	}
	return models.Chunks(kept)
}

// itemQueries is the question followed by the first item keywords
func itemQueries(item models.ChecklistItem) []string {
	queries := []string{item.Question}
	for i, kw := range item.Keywords {
		if i == queryKeywords {
			break
		}
		queries = append(queries, kw)
	}
	return queries
}

// SearchLegal exposes the retriever for inspection
func (s *AnalysisService) SearchLegal(ctx context.Context, query string, k int) ([]models.RetrievalResult, retrieval.Mode, error) {
	if s.retriever == nil {
		return nil, "", errors.New("legal retriever not set")
	}
	if k <= 0 {
		k = s.topK
	}
	results, mode := s.retriever.Retrieve(ctx, query, k)
	return results, mode, nil
}

// GetAnalysis loads a stored analysis
func (s *AnalysisService) GetAnalysis(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	if s.analyses == nil {
		return nil, ErrPersistenceDisabled
	}
	analysis, err := s.analyses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}
	return analysis, nil
}
