package handlers

import (
	"net/http"

	"tendercheck-backend/ratelimit"
	"tendercheck-backend/service"

	"github.com/gin-gonic/gin"
)

// RouterConfig holds the dependencies of the HTTP API
type RouterConfig struct {
	Analyses    *service.AnalysisService
	Documents   *service.DocumentService
	Embedder    TextEmbedder // nil leaves /api/embeddings unconfigured
	Limiter     *ratelimit.Limiter // nil disables the API rate limit
	MaxFileSize int64
}

// NewRouter builds the gin engine with every route registered
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = 2*cfg.maxFileSize() + 1<<20

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	documents := cfg.Documents
	if documents == nil {
		documents = service.NewDocumentService()
	}

	checklistHandler := NewChecklistHandler(cfg.Analyses.Checklists())
	analysisHandler := NewAnalysisHandler(cfg.Analyses, documents, cfg.MaxFileSize)
	legalHandler := NewLegalHandler(cfg.Analyses)
	documentHandler := NewDocumentHandler(documents, cfg.MaxFileSize)
	embeddingHandler := NewEmbeddingHandler(cfg.Embedder)

	api := r.Group("/api")
	if cfg.Limiter != nil {
		api.Use(RateLimit(cfg.Limiter))
	}
	{
		api.GET("/checklists", checklistHandler.ListChecklists)
		api.GET("/checklists/:id", checklistHandler.GetChecklist)

		api.POST("/analyses", analysisHandler.CreateAnalysis)
		api.GET("/analyses/:id", analysisHandler.GetAnalysis)

		api.GET("/legal/search", legalHandler.Search)
		api.POST("/embeddings", embeddingHandler.CreateEmbedding)

		api.POST("/documents", documentHandler.UploadDocument)
		api.GET("/documents", documentHandler.ListDocuments)
		api.GET("/documents/:id", documentHandler.GetDocument)
	}

	return r
}

func (cfg RouterConfig) maxFileSize() int64 {
	if cfg.MaxFileSize > 0 {
		return cfg.MaxFileSize
	}
	return DefaultMaxFileSize
}
