package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"tendercheck-backend/classifier"
	"tendercheck-backend/config"
	"tendercheck-backend/corpus"
	"tendercheck-backend/embedding"
	"tendercheck-backend/handlers"
	"tendercheck-backend/models"
	"tendercheck-backend/ratelimit"
	"tendercheck-backend/repository"
	"tendercheck-backend/retrieval"
	"tendercheck-backend/service"
	"tendercheck-backend/storage"
	"tendercheck-backend/vectorstore"

	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/api/option"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	ctx := context.Background()

	// Postgres is optional: without it analyses and documents are not stored
	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		db, err = initPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize Postgres: %v", err)
		}
		defer db.Close()
	} else {
		log.Println("Warning: DATABASE_URL not set, analyses and documents will not be stored")
	}

	checklists := corpus.DefaultChecklists()
	if cfg.ChecklistsPath != "" {
		if checklists, err = corpus.LoadChecklists(cfg.ChecklistsPath); err != nil {
			log.Fatalf("Failed to load checklists: %v", err)
		}
	}
	legalChunks := corpus.LegalChunks()
	if cfg.CorpusPath != "" {
		if legalChunks, err = corpus.LoadLegalChunks(cfg.CorpusPath); err != nil {
			log.Fatalf("Failed to load legal corpus: %v", err)
		}
	}
	log.Printf("Loaded %d checklists and %d legal chunks", len(checklists.All()), len(legalChunks))

	// Embedders share one per-caller budget for provider calls
	limiter := ratelimit.New(cfg.RetrievalCallsPerMinute, ratelimit.WithMaxCallers(cfg.RetrievalMaxCallers))
	embed := initEmbedders(ctx, cfg, limiter)

	index, err := initIndex(ctx, cfg, db, embed.indexing, legalChunks)
	if err != nil {
		log.Fatalf("Failed to initialize vector index: %v", err)
	}

	retriever := retrieval.NewRetriever(embed.query, legalChunks,
		retrieval.WithIndex(index, cfg.RetrievalTimeout),
	)

	analysisOpts := []service.AnalysisServiceOption{
		service.AnalysisWithRetriever(retriever),
		service.AnalysisWithClassifier(classifier.New(classifier.WithRecencyMonths(cfg.ClassifierRecencyMonths))),
		service.AnalysisWithChecklists(checklists),
		service.AnalysisWithConcurrency(cfg.AnalysisConcurrency),
		service.AnalysisWithTopK(cfg.RetrievalTopK),
	}
	var documentOpts []service.DocumentServiceOption
	if db != nil {
		fileStorage, err := storage.NewStorage(ctx, storage.StorageConfig{
			Type:         storage.StorageType(cfg.StorageType),
			LocalPath:    cfg.StorageLocalPath,
			S3Bucket:     cfg.S3Bucket,
			S3Region:     cfg.AWSRegion,
			AWSAccessKey: cfg.AWSAccessKeyID,
			AWSSecretKey: cfg.AWSSecretKey,
		})
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		log.Println("Storage initialized")

		analysisOpts = append(analysisOpts, service.AnalysisWithStore(repository.NewAnalysisRepository(db)))
		documentOpts = append(documentOpts,
			service.DocumentWithStore(repository.NewDocumentRepository(db)),
			service.DocumentWithStorage(fileStorage),
			service.DocumentWithEmbedder(embed.document),
		)
	}

	r := handlers.NewRouter(handlers.RouterConfig{
		Analyses:    service.NewAnalysisService(analysisOpts...),
		Documents:   service.NewDocumentService(documentOpts...),
		Embedder:    embed.query,
		Limiter:     ratelimit.New(cfg.APIRequestsPerMinute, ratelimit.WithMaxCallers(cfg.RetrievalMaxCallers)),
		MaxFileSize: cfg.UploadMaxBytes,
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Enable pgvector extension
	_, err = pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
		log.Println("This may be normal if extension is already installed or requires superuser privileges")
	} else {
		log.Println("pgvector extension enabled")
	}

	log.Println("Postgres connection established with pgvector support")
	return pool, nil
}

// embedders groups the resilient embedders used by the server. Indexing
// is not charged to the per-caller budget.
type embedders struct {
	query    *embedding.Resilient
	document *embedding.Resilient
	indexing *embedding.Resilient
}

// initEmbedders builds the embedders. Without a Gemini key they all run on
// the hash embedder, which sends retrieval to keyword mode.
func initEmbedders(ctx context.Context, cfg *config.Config, limiter *ratelimit.Limiter) embedders {
	limited := []embedding.ResilientOption{
		embedding.WithLimiter(limiter),
		embedding.WithTimeout(cfg.RetrievalTimeout),
	}

	var primary, documents embedding.Embedder
	if cfg.UseGemini() {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			log.Printf("Warning: Failed to initialize Gemini, using keyword retrieval: %v", err)
		} else {
			log.Println("Gemini client initialized")
			gemini := embedding.NewGeminiEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingDimensions)
			primary, documents = gemini, gemini.ForDocuments()
		}
	} else if cfg.EmbeddingProvider == config.ProviderGemini {
		log.Println("Warning: GEMINI_API_KEY not set, using keyword retrieval")
	}
	if primary == nil {
		hash := embedding.NewHashEmbedder(cfg.EmbeddingDimensions)
		primary, documents = hash, hash
	}

	return embedders{
		query:    embedding.NewResilient(primary, limited...),
		document: embedding.NewResilient(documents, limited...),
		indexing: embedding.NewResilient(documents, embedding.WithTimeout(cfg.RetrievalTimeout)),
	}
}

// initIndex opens the configured vector index. The in-memory index is
// seeded from the legal corpus at startup.
func initIndex(ctx context.Context, cfg *config.Config, db *pgxpool.Pool, embedder *embedding.Resilient, chunks []models.LegalChunk) (vectorstore.Index, error) {
	switch cfg.IndexType {
	case config.IndexPostgres:
		if db == nil {
			log.Println("Warning: postgres index requested without database, using keyword retrieval")
			return nil, nil
		}
		log.Println("Using pgvector legal index")
		return repository.NewLegalChunkRepository(db, cfg.EmbeddingDimensions), nil

	case config.IndexSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.IndexSQLitePath), 0755); err != nil {
			return nil, err
		}
		index, err := vectorstore.OpenSQLiteIndex(ctx, cfg.IndexSQLitePath)
		if err != nil {
			return nil, err
		}
		log.Printf("Using SQLite legal index at %s", cfg.IndexSQLitePath)
		return index, nil

	default:
		index := vectorstore.NewMemoryIndex(cfg.EmbeddingDimensions)
		if embedder.Degraded() {
			return index, nil
		}
		report := service.NewCorpusIndexer(embedder, index, 0).Index(ctx, chunks)
		log.Printf("Seeded in-memory legal index: %d/%d chunks", report.Indexed, report.Total)
		return index, nil
	}
}
