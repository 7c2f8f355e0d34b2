// Command index-corpus embeds the legal corpus and upserts it into the
// configured vector index.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"tendercheck-backend/config"
	"tendercheck-backend/corpus"
	"tendercheck-backend/embedding"
	"tendercheck-backend/repository"
	"tendercheck-backend/service"
	"tendercheck-backend/vectorstore"
)

// errAllFailed makes the process exit with status 1
var errAllFailed = errors.New("no corpus entry could be indexed")

func newRootCmd() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:   "index-corpus",
		Short: "Embed the legal corpus and store it in the vector index",
		Long: `index-corpus reads a legal corpus file (YAML or JSON, default: the embedded
seed corpus), splits entries longer than --max-tokens on sentence boundaries,
embeds every entry and upserts it into the index selected by --index.

Failed entries are reported and skipped. The command exits with status 1 only
when every entry failed.`,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if path := os.Getenv(config.ConfigFileEnv); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("failed to read config file %s: %w", path, err)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			maxTokens, _ := cmd.Flags().GetInt("max-tokens")
			return run(cmd.Context(), cfg, maxTokens, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.String("corpus", "", "corpus file (default: embedded seed corpus)")
	flags.String("index", "", "index type: memory, sqlite or postgres (default: INDEX_TYPE)")
	flags.String("sqlite-path", "", "SQLite index file (default: INDEX_SQLITE_PATH)")
	flags.String("provider", "", "embedding provider: gemini or hash (default: EMBEDDING_PROVIDER)")
	flags.Int("max-tokens", 0, "split entries above this estimated token count (0 disables)")

	for key, flag := range map[string]string{
		"corpus.path":        "corpus",
		"index.type":         "index",
		"index.sqlite.path":  "sqlite-path",
		"embedding.provider": "provider",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

func run(ctx context.Context, cfg *config.Config, maxTokens int, out io.Writer) error {
	chunks := corpus.LegalChunks()
	if cfg.CorpusPath != "" {
		var err error
		if chunks, err = corpus.LoadLegalChunks(cfg.CorpusPath); err != nil {
			return err
		}
	}
	log.Printf("📚 Loaded %d corpus entries", len(chunks))

	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return err
	}

	index, closeIndex, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeIndex()

	report := service.NewCorpusIndexer(embedder, index, maxTokens).Index(ctx, chunks)

	fmt.Fprintf(out, "\n✅ Indexed %d/%d entries into %s index\n", report.Indexed, report.Total, cfg.IndexType)
	categories := make([]string, 0, len(report.ByCategory))
	for c := range report.ByCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Fprintf(out, "   %s: %d\n", c, report.ByCategory[c])
	}
	if len(report.Failures) > 0 {
		fmt.Fprintf(out, "❌ %d failed:\n", len(report.Failures))
		for _, f := range report.Failures {
			fmt.Fprintf(out, "   %s: %v\n", f.ChunkID, f.Err)
		}
	}
	if report.AllFailed() {
		return errAllFailed
	}
	return nil
}

func newEmbedder(ctx context.Context, cfg *config.Config) (*embedding.Resilient, error) {
	opts := []embedding.ResilientOption{embedding.WithTimeout(cfg.RetrievalTimeout)}
	if cfg.EmbeddingProvider == config.ProviderHash {
		log.Println("⚠️  Using hash embeddings, vectors carry no meaning")
		return embedding.NewResilient(embedding.NewHashEmbedder(cfg.EmbeddingDimensions), opts...), nil
	}
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini: %w", err)
	}
	gemini := embedding.NewGeminiEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingDimensions).ForDocuments()
	return embedding.NewResilient(gemini, opts...), nil
}

// openIndex returns the index and a function releasing it
func openIndex(ctx context.Context, cfg *config.Config) (vectorstore.Index, func(), error) {
	switch cfg.IndexType {
	case config.IndexPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		var tableExists bool
		err = pool.QueryRow(ctx, "SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'legal_chunks')").Scan(&tableExists)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to check table existence: %w", err)
		}
		if !tableExists {
			pool.Close()
			return nil, nil, errors.New("legal_chunks table does not exist, run cmd/create-schema first")
		}
		return repository.NewLegalChunkRepository(pool, cfg.EmbeddingDimensions), pool.Close, nil

	case config.IndexSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.IndexSQLitePath), 0755); err != nil {
			return nil, nil, err
		}
		index, err := vectorstore.OpenSQLiteIndex(ctx, cfg.IndexSQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return index, func() { index.Close() }, nil

	default:
		log.Println("⚠️  Memory index selected, entries are discarded on exit")
		return vectorstore.NewMemoryIndex(cfg.EmbeddingDimensions), func() {}, nil
	}
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
