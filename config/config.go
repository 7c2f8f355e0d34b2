// Package config loads server and CLI settings from the environment, an
// optional .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ConfigFileEnv names the environment variable pointing at a config file
const ConfigFileEnv = "TENDERCHECK_CONFIG"

// Embedding providers
const (
	ProviderGemini = "gemini"
	ProviderHash   = "hash"
)

// Index backends
const (
	IndexMemory   = "memory"
	IndexSQLite   = "sqlite"
	IndexPostgres = "postgres"
)

// Config holds every runtime setting
type Config struct {
	Port        string
	DatabaseURL string

	StorageType      string
	StorageLocalPath string
	S3Bucket         string
	AWSRegion        string
	AWSAccessKeyID   string
	AWSSecretKey     string

	GeminiAPIKey        string
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingDimensions int

	IndexType       string
	IndexSQLitePath string

	RetrievalTopK           int
	RetrievalTimeout        time.Duration
	RetrievalCallsPerMinute int
	RetrievalMaxCallers     int

	AnalysisConcurrency     int
	ClassifierRecencyMonths int

	ChecklistsPath string
	CorpusPath     string

	UploadMaxBytes       int64
	APIRequestsPerMinute int
}

// New returns a viper instance with defaults and environment binding.
// Keys use dots; the matching environment variable uses underscores, so
// database.url is read from DATABASE_URL.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("database.url", "")
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local.path", "./storage/files")
	v.SetDefault("aws.s3.bucket", "")
	v.SetDefault("aws.region", "eu-west-1")
	v.SetDefault("aws.access.key.id", "")
	v.SetDefault("aws.secret.access.key", "")
	v.SetDefault("gemini.api.key", "")
	v.SetDefault("embedding.provider", ProviderGemini)
	v.SetDefault("embedding.model", "text-embedding-004")
	v.SetDefault("embedding.dimensions", 768)
	v.SetDefault("index.type", IndexMemory)
	v.SetDefault("index.sqlite.path", "./data/legal_index.db")
	v.SetDefault("retrieval.top.k", 3)
	v.SetDefault("retrieval.timeout", 30*time.Second)
	v.SetDefault("retrieval.calls.per.minute", 120)
	v.SetDefault("retrieval.max.callers", 1000)
	v.SetDefault("analysis.concurrency", 4)
	v.SetDefault("classifier.recency.months", 6)
	v.SetDefault("checklists.path", "")
	v.SetDefault("corpus.path", "")
	v.SetDefault("upload.max.bytes", 5*1024*1024)
	v.SetDefault("api.requests.per.minute", 5)
	return v
}

// Load reads .env (if present), the file named by TENDERCHECK_CONFIG (if
// set) and the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: Failed to read .env file: %v", err)
	}

	v := New()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		log.Printf("Using config file: %s", v.ConfigFileUsed())
	}
	return FromViper(v)
}

// FromViper decodes and validates the settings held by v
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:        v.GetString("port"),
		DatabaseURL: v.GetString("database.url"),

		StorageType:      strings.ToLower(v.GetString("storage.type")),
		StorageLocalPath: v.GetString("storage.local.path"),
		S3Bucket:         v.GetString("aws.s3.bucket"),
		AWSRegion:        v.GetString("aws.region"),
		AWSAccessKeyID:   v.GetString("aws.access.key.id"),
		AWSSecretKey:     v.GetString("aws.secret.access.key"),

		GeminiAPIKey:        v.GetString("gemini.api.key"),
		EmbeddingProvider:   strings.ToLower(v.GetString("embedding.provider")),
		EmbeddingModel:      v.GetString("embedding.model"),
		EmbeddingDimensions: v.GetInt("embedding.dimensions"),

		IndexType:       strings.ToLower(v.GetString("index.type")),
		IndexSQLitePath: v.GetString("index.sqlite.path"),

		RetrievalTopK:           v.GetInt("retrieval.top.k"),
		RetrievalTimeout:        v.GetDuration("retrieval.timeout"),
		RetrievalCallsPerMinute: v.GetInt("retrieval.calls.per.minute"),
		RetrievalMaxCallers:     v.GetInt("retrieval.max.callers"),

		AnalysisConcurrency:     v.GetInt("analysis.concurrency"),
		ClassifierRecencyMonths: v.GetInt("classifier.recency.months"),

		ChecklistsPath: v.GetString("checklists.path"),
		CorpusPath:     v.GetString("corpus.path"),

		UploadMaxBytes:       v.GetInt64("upload.max.bytes"),
		APIRequestsPerMinute: v.GetInt("api.requests.per.minute"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown enum values and impossible numbers
func (c *Config) Validate() error {
	switch c.EmbeddingProvider {
	case ProviderGemini, ProviderHash:
	default:
		return fmt.Errorf("invalid embedding.provider %q: want gemini or hash", c.EmbeddingProvider)
	}
	switch c.IndexType {
	case IndexMemory, IndexSQLite:
	case IndexPostgres:
		if c.DatabaseURL == "" {
			return errors.New("index.type postgres requires database.url")
		}
	default:
		return fmt.Errorf("invalid index.type %q: want memory, sqlite or postgres", c.IndexType)
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.EmbeddingDimensions)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("upload.max.bytes must be positive, got %d", c.UploadMaxBytes)
	}
	if c.RetrievalTopK <= 0 {
		return fmt.Errorf("retrieval.top.k must be positive, got %d", c.RetrievalTopK)
	}
	return nil
}

// UseGemini reports whether a real embedding provider is configured
func (c *Config) UseGemini() bool {
	return c.EmbeddingProvider == ProviderGemini && c.GeminiAPIKey != ""
}
