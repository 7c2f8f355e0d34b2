package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks variables a developer shell may carry; viper treats
// empty variables as unset
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range New().AllKeys() {
		t.Setenv(strings.ToUpper(strings.ReplaceAll(key, ".", "_")), "")
	}
}

func TestFromViper_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromViper(New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "local", cfg.StorageType)
	assert.Equal(t, ProviderGemini, cfg.EmbeddingProvider)
	assert.Equal(t, 768, cfg.EmbeddingDimensions)
	assert.Equal(t, IndexMemory, cfg.IndexType)
	assert.Equal(t, 3, cfg.RetrievalTopK)
	assert.Equal(t, 30*time.Second, cfg.RetrievalTimeout)
	assert.Equal(t, 120, cfg.RetrievalCallsPerMinute)
	assert.Equal(t, 6, cfg.ClassifierRecencyMonths)
	assert.Equal(t, int64(5*1024*1024), cfg.UploadMaxBytes)
	assert.Equal(t, 5, cfg.APIRequestsPerMinute)
	assert.False(t, cfg.UseGemini())
}

func TestFromViper_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/tendercheck")
	t.Setenv("INDEX_TYPE", "postgres")
	t.Setenv("EMBEDDING_PROVIDER", "HASH")
	t.Setenv("RETRIEVAL_TIMEOUT", "5s")
	t.Setenv("CLASSIFIER_RECENCY_MONTHS", "12")

	cfg, err := FromViper(New())
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, IndexPostgres, cfg.IndexType)
	assert.Equal(t, ProviderHash, cfg.EmbeddingProvider)
	assert.Equal(t, 5*time.Second, cfg.RetrievalTimeout)
	assert.Equal(t, 12, cfg.ClassifierRecencyMonths)
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"provider", "embedding.provider", "openai"},
		{"index type", "index.type", "redis"},
		{"postgres without url", "index.type", "postgres"},
		{"dimensions", "embedding.dimensions", 0},
		{"upload size", "upload.max.bytes", -1},
		{"top k", "retrieval.top.k", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			v := New()
			v.Set(tt.key, tt.val)
			_, err := FromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tendercheck.yaml")
	clearEnv(t)
	require.NoError(t, os.WriteFile(path, []byte("port: \"7070\"\nindex:\n  type: sqlite\n"), 0o644))
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, IndexSQLite, cfg.IndexType)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
