package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tendercheck-backend/corpus"
	"tendercheck-backend/models"
	"tendercheck-backend/vectorstore"
)

type flakyEmbedder struct {
	failFor map[string]bool
}

func (e *flakyEmbedder) EmbedStrict(ctx context.Context, text string) ([]float32, error) {
	for marker := range e.failFor {
		if strings.Contains(text, marker) {
			return nil, errors.New("provider unavailable")
		}
	}
	return []float32{float32(len(text)), 1}, nil
}

func TestCorpusIndexer_ContinuesPastFailures(t *testing.T) {
	chunks := corpus.LegalChunks()
	index := vectorstore.NewMemoryIndex(0)
	ix := NewCorpusIndexer(&flakyEmbedder{failFor: map[string]bool{chunks[1].Text: true}}, index, 0)

	report := ix.Index(context.Background(), chunks)

	assert.Equal(t, len(chunks), report.Total)
	assert.Equal(t, len(chunks)-1, report.Indexed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, chunks[1].ID, report.Failures[0].ChunkID)
	assert.False(t, report.AllFailed())
	assert.Equal(t, len(chunks)-1, index.Len())
	assert.Equal(t, map[string]int{"ARW Regelgeving": 4, "Nederlandse wetgeving": 5}, report.ByCategory)
}

func TestCorpusIndexer_AllFailed(t *testing.T) {
	chunks := []models.LegalChunk{{ID: "a", Source: "X", Text: "kapot"}}
	ix := NewCorpusIndexer(&flakyEmbedder{failFor: map[string]bool{"kapot": true}}, vectorstore.NewMemoryIndex(0), 0)

	report := ix.Index(context.Background(), chunks)
	assert.True(t, report.AllFailed())
	assert.False(t, IndexReport{}.AllFailed())
}

func TestCorpusIndexer_SplitsLongChunks(t *testing.T) {
	long := models.LegalChunk{
		ID:     "lang",
		Source: "ARW 2016",
		Text:   "Eerste zin met vijf woorden. Tweede zin met vijf woorden. Derde zin met vijf woorden.",
	}
	index := vectorstore.NewMemoryIndex(0)
	ix := NewCorpusIndexer(&flakyEmbedder{}, index, 8)

	report := ix.Index(context.Background(), []models.LegalChunk{long})

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Indexed)
	assert.Equal(t, 3, index.Len())
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	return files
}
