package vectorstore

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tendercheck-backend/models"
)

func TestCosineSimilarity_Bounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		a := make([]float32, 16)
		b := make([]float32, 16)
		for j := range a {
			a[j] = float32(rng.NormFloat64())
			b[j] = float32(rng.NormFloat64())
		}
		sim := CosineSimilarity(a, b)
		assert.GreaterOrEqual(t, sim, -1.0)
		assert.LessOrEqual(t, sim, 1.0)
		assert.InDelta(t, 1.0, CosineSimilarity(a, a), 1e-9)
	}
}

func TestCosineSimilarity_EdgeCases(t *testing.T) {
	v := []float32{1, 2, 3}
	zero := []float32{0, 0, 0}

	assert.Equal(t, 0.0, CosineSimilarity(v, zero))
	assert.Equal(t, 0.0, CosineSimilarity(zero, zero))
	assert.Equal(t, 0.0, CosineSimilarity(v, []float32{1, 2}))
	assert.InDelta(t, -1.0, CosineSimilarity(v, []float32{-1, -2, -3}), 1e-9)
}

func chunk(id string) models.LegalChunk {
	return models.LegalChunk{ID: id, Source: "ARW 2016", Text: "tekst " + id, Tags: []string{"tag"}}
}

// exerciseIndex runs the shared contract against any Index
func exerciseIndex(t *testing.T, idx Index) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, chunk("a"), []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, chunk("b"), []float32{0, 1}))
	require.NoError(t, idx.Upsert(ctx, chunk("c"), []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, chunk("d"), []float32{1, 1}))

	t.Run("orders by similarity with insertion tie-break", func(t *testing.T) {
		results, err := idx.Query(ctx, []float32{1, 0}, 3)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "a", results[0].Chunk.ID)
		assert.Equal(t, "c", results[1].Chunk.ID)
		assert.Equal(t, "d", results[2].Chunk.ID)
		assert.InDelta(t, 1.0, results[0].RelevanceScore, 1e-9)
		assert.Equal(t, "tekst a", results[0].MatchedText)
	})

	t.Run("fewer than k only when index is smaller", func(t *testing.T) {
		results, err := idx.Query(ctx, []float32{0, 1}, 10)
		require.NoError(t, err)
		assert.Len(t, results, 4)
	})

	t.Run("upsert is idempotent on id", func(t *testing.T) {
		updated := chunk("a")
		updated.Text = "nieuwe tekst"
		require.NoError(t, idx.Upsert(ctx, updated, []float32{0, 1}))
		require.NoError(t, idx.Upsert(ctx, updated, []float32{0, 1}))

		results, err := idx.Query(ctx, []float32{0, 1}, 10)
		require.NoError(t, err)
		require.Len(t, results, 4)
		// a and b now tie; a was inserted first
		assert.Equal(t, "a", results[0].Chunk.ID)
		assert.Equal(t, "nieuwe tekst", results[0].Chunk.Text)
		assert.Equal(t, "b", results[1].Chunk.ID)
	})
}

func TestMemoryIndex(t *testing.T) {
	exerciseIndex(t, NewMemoryIndex(2))
}

func TestMemoryIndex_RejectsWrongDimension(t *testing.T) {
	idx := NewMemoryIndex(3)
	err := idx.Upsert(context.Background(), chunk("x"), []float32{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 0, idx.Len())
}

func TestSQLiteIndex(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := OpenSQLiteIndex(ctx, path)
	require.NoError(t, err)
	exerciseIndex(t, idx)
	require.NoError(t, idx.Close())

	reopened, err := OpenSQLiteIndex(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	results, err := reopened.Query(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"tag"}, results[0].Chunk.Tags)
}

func TestSQLiteIndex_ClosedIsUnavailable(t *testing.T) {
	ctx := context.Background()
	idx, err := OpenSQLiteIndex(ctx, filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	_, err = idx.Query(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrIndexUnavailable)
}

type slowIndex struct{}

func (slowIndex) Upsert(ctx context.Context, _ models.LegalChunk, _ []float32) error {
	<-ctx.Done()
	return ctx.Err()
}

func (slowIndex) Query(ctx context.Context, _ []float32, _ int) ([]models.RetrievalResult, error) {
	time.Sleep(time.Second)
	return nil, errors.New("too late")
}

func TestTimeoutIndex(t *testing.T) {
	idx := NewTimeoutIndex(slowIndex{}, 10*time.Millisecond)

	_, err := idx.Query(context.Background(), []float32{1}, 1)
	assert.ErrorIs(t, err, ErrTimeout)

	err = idx.Upsert(context.Background(), chunk("x"), []float32{1})
	assert.ErrorIs(t, err, ErrTimeout)
}
