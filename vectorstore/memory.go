package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"tendercheck-backend/models"
)

// MemoryIndex keeps all vectors in process memory.
// Queries rank a snapshot, so concurrent upserts are not visible to an
// in-flight query.
type MemoryIndex struct {
	mu        sync.RWMutex
	entries   []entry
	positions map[string]int
	dims      int
}

// NewMemoryIndex creates an empty index. dims of 0 accepts the first
// vector's length.
func NewMemoryIndex(dims int) *MemoryIndex {
	return &MemoryIndex{
		positions: make(map[string]int),
		dims:      dims,
	}
}

// Upsert stores or replaces a chunk, keeping its original position
func (m *MemoryIndex) Upsert(_ context.Context, chunk models.LegalChunk, vector []float32) error {
	if chunk.ID == "" {
		return fmt.Errorf("chunk id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dims == 0 {
		m.dims = len(vector)
	}
	if len(vector) != m.dims {
		return fmt.Errorf("%w: index has %d, got %d", ErrDimensionMismatch, m.dims, len(vector))
	}

	stored := make([]float32, len(vector))
	copy(stored, vector)

	if pos, ok := m.positions[chunk.ID]; ok {
		m.entries[pos] = entry{chunk: chunk, vector: stored}
		return nil
	}
	m.positions[chunk.ID] = len(m.entries)
	m.entries = append(m.entries, entry{chunk: chunk, vector: stored})
	return nil
}

// Query returns the k most similar chunks
func (m *MemoryIndex) Query(_ context.Context, vector []float32, k int) ([]models.RetrievalResult, error) {
	m.mu.RLock()
	snapshot := make([]entry, len(m.entries))
	copy(snapshot, m.entries)
	m.mu.RUnlock()

	return rank(snapshot, vector, k), nil
}

// Len returns the number of stored chunks
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
