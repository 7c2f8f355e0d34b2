package embedding

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
)

// HashEmbedder is the degraded-mode embedder. It derives a deterministic
// pseudo-random unit vector from a hash of the text. The vectors keep the
// pipeline running when no provider is reachable; they are not semantically
// meaningful.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a degraded embedder producing dims values
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 768
	}
	return &HashEmbedder{dims: dims}
}

// Embed never fails
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	vector := make([]float32, e.dims)
	for i := range vector {
		vector[i] = float32(rng.Float64()*2 - 1)
	}
	return Normalize(vector), nil
}

// Dimensions returns the vector length
func (e *HashEmbedder) Dimensions() int {
	return e.dims
}

// Degraded marks the vectors as placeholders
func (e *HashEmbedder) Degraded() bool {
	return true
}
