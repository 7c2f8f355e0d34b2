// Package embedding turns text into fixed-length vectors.
package embedding

import (
	"context"
	"errors"
	"math"
)

var (
	// ErrProviderUnavailable is returned when the embedding service cannot be reached
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
	// ErrTimeout is returned when an embedding call exceeds its deadline
	ErrTimeout = errors.New("embedding call timed out")
	// ErrEmptyEmbedding is returned when the provider answers without values
	ErrEmptyEmbedding = errors.New("provider returned an empty embedding")
)

// Embedder converts text to a vector of Dimensions() values.
// Identical input yields an identical vector for a given configuration.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// degradedMode is implemented by embedders whose vectors carry no meaning
type degradedMode interface {
	Degraded() bool
}

// IsDegraded reports whether e only produces placeholder vectors
func IsDegraded(e Embedder) bool {
	d, ok := e.(degradedMode)
	return ok && d.Degraded()
}

// Normalize scales v to unit length in place and returns it.
// A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
