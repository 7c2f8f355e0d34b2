package embedding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tendercheck-backend/ratelimit"
)

// DefaultTimeout bounds a single provider call
const DefaultTimeout = 30 * time.Second

// Result is the outcome of a resilient embedding call. Degraded results carry
// a placeholder vector and the reason the primary embedder was bypassed.
type Result struct {
	Vector   []float32
	Degraded bool
	Cause    error
}

// Resilient wraps a primary embedder with a timeout, an optional per-caller
// rate limiter and a degraded fallback.
type Resilient struct {
	primary  Embedder
	fallback Embedder
	limiter  *ratelimit.Limiter
	timeout  time.Duration
}

// ResilientOption configures a Resilient embedder
type ResilientOption func(*Resilient)

// WithFallback replaces the degraded embedder
func WithFallback(e Embedder) ResilientOption {
	return func(r *Resilient) {
		r.fallback = e
	}
}

// WithLimiter charges every call to the caller found in the context
func WithLimiter(l *ratelimit.Limiter) ResilientOption {
	return func(r *Resilient) {
		r.limiter = l
	}
}

// WithTimeout sets the per-call deadline
func WithTimeout(d time.Duration) ResilientOption {
	return func(r *Resilient) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewResilient creates a resilient embedder around primary
func NewResilient(primary Embedder, opts ...ResilientOption) *Resilient {
	r := &Resilient{
		primary: primary,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fallback == nil {
		r.fallback = NewHashEmbedder(primary.Dimensions())
	}
	return r
}

// Embed never fails: provider errors yield a degraded result
func (r *Resilient) Embed(ctx context.Context, text string) Result {
	if IsDegraded(r.primary) {
		vector, _ := r.primary.Embed(ctx, text)
		return Result{Vector: vector, Degraded: true, Cause: ErrProviderUnavailable}
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return r.degrade(ctx, text, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vector, err := r.primary.Embed(callCtx, text)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
			err = fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return r.degrade(ctx, text, err)
	}
	return Result{Vector: vector}
}

// EmbedStrict calls the primary embedder with timeout and rate limit but no
// fallback. The indexer uses it so placeholder vectors never reach the index
// when a real provider is configured.
func (r *Resilient) EmbedStrict(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vector, err := r.primary.Embed(callCtx, text)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		err = fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return vector, err
}

// Degraded reports whether the primary embedder only yields placeholders
func (r *Resilient) Degraded() bool {
	return IsDegraded(r.primary)
}

// Dimensions returns the primary vector length
func (r *Resilient) Dimensions() int {
	return r.primary.Dimensions()
}

func (r *Resilient) degrade(ctx context.Context, text string, cause error) Result {
	log.Printf("Warning: embedding degraded to fallback: %v", cause)
	vector, err := r.fallback.Embed(ctx, text)
	if err != nil {
		log.Printf("Warning: fallback embedder failed: %v", err)
	}
	return Result{Vector: vector, Degraded: true, Cause: cause}
}
