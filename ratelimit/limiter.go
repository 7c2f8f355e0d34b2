// Package ratelimit throttles calls per caller identity.
//
// Each caller gets its own token bucket holding one minute of budget. The
// set of tracked callers is bounded: idle callers are swept first, then the
// least recently seen caller is evicted.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a caller has exhausted its budget
var ErrRateLimited = errors.New("rate limit exceeded")

// AnonymousCaller is used when a context carries no caller identity
const AnonymousCaller = "anonymous"

type callerKey struct{}

// WithCaller attaches a caller identity to ctx
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller identity stored in ctx
func CallerFrom(ctx context.Context) string {
	if caller, ok := ctx.Value(callerKey{}).(string); ok && caller != "" {
		return caller
	}
	return AnonymousCaller
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter enforces a per-minute call budget per caller
type Limiter struct {
	mu         sync.Mutex
	perMinute  int
	maxCallers int
	idleTTL    time.Duration
	now        func() time.Time
	buckets    map[string]*bucket
}

// Option configures a Limiter
type Option func(*Limiter)

// WithMaxCallers bounds the number of tracked callers
func WithMaxCallers(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.maxCallers = n
		}
	}
}

// WithIdleTTL sets how long an unused caller is kept before it may be swept
func WithIdleTTL(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.idleTTL = d
		}
	}
}

// WithClock replaces the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a limiter allowing perMinute calls per caller.
// A non-positive perMinute disables limiting.
func New(perMinute int, opts ...Option) *Limiter {
	l := &Limiter{
		perMinute:  perMinute,
		maxCallers: 1024,
		idleTTL:    10 * time.Minute,
		now:        time.Now,
		buckets:    make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow charges one call to caller and reports whether it fits the budget
func (l *Limiter) Allow(caller string) bool {
	if l == nil || l.perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[caller]
	if !ok {
		if len(l.buckets) >= l.maxCallers {
			l.evict(now)
		}
		every := time.Minute / time.Duration(l.perMinute)
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), l.perMinute)}
		l.buckets[caller] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// Wait is the context form of Allow: it fails fast with ErrRateLimited
func (l *Limiter) Wait(ctx context.Context) error {
	if !l.Allow(CallerFrom(ctx)) {
		return ErrRateLimited
	}
	return nil
}

// Len returns the number of tracked callers
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// evict must be called with mu held
func (l *Limiter) evict(now time.Time) {
	for caller, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, caller)
		}
	}
	if len(l.buckets) < l.maxCallers {
		return
	}

	var oldest string
	var oldestSeen time.Time
	for caller, b := range l.buckets {
		if oldest == "" || b.lastSeen.Before(oldestSeen) {
			oldest, oldestSeen = caller, b.lastSeen
		}
	}
	delete(l.buckets, oldest)
}
