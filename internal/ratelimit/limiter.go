package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Default quota: 100 admitted requests per key per 60-second window. Fixed by
// contract, not exposed through configuration.
const (
	DefaultCapacity = 100
	DefaultWindow   = 60 * time.Second
)

// ErrQuotaExceeded is returned when a key has no points left in the current window.
var ErrQuotaExceeded = errors.New("quota exceeded")

// QuotaError wraps ErrQuotaExceeded with an advisory retry delay.
type QuotaError struct {
	Key        string
	RetryAfter time.Duration
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded for %s, retry in %s", e.Key, e.RetryAfter.Round(time.Second))
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// Result reports the bucket state after an admitted Consume.
type Result struct {
	Remaining int
	ResetAt   time.Time
}

type bucket struct {
	remaining int
	resetAt   time.Time
}

// Limiter is a fixed-window per-key admission controller. Buckets are created
// on first sight of a key and never evicted; key cardinality is bounded by the
// client IP space seen over the process lifetime.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity int
	window   time.Duration
	now      func() time.Time
}

// New returns a Limiter with the given capacity and window.
func New(capacity int, window time.Duration) *Limiter {
	return &Limiter{
		buckets:  make(map[string]*bucket),
		capacity: capacity,
		window:   window,
		now:      time.Now,
	}
}

// NewDefault returns a Limiter with the fixed 100-per-60s quota.
func NewDefault() *Limiter {
	return New(DefaultCapacity, DefaultWindow)
}

// Consume takes one point from the key's bucket. An expired window is reset to
// full capacity before the decrement. When no points remain it returns a
// *QuotaError (wrapping ErrQuotaExceeded) carrying the remaining window time;
// the request must not proceed. The read-reset-decrement sequence is serialized
// under the limiter mutex so concurrent calls on one key cannot over-admit.
func (l *Limiter) Consume(key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{remaining: l.capacity, resetAt: now.Add(l.window)}
		l.buckets[key] = b
	} else if !now.Before(b.resetAt) {
		b.remaining = l.capacity
		b.resetAt = now.Add(l.window)
	}

	if b.remaining <= 0 {
		return Result{Remaining: 0, ResetAt: b.resetAt}, &QuotaError{Key: key, RetryAfter: b.resetAt.Sub(now)}
	}
	b.remaining--
	return Result{Remaining: b.remaining, ResetAt: b.resetAt}, nil
}

// Capacity returns the per-window point capacity.
func (l *Limiter) Capacity() int { return l.capacity }

// Window returns the window length.
func (l *Limiter) Window() time.Duration { return l.window }

// Keys returns the number of tracked buckets. For tests and diagnostics.
func (l *Limiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
