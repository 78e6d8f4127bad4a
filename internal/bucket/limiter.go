// Package bucket provides the real-time per-session admission gate: one token
// bucket per session, refilled continuously and consumed once per send.
package bucket

import (
	"math"
	"sync"
	"time"

	"github.com/smykla-skalski/sendguard/pkg/config"
	"github.com/smykla-skalski/sendguard/pkg/logger"
)

const millisPerMinute = 60_000

// Config is the part of a session's send limits the bucket uses.
type Config struct {
	TokensPerMinute int
	BucketSize      int
}

// Decision is the outcome of a consume attempt.
type Decision struct {
	// Allowed reports whether the send may proceed.
	Allowed bool

	// RetryAfter is the earliest useful retry delay when denied, zero otherwise.
	RetryAfter time.Duration
}

// RetryAfterMs returns RetryAfter in whole milliseconds.
func (d Decision) RetryAfterMs() int64 {
	return d.RetryAfter.Milliseconds()
}

// State is a point-in-time copy of a session bucket.
type State struct {
	Tokens          float64
	LastRefillAt    time.Time
	TokensPerMinute int
	BucketSize      int
}

// bucket holds the runtime state of one session. tokens is fractional so
// fast refill rates never starve on rounding.
type bucket struct {
	mu              sync.Mutex
	tokens          float64
	lastRefillAt    time.Time
	tokensPerMinute int
	bucketSize      int
}

// Limiter holds a token bucket per session identifier. Calls for the same
// session are serialized on that session's bucket; calls for different
// sessions only share the map lock for lookups.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	logger  logger.Logger

	unconfiguredRetryAfter time.Duration
	minRetryAfter          time.Duration

	// now is a function that returns the current time.
	// Used for testing to control time.
	now func() time.Time
}

// Option configures the Limiter.
type Option func(*Limiter)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Limiter) {
		if log != nil {
			l.logger = log
		}
	}
}

// WithTimeFunc sets a custom time function for testing.
func WithTimeFunc(fn func() time.Time) Option {
	return func(l *Limiter) {
		if fn != nil {
			l.now = fn
		}
	}
}

// NewLimiter creates an empty limiter. A nil cfg uses the defaults.
func NewLimiter(cfg *config.BucketConfig, opts ...Option) *Limiter {
	l := &Limiter{
		buckets:                make(map[string]*bucket),
		logger:                 logger.NewNoOpLogger(),
		unconfiguredRetryAfter: cfg.GetUnconfiguredRetryAfter(),
		minRetryAfter:          cfg.GetMinRetryAfter(),
		now:                    time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Configure installs a rate and capacity for a session. A new session starts
// with a full bucket. An existing bucket is first refilled at its old rate,
// then switched to the new rate and capped at the new capacity, so a
// reconfiguration never hands out free tokens.
func (l *Limiter) Configure(sessionID string, cfg Config) {
	tpm := max(0, cfg.TokensPerMinute)
	size := max(0, cfg.BucketSize)
	now := l.now()

	b := l.getOrCreate(sessionID, func() *bucket {
		return &bucket{
			tokens:          float64(size),
			lastRefillAt:    now,
			tokensPerMinute: tpm,
			bucketSize:      size,
		}
	})

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)
	b.tokensPerMinute = tpm
	b.bucketSize = size
	b.tokens = math.Min(b.tokens, float64(size))

	l.logger.Debug("bucket configured",
		"session_id", sessionID,
		"tokens_per_minute", tpm,
		"bucket_size", size,
		"tokens", b.tokens,
	)
}

// Configured reports whether the session has a bucket.
func (l *Limiter) Configured(sessionID string) bool {
	return l.get(sessionID) != nil
}

// TryConsume attempts to take one token for the session.
func (l *Limiter) TryConsume(sessionID string) Decision {
	return l.TryConsumeN(sessionID, 1)
}

// TryConsumeN attempts to take n tokens for the session. Unknown sessions and
// sessions with a zero rate or capacity are always denied. A request for
// n <= 0 tokens on a usable bucket is allowed without deducting anything.
func (l *Limiter) TryConsumeN(sessionID string, n int) Decision {
	b := l.get(sessionID)
	if b == nil {
		l.logger.Debug("consume denied for unconfigured session", "session_id", sessionID)

		return Decision{RetryAfter: l.unconfiguredRetryAfter}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tokensPerMinute <= 0 || b.bucketSize <= 0 {
		return Decision{RetryAfter: l.unconfiguredRetryAfter}
	}

	if n <= 0 {
		return Decision{Allowed: true}
	}

	b.refill(l.now())

	requested := float64(n)
	if b.tokens >= requested {
		b.tokens -= requested

		return Decision{Allowed: true}
	}

	missing := requested - b.tokens
	waitMs := math.Ceil(missing * millisPerMinute / float64(b.tokensPerMinute))
	retry := max(l.minRetryAfter, time.Duration(waitMs)*time.Millisecond)

	return Decision{RetryAfter: retry}
}

// Snapshot returns a copy of the session bucket after refilling it to now.
func (l *Limiter) Snapshot(sessionID string) (State, bool) {
	b := l.get(sessionID)
	if b == nil {
		return State{}, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(l.now())

	return State{
		Tokens:          b.tokens,
		LastRefillAt:    b.lastRefillAt,
		TokensPerMinute: b.tokensPerMinute,
		BucketSize:      b.bucketSize,
	}, true
}

// Refund returns n tokens to the session bucket, capped at its size. It undoes
// a consume whose send did not go through.
func (l *Limiter) Refund(sessionID string, n int) {
	b := l.get(sessionID)
	if b == nil || n <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(l.now())
	b.tokens = math.Min(float64(b.bucketSize), b.tokens+float64(n))
}

// Reset discards the bucket of one session.
func (l *Limiter) Reset(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.buckets, sessionID)
}

// Clear discards every bucket.
func (l *Limiter) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buckets = make(map[string]*bucket)
}

func (l *Limiter) get(sessionID string) *bucket {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.buckets[sessionID]
}

func (l *Limiter) getOrCreate(sessionID string, create func() *bucket) *bucket {
	if b := l.get(sessionID); b != nil {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[sessionID]; ok {
		return b
	}

	b := create()
	l.buckets[sessionID] = b

	return b
}

// refill adds tokens for the time elapsed since the last refill.
// Must be called with b.mu held.
func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefillAt)
	if elapsed <= 0 {
		return
	}

	if b.tokensPerMinute > 0 {
		gained := elapsed.Minutes() * float64(b.tokensPerMinute)
		b.tokens = math.Min(float64(b.bucketSize), b.tokens+gained)
	}

	b.lastRefillAt = now
}
