// Package governor drives the throughput engine for a set of stored sessions.
// It loads records, runs the health classifier and the limits policy, writes
// the results back, and keeps the token bucket limiter in step with the
// persisted limits.
package governor

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/sendguard/internal/audit"
	"github.com/smykla-skalski/sendguard/internal/bucket"
	"github.com/smykla-skalski/sendguard/internal/health"
	"github.com/smykla-skalski/sendguard/internal/limits"
	"github.com/smykla-skalski/sendguard/internal/metrics"
	"github.com/smykla-skalski/sendguard/internal/session"
	"github.com/smykla-skalski/sendguard/pkg/config"
	"github.com/smykla-skalski/sendguard/pkg/logger"
)

// ErrUnknownEvent is returned by RecordEvent for unsupported event kinds.
var ErrUnknownEvent = errors.New("unknown lifecycle event")

// Store persists session records.
type Store interface {
	Get(id string) (*session.Session, error)
	Create(rec *session.Session) error
	Put(rec *session.Session) error
	Delete(id string) error
	IDs() []string
}

// Auditor records strikes and limit changes.
type Auditor interface {
	Log(entry *audit.Entry) error
}

// Governor coordinates the store, the classifier, the policy and the limiter.
type Governor struct {
	store   Store
	limiter *bucket.Limiter
	stats   StatsSource
	auditor Auditor
	metrics *metrics.Recorder
	logger  logger.Logger

	rules            health.Rules
	increaseInterval time.Duration
	maxWorkers       int
	defaultLimits    limits.SendLimits

	now func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

// Option configures the Governor.
type Option func(*Governor)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(g *Governor) {
		if log != nil {
			g.logger = log
		}
	}
}

// WithTimeFunc sets a custom time function for testing.
func WithTimeFunc(fn func() time.Time) Option {
	return func(g *Governor) {
		if fn != nil {
			g.now = fn
		}
	}
}

// WithStatsSource sets where recent delivery stats come from.
func WithStatsSource(src StatsSource) Option {
	return func(g *Governor) {
		if src != nil {
			g.stats = src
		}
	}
}

// WithAuditor sets the audit trail.
func WithAuditor(a Auditor) Option {
	return func(g *Governor) {
		g.auditor = a
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(g *Governor) {
		g.metrics = m
	}
}

// WithRules overrides the classifier rules.
func WithRules(r health.Rules) Option {
	return func(g *Governor) {
		g.rules = r
	}
}

// WithIncreaseInterval sets the minimum time between healthy increases.
func WithIncreaseInterval(d time.Duration) Option {
	return func(g *Governor) {
		if d > 0 {
			g.increaseInterval = d
		}
	}
}

// WithMaxWorkers bounds concurrent evaluations in EvaluateAll.
func WithMaxWorkers(n int) Option {
	return func(g *Governor) {
		if n > 0 {
			g.maxWorkers = n
		}
	}
}

// WithDefaultLimits sets the limits given to newly registered sessions.
func WithDefaultLimits(l limits.SendLimits) Option {
	return func(g *Governor) {
		g.defaultLimits = limits.Normalize(l)
	}
}

// ConfigOptions translates configuration into options.
func ConfigOptions(cfg *config.Config) []Option {
	l := cfg.GetLimits()

	return []Option{
		WithRules(health.RulesFromConfig(cfg.GetHealth())),
		WithIncreaseInterval(cfg.GetPolicy().GetIncreaseInterval()),
		WithMaxWorkers(cfg.GetScheduler().GetMaxWorkers()),
		WithDefaultLimits(limits.SendLimits{
			TokensPerMinute: l.GetTokensPerMinute(),
			BucketSize:      l.GetBucketSize(),
			DailyMax:        l.GetDailyMax(),
			HourlyMax:       l.GetHourlyMax(),
		}),
	}
}

// New creates a Governor.
func New(store Store, limiter *bucket.Limiter, opts ...Option) *Governor {
	g := &Governor{
		store:            store,
		limiter:          limiter,
		stats:            NoStats{},
		logger:           logger.NewNoOpLogger(),
		rules:            health.DefaultRules(),
		increaseInterval: config.DefaultIncreaseInterval,
		maxWorkers:       config.DefaultSchedulerMaxWorkers,
		defaultLimits:    limits.Defaults(),
		now:              time.Now,
		locks:            make(map[string]*sessionLock),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// sessionLock is dropped from the map once no caller holds or waits on it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// lock serializes work on one session and returns the unlock function.
func (g *Governor) lock(id string) func() {
	g.locksMu.Lock()

	l, ok := g.locks[id]
	if !ok {
		l = &sessionLock{}
		g.locks[id] = l
	}

	l.refs++

	g.locksMu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		g.locksMu.Lock()

		l.refs--
		if l.refs == 0 {
			delete(g.locks, id)
		}

		g.locksMu.Unlock()
	}
}

// configureLimiter pushes persisted limits into the limiter.
func (g *Governor) configureLimiter(id string, l limits.SendLimits) {
	g.limiter.Configure(id, bucket.Config{
		TokensPerMinute: l.TokensPerMinute,
		BucketSize:      l.BucketSize,
	})
}

func (g *Governor) audit(entry *audit.Entry) {
	if g.auditor == nil {
		return
	}

	if err := g.auditor.Log(entry); err != nil {
		g.logger.Error("failed to write audit entry",
			"session_id", entry.SessionID,
			"kind", string(entry.Kind),
			"error", err.Error(),
		)
	}
}
