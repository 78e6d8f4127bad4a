// Package server exposes the governor over HTTP and runs periodic evaluation.
package server

//go:generate mockgen -source=server.go -destination=server_mock.go -package=server

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/smykla-skalski/sendguard/internal/governor"
	"github.com/smykla-skalski/sendguard/internal/limits"
	"github.com/smykla-skalski/sendguard/internal/session"
	"github.com/smykla-skalski/sendguard/pkg/config"
	"github.com/smykla-skalski/sendguard/pkg/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Engine is the subset of the governor the server drives.
type Engine interface {
	Register(ctx context.Context, id string) (*session.Session, error)
	Remove(ctx context.Context, id string) error
	Admit(ctx context.Context, id string) (*governor.Admission, error)
	RecordEvent(ctx context.Context, id string, ev governor.Event) (*governor.Evaluation, error)
	Evaluate(ctx context.Context, id string) (*governor.Evaluation, error)
	EvaluateAll(ctx context.Context) ([]*governor.Evaluation, error)
	ForceCooldown(ctx context.Context, id, reason string) (*governor.Evaluation, error)
	Unblock(ctx context.Context, id string) (*governor.Evaluation, error)
	SetLimits(ctx context.Context, id string, l limits.SendLimits) (*session.Session, error)
}

// Sessions reads and persists session records.
type Sessions interface {
	Get(id string) (*session.Session, error)
	List() []*session.Session
	Save() error
}

// Server serves the session API and re-evaluates every session on an interval.
type Server struct {
	engine   Engine
	sessions Sessions
	gatherer prometheus.Gatherer
	logger   logger.Logger
	addr     string
	interval time.Duration
	now      func() time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithGatherer exposes the gatherer on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithInterval sets the pause between evaluation passes.
func WithInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTimeFunc sets a custom time function for testing.
func WithTimeFunc(fn func() time.Time) Option {
	return func(s *Server) {
		if fn != nil {
			s.now = fn
		}
	}
}

// New creates a Server.
func New(engine Engine, sessions Sessions, opts ...Option) *Server {
	s := &Server{
		engine:   engine,
		sessions: sessions,
		logger:   logger.NewNoOpLogger(),
		addr:     config.DefaultMetricsListen,
		interval: config.DefaultSchedulerInterval,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Run serves HTTP and evaluates sessions until ctx is done, then shuts the
// listener down and saves state one last time. Admissions only move counters
// in memory; they reach disk with the next save.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		s.logger.Info("listening", "addr", s.addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrapf(err, "serving on %s", s.addr)
		}

		return nil
	})

	eg.Go(func() error {
		s.evaluateLoop(egCtx)

		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(egCtx), shutdownTimeout)
		defer cancel()

		return errors.Wrap(srv.Shutdown(shutdownCtx), "shutting down")
	})

	err := eg.Wait()

	if saveErr := s.sessions.Save(); saveErr != nil {
		err = errors.CombineErrors(err, errors.Wrap(saveErr, "saving state"))
	}

	return err
}

// evaluateLoop runs EvaluatePass every interval until ctx is done.
func (s *Server) evaluateLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.EvaluatePass(ctx); err != nil {
				s.logger.Error("evaluation pass failed", "error", err)
			}
		}
	}
}

// EvaluatePass evaluates every session and saves the state. Per-session
// failures are returned combined; the sessions that did evaluate are saved.
func (s *Server) EvaluatePass(ctx context.Context) error {
	start := s.now()

	results, evalErr := s.engine.EvaluateAll(ctx)

	changed := 0

	for _, ev := range results {
		if ev != nil && ev.StatusChanged() {
			changed++
		}
	}

	if err := s.save(); err != nil {
		return errors.CombineErrors(evalErr, err)
	}

	s.logger.Debug("evaluation pass complete",
		"sessions", len(results),
		"status_changes", changed,
		"duration", s.now().Sub(start).String(),
	)

	return evalErr
}

func (s *Server) save() error {
	return errors.Wrap(s.sessions.Save(), "saving state")
}
