// Package main provides the CLI entry point for sendguard.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/sendguard/internal/audit"
	"github.com/smykla-skalski/sendguard/internal/bucket"
	internalconfig "github.com/smykla-skalski/sendguard/internal/config"
	"github.com/smykla-skalski/sendguard/internal/governor"
	"github.com/smykla-skalski/sendguard/internal/metrics"
	"github.com/smykla-skalski/sendguard/internal/session"
	"github.com/smykla-skalski/sendguard/pkg/config"
	"github.com/smykla-skalski/sendguard/pkg/logger"
)

const (
	// ExitCodeOK indicates success.
	ExitCodeOK = 0

	// ExitCodeError indicates a failed command.
	ExitCodeError = 1

	// ExitCodeDenied indicates a send was not admitted.
	ExitCodeDenied = 2
)

// errDenied is returned by admit when a send is not admitted. The decision is
// already printed, so only the exit code is left to set.
var errDenied = errors.New("send denied")

var (
	debugMode   bool
	traceMode   bool
	noColorFlag bool
	stateFile   string
	auditFile   string
	outputFlag  string
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errDenied) {
			return ExitCodeDenied
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return ExitCodeError
	}

	return ExitCodeOK
}

var rootCmd = &cobra.Command{
	Use:   "sendguard",
	Short: "Session throughput governance",
	Long: `sendguard tracks the health of messaging sessions and adapts how fast
each one may send.

Sessions are classified from lifecycle events and delivery statistics.
Unhealthy sessions get reduced limits or a cooldown, healthy ones slowly
earn higher limits, and every send is admitted against a token bucket
plus daily and hourly caps.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&traceMode, "trace", false, "Enable trace logging")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(
		&stateFile,
		"state-file",
		"",
		"Path to the session state file (default: ~/.sendguard/sessions.json)",
	)
	rootCmd.PersistentFlags().StringVar(
		&auditFile,
		"audit-file",
		"",
		"Path to the audit log (default: ~/.sendguard/audit.jsonl)",
	)
}

// app holds everything a command needs, built from the loaded configuration.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	store    *session.Store
	auditLog *audit.Logger
	gov      *governor.Governor
	registry *prometheus.Registry
	metrics  *metrics.Recorder
}

// newApp loads configuration and state and wires the governor. Bucket state
// is restored from the persisted limits.
func newApp(ctx context.Context, stats governor.StatsSource) (*app, error) {
	log := logger.NewWriterLogger(os.Stderr, logger.LevelFromFlags(debugMode, traceMode))

	cfg, err := loadConfig(log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}

	store := session.NewStore(cfg.GetStore(), session.WithLogger(log))
	if err := store.Load(); err != nil {
		return nil, errors.Wrap(err, "failed to load session state")
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		auditLog: audit.New(cfg.GetAudit(), audit.WithLogger(log)),
		registry: prometheus.NewRegistry(),
	}

	a.metrics, err = metrics.New(cfg.GetMetrics(), a.registry)
	if err != nil {
		return nil, err
	}

	if stats == nil {
		stats = governor.NoStats{}
	}

	opts := append(governor.ConfigOptions(cfg),
		governor.WithLogger(log),
		governor.WithAuditor(a.auditLog),
		governor.WithMetrics(a.metrics),
		governor.WithStatsSource(stats),
	)

	limiter := bucket.NewLimiter(cfg.GetBucket(), bucket.WithLogger(log))
	a.gov = governor.New(store, limiter, opts...)

	if _, err := a.gov.Restore(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to restore limiter")
	}

	return a, nil
}

// save persists session state after a mutating command.
func (a *app) save() error {
	return errors.Wrap(a.store.Save(), "failed to save session state")
}

// loadConfig loads configuration from all sources with precedence.
func loadConfig(log logger.Logger) (*config.Config, error) {
	loader, err := internalconfig.NewKoanfLoader()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create config loader")
	}

	cfg, err := loader.Load(buildFlagsMap())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	log.Debug("configuration loaded",
		"global", loader.GlobalConfigPath(),
		"project", loader.FindProjectConfigPath(),
	)

	return cfg, nil
}

// buildFlagsMap converts CLI flags to dotted config keys.
func buildFlagsMap() map[string]any {
	flags := make(map[string]any)

	if stateFile != "" {
		flags["store.state_file"] = stateFile
	}

	if auditFile != "" {
		flags["audit.log_file"] = auditFile
	}

	return flags
}
