package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/sendguard/internal/governor"
	"github.com/smykla-skalski/sendguard/internal/server"
)

var (
	serveListen   string
	serveInterval time.Duration
	serveStats    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the governance HTTP API",
	Long: `Run the governance HTTP API.

Sessions are served under /v1/sessions, /health reports liveness and
/metrics exposes Prometheus metrics when metrics are enabled. Every
session is re-evaluated on the scheduler interval and state is saved
after each pass and on shutdown.

Examples:
  sendguard serve
  sendguard serve --listen :8080 --interval 1m`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default: metrics.listen)")
	serveCmd.Flags().DurationVar(
		&serveInterval,
		"interval",
		0,
		"Evaluation interval (default: scheduler.interval)",
	)
	serveCmd.Flags().StringVar(&serveStats, "stats", "", "JSON file with recent delivery stats per session")
}

func runServe(cmd *cobra.Command, _ []string) error {
	var stats governor.StatsSource

	if serveStats != "" {
		loaded, err := governor.LoadStatsFile(serveStats)
		if err != nil {
			return err
		}

		stats = loaded
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, stats)
	if err != nil {
		return err
	}

	addr := a.cfg.GetMetrics().GetListen()
	if serveListen != "" {
		addr = serveListen
	}

	interval := a.cfg.GetScheduler().GetInterval()
	if serveInterval > 0 {
		interval = serveInterval
	}

	opts := []server.Option{
		server.WithLogger(a.log),
		server.WithAddr(addr),
		server.WithInterval(interval),
	}

	if a.metrics != nil {
		opts = append(opts, server.WithGatherer(prometheus.Gatherer(a.registry)))
	}

	a.log.Info("starting server",
		"addr", addr,
		"interval", interval,
		"sessions", a.store.Len(),
	)

	return server.New(a.gov, a.store, opts...).Run(ctx)
}
