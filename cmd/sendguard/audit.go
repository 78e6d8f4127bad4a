package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/sendguard/internal/audit"
	"github.com/smykla-skalski/sendguard/pkg/logger"
)

const auditTimeFormat = "2006-01-02 15:04:05"

// Audit command flags.
var (
	auditSession string
	auditKind    string
	auditLimit   int
	auditJSON    bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the governance audit log",
	Long: `Inspect the governance audit log.

Every strike, limit change and health status change is appended to the
audit log.

Subcommands:
  list    List audit log entries
  stats   Show audit log statistics
  rotate  Rotate the audit log now`,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit log entries",
	Long: `List audit log entries, newest first.

Examples:
  sendguard audit list                    # List all entries
  sendguard audit list --session s1       # Filter by session
  sendguard audit list --kind strike      # Filter by entry kind
  sendguard audit list --limit 10 --json  # Last 10 entries as JSON`,
	RunE: runAuditList,
}

var auditStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show audit log statistics",
	RunE:  runAuditStats,
}

var auditRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Rotate the audit log",
	Long: `Rotate the audit log now and prune backups beyond the configured count.

Examples:
  sendguard audit rotate`,
	RunE: runAuditRotate,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd, auditStatsCmd, auditRotateCmd)

	auditListCmd.Flags().StringVar(&auditSession, "session", "", "Filter entries by session ID")
	auditListCmd.Flags().StringVar(
		&auditKind,
		"kind",
		"",
		"Filter entries by kind (strike, limit_change, status_change)",
	)
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 0, "Limit number of entries to show (0 = all)")
	auditListCmd.Flags().BoolVar(&auditJSON, "json", false, "Output entries as JSON")
}

func runAuditList(_ *cobra.Command, _ []string) error {
	log, auditLogger, err := setupAuditLogger()
	if err != nil {
		return err
	}

	log.Debug("audit list command invoked",
		"session", auditSession,
		"kind", auditKind,
		"limit", auditLimit,
	)

	entries, err := auditLogger.Read()
	if err != nil {
		return errors.Wrap(err, "reading audit log")
	}

	filtered := filterAuditEntries(entries, auditSession, auditKind)

	slices.SortStableFunc(filtered, func(a, b *audit.Entry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	if auditLimit > 0 && len(filtered) > auditLimit {
		filtered = filtered[:auditLimit]
	}

	if auditJSON {
		outputFlag = outputJSON

		_, err := printStructured(filtered)

		return err
	}

	outputAuditTable(filtered)

	return nil
}

func runAuditStats(_ *cobra.Command, _ []string) error {
	_, auditLogger, err := setupAuditLogger()
	if err != nil {
		return err
	}

	stats, err := auditLogger.Stats()
	if err != nil {
		return errors.Wrap(err, "getting audit stats")
	}

	entries, err := auditLogger.Read()
	if err != nil {
		return errors.Wrap(err, "reading audit log")
	}

	fmt.Println("Audit Log Statistics")
	fmt.Println("====================")
	fmt.Println("")
	fmt.Printf("Log File: %s\n", stats.LogFile)
	fmt.Printf("File Size: %s\n", stats.FormatSize())
	fmt.Printf("Entry Count: %d\n", stats.EntryCount)
	fmt.Printf("Backup Files: %d\n", stats.BackupCount)

	if !stats.ModTime.IsZero() {
		fmt.Printf("Last Modified: %s\n", stats.ModTime.Format(auditTimeFormat))
	}

	if len(entries) == 0 {
		return nil
	}

	counts := make(map[audit.Kind]int)
	for _, entry := range entries {
		counts[entry.Kind]++
	}

	fmt.Println("")
	fmt.Println("By Kind")
	fmt.Println("-------")

	for _, kind := range []audit.Kind{audit.KindStrike, audit.KindLimitChange, audit.KindStatusChange} {
		if counts[kind] > 0 {
			fmt.Printf("  %s: %d\n", kind, counts[kind])
		}
	}

	return nil
}

func runAuditRotate(_ *cobra.Command, _ []string) error {
	_, auditLogger, err := setupAuditLogger()
	if err != nil {
		return err
	}

	if err := auditLogger.Rotate(); err != nil {
		return errors.Wrap(err, "rotating audit log")
	}

	stats, err := auditLogger.Stats()
	if err != nil {
		return errors.Wrap(err, "getting audit stats")
	}

	fmt.Printf("Rotated %s (%d backup(s))\n", stats.LogFile, stats.BackupCount)

	return nil
}

//nolint:ireturn // Logger interface return is intentional for flexibility
func setupAuditLogger() (logger.Logger, *audit.Logger, error) {
	log := logger.NewWriterLogger(os.Stderr, logger.LevelFromFlags(debugMode, traceMode))

	cfg, err := loadConfig(log)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load configuration")
	}

	return log, audit.New(cfg.GetAudit(), audit.WithLogger(log)), nil
}

func filterAuditEntries(entries []*audit.Entry, sessionID, kind string) []*audit.Entry {
	if sessionID == "" && kind == "" {
		return entries
	}

	filtered := make([]*audit.Entry, 0, len(entries))

	for _, entry := range entries {
		if sessionID != "" && entry.SessionID != sessionID {
			continue
		}

		if kind != "" && !strings.EqualFold(string(entry.Kind), kind) {
			continue
		}

		filtered = append(filtered, entry)
	}

	return filtered
}

func outputAuditTable(entries []*audit.Entry) {
	if len(entries) == 0 {
		fmt.Println("No audit entries found.")

		return
	}

	fmt.Printf("Found %d entries:\n\n", len(entries))

	for _, entry := range entries {
		fmt.Printf("%s  %s  %s\n",
			entry.Timestamp.Local().Format(auditTimeFormat),
			entry.SessionID,
			entry.Kind,
		)

		if entry.PreviousStatus != "" {
			fmt.Printf("    Status: %s -> %s\n", entry.PreviousStatus, entry.HealthStatus)
		} else if entry.HealthStatus != "" {
			fmt.Printf("    Status: %s\n", entry.HealthStatus)
		}

		if entry.Reason != "" {
			fmt.Printf("    Reason: %s\n", entry.Reason)
		}

		if entry.Kind == audit.KindStrike {
			fmt.Printf("    Strikes: %d\n", entry.StrikeCount)
		}

		if entry.Limits != nil {
			fmt.Printf("    Limits: %d/min, burst %d, %d/day, %d/hour\n",
				entry.Limits.TokensPerMinute,
				entry.Limits.BucketSize,
				entry.Limits.DailyMax,
				entry.Limits.HourlyMax,
			)
		}

		fmt.Println("")
	}
}
