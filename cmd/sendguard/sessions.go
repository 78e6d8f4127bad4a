package main

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/sendguard/internal/limits"
	"github.com/smykla-skalski/sendguard/internal/report"
	"github.com/smykla-skalski/sendguard/internal/session"
)

var (
	limitsTPM    int
	limitsBucket int
	limitsDaily  int
	limitsHourly int
)

var registerCmd = &cobra.Command{
	Use:   "register <session-id>...",
	Short: "Register sessions with the default limits",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRegister,
}

var removeCmd = &cobra.Command{
	Use:   "remove <session-id>...",
	Short: "Remove sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRemove,
}

var statusCmd = &cobra.Command{
	Use:   "status [session-id]",
	Short: "Show session health and limits",
	Long: `Show session health and limits.

Without an argument all sessions are listed in a table. With a session ID
the full record is shown.

Examples:
  sendguard status              # Table of all sessions
  sendguard status s1           # Details of one session
  sendguard status -o json      # All sessions as JSON`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Manage session send limits",
}

var limitsSetCmd = &cobra.Command{
	Use:   "set <session-id>",
	Short: "Override the send limits of a session",
	Long: `Override the send limits of a session.

Only the given values change; the others keep their current value. The
result is clamped to the absolute maxima and hourly_max never exceeds
daily_max. The next evaluation may adjust the limits again.

Examples:
  sendguard limits set s1 --daily 100 --hourly 20`,
	Args: cobra.ExactArgs(1),
	RunE: runLimitsSet,
}

func init() {
	rootCmd.AddCommand(registerCmd, removeCmd, statusCmd, limitsCmd)
	limitsCmd.AddCommand(limitsSetCmd)

	addOutputFlag(statusCmd)
	addOutputFlag(limitsSetCmd)

	limitsSetCmd.Flags().IntVar(&limitsTPM, "tpm", 0, "Tokens per minute")
	limitsSetCmd.Flags().IntVar(&limitsBucket, "bucket", 0, "Bucket size (burst)")
	limitsSetCmd.Flags().IntVar(&limitsDaily, "daily", 0, "Daily send cap")
	limitsSetCmd.Flags().IntVar(&limitsHourly, "hourly", 0, "Hourly send cap")
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), nil)
	if err != nil {
		return err
	}

	for _, id := range args {
		rec, err := a.gov.Register(cmd.Context(), id)
		if err != nil {
			return err
		}

		l := rec.Limits()
		fmt.Printf("registered %s (%d tokens/min, burst %d, %d/day, %d/hour)\n",
			rec.ID, l.TokensPerMinute, l.BucketSize, l.DailyMax, l.HourlyMax)
	}

	return a.save()
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), nil)
	if err != nil {
		return err
	}

	for _, id := range args {
		if err := a.gov.Remove(cmd.Context(), id); err != nil {
			return err
		}

		fmt.Printf("removed %s\n", id)
	}

	return a.save()
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := validateOutput(); err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), nil)
	if err != nil {
		return err
	}

	now := time.Now()

	if len(args) == 1 {
		rec, err := a.store.Get(args[0])
		if err != nil {
			return err
		}

		if ok, err := printStructured(rec); ok {
			return err
		}

		fmt.Print(report.RenderDetail(rec, now, theme()))

		return nil
	}

	sessions := a.store.List()

	if ok, err := printStructured(sessions); ok {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions registered.")

		return nil
	}

	t := theme()

	fmt.Println(report.RenderTable(sessions, now, t))
	fmt.Println(report.RenderSummary(sessions, t))

	return nil
}

func runLimitsSet(cmd *cobra.Command, args []string) error {
	if err := validateOutput(); err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), nil)
	if err != nil {
		return err
	}

	current, err := a.store.Get(args[0])
	if err != nil {
		return err
	}

	l, err := mergeLimits(cmd, current)
	if err != nil {
		return err
	}

	rec, err := a.gov.SetLimits(cmd.Context(), args[0], l)
	if err != nil {
		return err
	}

	if err := a.save(); err != nil {
		return err
	}

	if ok, err := printStructured(rec.SendLimits); ok {
		return err
	}

	applied := rec.Limits()
	fmt.Printf("%s limits: %d tokens/min, burst %d, %d/day, %d/hour\n",
		rec.ID, applied.TokensPerMinute, applied.BucketSize, applied.DailyMax, applied.HourlyMax)

	return nil
}

// ErrNoLimitFlags is returned when limits set gets nothing to change.
var ErrNoLimitFlags = errors.New("at least one of --tpm, --bucket, --daily, --hourly is required")

func mergeLimits(cmd *cobra.Command, rec *session.Session) (limits.SendLimits, error) {
	l := rec.Limits()
	changed := false

	for _, f := range []struct {
		name  string
		value int
		dst   *int
	}{
		{"tpm", limitsTPM, &l.TokensPerMinute},
		{"bucket", limitsBucket, &l.BucketSize},
		{"daily", limitsDaily, &l.DailyMax},
		{"hourly", limitsHourly, &l.HourlyMax},
	} {
		if cmd.Flags().Changed(f.name) {
			*f.dst = f.value
			changed = true
		}
	}

	if !changed {
		return l, ErrNoLimitFlags
	}

	return l, nil
}
