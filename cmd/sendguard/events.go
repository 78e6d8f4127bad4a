package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/sendguard/internal/governor"
)

var (
	eventStatus    string
	eventAt        string
	statsFile      string
	admitCount     int
	cooldownReason string
)

var eventCmd = &cobra.Command{
	Use:   "event <session-id> <kind>",
	Short: "Record a lifecycle event and re-evaluate the session",
	Long: `Record a lifecycle event and re-evaluate the session.

Kinds: auth_failure, disconnect, reconnect, reset_auth, status.

Examples:
  sendguard event s1 disconnect
  sendguard event s1 status --status connected
  sendguard event s1 auth_failure --at 2026-01-02T15:04:05Z`,
	Args: cobra.ExactArgs(2), //nolint:mnd // session and kind
	RunE: runEvent,
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [session-id]...",
	Short: "Re-evaluate session health and limits",
	Long: `Re-evaluate session health and limits.

Without arguments every session is evaluated. Delivery statistics are read
from --stats, a JSON object keyed by session ID:

  {"s1": {"sent24h": 120, "delivered24h": 110, "read24h": 40, "failed24h": 2}}

Examples:
  sendguard evaluate
  sendguard evaluate s1 s2 --stats stats.json -o json`,
	RunE: runEvaluate,
}

var admitCmd = &cobra.Command{
	Use:   "admit <session-id>",
	Short: "Ask whether a session may send now",
	Long: `Ask whether a session may send now.

Exits 0 when admitted and 2 when not. Token buckets are rebuilt for every
invocation, so burst limits only hold within a long-running serve process.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdmit,
}

var cooldownCmd = &cobra.Command{
	Use:   "cooldown <session-id>",
	Short: "Force a session into cooldown",
	Args:  cobra.ExactArgs(1),
	RunE:  runCooldown,
}

var unblockCmd = &cobra.Command{
	Use:   "unblock <session-id>",
	Short: "Clear strikes and cooldown of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnblock,
}

func init() {
	rootCmd.AddCommand(eventCmd, evaluateCmd, admitCmd, cooldownCmd, unblockCmd)

	for _, cmd := range []*cobra.Command{eventCmd, evaluateCmd, admitCmd, cooldownCmd, unblockCmd} {
		addOutputFlag(cmd)
	}

	eventCmd.Flags().StringVar(&eventStatus, "status", "", "Connection status to record with the event")
	eventCmd.Flags().StringVar(&eventAt, "at", "", "Event time in RFC 3339 (default: now)")

	evaluateCmd.Flags().StringVar(&statsFile, "stats", "", "JSON file with recent delivery stats per session")

	admitCmd.Flags().IntVarP(&admitCount, "count", "n", 1, "Number of admissions to request")

	cooldownCmd.Flags().StringVar(&cooldownReason, "reason", "", "Strike reason (default: manual_cooldown)")
}

// ErrUnknownEventKind is returned for an event kind the CLI does not know.
var ErrUnknownEventKind = errors.New("unknown event kind")

func runEvent(cmd *cobra.Command, args []string) error {
	if err := validateOutput(); err != nil {
		return err
	}

	ev, err := parseEvent(args[1])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), nil)
	if err != nil {
		return err
	}

	eval, err := a.gov.RecordEvent(cmd.Context(), args[0], ev)
	if err != nil {
		return err
	}

	if err := a.save(); err != nil {
		return err
	}

	return printEvaluations([]*governor.Evaluation{eval})
}

func parseEvent(kind string) (governor.Event, error) {
	ev := governor.Event{
		Kind:   governor.EventKind(strings.ToLower(kind)),
		Status: eventStatus,
	}

	if !slices.Contains(governor.EventKinds(), ev.Kind) {
		return ev, errors.Wrapf(ErrUnknownEventKind, "%q", kind)
	}

	if eventAt != "" {
		at, err := time.Parse(time.RFC3339, eventAt)
		if err != nil {
			return ev, errors.Wrap(err, "parsing --at")
		}

		ev.At = at
	}

	return ev, nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if err := validateOutput(); err != nil {
		return err
	}

	var stats governor.StatsSource

	if statsFile != "" {
		loaded, err := governor.LoadStatsFile(statsFile)
		if err != nil {
			return err
		}

		stats = loaded
	}

	a, err := newApp(cmd.Context(), stats)
	if err != nil {
		return err
	}

	var (
		evals   []*governor.Evaluation
		evalErr error
	)

	if len(args) == 0 {
		evals, evalErr = a.gov.EvaluateAll(cmd.Context())
	} else {
		for _, id := range args {
			eval, err := a.gov.Evaluate(cmd.Context(), id)
			if err != nil {
				evalErr = errors.CombineErrors(evalErr, err)

				continue
			}

			evals = append(evals, eval)
		}
	}

	if err := a.save(); err != nil {
		return errors.CombineErrors(evalErr, err)
	}

	if err := printEvaluations(evals); err != nil {
		return err
	}

	return evalErr
}

func printEvaluations(evals []*governor.Evaluation) error {
	summaries := make([]governor.Summary, 0, len(evals))
	for _, eval := range evals {
		summaries = append(summaries, eval.Summary())
	}

	if ok, err := printStructured(summaries); ok {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("No sessions evaluated.")

		return nil
	}

	t := theme()

	for _, s := range summaries {
		status := s.Status
		if s.PreviousStatus != s.Status {
			status = s.PreviousStatus + " -> " + s.Status
		}

		fmt.Printf("%s: %s (score %d) %s\n",
			t.Name.Render(s.SessionID),
			status,
			s.Score,
			t.Muted.Render(s.Reason),
		)

		if s.StrikeAdded {
			fmt.Printf("  strike %d added\n", s.StrikeCount)
		}

		if s.CooldownUntil != nil {
			fmt.Printf("  cooldown until %s\n", s.CooldownUntil.Format(time.RFC3339))
		}

		if s.LimitsChanged {
			fmt.Printf("  limits %d/min, burst %d, %d/day, %d/hour (%s)\n",
				s.Limits.TokensPerMinute,
				s.Limits.BucketSize,
				s.Limits.DailyMax,
				s.Limits.HourlyMax,
				s.LimitReason,
			)
		}
	}

	return nil
}

func runAdmit(cmd *cobra.Command, args []string) error {
	if err := validateOutput(); err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), nil)
	if err != nil {
		return err
	}

	n := max(admitCount, 1)
	admissions := make([]*governor.Admission, 0, n)
	denied := false

	for range n {
		adm, err := a.gov.Admit(cmd.Context(), args[0])
		if err != nil {
			return errors.CombineErrors(err, a.save())
		}

		admissions = append(admissions, adm)

		if !adm.Allowed {
			denied = true

			break
		}
	}

	if err := a.save(); err != nil {
		return err
	}

	if err := printAdmissions(admissions); err != nil {
		return err
	}

	if denied {
		return errDenied
	}

	return nil
}

func printAdmissions(admissions []*governor.Admission) error {
	if ok, err := printStructured(admissions); ok {
		return err
	}

	for _, adm := range admissions {
		if adm.Allowed {
			fmt.Printf("allowed (%s left today, %s this hour)\n",
				humanize.Comma(int64(adm.DailyRemaining)),
				humanize.Comma(int64(adm.HourlyRemaining)),
			)

			continue
		}

		if adm.RetryAfter > 0 {
			fmt.Printf("denied: %s, retry in %s\n", adm.Reason, adm.RetryAfter.Round(time.Millisecond))

			continue
		}

		fmt.Printf("denied: %s\n", adm.Reason)
	}

	return nil
}

func runCooldown(cmd *cobra.Command, args []string) error {
	if err := validateOutput(); err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), nil)
	if err != nil {
		return err
	}

	eval, err := a.gov.ForceCooldown(cmd.Context(), args[0], cooldownReason)
	if err != nil {
		return err
	}

	if err := a.save(); err != nil {
		return err
	}

	return printEvaluations([]*governor.Evaluation{eval})
}

func runUnblock(cmd *cobra.Command, args []string) error {
	if err := validateOutput(); err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), nil)
	if err != nil {
		return err
	}

	eval, err := a.gov.Unblock(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if err := a.save(); err != nil {
		return err
	}

	return printEvaluations([]*governor.Evaluation{eval})
}
