// Package report renders session records for the terminal.
package report

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"

	"github.com/smykla-skalski/sendguard/internal/color"
	"github.com/smykla-skalski/sendguard/internal/session"
)

const durationDisplayUnits = 2

var headers = []string{"", "Session", "Health", "Score", "Limits", "Sent", "Cooldown", "Reason"}

// reasonColumn wraps when the terminal is narrow.
const reasonColumn = 7

// StatusIcon returns a single-width icon for a health status.
func StatusIcon(status session.HealthStatus) string {
	switch status {
	case session.HealthHealthy:
		return "✓"
	case session.HealthWarning:
		return "!"
	case session.HealthRisky:
		return "▲"
	case session.HealthCooldown:
		return "~"
	case session.HealthBlocked:
		return "✗"
	default:
		return "?"
	}
}

// RenderTable builds a table of sessions using tablewriter. Sessions are
// rendered in the given order.
func RenderTable(sessions []*session.Session, now time.Time, theme color.Theme) string {
	if len(sessions) == 0 {
		return ""
	}

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, buildRow(s, now, theme))
	}

	var buf bytes.Buffer

	opts := []tablewriter.Option{
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleRounded),
		})),
		tablewriter.WithPadding(tw.Padding{Left: " ", Right: " "}),
		tablewriter.WithConfig(tablewriter.NewConfigBuilder().
			WithTrimSpace(tw.Off).
			Row().Formatting().WithAutoWrap(tw.WrapNormal).Build().
			Build().Build()),
	}

	if w := reasonWidthFor(termWidth(), rows); w > 0 {
		opts = append(opts, tablewriter.WithColumnWidths(tw.Mapper[int, int]{reasonColumn: w + 2}))
	}

	t := tablewriter.NewTable(&buf, opts...)
	t.Header(headers)

	for _, row := range rows {
		_ = t.Append(row)
	}

	_ = t.Render()

	return dimBorders(strings.TrimRight(buf.String(), "\n"), theme)
}

func buildRow(s *session.Session, now time.Time, theme color.Theme) []string {
	style := theme.ForHealth(s.HealthStatus)
	l := s.Limits()

	return []string{
		style.Render(StatusIcon(s.HealthStatus)),
		theme.Name.Render(s.ID),
		style.Render(s.HealthStatus.String()),
		fmt.Sprintf("%d", s.HealthScore),
		fmt.Sprintf("%d/m burst %d", l.TokensPerMinute, l.BucketSize),
		fmt.Sprintf("%s/%s today, %d/%d hour",
			humanize.Comma(int64(s.Counters.DayCount)),
			humanize.Comma(int64(l.DailyMax)),
			s.Counters.HourCount,
			l.HourlyMax,
		),
		FormatCooldown(s, now),
		s.HealthReason,
	}
}

// FormatCooldown describes the remaining cooldown, or "-" when none is pending.
func FormatCooldown(s *session.Session, now time.Time) string {
	if !s.InCooldown(now) {
		return "-"
	}

	return durafmt.Parse(s.CooldownUntil.Sub(now).Round(time.Minute)).
		LimitFirstN(durationDisplayUnits).String()
}

// FormatAge describes how long ago t happened, or "never".
func FormatAge(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}

	return humanize.RelTime(*t, now, "ago", "from now")
}

// RenderSummary returns a colored one-line count of sessions per health status.
func RenderSummary(sessions []*session.Session, theme color.Theme) string {
	counts := make(map[session.HealthStatus]int)
	for _, s := range sessions {
		counts[s.HealthStatus]++
	}

	parts := make([]string, 0, len(counts))

	for _, status := range session.HealthStatusValues() {
		if n := counts[status]; n > 0 {
			parts = append(parts, theme.ForHealth(status).Render(fmt.Sprintf("%d %s", n, status)))
		}
	}

	if len(parts) == 0 {
		return "Summary: no sessions"
	}

	return fmt.Sprintf("Summary: %d session(s): %s", len(sessions), strings.Join(parts, ", "))
}

// reasonWidthFor computes the reason column content width for a terminal of
// width w. Returns 0 when the table fits or the terminal is unknown.
func reasonWidthFor(w int, rows [][]string) int {
	const minReasonW = 12

	if w <= 0 {
		return 0
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(ansi.Strip(cell)))
		}
	}

	// Each column has: 1 border char + 1 left pad + 1 right pad = 3.
	// Plus 1 trailing border on the right.
	const colOverhead = 3

	total := len(headers)*colOverhead + 1
	for _, cw := range widths {
		total += cw
	}

	if total <= w {
		return 0
	}

	return max(minReasonW, widths[reasonColumn]-(total-w))
}

// padToWidth right-pads s with spaces so its display width reaches w.
// ANSI escape codes are excluded from width calculation.
func padToWidth(s string, w int) string {
	visible := runewidth.StringWidth(ansi.Strip(s))
	if visible >= w {
		return s
	}

	return s + strings.Repeat(" ", w-visible)
}

// dimBorders applies the muted theme style to all box-drawing border
// characters in the rendered table output.
func dimBorders(s string, theme color.Theme) string {
	for _, ch := range []string{
		"╭", "╮", "╰", "╯", "│", "─", "┬", "┴", "├", "┤", "┼",
	} {
		s = strings.ReplaceAll(s, ch, theme.Muted.Render(ch))
	}

	return s
}

// termWidth returns the terminal width or 0 if not a terminal.
func termWidth() int {
	if w, _, err := term.GetSize(
		int(os.Stdout.Fd()), //nolint:gosec // fd fits int
	); err == nil && w > 0 {
		return w
	}

	return 0
}
