package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/smykla-skalski/sendguard/internal/color"
	"github.com/smykla-skalski/sendguard/internal/session"
)

// RenderDetail renders one session as aligned "label: value" lines.
func RenderDetail(s *session.Session, now time.Time, theme color.Theme) string {
	l := s.Limits()
	style := theme.ForHealth(s.HealthStatus)

	fields := [][2]string{
		{"Session", theme.Name.Render(s.ID)},
		{"Connection", s.Status},
		{"Health", style.Render(fmt.Sprintf("%s %s (score %d)", StatusIcon(s.HealthStatus), s.HealthStatus, s.HealthScore))},
		{"Reason", orDash(s.HealthReason)},
		{"Evaluated", FormatAge(s.HealthUpdatedAt, now)},
		{"Strikes", fmt.Sprintf("%d (last: %s)", s.StrikeCount, orDash(s.LastStrikeReason))},
		{"Cooldown", FormatCooldown(s, now)},
		{"Limits", fmt.Sprintf("%d tokens/min, burst %d, %d/day, %d/hour",
			l.TokensPerMinute, l.BucketSize, l.DailyMax, l.HourlyMax)},
		{"Limit change", fmt.Sprintf("%s (%s)", orDash(s.LimitChangeReason), FormatAge(s.LastLimitUpdateAt, now))},
		{"Sent", fmt.Sprintf("%d today, %d this hour", s.Counters.DayCount, s.Counters.HourCount)},
		{"Auth failures", fmt.Sprintf("%d (last %s)", s.AuthFailureCount, FormatAge(s.LastAuthFailureAt, now))},
		{"Disconnects", fmt.Sprintf("%d (last %s)", s.DisconnectCount, FormatAge(s.LastDisconnectAt, now))},
		{"Reconnects", fmt.Sprintf("%d", s.ReconnectCount)},
	}

	labelW := 0
	for _, f := range fields {
		labelW = max(labelW, runewidth.StringWidth(f[0])+1)
	}

	var b strings.Builder

	for _, f := range fields {
		b.WriteString(theme.Muted.Render(padToWidth(f[0]+":", labelW)))
		b.WriteByte(' ')
		b.WriteString(f[1])
		b.WriteByte('\n')
	}

	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
