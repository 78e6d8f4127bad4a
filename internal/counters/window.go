// Package counters maintains the rolling day and hour send counters of a
// session and checks them against absolute caps.
package counters

import (
	"time"

	"github.com/smykla-skalski/sendguard/internal/limits"
)

// Window lengths.
const (
	DayLength  = 24 * time.Hour
	HourLength = time.Hour
)

// Window is the pair of rolling counters persisted on a session record.
// A nil or zero start means the window has never been opened.
type Window struct {
	DayCount  int        `json:"day_count" yaml:"day_count"`
	DayStart  *time.Time `json:"day_start,omitempty" yaml:"day_start,omitempty"`
	HourCount int        `json:"hour_count" yaml:"hour_count"`
	HourStart *time.Time `json:"hour_start,omitempty" yaml:"hour_start,omitempty"`
}

// Normalize rolls each window over independently: a window whose start is
// absent, or at least one window length in the past, restarts at now with a
// zero count. Negative counts read as zero. The returned flag reports whether
// anything differs from w, so callers can skip a write.
func Normalize(w Window, now time.Time) (Window, bool) {
	out := Window{
		DayCount:  max(0, w.DayCount),
		DayStart:  w.DayStart,
		HourCount: max(0, w.HourCount),
		HourStart: w.HourStart,
	}

	if expired(out.DayStart, now, DayLength) {
		out.DayCount = 0
		out.DayStart = timePtr(now)
	}

	if expired(out.HourStart, now, HourLength) {
		out.HourCount = 0
		out.HourStart = timePtr(now)
	}

	changed := out.DayCount != w.DayCount ||
		out.HourCount != w.HourCount ||
		out.DayStart != w.DayStart ||
		out.HourStart != w.HourStart

	return out, changed
}

// Record normalizes w and counts one send in both windows.
func Record(w Window, now time.Time) Window {
	out, _ := Normalize(w, now)
	out.DayCount++
	out.HourCount++

	return out
}

// CapResult reports whether the absolute caps leave room for another send.
type CapResult struct {
	// Allowed is false once either cap is reached.
	Allowed bool

	// Reason names the cap that denied the send.
	Reason string

	// DailyRemaining is the number of sends left in the day window.
	DailyRemaining int

	// HourlyRemaining is the number of sends left in the hour window.
	HourlyRemaining int

	// RetryAfter is the time until the blocking window rolls over.
	RetryAfter time.Duration

	// Window is the normalized window the check ran against.
	Window Window
}

// Cap denial reasons.
const (
	ReasonDailyCap  = "daily cap reached"
	ReasonHourlyCap = "hourly cap reached"
)

// CheckCaps normalizes w and compares it against the daily and hourly caps of l.
func CheckCaps(w Window, l limits.SendLimits, now time.Time) CapResult {
	norm, _ := Normalize(w, now)
	l = limits.Normalize(l)

	result := CapResult{
		Allowed:         true,
		DailyRemaining:  max(0, l.DailyMax-norm.DayCount),
		HourlyRemaining: max(0, l.HourlyMax-norm.HourCount),
		Window:          norm,
	}

	switch {
	case result.DailyRemaining == 0:
		result.Allowed = false
		result.Reason = ReasonDailyCap
		result.RetryAfter = norm.DayStart.Add(DayLength).Sub(now)
	case result.HourlyRemaining == 0:
		result.Allowed = false
		result.Reason = ReasonHourlyCap
		result.RetryAfter = norm.HourStart.Add(HourLength).Sub(now)
	}

	return result
}

func expired(start *time.Time, now time.Time, length time.Duration) bool {
	if start == nil || start.IsZero() {
		return true
	}

	return now.Sub(*start) >= length
}

func timePtr(t time.Time) *time.Time {
	return &t
}
