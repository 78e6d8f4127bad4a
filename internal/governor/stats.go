package governor

//go:generate mockgen -source=stats.go -destination=stats_mock.go -package=governor

import (
	"context"
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/sendguard/internal/session"
)

// StatsSource supplies the 24 hour delivery counts for a session.
type StatsSource interface {
	RecentStats(ctx context.Context, sessionID string) (session.RecentStats, error)
}

// NoStats reports zero activity for every session.
type NoStats struct{}

// RecentStats implements StatsSource.
func (NoStats) RecentStats(context.Context, string) (session.RecentStats, error) {
	return session.RecentStats{}, nil
}

// StaticStats serves stats from a map. Sessions missing from it have zero
// activity.
type StaticStats map[string]session.RecentStats

// RecentStats implements StatsSource.
func (s StaticStats) RecentStats(_ context.Context, sessionID string) (session.RecentStats, error) {
	return s[sessionID], nil
}

// LoadStatsFile reads a JSON object mapping session IDs to recent stats.
func LoadStatsFile(path string) (StaticStats, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is from flags
	if err != nil {
		return nil, errors.Wrap(err, "reading stats file")
	}

	stats := StaticStats{}
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, errors.Wrapf(err, "parsing stats file %s", path)
	}

	return stats, nil
}
