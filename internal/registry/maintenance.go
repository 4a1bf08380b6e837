package registry

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Stats returns library-wide aggregates in a single query.
func (s *Store) Stats(ctx context.Context) (*Summary, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1), COALESCE(SUM(present), 0), COALESCE(SUM(total_playtime), 0), COALESCE(SUM(play_count), 0) FROM games`)
	var summary Summary
	if err := row.Scan(&summary.TotalGames, &summary.PresentCount, &summary.TotalPlaytime, &summary.TotalPlays); err != nil {
		return nil, wrapIO("stats", "scan summary", err)
	}
	return &summary, nil
}

// CheckHealth inspects the database file and runs an integrity check.
func (s *Store) CheckHealth(ctx context.Context) (*DatabaseHealth, error) {
	ctx = ensureContext(ctx)
	health := &DatabaseHealth{Path: s.path, IntegrityOK: true}

	if info, err := os.Stat(s.path); err == nil {
		health.SizeBytes = info.Size()
	} else {
		health.Issues = append(health.Issues, fmt.Sprintf("stat database: %v", err))
	}

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM games`)
	if err := row.Scan(&health.Entries); err != nil {
		health.IntegrityOK = false
		health.Issues = append(health.Issues, fmt.Sprintf("count entries: %v", err))
	}

	var result string
	row = s.db.QueryRowContext(ctx, "PRAGMA integrity_check")
	if err := row.Scan(&result); err != nil {
		health.IntegrityOK = false
		health.Issues = append(health.Issues, fmt.Sprintf("integrity check: %v", err))
	} else if !strings.EqualFold(result, "ok") {
		health.IntegrityOK = false
		health.Issues = append(health.Issues, fmt.Sprintf("integrity check reported %q", result))
	}

	return health, nil
}
