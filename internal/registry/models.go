package registry

import (
	"time"

	"physica/internal/metadata"
)

// Entry is one cartridge known to the registry, keyed by descriptor UUID.
// Playtime statistics live here authoritatively; the copy inside the
// descriptor exists so the cartridge carries its history between machines.
type Entry struct {
	UUID           string
	GameID         string
	Name           string
	Metadata       *metadata.Metadata
	TotalPlaytime  int64
	PlayCount      int
	LastPlayed     string
	Present        bool
	LastMountPoint string
	FirstSeen      string
	UpdatedAt      string
}

// Playtime returns the accumulated playtime as a duration.
func (e *Entry) Playtime() time.Duration {
	if e == nil || e.TotalPlaytime <= 0 {
		return 0
	}
	return time.Duration(e.TotalPlaytime) * time.Second
}

// LastPlayedTime parses the last played timestamp, returning the zero time
// when the game has never been played.
func (e *Entry) LastPlayedTime() time.Time {
	if e == nil || e.LastPlayed == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, e.LastPlayed)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Summary aggregates library-wide statistics.
type Summary struct {
	TotalGames    int
	PresentCount  int
	TotalPlaytime int64
	TotalPlays    int
}

// DatabaseHealth captures registry database diagnostics.
type DatabaseHealth struct {
	Path        string
	SizeBytes   int64
	Entries     int
	IntegrityOK bool
	Issues      []string
}
