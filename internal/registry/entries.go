package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"physica/internal/metadata"
	"physica/internal/services"
)

const entryColumns = `uuid, game_id, name, metadata_json, total_playtime, play_count, last_played, present, last_mount_point, first_seen, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry        Entry
		metadataJSON sql.NullString
		lastPlayed   sql.NullString
		mountPoint   sql.NullString
		present      int
	)
	if err := row.Scan(
		&entry.UUID,
		&entry.GameID,
		&entry.Name,
		&metadataJSON,
		&entry.TotalPlaytime,
		&entry.PlayCount,
		&lastPlayed,
		&present,
		&mountPoint,
		&entry.FirstSeen,
		&entry.UpdatedAt,
	); err != nil {
		return nil, err
	}
	entry.LastPlayed = lastPlayed.String
	entry.Present = present != 0
	entry.LastMountPoint = mountPoint.String
	if metadataJSON.Valid && strings.TrimSpace(metadataJSON.String) != "" {
		var m metadata.Metadata
		// A corrupt snapshot loses the descriptor copy, not the entry.
		if err := json.Unmarshal([]byte(metadataJSON.String), &m); err == nil {
			entry.Metadata = &m
		}
	}
	return &entry, nil
}

func wrapIO(operation, message string, err error) error {
	return services.Wrap(services.ErrRegistryIO, "registry", operation, message, err)
}

func notFound(operation, uuid string) error {
	return services.Wrap(services.ErrNotFound, "registry", operation, fmt.Sprintf("cartridge %s not registered", uuid), nil)
}

// GetOrCreate registers a cartridge seen at mountPoint, marking it present.
// Existing entries absorb the descriptor's playtime statistics without ever
// regressing: a cartridge played on another machine raises the local counters
// while a stale descriptor copy leaves them alone.
func (s *Store) GetOrCreate(ctx context.Context, m *metadata.Metadata, mountPoint string) (*Entry, error) {
	if m == nil {
		return nil, services.Wrap(services.ErrValidation, "registry", "register", "nil descriptor", nil)
	}
	snapshot, err := json.Marshal(m)
	if err != nil {
		return nil, wrapIO("register", "marshal descriptor snapshot", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO games (
            uuid, game_id, name, metadata_json, total_playtime, play_count,
            last_played, present, last_mount_point, first_seen, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)
        ON CONFLICT(uuid) DO UPDATE SET
            game_id = excluded.game_id,
            name = excluded.name,
            metadata_json = excluded.metadata_json,
            total_playtime = MAX(games.total_playtime, excluded.total_playtime),
            play_count = MAX(games.play_count, excluded.play_count),
            last_played = CASE
                WHEN games.last_played IS NULL THEN excluded.last_played
                WHEN excluded.last_played IS NULL THEN games.last_played
                WHEN excluded.last_played > games.last_played THEN excluded.last_played
                ELSE games.last_played
            END,
            present = 1,
            last_mount_point = excluded.last_mount_point,
            updated_at = excluded.updated_at`,
		m.Cartridge.UUID,
		m.Game.ID,
		m.DisplayName(),
		string(snapshot),
		m.Cartridge.TotalPlaytime,
		m.Cartridge.PlayCount,
		nullableString(m.Cartridge.LastPlayed),
		nullableString(mountPoint),
		now,
		now,
	)
	if err != nil {
		return nil, wrapIO("register", "upsert entry", err)
	}
	return s.Get(ctx, m.Cartridge.UUID)
}

// RecordSession adds one finished play session to a cartridge's counters. A
// negative playtime clamps to zero but the session still counts as a play.
// The write is durable once this returns.
func (s *Store) RecordSession(ctx context.Context, uuid string, playtime time.Duration, endedAt time.Time) (*Entry, error) {
	if playtime < 0 {
		playtime = 0
	}
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	seconds := int64(playtime / time.Second)
	ended := endedAt.UTC().Format(time.RFC3339)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`UPDATE games SET
            total_playtime = total_playtime + MAX(?, 0),
            play_count = play_count + 1,
            last_played = ?,
            updated_at = ?
        WHERE uuid = ?`,
		seconds,
		ended,
		now,
		uuid,
	)
	if err != nil {
		return nil, wrapIO("record-session", "update playtime", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, wrapIO("record-session", "rows affected", err)
	}
	if affected == 0 {
		return nil, notFound("record-session", uuid)
	}
	return s.Get(ctx, uuid)
}

// SetPresence flips the present flag. An empty mountPoint preserves the last
// known mount location so ejected cartridges keep their history.
func (s *Store) SetPresence(ctx context.Context, uuid string, present bool, mountPoint string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE games SET
            present = ?,
            last_mount_point = CASE WHEN ? THEN ? ELSE last_mount_point END,
            updated_at = ?
        WHERE uuid = ?`,
		boolToInt(present),
		boolToInt(strings.TrimSpace(mountPoint) != ""),
		mountPoint,
		now,
		uuid,
	)
	if err != nil {
		return wrapIO("set-presence", "update entry", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapIO("set-presence", "rows affected", err)
	}
	if affected == 0 {
		return notFound("set-presence", uuid)
	}
	return nil
}

// MarkAllAbsent clears the present flag on every entry. The daemon runs this
// at startup before the first scan so presence reflects what is actually
// mounted now, not what was mounted at the last shutdown.
func (s *Store) MarkAllAbsent(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx, `UPDATE games SET present = 0, updated_at = ? WHERE present != 0`, now)
	if err != nil {
		return 0, wrapIO("mark-all-absent", "update entries", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, wrapIO("mark-all-absent", "rows affected", err)
	}
	return affected, nil
}

// UpdateSnapshot refreshes the stored descriptor copy after a metadata edit.
// Playtime counters are untouched; they only move through GetOrCreate and
// RecordSession.
func (s *Store) UpdateSnapshot(ctx context.Context, uuid string, m *metadata.Metadata) (*Entry, error) {
	if m == nil {
		return nil, services.Wrap(services.ErrValidation, "registry", "update-snapshot", "nil descriptor", nil)
	}
	snapshot, err := json.Marshal(m)
	if err != nil {
		return nil, wrapIO("update-snapshot", "marshal descriptor snapshot", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE games SET game_id = ?, name = ?, metadata_json = ?, updated_at = ? WHERE uuid = ?`,
		m.Game.ID,
		m.DisplayName(),
		string(snapshot),
		now,
		uuid,
	)
	if err != nil {
		return nil, wrapIO("update-snapshot", "update entry", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, wrapIO("update-snapshot", "rows affected", err)
	}
	if affected == 0 {
		return nil, notFound("update-snapshot", uuid)
	}
	return s.Get(ctx, uuid)
}

// Remove deletes an entry from the registry. The cartridge itself is
// untouched and will re-register on its next insertion.
func (s *Store) Remove(ctx context.Context, uuid string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM games WHERE uuid = ?`, uuid)
	if err != nil {
		return wrapIO("remove", "delete entry", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapIO("remove", "rows affected", err)
	}
	if affected == 0 {
		return notFound("remove", uuid)
	}
	return nil
}

// Get fetches one entry by UUID. An unregistered UUID is an ErrNotFound,
// never a nil entry, so callers don't have to guard the dereference.
func (s *Store) Get(ctx context.Context, uuid string) (*Entry, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM games WHERE uuid = ?`, uuid)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("get", uuid)
	}
	if err != nil {
		return nil, wrapIO("get", "scan entry", err)
	}
	return entry, nil
}

// List returns every registered cartridge ordered by display name.
func (s *Store) List(ctx context.Context) ([]*Entry, error) {
	return s.list(ctx, `SELECT `+entryColumns+` FROM games ORDER BY name COLLATE NOCASE, uuid`)
}

// ListPresent returns only the cartridges currently mounted.
func (s *Store) ListPresent(ctx context.Context) ([]*Entry, error) {
	return s.list(ctx, `SELECT `+entryColumns+` FROM games WHERE present != 0 ORDER BY name COLLATE NOCASE, uuid`)
}

func (s *Store) list(ctx context.Context, query string) ([]*Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapIO("list", "query entries", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, wrapIO("list", "scan entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapIO("list", "iterate entries", err)
	}
	return entries, nil
}
