package daemon

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"physica/internal/api"
	"physica/internal/events"
	"physica/internal/logging"
	"physica/internal/metadata"
	"physica/internal/monitor"
	"physica/internal/notifications"
	"physica/internal/registry"
	"physica/internal/services"
	"physica/internal/session"
)

// ListCartridges returns lifecycle snapshots for all inserted cartridges.
func (d *Daemon) ListCartridges() []session.Info {
	return d.coord.Sessions()
}

// GetCartridge returns the snapshot for one inserted cartridge.
func (d *Daemon) GetCartridge(uuid string) (session.Info, error) {
	info, ok := d.coord.Get(uuid)
	if !ok {
		return session.Info{}, notInserted("get cartridge", uuid)
	}
	return info, nil
}

// Games lists every registry entry, inserted or not.
func (d *Daemon) Games(ctx context.Context) ([]*registry.Entry, error) {
	return d.store.List(ctx)
}

// Launch starts the game on the given cartridge.
func (d *Daemon) Launch(ctx context.Context, uuid string) error {
	return d.coord.Launch(ctx, uuid)
}

// StopGame terminates the running game on the given cartridge.
func (d *Daemon) StopGame(ctx context.Context, uuid string) error {
	return d.coord.StopGame(ctx, uuid)
}

// IsGameRunning reports whether the cartridge has a live game process.
func (d *Daemon) IsGameRunning(uuid string) bool {
	return d.coord.IsRunning(uuid)
}

// Eject unmounts and powers off the cartridge's backing device. Only idle
// cartridges may be ejected: an active session would lose its mount mid
// sync or mid game.
func (d *Daemon) Eject(ctx context.Context, uuid string) (monitor.EjectResult, error) {
	info, ok := d.coord.Get(uuid)
	if !ok {
		return monitor.EjectResult{}, notInserted("eject", uuid)
	}
	if info.State != session.StateIdle {
		return monitor.EjectResult{}, services.Wrap(services.ErrConflict, "daemon", "eject",
			fmt.Sprintf("cartridge %s is %s, eject refused", uuid, info.State), nil)
	}

	result, err := d.ejector.Eject(ctx, info.MountPath)
	if err != nil {
		return result, err
	}
	d.logger.Info("cartridge ejected",
		logging.String("uuid", uuid),
		logging.String("device", result.Device),
		logging.Bool("powered_off", result.PoweredOff),
	)
	// Fold the now-gone mount immediately instead of waiting out the scan
	// interval.
	d.mon.Rescan(ctx)
	return result, nil
}

// Refresh forces a detection rescan and reports descriptor UUIDs that
// appeared or disappeared.
func (d *Daemon) Refresh(ctx context.Context) (inserted, removed []string) {
	return d.mon.Rescan(ctx)
}

// RemoveFromRegistry deletes a game's history. Inserted cartridges are
// refused: their session would immediately re-register the entry.
func (d *Daemon) RemoveFromRegistry(ctx context.Context, uuid string) error {
	if _, ok := d.coord.Get(uuid); ok {
		return services.Wrap(services.ErrConflict, "daemon", "remove from registry",
			fmt.Sprintf("cartridge %s is inserted, remove refused", uuid), nil)
	}
	if err := d.store.Remove(ctx, uuid); err != nil {
		return err
	}
	d.logger.Info("registry entry removed", logging.String("uuid", uuid))
	return nil
}

// UpdateMetadata applies a patch to an inserted cartridge's descriptor,
// validates the result, and rewrites it on the cartridge. The registry
// snapshot and the live session pick up the new descriptor immediately.
func (d *Daemon) UpdateMetadata(ctx context.Context, uuid string, patch api.MetadataPatch) (session.Info, error) {
	info, ok := d.coord.Get(uuid)
	if !ok {
		return session.Info{}, notInserted("update metadata", uuid)
	}
	if patch.IsZero() {
		return info, nil
	}

	var updated *metadata.Metadata
	err := metadata.Rewrite(metadata.DescriptorPath(info.MountPath), func(m *metadata.Metadata) error {
		patch.Apply(m)
		if err := m.Validate(); err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		return session.Info{}, err
	}

	if _, err := d.store.UpdateSnapshot(ctx, uuid, updated); err != nil {
		d.logger.Warn("registry snapshot update failed after metadata edit",
			logging.String("uuid", uuid),
			logging.Error(err),
		)
	}
	d.coord.RefreshMeta(uuid)
	d.logger.Info("descriptor updated", logging.String("uuid", uuid))

	info, ok = d.coord.Get(uuid)
	if !ok {
		// Removed between the rewrite and the reread. The edit itself
		// landed on the cartridge.
		return session.Info{}, notInserted("update metadata", uuid)
	}
	return info, nil
}

// PlaytimeInfo is the registry's answer to a playtime query.
type PlaytimeInfo struct {
	UUID            string
	Name            string
	PlaytimeSeconds int64
	PlayCount       int
	LastPlayed      string
}

// Playtime returns accumulated playtime for a game. The registry is
// authoritative; the cartridge's own mirror may lag behind.
func (d *Daemon) Playtime(ctx context.Context, uuid string) (PlaytimeInfo, error) {
	entry, err := d.store.Get(ctx, uuid)
	if err != nil {
		return PlaytimeInfo{}, err
	}
	return PlaytimeInfo{
		UUID:            entry.UUID,
		Name:            entry.Name,
		PlaytimeSeconds: entry.TotalPlaytime,
		PlayCount:       entry.PlayCount,
		LastPlayed:      entry.LastPlayed,
	}, nil
}

// Stats returns library-wide registry totals.
func (d *Daemon) Stats(ctx context.Context) (*registry.Summary, error) {
	return d.store.Stats(ctx)
}

// RegistryHealth returns database diagnostics for the registry.
func (d *Daemon) RegistryHealth(ctx context.Context) (*registry.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// Events returns lifecycle events after the given sequence number. With wait
// set, the call blocks until an event arrives or ctx expires.
func (d *Daemon) Events(ctx context.Context, since uint64, limit int, wait bool) ([]events.Event, uint64, error) {
	return d.bus.Fetch(ctx, since, limit, wait)
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

func notInserted(operation, uuid string) error {
	return services.Wrap(services.ErrNotFound, "daemon", operation, fmt.Sprintf("cartridge %s not inserted", uuid), nil)
}
