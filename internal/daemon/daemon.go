package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"physica/internal/config"
	"physica/internal/events"
	"physica/internal/launch"
	"physica/internal/logging"
	"physica/internal/monitor"
	"physica/internal/preflight"
	"physica/internal/registry"
	"physica/internal/session"
)

// Daemon wires the detection, session, and registry services together and
// enforces single-instance execution through a lock file.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *registry.Store
	coord   *session.Coordinator
	mon     *monitor.Monitor
	bus     *events.Bus
	ejector monitor.Ejector
	logPath string

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	LockFilePath string
	RegistryPath string
	LogPath      string
	Cartridges   []session.Info
	RunningGames int
	Monitor      monitor.Status
	Registry     *registry.Summary
	Runtimes     []string
	Tools        []preflight.ToolStatus
}

// New constructs a daemon with initialized dependencies. A nil ejector gets
// the standard udisksctl-backed one.
func New(cfg *config.Config, store *registry.Store, coord *session.Coordinator, mon *monitor.Monitor, bus *events.Bus, ejector monitor.Ejector, logger *slog.Logger, logPath string) (*Daemon, error) {
	if cfg == nil || store == nil || coord == nil || mon == nil || bus == nil {
		return nil, errors.New("daemon requires config, store, coordinator, monitor, and event bus")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if ejector == nil {
		ejector = monitor.NewEjector(cfg)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "physica.lock")
	return &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      store,
		coord:      coord,
		mon:        mon,
		bus:        bus,
		ejector:    ejector,
		logPath:    logPath,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		shutdownCh: make(chan struct{}),
	}, nil
}

// Start acquires the daemon lock and brings up session handling and
// cartridge detection. The coordinator starts first so the monitor's initial
// scan has a consumer.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another physica daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	// Presence carries over from the previous run; reset it before the
	// first scan so only cartridges mounted right now read as present.
	if cleared, err := d.store.MarkAllAbsent(d.ctx); err != nil {
		d.abortStart()
		return fmt.Errorf("reset cartridge presence: %w", err)
	} else if cleared > 0 {
		d.logger.Info("cleared stale presence flags", logging.Int64("entries", cleared))
	}

	if err := d.coord.Start(d.ctx, d.mon.Events()); err != nil {
		d.abortStart()
		return fmt.Errorf("start session coordinator: %w", err)
	}
	if err := d.mon.Start(d.ctx); err != nil {
		d.coord.Stop()
		d.abortStart()
		return fmt.Errorf("start cartridge monitor: %w", err)
	}

	d.startedAt = time.Now().UTC()
	d.running.Store(true)
	d.logger.Info("physica daemon started", logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) abortStart() {
	_ = d.lock.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx = nil
	d.cancel = nil
}

// Stop tears down sessions and detection and releases the daemon lock.
// Sessions go first: their final save sync needs the mounts the monitor
// still knows about.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.coord.Stop()
	d.mon.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("physica daemon stopped")
}

// Close stops the daemon and releases resources it holds.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// RequestShutdown asks the hosting process to exit. Safe to call more than
// once.
func (d *Daemon) RequestShutdown() {
	d.shutdownOnce.Do(func() { close(d.shutdownCh) })
}

// ShutdownRequested is closed once a shutdown has been requested over IPC.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdownCh
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status. Registry totals are best effort:
// a store error leaves the field nil rather than failing the whole snapshot.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    d.startedAt,
		LockFilePath: d.lockPath,
		RegistryPath: d.cfg.RegistryPath(),
		LogPath:      d.logPath,
		Cartridges:   d.coord.Sessions(),
		RunningGames: d.coord.RunningCount(),
		Monitor:      d.mon.Status(),
		Runtimes:     launch.NewResolver(d.cfg.Runtime.SearchPaths).Available(),
		Tools:        preflight.CheckTools(d.cfg),
	}
	if summary, err := d.store.Stats(ctx); err == nil {
		status.Registry = summary
	} else {
		d.logger.Warn("registry stats unavailable for status", logging.Error(err))
	}
	return status
}
