// Package daemonrun boots the daemon process: logging, registry, session
// coordinator, device monitor, and the IPC server, then blocks until a
// signal or an IPC stop request arrives.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"physica/internal/config"
	"physica/internal/daemon"
	"physica/internal/events"
	"physica/internal/ipc"
	"physica/internal/launch"
	"physica/internal/logging"
	"physica/internal/monitor"
	"physica/internal/notifications"
	"physica/internal/registry"
	"physica/internal/savesync"
	"physica/internal/session"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel   string
	SocketPath string
}

// Run starts the physica daemon runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("physica-%s.log", runID))

	logLevel := opts.LogLevel
	if logLevel == "" {
		logLevel = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            logLevel,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update physica.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "physica-*.log", Exclude: []string{logPath}},
	)

	pidPath := filepath.Join(cfg.Paths.LogDir, "physica.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := registry.Open(cfg)
	if err != nil {
		logger.Error("open registry", logging.Error(err))
		return err
	}
	defer store.Close()

	bus := events.NewBus(1024)
	defer bus.Close()

	notifier := notifications.NewService(cfg)
	launcher := launch.New(cfg, logger)
	coord := session.NewWithNotifier(cfg, store, launcher, savesync.New(logger), bus, logger, notifier)
	mon := monitor.New(cfg, logger, bus)
	ejector := monitor.NewEjector(cfg)

	d, err := daemon.New(cfg, store, coord, mon, bus, ejector, logger, logPath)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := opts.SocketPath
	if socketPath == "" {
		socketPath = filepath.Join(cfg.Paths.LogDir, "physica.sock")
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check for another running daemon holding physica.lock"),
			logging.String(logging.FieldImpact, "cartridges will not be tracked"),
		)
		return err
	}

	select {
	case <-signalCtx.Done():
	case <-d.ShutdownRequested():
	}
	logger.Info("physica daemon shutting down",
		logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

// ensureCurrentLogPointer keeps <log_dir>/physica.log pointing at the
// newest run's log so tail commands have a stable path.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "physica.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
