// Package launch starts cartridge games and tracks the resulting processes.
//
// Windows games run through a Proton entry script with the runtime prefix
// pointed at the local prefix directory rather than the cartridge, so wine
// writes land on fast local storage. Native games run directly. Runtime
// resolution is exact-version only; see Resolver.
package launch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonboulle/clockwork"

	"physica/internal/config"
	"physica/internal/logging"
	"physica/internal/metadata"
	"physica/internal/services"
)

const (
	entryScriptName = "proton"
	// launchLogName is the per-prefix file capturing game stdout and stderr.
	launchLogName  = "game_launch.log"
	displayDefault = ":0"
)

// Launcher starts games described by cartridge metadata.
type Launcher struct {
	cfg      *config.Config
	resolver *Resolver
	exec     Executor
	clock    clockwork.Clock
	logger   *slog.Logger
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithExecutor replaces the process executor, primarily for tests.
func WithExecutor(exec Executor) Option {
	return func(l *Launcher) {
		if exec != nil {
			l.exec = exec
		}
	}
}

// WithClock replaces the wall clock used for session timing.
func WithClock(clock clockwork.Clock) Option {
	return func(l *Launcher) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// New creates a Launcher for the given configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Launcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	l := &Launcher{
		cfg:      cfg,
		resolver: NewResolver(cfg.Runtime.SearchPaths),
		exec:     commandExecutor{},
		clock:    clockwork.NewRealClock(),
		logger:   logging.NewComponentLogger(logger, "launch"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Runtimes returns the runtime versions installed across the configured
// search paths.
func (l *Launcher) Runtimes() []string {
	return l.resolver.Available()
}

// Launch starts the game described by m from the cartridge mounted at
// mountPath. It returns as soon as the process is running; the handle
// reports exit and serves termination requests. Enforcing one session per
// cartridge is the caller's job.
func (l *Launcher) Launch(ctx context.Context, m *metadata.Metadata, mountPath string) (*Handle, error) {
	name := m.DisplayName()
	exePath := m.ExecutablePath(mountPath)
	if info, err := os.Stat(exePath); err != nil || info.IsDir() {
		return nil, services.Wrap(services.ErrExecutableNotFound, "launch", "start", exePath, nil)
	}

	prefixDir := l.cfg.PrefixDir(m.Cartridge.UUID)
	if err := os.MkdirAll(prefixDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrLaunchFailed, "launch", "prepare", "creating prefix directory", err)
	}

	spec := ProcessSpec{
		Dir:     m.WorkingDirPath(mountPath),
		LogPath: filepath.Join(prefixDir, launchLogName),
	}
	overrides := make(map[string]string)
	if m.Runtime.NeedsWine {
		version := m.RuntimeVersion(l.cfg.Runtime.DefaultVersion)
		runtimeDir, err := l.resolver.Resolve(version)
		if err != nil {
			return nil, err
		}
		spec.Binary = EntryScript(runtimeDir)
		spec.Args = append([]string{"run", exePath}, m.Runtime.LaunchArgs...)
		overrides["WINEPREFIX"] = prefixDir
		overrides["STEAM_COMPAT_DATA_PATH"] = filepath.Dir(prefixDir)
		overrides["STEAM_COMPAT_CLIENT_INSTALL_PATH"] = l.cfg.Runtime.SteamRoot
		overrides["PROTON_LOG"] = "1"
		overrides["PROTON_LOG_DIR"] = prefixDir
		l.logger.Info("launching game under runtime",
			"game", name,
			"uuid", m.Cartridge.UUID,
			"runtime", version,
			"exe", exePath)
	} else {
		spec.Binary = exePath
		spec.Args = append([]string{}, m.Runtime.LaunchArgs...)
		l.logger.Info("launching native game",
			"game", name,
			"uuid", m.Cartridge.UUID,
			"exe", exePath)
	}
	if os.Getenv("DISPLAY") == "" {
		overrides["DISPLAY"] = displayDefault
	}
	// Descriptor env vars are applied last so a cartridge can override
	// anything we set.
	for key, value := range m.Runtime.EnvVars {
		overrides[key] = value
	}
	spec.Env = mergeEnv(os.Environ(), overrides)

	proc, err := l.exec.Start(ctx, spec)
	if err != nil {
		return nil, services.Wrap(services.ErrLaunchFailed, "launch", "start", name, err)
	}

	l.logger.Info("game process started", "game", name, "uuid", m.Cartridge.UUID, "pid", proc.PID())
	return &Handle{
		uuid:    m.Cartridge.UUID,
		name:    name,
		proc:    proc,
		clock:   l.clock,
		started: l.clock.Now(),
		logger:  l.logger,
	}, nil
}

// mergeEnv overlays overrides onto a base environment, replacing existing
// values. Overridden keys are appended in sorted order so the result is
// stable.
func mergeEnv(base []string, overrides map[string]string) []string {
	merged := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, replaced := overrides[key]; replaced {
			continue
		}
		merged = append(merged, kv)
	}
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		merged = append(merged, key+"="+overrides[key])
	}
	return merged
}
