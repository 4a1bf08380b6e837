package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"physica/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Device event sources are disabled so tests drive detection explicitly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Monitor.MountBases = []string{filepath.Join(base, "media")}
	cfgVal.Monitor.NetlinkEnabled = false
	cfgVal.Monitor.FsnotifyEnabled = false
	cfgVal.Runtime.SearchPaths = []string{filepath.Join(base, "compatibilitytools.d")}
	cfgVal.Runtime.SteamRoot = filepath.Join(base, "steam")

	if err := os.MkdirAll(cfgVal.Monitor.MountBases[0], 0o755); err != nil {
		t.Fatalf("mkdir mount base: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithScanInterval overrides the monitor poll interval in seconds.
func WithScanInterval(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Monitor.ScanInterval = seconds
	}
}

// WithAutoLaunchDelay overrides the auto-launch delay in seconds.
func WithAutoLaunchDelay(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Session.AutoLaunchDelay = seconds
	}
}

// WithNtfyTopic enables push notifications on the test config.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default physica external
// binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"udisksctl", "lsblk"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// MountBase returns the test mount base directory backing the config.
func MountBase(cfg *config.Config) string {
	return cfg.Monitor.MountBases[0]
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

// InstallRuntime creates a fake Proton install under the first runtime search
// path and returns its directory. The proton entry point records its argv so
// tests can assert on the launch command.
func InstallRuntime(t testing.TB, cfg *config.Config, version string) string {
	t.Helper()

	dir := filepath.Join(cfg.Runtime.SearchPaths[0], version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir runtime %s: %v", version, err)
	}
	script := "#!/bin/sh\necho \"$@\" > \"$(dirname \"$0\")/invoked.txt\"\nexit 0\n"
	if err := os.WriteFile(filepath.Join(dir, "proton"), []byte(script), 0o755); err != nil {
		t.Fatalf("write proton stub: %v", err)
	}
	return dir
}
