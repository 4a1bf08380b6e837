package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Monitor contains configuration for cartridge detection.
type Monitor struct {
	ScanInterval    int      `toml:"scan_interval"`
	MountBases      []string `toml:"mount_bases"`
	NetlinkEnabled  bool     `toml:"netlink_enabled"`
	FsnotifyEnabled bool     `toml:"fsnotify_enabled"`
}

// Session contains timing configuration for the session coordinator.
type Session struct {
	AutoLaunchDelay    int `toml:"auto_launch_delay"`
	RemovalSyncTimeout int `toml:"removal_sync_timeout"`
	TerminationGrace   int `toml:"termination_grace"`
}

// Runtime contains configuration for compatibility-runtime resolution.
type Runtime struct {
	DefaultVersion string   `toml:"default_version"`
	SearchPaths    []string `toml:"search_paths"`
	SteamRoot      string   `toml:"steam_root"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic         string `toml:"ntfy_topic"`
	RequestTimeout    int    `toml:"request_timeout"`
	Insertions        bool   `toml:"insertions"`
	Sessions          bool   `toml:"sessions"`
	Errors            bool   `toml:"errors"`
	MinSessionSeconds int    `toml:"min_session_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Physica.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Monitor: mount scanning interval, watched bases, event fast paths
//   - Session: auto-launch delay and removal/termination timeouts
//   - Runtime: compatibility-runtime version and search paths
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Monitor       Monitor       `toml:"monitor"`
	Session       Session       `toml:"session"`
	Runtime       Runtime       `toml:"runtime"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/physica/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/physica/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("physica.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.PrefixRoot()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RegistryPath returns the SQLite database location for the game registry.
func (c *Config) RegistryPath() string {
	return filepath.Join(c.Paths.DataDir, "registry.db")
}

// PrefixRoot returns the directory holding per-game local runtime prefixes.
func (c *Config) PrefixRoot() string {
	return filepath.Join(c.Paths.DataDir, "prefixes")
}

// PrefixDir returns the local runtime prefix directory for a cartridge UUID.
func (c *Config) PrefixDir(uuid string) string {
	return filepath.Join(c.PrefixRoot(), uuid)
}

// UdisksctlBinary returns the executable used to unmount cartridges on eject.
func (c *Config) UdisksctlBinary() string {
	return "udisksctl"
}

// LsblkBinary returns the executable used to resolve mount points to devices.
func (c *Config) LsblkBinary() string {
	return "lsblk"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
