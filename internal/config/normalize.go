package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeMonitor(); err != nil {
		return err
	}
	c.normalizeSession()
	if err := c.normalizeRuntime(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMonitor() error {
	if c.Monitor.ScanInterval <= 0 {
		c.Monitor.ScanInterval = defaultScanInterval
	}
	bases := c.Monitor.MountBases
	if len(bases) == 0 {
		bases = defaultMountBases()
	}
	normalized := make([]string, 0, len(bases))
	seen := make(map[string]struct{}, len(bases))
	for _, base := range bases {
		trimmed := strings.TrimSpace(base)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("monitor.mount_bases: %w", err)
		}
		if _, exists := seen[expanded]; exists {
			continue
		}
		seen[expanded] = struct{}{}
		normalized = append(normalized, expanded)
	}
	if len(normalized) == 0 {
		for _, base := range defaultMountBases() {
			normalized = append(normalized, base)
		}
	}
	c.Monitor.MountBases = normalized
	return nil
}

func (c *Config) normalizeSession() {
	if c.Session.AutoLaunchDelay < 0 {
		c.Session.AutoLaunchDelay = 0
	}
	if c.Session.RemovalSyncTimeout <= 0 {
		c.Session.RemovalSyncTimeout = defaultRemovalSyncTimeout
	}
	if c.Session.TerminationGrace <= 0 {
		c.Session.TerminationGrace = defaultTerminationGrace
	}
}

func (c *Config) normalizeRuntime() error {
	c.Runtime.DefaultVersion = strings.TrimSpace(c.Runtime.DefaultVersion)
	if c.Runtime.DefaultVersion == "" {
		c.Runtime.DefaultVersion = defaultRuntimeVersion
	}
	paths := c.Runtime.SearchPaths
	if len(paths) == 0 {
		paths = defaultRuntimeSearchPaths()
	}
	normalized := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("runtime.search_paths: %w", err)
		}
		if _, exists := seen[expanded]; exists {
			continue
		}
		seen[expanded] = struct{}{}
		normalized = append(normalized, expanded)
	}
	c.Runtime.SearchPaths = normalized

	if strings.TrimSpace(c.Runtime.SteamRoot) == "" {
		c.Runtime.SteamRoot = defaultSteamRoot
	}
	var err error
	if c.Runtime.SteamRoot, err = expandPath(c.Runtime.SteamRoot); err != nil {
		return fmt.Errorf("runtime.steam_root: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("PHYSICA_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	if c.Notifications.MinSessionSeconds < 0 {
		c.Notifications.MinSessionSeconds = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
