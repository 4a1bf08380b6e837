package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateMonitor(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateRuntime(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"monitor.scan_interval":         c.Monitor.ScanInterval,
		"session.removal_sync_timeout":  c.Session.RemovalSyncTimeout,
		"session.termination_grace":     c.Session.TerminationGrace,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateMonitor() error {
	if len(c.Monitor.MountBases) == 0 {
		return errors.New("monitor.mount_bases must include at least one directory")
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.AutoLaunchDelay < 0 {
		return errors.New("session.auto_launch_delay must be >= 0")
	}
	return nil
}

func (c *Config) validateRuntime() error {
	if c.Runtime.DefaultVersion == "" {
		return errors.New("runtime.default_version must be set")
	}
	if len(c.Runtime.SearchPaths) == 0 {
		return errors.New("runtime.search_paths must include at least one directory")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.MinSessionSeconds < 0 {
		return errors.New("notifications.min_session_seconds must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
