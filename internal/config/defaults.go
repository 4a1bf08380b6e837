package config

const (
	defaultDataDir              = "~/.local/share/physica"
	defaultLogDir               = "~/.local/share/physica/logs"
	defaultLogRetentionDays     = 7
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultScanInterval         = 5
	defaultAutoLaunchDelay      = 2
	defaultRemovalSyncTimeout   = 20
	defaultTerminationGrace     = 5
	defaultRuntimeVersion       = "GE-Proton8-14"
	defaultSteamRoot            = "~/.steam/steam"
	defaultNotifyRequestTimeout = 10
)

func defaultMountBases() []string {
	return []string{"/run/media", "/media"}
}

func defaultRuntimeSearchPaths() []string {
	return []string{
		"~/.steam/steam/compatibilitytools.d",
		"/usr/share/steam/compatibilitytools.d",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Monitor: Monitor{
			ScanInterval:    defaultScanInterval,
			MountBases:      defaultMountBases(),
			NetlinkEnabled:  true,
			FsnotifyEnabled: true,
		},
		Session: Session{
			AutoLaunchDelay:    defaultAutoLaunchDelay,
			RemovalSyncTimeout: defaultRemovalSyncTimeout,
			TerminationGrace:   defaultTerminationGrace,
		},
		Runtime: Runtime{
			DefaultVersion: defaultRuntimeVersion,
			SearchPaths:    defaultRuntimeSearchPaths(),
			SteamRoot:      defaultSteamRoot,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Insertions:     true,
			Sessions:       true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
