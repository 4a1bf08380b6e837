package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// CartridgeInfo describes an inserted cartridge in a transport-friendly
// format. Descriptor sections are flattened; playtime fields reflect the
// mirror the cartridge carries, not the registry.
type CartridgeInfo struct {
	UUID            string `json:"uuid"`
	Name            string `json:"name"`
	GameID          string `json:"gameId"`
	Version         string `json:"version,omitempty"`
	Publisher       string `json:"publisher,omitempty"`
	Genre           string `json:"genre,omitempty"`
	Platform        string `json:"platform,omitempty"`
	RuntimeVersion  string `json:"runtimeVersion,omitempty"`
	Executable      string `json:"executable,omitempty"`
	MountPath       string `json:"mountPath"`
	State           string `json:"state"`
	Status          string `json:"status,omitempty"`
	PID             int    `json:"pid,omitempty"`
	AutoLaunch      bool   `json:"autoLaunch"`
	AutoLaunchArmed bool   `json:"autoLaunchArmed"`
	InsertedAt      string `json:"insertedAt,omitempty"`
	RunningSince    string `json:"runningSince,omitempty"`
	PlaytimeSeconds int64  `json:"playtimeSeconds"`
	PlayCount       int    `json:"playCount"`
	Notes           string `json:"notes,omitempty"`
}

// GameInfo describes a registry entry. Unlike CartridgeInfo it covers games
// whose cartridge is absent, and its playtime fields are authoritative.
type GameInfo struct {
	UUID            string `json:"uuid"`
	GameID          string `json:"gameId"`
	Name            string `json:"name"`
	Version         string `json:"version,omitempty"`
	Publisher       string `json:"publisher,omitempty"`
	Genre           string `json:"genre,omitempty"`
	Platform        string `json:"platform,omitempty"`
	PlaytimeSeconds int64  `json:"playtimeSeconds"`
	PlayCount       int    `json:"playCount"`
	LastPlayed      string `json:"lastPlayed,omitempty"`
	Present         bool   `json:"present"`
	MountPath       string `json:"mountPath,omitempty"`
	FirstSeen       string `json:"firstSeen,omitempty"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
}

// RegistryStats aggregates library-wide totals.
type RegistryStats struct {
	TotalGames      int   `json:"totalGames"`
	PresentCount    int   `json:"presentCount"`
	PlaytimeSeconds int64 `json:"playtimeSeconds"`
	TotalPlays      int   `json:"totalPlays"`
}

// MonitorStatus reports the detection layer's health.
type MonitorStatus struct {
	Running             bool     `json:"running"`
	Netlink             bool     `json:"netlink"`
	Fsnotify            bool     `json:"fsnotify"`
	Tracked             int      `json:"tracked"`
	InvalidPaths        int      `json:"invalidPaths"`
	MountBases          []string `json:"mountBases,omitempty"`
	ScanIntervalSeconds int      `json:"scanIntervalSeconds,omitempty"`
}

// ToolStatus captures availability of an external tool.
type ToolStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// Event is one lifecycle event from the daemon's event stream.
type Event struct {
	Seq             uint64 `json:"seq"`
	Time            string `json:"time"`
	Type            string `json:"type"`
	UUID            string `json:"uuid,omitempty"`
	Name            string `json:"name,omitempty"`
	PlaytimeSeconds int64  `json:"playtimeSeconds,omitempty"`
	Detail          string `json:"detail,omitempty"`
}

// MetadataPatch carries the editable descriptor fields for UpdateMetadata.
// Nil pointers leave the corresponding field untouched, so a patch can clear
// a value by sending an explicit empty string.
type MetadataPatch struct {
	Name       *string `json:"name,omitempty"`
	Version    *string `json:"version,omitempty"`
	Publisher  *string `json:"publisher,omitempty"`
	Genre      *string `json:"genre,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	AutoLaunch *bool   `json:"autoLaunch,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p MetadataPatch) IsZero() bool {
	return p.Name == nil && p.Version == nil && p.Publisher == nil &&
		p.Genre == nil && p.Notes == nil && p.AutoLaunch == nil
}
