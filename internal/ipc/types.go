package ipc

import "physica/internal/api"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/session status information.
type StatusResponse struct {
	Running      bool                `json:"running"`
	PID          int                 `json:"pid"`
	StartedAt    string              `json:"started_at,omitempty"`
	LockPath     string              `json:"lock_path"`
	RegistryPath string              `json:"registry_path"`
	LogPath      string              `json:"log_path"`
	Cartridges   []api.CartridgeInfo `json:"cartridges,omitempty"`
	RunningGames int                 `json:"running_games"`
	Monitor      api.MonitorStatus   `json:"monitor"`
	Registry     *api.RegistryStats  `json:"registry,omitempty"`
	Runtimes     []string            `json:"runtimes,omitempty"`
	Tools        []api.ToolStatus    `json:"tools,omitempty"`
}

// ListCartridgesRequest lists inserted cartridges.
type ListCartridgesRequest struct{}

// ListCartridgesResponse contains lifecycle snapshots for inserted cartridges.
type ListCartridgesResponse struct {
	Cartridges []api.CartridgeInfo `json:"cartridges"`
}

// GetCartridgeRequest fetches a single inserted cartridge by UUID.
type GetCartridgeRequest struct {
	UUID string `json:"uuid"`
}

// GetCartridgeResponse contains one cartridge snapshot.
type GetCartridgeResponse struct {
	Cartridge api.CartridgeInfo `json:"cartridge"`
}

// GamesRequest lists registry entries regardless of device presence.
type GamesRequest struct{}

// GamesResponse contains the game library.
type GamesResponse struct {
	Games []api.GameInfo `json:"games"`
}

// LaunchRequest starts a play session for an inserted cartridge.
type LaunchRequest struct {
	UUID string `json:"uuid"`
}

// LaunchResponse returns the session snapshot once the game is running.
type LaunchResponse struct {
	Cartridge api.CartridgeInfo `json:"cartridge"`
}

// StopGameRequest asks a running game to exit.
type StopGameRequest struct {
	UUID string `json:"uuid"`
}

// StopGameResponse indicates the termination request was delivered.
type StopGameResponse struct {
	Stopped bool `json:"stopped"`
}

// IsGameRunningRequest queries for a live game process.
type IsGameRunningRequest struct {
	UUID string `json:"uuid"`
}

// IsGameRunningResponse reports whether the cartridge has a live game.
type IsGameRunningResponse struct {
	Running bool `json:"running"`
}

// EjectRequest detaches an idle cartridge's backing device.
type EjectRequest struct {
	UUID string `json:"uuid"`
}

// EjectResponse reports what the eject did to the device.
type EjectResponse struct {
	Device     string `json:"device"`
	PoweredOff bool   `json:"powered_off"`
}

// RefreshRequest forces a detection rescan.
type RefreshRequest struct{}

// RefreshResponse reports descriptor UUIDs that appeared or disappeared.
type RefreshResponse struct {
	Inserted []string `json:"inserted,omitempty"`
	Removed  []string `json:"removed,omitempty"`
}

// RemoveRequest deletes a game's registry history.
type RemoveRequest struct {
	UUID string `json:"uuid"`
}

// RemoveResponse indicates the entry was deleted.
type RemoveResponse struct {
	Removed bool `json:"removed"`
}

// UpdateMetadataRequest patches an inserted cartridge's descriptor.
type UpdateMetadataRequest struct {
	UUID  string            `json:"uuid"`
	Patch api.MetadataPatch `json:"patch"`
}

// UpdateMetadataResponse returns the snapshot after the rewrite.
type UpdateMetadataResponse struct {
	Cartridge api.CartridgeInfo `json:"cartridge"`
}

// PlaytimeRequest queries accumulated playtime for a game.
type PlaytimeRequest struct {
	UUID string `json:"uuid"`
}

// PlaytimeResponse carries the registry's playtime answer.
type PlaytimeResponse struct {
	UUID            string `json:"uuid"`
	Name            string `json:"name"`
	PlaytimeSeconds int64  `json:"playtime_seconds"`
	PlayCount       int    `json:"play_count"`
	LastPlayed      string `json:"last_played,omitempty"`
}

// StatsRequest fetches library-wide registry totals.
type StatsRequest struct{}

// StatsResponse contains aggregate registry statistics.
type StatsResponse struct {
	Stats api.RegistryStats `json:"stats"`
}

// RegistryHealthRequest fetches registry database diagnostics.
type RegistryHealthRequest struct{}

// RegistryHealthResponse reports registry database health information.
type RegistryHealthResponse struct {
	Path        string   `json:"path"`
	SizeBytes   int64    `json:"size_bytes"`
	Entries     int      `json:"entries"`
	IntegrityOK bool     `json:"integrity_ok"`
	Issues      []string `json:"issues,omitempty"`
}

// EventsRequest fetches lifecycle events after a sequence number. With
// WaitMillis set, the server holds the request open until an event arrives
// or the wait expires; consumers that fall off the buffer resync through
// ListCartridges and Games.
type EventsRequest struct {
	After      uint64 `json:"after"`
	Limit      int    `json:"limit"`
	WaitMillis int    `json:"wait_millis"`
}

// EventsResponse returns events and the cursor for the next request.
type EventsResponse struct {
	Events []api.Event `json:"events,omitempty"`
	Next   uint64      `json:"next"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// StopRequest asks the daemon process to shut down.
type StopRequest struct{}

// StopResponse indicates shutdown was requested.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
