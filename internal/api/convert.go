package api

import (
	"time"

	"physica/internal/events"
	"physica/internal/metadata"
	"physica/internal/monitor"
	"physica/internal/preflight"
	"physica/internal/registry"
	"physica/internal/session"
)

// FromSession converts a session snapshot to its API representation.
func FromSession(info session.Info) CartridgeInfo {
	dto := CartridgeInfo{
		UUID:            info.UUID,
		Name:            info.Name,
		MountPath:       info.MountPath,
		State:           string(info.State),
		Status:          info.Status,
		PID:             info.PID,
		AutoLaunchArmed: info.AutoLaunchArmed,
		InsertedAt:      FormatTime(info.InsertedAt),
		RunningSince:    FormatTime(info.RunningSince),
	}
	if m := info.Meta; m != nil {
		dto.GameID = m.Game.ID
		dto.Version = m.Game.Version
		dto.Publisher = m.Game.Publisher
		dto.Genre = m.Game.Genre
		dto.Executable = m.Game.Executable
		dto.Platform = m.Runtime.Platform
		dto.RuntimeVersion = m.RuntimeVersion("")
		dto.AutoLaunch = m.Cartridge.AutoLaunch
		dto.PlaytimeSeconds = m.Cartridge.TotalPlaytime
		dto.PlayCount = m.Cartridge.PlayCount
		dto.Notes = m.Cartridge.Notes
		if dto.Name == "" {
			dto.Name = m.DisplayName()
		}
	}
	return dto
}

// FromSessions converts a slice of session snapshots into API DTOs.
func FromSessions(infos []session.Info) []CartridgeInfo {
	if len(infos) == 0 {
		return nil
	}
	out := make([]CartridgeInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, FromSession(info))
	}
	return out
}

// FromEntry converts a registry record to its API representation. Descriptor
// fields come from the stored snapshot when one exists.
func FromEntry(entry *registry.Entry) GameInfo {
	if entry == nil {
		return GameInfo{}
	}
	dto := GameInfo{
		UUID:            entry.UUID,
		GameID:          entry.GameID,
		Name:            entry.Name,
		PlaytimeSeconds: entry.TotalPlaytime,
		PlayCount:       entry.PlayCount,
		LastPlayed:      entry.LastPlayed,
		Present:         entry.Present,
		FirstSeen:       entry.FirstSeen,
		UpdatedAt:       entry.UpdatedAt,
	}
	if entry.Present {
		dto.MountPath = entry.LastMountPoint
	}
	if m := entry.Metadata; m != nil {
		dto.Version = m.Game.Version
		dto.Publisher = m.Game.Publisher
		dto.Genre = m.Game.Genre
		dto.Platform = m.Runtime.Platform
		if dto.Name == "" {
			dto.Name = m.DisplayName()
		}
	}
	return dto
}

// FromEntries converts a slice of registry records into API DTOs.
func FromEntries(entries []*registry.Entry) []GameInfo {
	if len(entries) == 0 {
		return nil
	}
	out := make([]GameInfo, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromEntry(entry))
	}
	return out
}

// FromSummary converts registry totals to an API payload.
func FromSummary(summary *registry.Summary) RegistryStats {
	if summary == nil {
		return RegistryStats{}
	}
	return RegistryStats{
		TotalGames:      summary.TotalGames,
		PresentCount:    summary.PresentCount,
		PlaytimeSeconds: summary.TotalPlaytime,
		TotalPlays:      summary.TotalPlays,
	}
}

// FromMonitorStatus converts detection-layer health to an API payload.
// Configuration-derived fields (mount bases, scan interval) are filled by
// the caller, which owns the config.
func FromMonitorStatus(status monitor.Status) MonitorStatus {
	return MonitorStatus{
		Running:      status.Running,
		Netlink:      status.Netlink,
		Fsnotify:     status.Fsnotify,
		Tracked:      status.Tracked,
		InvalidPaths: status.Invalid,
	}
}

// FromToolStatus converts a preflight tool check to an API payload.
func FromToolStatus(status preflight.ToolStatus) ToolStatus {
	return ToolStatus{
		Name:        status.Name,
		Command:     status.Command,
		Description: status.Description,
		Optional:    status.Optional,
		Available:   status.Available,
		Detail:      status.Detail,
	}
}

// FromToolStatuses converts a slice of preflight checks into API DTOs.
func FromToolStatuses(statuses []preflight.ToolStatus) []ToolStatus {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]ToolStatus, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, FromToolStatus(status))
	}
	return out
}

// FromEvent converts a bus event to its API representation.
func FromEvent(ev events.Event) Event {
	return Event{
		Seq:             ev.Seq,
		Time:            FormatTime(ev.Time),
		Type:            string(ev.Type),
		UUID:            ev.UUID,
		Name:            ev.Name,
		PlaytimeSeconds: ev.PlaytimeSeconds,
		Detail:          ev.Detail,
	}
}

// FromEvents converts a slice of bus events into API DTOs.
func FromEvents(evs []events.Event) []Event {
	if len(evs) == 0 {
		return nil
	}
	out := make([]Event, 0, len(evs))
	for _, ev := range evs {
		out = append(out, FromEvent(ev))
	}
	return out
}

// Apply copies the patch's set fields onto the descriptor.
func (p MetadataPatch) Apply(m *metadata.Metadata) {
	if m == nil {
		return
	}
	if p.Name != nil {
		m.Game.Name = *p.Name
	}
	if p.Version != nil {
		m.Game.Version = *p.Version
	}
	if p.Publisher != nil {
		m.Game.Publisher = *p.Publisher
	}
	if p.Genre != nil {
		m.Game.Genre = *p.Genre
	}
	if p.Notes != nil {
		m.Cartridge.Notes = *p.Notes
	}
	if p.AutoLaunch != nil {
		m.Cartridge.AutoLaunch = *p.AutoLaunch
	}
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
