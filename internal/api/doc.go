// Package api defines wire-format types and converters for the IPC layer.
// It translates internal session, registry, and monitor models into
// transport-friendly DTOs that frontends can render without coupling to
// internal types.
//
// # Key Types
//
// CartridgeInfo: transport representation of an inserted cartridge with its
// descriptor fields, session state, and the playtime mirror carried on the
// card itself.
//
// GameInfo: one registry entry, covering games whose cartridge is not
// currently inserted.
//
// RegistryStats: library-wide totals.
//
// Event: a lifecycle event (insert, remove, launch, stop) for live tailing.
//
// MetadataPatch: the editable subset of descriptor fields for UpdateMetadata.
//
// # Converters
//
// FromSession: session.Info -> CartridgeInfo, flattening descriptor sections.
//
// FromEntry: registry.Entry -> GameInfo with fields lifted from the stored
// descriptor snapshot.
//
// FromSummary, FromEvent, FromToolStatus, FromMonitorStatus: one-way views of
// their internal counterparts.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (session.State, events.Type) are exposed as lowercase strings.
// Timestamps use RFC3339 with milliseconds. Playtime crosses the wire as
// whole seconds; FormatPlaytime renders it for humans.
//
// Registry values win over descriptor mirrors wherever both exist, so the
// API reflects playtime recorded on this machine even when a cartridge
// carries a stale copy.
package api
