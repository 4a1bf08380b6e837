// Package services defines shared utilities consumed by the session
// coordinator and the component layers beneath it.
//
// Key responsibilities:
//   - Context helpers that stamp cartridge UUIDs, component names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent UI-facing status labels.
//
// Use these helpers when wiring new component logic so operational behaviour
// (error handling, observability) stays uniform across the manager.
package services
