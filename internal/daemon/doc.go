// Package daemon coordinates the long-running physica process and system
// integration points.
//
// It wires configuration, the registry store, the session coordinator, and
// the cartridge monitor into a single lifecycle with flock-based locking to
// prevent multiple instances. The daemon exposes the operations the IPC
// layer serves: cartridge queries, launches, ejection, registry maintenance,
// descriptor edits, and the lifecycle event feed.
//
// Keep orchestration logic here: detection, session handling, and storage
// live in their respective packages while the daemon focuses on startup,
// shutdown, and high level coordination.
package daemon
