// Package registry persists the library of every cartridge the daemon has
// ever seen, keyed by descriptor UUID. It is the authoritative home of
// playtime statistics; descriptor copies on the cartridges are reconciled
// into it without ever lowering a counter.
package registry
