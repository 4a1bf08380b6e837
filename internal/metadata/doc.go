// Package metadata parses, validates, and serializes cartridge descriptors.
//
// A cartridge announces itself with a .gamecard/metadata.toml file at its
// mount root describing the game, its runtime requirements, accumulated play
// statistics, and import provenance. Parsing applies the defaults an import
// tool would have written, then enforces the descriptor invariants: required
// fields, cartridge-contained paths, and a well-formed UUID. Serialization
// round-trips exactly, and all writes go through an atomic replace so a
// cartridge is never left with a truncated descriptor.
package metadata
