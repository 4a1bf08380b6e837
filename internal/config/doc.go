// Package config loads, normalizes, and validates Physica configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PHYSICA_NTFY_TOPIC. The Config type centralizes every knob the daemon and
// CLI need, from mount-base directories to compatibility-runtime search paths.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
