// Package notifications delivers cartridge lifecycle events via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set.
// Per-category toggles (insertions, sessions, errors) let users mute
// classes of traffic without disabling notifications entirely, and play
// sessions shorter than the configured threshold are suppressed so a
// quick launch-and-quit does not ping anyone's phone.
//
// Extend this package if you need alternative transports; session code
// depends only on the Service interface.
package notifications
