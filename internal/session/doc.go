// Package session drives the cartridge lifecycle from insertion to removal.
//
// A Coordinator consumes detection events from the monitor and gives every
// inserted cartridge its own session goroutine. The goroutine owns the
// cartridge's state machine: saves sync in from the cartridge, the game
// launches, playtime accumulates while it runs, and saves sync back out when
// it exits. Commands for one cartridge are processed strictly in order by
// its goroutine while distinct cartridges progress independently.
//
// Removal can arrive at any point, including mid-sync or mid-game. The
// session observes it at the next suspension point, terminates a running
// game, pushes saves back with a bounded timeout, and finalizes. A removed
// session never comes back: reinsertion of the same cartridge starts a
// fresh one.
package session
