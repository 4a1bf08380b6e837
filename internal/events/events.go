// Package events carries the daemon's signal stream: cartridge insertions
// and removals, launches, session ends, and status events UIs render as
// state. Consumers long-poll the bus over IPC; delivery is at-least-once
// while an event is still buffered, and consumers resync from the registry
// after reconnecting.
package events

import (
	"context"
	"sync"
	"time"
)

// Type discriminates bus events.
type Type string

const (
	TypeCartridgeInserted Type = "cartridge_inserted"
	TypeCartridgeRemoved  Type = "cartridge_removed"
	TypeCartridgeInvalid  Type = "cartridge_invalid"
	TypeGameLaunched      Type = "game_launched"
	TypeGameStopped       Type = "game_stopped"
	TypeSyncWarning       Type = "sync_warning"
)

// Event is one entry on the signal bus.
type Event struct {
	Seq             uint64    `json:"seq"`
	Time            time.Time `json:"ts"`
	Type            Type      `json:"type"`
	UUID            string    `json:"uuid,omitempty"`
	Name            string    `json:"name,omitempty"`
	PlaytimeSeconds int64     `json:"playtime_seconds,omitempty"`
	Detail          string    `json:"detail,omitempty"`
}

// CartridgeInserted announces a valid cartridge at a mount point.
func CartridgeInserted(uuid, name, mountPoint string) Event {
	return Event{Type: TypeCartridgeInserted, UUID: uuid, Name: name, Detail: mountPoint}
}

// CartridgeRemoved announces that a cartridge left the system.
func CartridgeRemoved(uuid, name string) Event {
	return Event{Type: TypeCartridgeRemoved, UUID: uuid, Name: name}
}

// CartridgeInvalid reports a device that looked like a cartridge but failed
// descriptor validation. No UUID is available for these.
func CartridgeInvalid(mountPoint, reason string) Event {
	return Event{Type: TypeCartridgeInvalid, Name: mountPoint, Detail: reason}
}

// GameLaunched announces a session entering Running.
func GameLaunched(uuid, name string) Event {
	return Event{Type: TypeGameLaunched, UUID: uuid, Name: name}
}

// GameStopped announces a finished session and its playtime delta.
func GameStopped(uuid, name string, playtime time.Duration) Event {
	seconds := int64(playtime / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	return Event{Type: TypeGameStopped, UUID: uuid, Name: name, PlaytimeSeconds: seconds}
}

// SyncWarning reports a save sync problem that did not block the session.
func SyncWarning(uuid, name, reason string) Event {
	return Event{Type: TypeSyncWarning, UUID: uuid, Name: name, Detail: reason}
}

// Bus stores recent events and wakes waiters when new ones arrive.
type Bus struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []Event
	nextSeq  uint64
	closed   bool
}

// NewBus constructs a bounded in-memory event buffer.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 512
	}
	b := &Bus{capacity: capacity}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Publish appends an event, assigning its sequence number and timestamp.
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.nextSeq++
	evt.Seq = b.nextSeq
	if evt.Time.IsZero() {
		evt.Time = time.Now().UTC()
	}

	if len(b.buffer) == b.capacity {
		copy(b.buffer, b.buffer[1:])
		b.buffer = b.buffer[:b.capacity-1]
	}
	b.buffer = append(b.buffer, evt)
	b.cond.Broadcast()
	b.mu.Unlock()
}

// Fetch returns all events with sequence greater than since. When wait is
// true, Fetch blocks until at least one event is available, the context
// ends, or the bus closes.
func (b *Bus) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]Event, uint64, error) {
	if b == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > b.capacity {
		limit = b.capacity
	}

	cancelWait := make(chan struct{})
	if wait && ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				b.cond.Broadcast()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		evts, next := b.snapshotLocked(since, limit)
		if len(evts) > 0 || !wait || b.closed {
			return evts, next, contextError(ctx)
		}
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
		b.cond.Wait()
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
	}
}

// Tail returns the most recent limit events without blocking.
func (b *Bus) Tail(limit int) ([]Event, uint64) {
	if b == nil {
		return nil, 0
	}
	if limit <= 0 || limit > b.capacity {
		limit = b.capacity
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buffer) == 0 {
		return nil, b.nextSeq
	}
	start := len(b.buffer) - limit
	if start < 0 {
		start = 0
	}
	out := make([]Event, len(b.buffer)-start)
	copy(out, b.buffer[start:])
	return out, b.nextSeq
}

// FirstSequence reports the smallest sequence number still buffered.
func (b *Bus) FirstSequence() uint64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buffer) == 0 {
		return b.nextSeq
	}
	return b.buffer[0].Seq
}

// Close wakes all waiters. Later fetches return immediately with whatever
// is still buffered; later publishes are dropped.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.closed = true
	b.cond.Broadcast()
	b.mu.Unlock()
}

func (b *Bus) snapshotLocked(since uint64, limit int) ([]Event, uint64) {
	if len(b.buffer) == 0 {
		return nil, b.nextSeq
	}
	startIdx := 0
	for i, evt := range b.buffer {
		if evt.Seq > since {
			startIdx = i
			break
		}
		if i == len(b.buffer)-1 {
			return nil, b.nextSeq
		}
	}
	end := startIdx + limit
	if end > len(b.buffer) {
		end = len(b.buffer)
	}
	out := make([]Event, end-startIdx)
	copy(out, b.buffer[startIdx:end])
	return out, b.nextSeq
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
