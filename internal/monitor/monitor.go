// Package monitor detects cartridge insertion and removal.
//
// Detection is a periodic snapshot diff: every scan lists candidate mount
// points (lsblk plus the configured mount bases), probes each for a valid
// descriptor, and compares the resulting UUID set against the previous scan.
// Udev netlink and mount-base fsnotify events only shorten the wait until
// the next scan; they never bypass it, so every state change the daemon
// acts on has passed the same probe.
package monitor

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"physica/internal/config"
	"physica/internal/events"
	"physica/internal/logging"
	"physica/internal/metadata"
)

// settleDelay gives the automounter time to finish before a kicked scan
// looks for the new mount point.
const settleDelay = 500 * time.Millisecond

// Kind classifies a monitor event.
type Kind string

const (
	KindInserted Kind = "inserted"
	KindRemoved  Kind = "removed"
)

// Event reports one cartridge appearing or disappearing.
type Event struct {
	Kind      Kind
	UUID      string
	Name      string
	MountPath string
	// Meta is the parsed descriptor for insertions and the last known
	// descriptor for removals. The file itself may already be gone when a
	// removal is reported.
	Meta *metadata.Metadata
}

// Cartridge is one tracked, currently-present cartridge.
type Cartridge struct {
	UUID      string
	MountPath string
	Meta      *metadata.Metadata
	SeenAt    time.Time
}

// Monitor watches the system for cartridges.
type Monitor struct {
	cfg    *config.Config
	logger *slog.Logger
	bus    *events.Bus
	clock  clockwork.Clock

	mu      sync.Mutex
	tracked map[string]Cartridge
	invalid map[string]string
	running bool
	cancel  context.CancelFunc

	events chan Event
	kick   chan struct{}
	wg     sync.WaitGroup

	netlink *netlinkWatcher
	fswatch *fsWatcher
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces the scan clock, primarily for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(m *Monitor) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// New creates a Monitor. Events published to bus are limited to
// detected-but-invalid cartridges; insertion and removal travel over the
// Events channel to whoever owns the session lifecycle.
func New(cfg *config.Config, logger *slog.Logger, bus *events.Bus, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "monitor"),
		bus:     bus,
		clock:   clockwork.NewRealClock(),
		tracked: make(map[string]Cartridge),
		invalid: make(map[string]string),
		events:  make(chan Event, 64),
		kick:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Events returns the insertion/removal stream. The channel is closed by
// Stop.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Start launches the scan loop and, when enabled, the netlink and fsnotify
// fast paths. The first scan runs immediately so cartridges present at
// startup are reported without waiting out the scan interval.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	var netlink *netlinkWatcher
	var fswatch *fsWatcher
	if m.cfg.Monitor.NetlinkEnabled {
		netlink = startNetlinkWatcher(m.logger, m.requestScan)
	}
	if m.cfg.Monitor.FsnotifyEnabled {
		watcher, err := startFSWatcher(m.cfg.Monitor.MountBases, m.logger, m.requestScan)
		if err != nil {
			m.logger.Warn("mount base watch unavailable, relying on periodic scans", logging.Error(err))
		} else {
			fswatch = watcher
		}
	}
	m.mu.Lock()
	m.netlink = netlink
	m.fswatch = fswatch
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(runCtx)

	m.logger.Info("cartridge monitor started",
		logging.Int("scan_interval_seconds", m.cfg.Monitor.ScanInterval),
		logging.Any("mount_bases", m.cfg.Monitor.MountBases),
		logging.Bool("netlink", netlink != nil),
		logging.Bool("fsnotify", fswatch != nil),
	)
	return nil
}

// Stop halts scanning and closes the Events channel.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.cancel = nil
	netlink := m.netlink
	fswatch := m.fswatch
	m.mu.Unlock()

	cancel()
	netlink.Stop()
	fswatch.Stop()
	m.wg.Wait()
	close(m.events)
	m.logger.Info("cartridge monitor stopped")
}

// Snapshot returns the currently tracked cartridges sorted by name.
func (m *Monitor) Snapshot() []Cartridge {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Cartridge, 0, len(m.tracked))
	for _, c := range m.tracked {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := out[i].Meta.DisplayName(), out[j].Meta.DisplayName()
		if ni != nj {
			return ni < nj
		}
		return out[i].UUID < out[j].UUID
	})
	return out
}

// Get returns the tracked cartridge for a UUID.
func (m *Monitor) Get(uuid string) (Cartridge, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.tracked[uuid]
	return c, ok
}

// Status describes the monitor's wiring and current census.
type Status struct {
	Running  bool
	Netlink  bool
	Fsnotify bool
	Tracked  int
	Invalid  int
}

// Status reports whether the monitor is running, which fast paths are
// active, and how many paths it currently tracks or rejects.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Running:  m.running,
		Netlink:  m.netlink != nil,
		Fsnotify: m.fswatch != nil,
		Tracked:  len(m.tracked),
		Invalid:  len(m.invalid),
	}
}

// Rescan performs a scan immediately and returns the UUIDs that appeared
// and disappeared. Events for the diff are emitted as usual.
func (m *Monitor) Rescan(ctx context.Context) (inserted, removed []string) {
	return m.runScan(ctx)
}

func (m *Monitor) requestScan() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	interval := time.Duration(m.cfg.Monitor.ScanInterval) * time.Second
	if interval <= 0 {
		interval = time.Second
	}
	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	m.runScan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.runScan(ctx)
		case <-m.kick:
			// Wait out the automounter, then absorb the kick with a scan.
			select {
			case <-ctx.Done():
				return
			case <-m.clock.After(settleDelay):
			}
			m.runScan(ctx)
		}
	}
}

// runScan diffs the current probe results against the tracked set and emits
// events for every change. Scans are serialized by the monitor mutex, so a
// Rescan racing the periodic tick cannot double-report.
func (m *Monitor) runScan(ctx context.Context) (inserted, removed []string) {
	probes, invalid := m.discover(ctx)

	m.mu.Lock()
	claimed := m.claimLocked(probes, invalid)
	m.reportInvalidLocked(invalid)

	var emits []Event
	now := m.clock.Now()
	for uuid, probe := range claimed {
		prev, known := m.tracked[uuid]
		switch {
		case !known:
			m.tracked[uuid] = Cartridge{UUID: uuid, MountPath: probe.path, Meta: probe.meta, SeenAt: now}
			inserted = append(inserted, uuid)
			emits = append(emits, Event{Kind: KindInserted, UUID: uuid, Name: probe.meta.DisplayName(), MountPath: probe.path, Meta: probe.meta})
		case prev.MountPath != probe.path:
			// Same cartridge re-appearing elsewhere is a removal plus an
			// insertion: the session must resync against the new path.
			removed = append(removed, uuid)
			inserted = append(inserted, uuid)
			emits = append(emits,
				Event{Kind: KindRemoved, UUID: uuid, Name: prev.Meta.DisplayName(), MountPath: prev.MountPath, Meta: prev.Meta},
				Event{Kind: KindInserted, UUID: uuid, Name: probe.meta.DisplayName(), MountPath: probe.path, Meta: probe.meta})
			m.tracked[uuid] = Cartridge{UUID: uuid, MountPath: probe.path, Meta: probe.meta, SeenAt: now}
		default:
			// Keep the descriptor fresh; edits on the cartridge show up
			// here without an event.
			prev.Meta = probe.meta
			m.tracked[uuid] = prev
		}
	}
	for uuid, prev := range m.tracked {
		if _, present := claimed[uuid]; present {
			continue
		}
		delete(m.tracked, uuid)
		removed = append(removed, uuid)
		emits = append(emits, Event{Kind: KindRemoved, UUID: uuid, Name: prev.Meta.DisplayName(), MountPath: prev.MountPath, Meta: prev.Meta})
	}
	m.mu.Unlock()

	for _, ev := range emits {
		m.emit(ctx, ev)
	}
	return inserted, removed
}

// claimLocked resolves which probe owns each UUID. A tracked cartridge keeps
// its claim while its path is still present; otherwise the first probe wins
// and later paths with the same UUID are recorded as conflicts and ignored.
func (m *Monitor) claimLocked(probes []probe, invalid map[string]string) map[string]probe {
	claimed := make(map[string]probe, len(probes))
	byPath := make(map[string]probe, len(probes))
	for _, p := range probes {
		byPath[p.path] = p
	}
	for uuid, tr := range m.tracked {
		if p, ok := byPath[tr.MountPath]; ok && p.meta.Cartridge.UUID == uuid {
			claimed[uuid] = p
		}
	}
	for _, p := range probes {
		uuid := p.meta.Cartridge.UUID
		winner, taken := claimed[uuid]
		if !taken {
			claimed[uuid] = p
			continue
		}
		if winner.path == p.path {
			continue
		}
		invalid[p.path] = "duplicate cartridge uuid " + uuid + ", already mounted at " + winner.path
	}
	return claimed
}

// reportInvalidLocked logs and publishes newly invalid paths once, and
// forgets paths that recovered or disappeared.
func (m *Monitor) reportInvalidLocked(invalid map[string]string) {
	for path, reason := range invalid {
		if m.invalid[path] == reason {
			continue
		}
		m.invalid[path] = reason
		m.logger.Warn("cartridge detected but not usable",
			logging.String("path", path),
			logging.String("reason", reason),
		)
		if m.bus != nil {
			m.bus.Publish(events.CartridgeInvalid(path, reason))
		}
	}
	for path := range m.invalid {
		if _, still := invalid[path]; !still {
			delete(m.invalid, path)
		}
	}
}

func (m *Monitor) emit(ctx context.Context, ev Event) {
	select {
	case m.events <- ev:
	case <-ctx.Done():
	}
}
