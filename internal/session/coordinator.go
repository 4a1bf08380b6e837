package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"

	"physica/internal/config"
	"physica/internal/events"
	"physica/internal/launch"
	"physica/internal/logging"
	"physica/internal/monitor"
	"physica/internal/notifications"
	"physica/internal/registry"
	"physica/internal/savesync"
	"physica/internal/services"
)

// Coordinator owns one session per inserted cartridge and routes commands
// to them.
type Coordinator struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *registry.Store
	launcher *launch.Launcher
	syncer   *savesync.Syncer
	bus      *events.Bus
	notifier notifications.Service
	clock    clockwork.Clock

	mu       sync.RWMutex
	sessions map[string]*session
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// Option configures optional Coordinator behavior.
type Option func(*Coordinator)

// WithClock substitutes the clock used for auto-launch timers and sync
// deadlines. Tests pass a fake clock.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New constructs a coordinator with notifications wired from configuration.
func New(cfg *config.Config, store *registry.Store, launcher *launch.Launcher, syncer *savesync.Syncer, bus *events.Bus, logger *slog.Logger) *Coordinator {
	return NewWithNotifier(cfg, store, launcher, syncer, bus, logger, nil)
}

// NewWithNotifier constructs a coordinator with a custom notifier (used in
// tests), plus any further options.
func NewWithNotifier(cfg *config.Config, store *registry.Store, launcher *launch.Launcher, syncer *savesync.Syncer, bus *events.Bus, logger *slog.Logger, notifier notifications.Service, opts ...Option) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	c := &Coordinator{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "session"),
		store:    store,
		launcher: launcher,
		syncer:   syncer,
		bus:      bus,
		notifier: notifier,
		clock:    clockwork.NewRealClock(),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins consuming detection events from src.
func (c *Coordinator) Start(ctx context.Context, src <-chan monitor.Event) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("session coordinator already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.dispatchLoop(runCtx, src)
	return nil
}

// Stop tears the coordinator down. Running games get a termination signal
// and a final save sync before this returns.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.running = false
	c.cancel = nil
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
}

func (c *Coordinator) dispatchLoop(ctx context.Context, src <-chan monitor.Event) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src:
			if !ok {
				return
			}
			switch ev.Kind {
			case monitor.KindInserted:
				c.handleInserted(ctx, ev)
			case monitor.KindRemoved:
				c.handleRemoved(ev)
			}
		}
	}
}

// handleInserted spins up a session goroutine for a newly detected
// cartridge. Dispatch never blocks on session work: registration and sync
// happen inside the goroutine.
func (c *Coordinator) handleInserted(ctx context.Context, ev monitor.Event) {
	c.mu.Lock()
	if existing := c.sessions[ev.UUID]; existing != nil {
		c.mu.Unlock()
		c.logger.Warn("insertion for tracked cartridge ignored",
			logging.String("uuid", ev.UUID),
			logging.String("mount_path", ev.MountPath),
		)
		return
	}
	s := newSession(c, ev)
	c.sessions[ev.UUID] = s
	c.wg.Add(1)
	c.mu.Unlock()

	go s.run(ctx)
}

// handleRemoved signals the session and drops it from the index right away
// so a fast reinsertion can start fresh while the old goroutine finalizes.
func (c *Coordinator) handleRemoved(ev monitor.Event) {
	c.mu.Lock()
	s := c.sessions[ev.UUID]
	delete(c.sessions, ev.UUID)
	c.mu.Unlock()

	if s == nil {
		c.logger.Debug("removal for unknown cartridge ignored", logging.String("uuid", ev.UUID))
		return
	}
	s.signalRemoval()
}

func (c *Coordinator) forget(s *session) {
	c.mu.Lock()
	if c.sessions[s.uuid] == s {
		delete(c.sessions, s.uuid)
	}
	c.mu.Unlock()
}

func (c *Coordinator) session(uuid string) *session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessions[uuid]
}

// Launch starts a play session for an inserted cartridge. It returns once
// the game is running, or with the error that stopped it from getting
// there. A session already past Idle rejects the request instead of
// queueing it.
func (c *Coordinator) Launch(ctx context.Context, uuid string) error {
	uuid = strings.TrimSpace(uuid)
	s := c.session(uuid)
	if s == nil {
		return notInserted("launch", uuid)
	}
	return s.requestLaunch(ctx)
}

// StopGame asks a running game to exit and waits until the process is
// gone. Save sync-out continues in the session after this returns.
func (c *Coordinator) StopGame(ctx context.Context, uuid string) error {
	uuid = strings.TrimSpace(uuid)
	s := c.session(uuid)
	if s == nil {
		return notInserted("stop", uuid)
	}
	return s.requestStop(ctx)
}

// IsRunning reports whether the cartridge has a game process alive.
func (c *Coordinator) IsRunning(uuid string) bool {
	info, ok := c.Get(uuid)
	return ok && info.State == StateRunning
}

// Get returns the lifecycle snapshot for one inserted cartridge.
func (c *Coordinator) Get(uuid string) (Info, bool) {
	s := c.session(strings.TrimSpace(uuid))
	if s == nil {
		return Info{}, false
	}
	return s.snapshot(), true
}

// Sessions lists snapshots for all inserted cartridges, ordered by name.
func (c *Coordinator) Sessions() []Info {
	c.mu.RLock()
	infos := make([]Info, 0, len(c.sessions))
	for _, s := range c.sessions {
		infos = append(infos, s.snapshot())
	}
	c.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Name != infos[j].Name {
			return infos[i].Name < infos[j].Name
		}
		return infos[i].UUID < infos[j].UUID
	})
	return infos
}

// RefreshMeta rereads a session's descriptor from the cartridge so external
// edits show up without a reinsert. Returns false when the cartridge is not
// inserted.
func (c *Coordinator) RefreshMeta(uuid string) bool {
	s := c.session(strings.TrimSpace(uuid))
	if s == nil {
		return false
	}
	s.refreshMeta()
	return true
}

// RunningCount returns how many sessions currently have a live process.
func (c *Coordinator) RunningCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	count := 0
	for _, s := range c.sessions {
		if s.snapshot().State == StateRunning {
			count++
		}
	}
	return count
}

func notInserted(operation, uuid string) error {
	return services.Wrap(services.ErrNotFound, "session", operation, fmt.Sprintf("cartridge %s not inserted", uuid), nil)
}
