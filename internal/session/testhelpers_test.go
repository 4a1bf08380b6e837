package session_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"physica/internal/config"
	"physica/internal/events"
	"physica/internal/launch"
	"physica/internal/metadata"
	"physica/internal/monitor"
	"physica/internal/notifications"
	"physica/internal/registry"
	"physica/internal/savesync"
	"physica/internal/session"
	"physica/internal/testsupport"
)

const waitTimeout = 5 * time.Second

type harness struct {
	t       *testing.T
	cfg     *config.Config
	store   *registry.Store
	bus     *events.Bus
	clock   *clockwork.FakeClock
	exec    *fakeExecutor
	coord   *session.Coordinator
	src     chan monitor.Event
	cursor  uint64
	pending []events.Event
	mounts  int
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	return buildHarness(t, nil, opts...)
}

func buildHarness(t *testing.T, notifier notifications.Service, opts ...testsupport.ConfigOption) *harness {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	testsupport.InstallRuntime(t, cfg, cfg.Runtime.DefaultVersion)
	store := testsupport.MustOpenRegistry(t, cfg)
	bus := events.NewBus(256)
	t.Cleanup(bus.Close)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 4, 12, 9, 0, 0, 0, time.UTC))
	exec := &fakeExecutor{}
	launcher := launch.New(cfg, nil, launch.WithExecutor(exec), launch.WithClock(clock))
	coord := session.NewWithNotifier(cfg, store, launcher, savesync.New(nil), bus, nil, notifier, session.WithClock(clock))

	src := make(chan monitor.Event, 16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := coord.Start(ctx, src); err != nil {
		t.Fatalf("start coordinator: %v", err)
	}
	t.Cleanup(coord.Stop)

	return &harness{
		t:     t,
		cfg:   cfg,
		store: store,
		bus:   bus,
		clock: clock,
		exec:  exec,
		coord: coord,
		src:   src,
	}
}

// insert writes a cartridge tree, feeds the detection event, and waits for
// the session to announce itself on the bus.
func (h *harness) insert(opts ...testsupport.CartridgeOption) (*metadata.Metadata, string) {
	h.t.Helper()
	h.mounts++
	mountDir := filepath.Join(testsupport.MountBase(h.cfg), fmt.Sprintf("CART-%02d", h.mounts))
	m := testsupport.WriteCartridge(h.t, mountDir, opts...)
	h.src <- monitor.Event{
		Kind:      monitor.KindInserted,
		UUID:      m.Cartridge.UUID,
		Name:      m.DisplayName(),
		MountPath: mountDir,
		Meta:      m,
	}
	h.waitEvent(events.TypeCartridgeInserted, m.Cartridge.UUID)
	return m, mountDir
}

func (h *harness) remove(m *metadata.Metadata) {
	h.t.Helper()
	h.src <- monitor.Event{
		Kind: monitor.KindRemoved,
		UUID: m.Cartridge.UUID,
		Name: m.DisplayName(),
		Meta: m,
	}
}

// waitEvent returns the next event of the wanted type (and UUID, when
// given). Fetched events that don't match stay buffered on the harness so
// a wait for one type never swallows events a later wait needs.
func (h *harness) waitEvent(typ events.Type, uuid string) events.Event {
	h.t.Helper()
	match := func(e events.Event) bool {
		return e.Type == typ && (uuid == "" || e.UUID == uuid)
	}

	for i, e := range h.pending {
		if match(e) {
			h.pending = append(h.pending[:i:i], h.pending[i+1:]...)
			return e
		}
	}

	deadline := time.Now().Add(waitTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			h.t.Fatalf("timed out waiting for %s event", typ)
		}
		ctx, cancel := context.WithTimeout(context.Background(), remaining)
		evts, next, err := h.bus.Fetch(ctx, h.cursor, 64, true)
		cancel()
		if err != nil && len(evts) == 0 {
			h.t.Fatalf("timed out waiting for %s event: %v", typ, err)
		}
		h.cursor = next
		for i, e := range evts {
			if match(e) {
				h.pending = append(h.pending, evts[:i]...)
				h.pending = append(h.pending, evts[i+1:]...)
				return e
			}
		}
		h.pending = append(h.pending, evts...)
	}
}

func (h *harness) waitState(uuid string, want session.State) session.Info {
	h.t.Helper()
	deadline := time.Now().Add(waitTimeout)
	var last session.Info
	for time.Now().Before(deadline) {
		info, ok := h.coord.Get(uuid)
		if ok && info.State == want {
			return info
		}
		last = info
		time.Sleep(2 * time.Millisecond)
	}
	h.t.Fatalf("session %s never reached state %s, last %+v", uuid, want, last)
	return session.Info{}
}

// countEvents tallies matching events over the whole bus history.
func (h *harness) countEvents(typ events.Type, uuid string) int {
	h.t.Helper()
	evts, _ := h.bus.Tail(256)
	count := 0
	for _, e := range evts {
		if e.Type == typ && (uuid == "" || e.UUID == uuid) {
			count++
		}
	}
	return count
}

func (h *harness) entry(uuid string) *registry.Entry {
	h.t.Helper()
	entry, err := h.store.Get(context.Background(), uuid)
	if err != nil {
		h.t.Fatalf("registry get %s: %v", uuid, err)
	}
	return entry
}

func (h *harness) prefixPath(uuid string, rel string) string {
	return filepath.Join(h.cfg.PrefixDir(uuid), filepath.FromSlash(rel))
}

func cartSavePath(mountDir, rel string) string {
	return filepath.Join(mountDir, metadata.SaveDataDir, filepath.FromSlash(rel))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// fakeExecutor hands out scripted processes so tests control when a game
// exits and how it reacts to signals.
type fakeExecutor struct {
	mu    sync.Mutex
	err   error
	queue []*fakeProcess
	specs []launch.ProcessSpec
	procs []*fakeProcess
}

func (f *fakeExecutor) Start(ctx context.Context, spec launch.ProcessSpec) (launch.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.specs = append(f.specs, spec)
	var p *fakeProcess
	if len(f.queue) > 0 {
		p = f.queue[0]
		f.queue = f.queue[1:]
	} else {
		p = newFakeProcess(101+len(f.procs), true)
	}
	f.procs = append(f.procs, p)
	return p, nil
}

func (f *fakeExecutor) push(p *fakeProcess) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, p)
}

func (f *fakeExecutor) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeExecutor) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.procs)
}

func (f *fakeExecutor) proc(t *testing.T, i int) *fakeProcess {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.procs) {
		t.Fatalf("no process %d, only %d started", i, len(f.procs))
	}
	return f.procs[i]
}

func (f *fakeExecutor) spec(t *testing.T, i int) launch.ProcessSpec {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.specs) {
		t.Fatalf("no spec %d, only %d recorded", i, len(f.specs))
	}
	return f.specs[i]
}

type fakeProcess struct {
	pid          int
	exitOnSignal bool

	mu      sync.Mutex
	done    chan struct{}
	err     error
	signals []os.Signal
	killed  bool

	signaled chan os.Signal
}

func newFakeProcess(pid int, exitOnSignal bool) *fakeProcess {
	return &fakeProcess{
		pid:          pid,
		exitOnSignal: exitOnSignal,
		done:         make(chan struct{}),
		signaled:     make(chan os.Signal, 4),
	}
}

func (p *fakeProcess) PID() int              { return p.pid }
func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakeProcess) Signal(sig os.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signals = append(p.signals, sig)
	select {
	case p.signaled <- sig:
	default:
	}
	if p.exitOnSignal {
		p.finishLocked(nil)
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killed = true
	p.finishLocked(errors.New("signal: killed"))
	return nil
}

func (p *fakeProcess) exit(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishLocked(err)
}

func (p *fakeProcess) finishLocked(err error) {
	select {
	case <-p.done:
	default:
		p.err = err
		close(p.done)
	}
}

func (p *fakeProcess) wasKilled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

func (p *fakeProcess) signalCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.signals)
}

// recordingNotifier captures notification calls for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	inserted []string
	launched []string
	ended    []endedCall
	failures []string
}

type endedCall struct {
	name     string
	playtime time.Duration
}

func (r *recordingNotifier) NotifyCartridgeInserted(_ context.Context, gameName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, gameName)
	return nil
}

func (r *recordingNotifier) NotifyGameLaunched(_ context.Context, gameName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.launched = append(r.launched, gameName)
	return nil
}

func (r *recordingNotifier) NotifySessionEnded(_ context.Context, gameName string, playtime time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = append(r.ended, endedCall{name: gameName, playtime: playtime})
	return nil
}

func (r *recordingNotifier) NotifyError(_ context.Context, err error, contextLabel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, contextLabel)
	return nil
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func (r *recordingNotifier) snapshot() (inserted, launched []string, ended []endedCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.inserted...), append([]string(nil), r.launched...), append([]endedCall(nil), r.ended...)
}
