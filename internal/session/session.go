package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"physica/internal/config"
	"physica/internal/events"
	"physica/internal/launch"
	"physica/internal/logging"
	"physica/internal/metadata"
	"physica/internal/monitor"
	"physica/internal/registry"
	"physica/internal/services"
)

// State identifies where a session is in the cartridge lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateSyncingIn  State = "syncing_in"
	StateLaunching  State = "launching"
	StateRunning    State = "running"
	StateSyncingOut State = "syncing_out"
	StateRemoved    State = "removed"
)

// Info is a point-in-time snapshot of one session, safe to hand to IPC.
type Info struct {
	UUID            string
	Name            string
	MountPath       string
	State           State
	Status          string
	PID             int
	InsertedAt      time.Time
	RunningSince    time.Time
	AutoLaunchArmed bool
	Meta            *metadata.Metadata
}

type cmdKind int

const (
	cmdLaunch cmdKind = iota + 1
	cmdStop
)

type command struct {
	kind  cmdKind
	gen   uint64
	reply chan error
}

type verdict int

const (
	verdictIdle verdict = iota
	verdictRemoved
	verdictShutdown
)

// session owns the lifecycle of one inserted cartridge. All state
// transitions happen on its goroutine; requestLaunch and requestStop only
// enqueue commands and wait for the reply.
type session struct {
	coord  *Coordinator
	cfg    *config.Config
	logger *slog.Logger
	clock  clockwork.Clock

	uuid  string
	mount string

	cmds       chan command
	removed    chan struct{}
	removeOnce sync.Once

	mu            sync.Mutex
	meta          *metadata.Metadata
	gameName      string
	state         State
	status        string
	pid           int
	insertedAt    time.Time
	runningSince  time.Time
	armed         bool
	launchPending bool
	gen           uint64
}

func newSession(c *Coordinator, ev monitor.Event) *session {
	name := ev.Name
	if name == "" && ev.Meta != nil {
		name = ev.Meta.DisplayName()
	}
	return &session{
		coord:      c,
		cfg:        c.cfg,
		logger:     c.logger,
		clock:      c.clock,
		uuid:       ev.UUID,
		mount:      ev.MountPath,
		cmds:       make(chan command, 4),
		removed:    make(chan struct{}),
		meta:       ev.Meta,
		gameName:   name,
		state:      StateIdle,
		insertedAt: c.clock.Now(),
	}
}

func (s *session) run(ctx context.Context) {
	defer s.coord.wg.Done()
	defer s.coord.forget(s)

	s.register(ctx)

	var timer clockwork.Timer
	var timerCh <-chan time.Time
	if s.autoLaunchEnabled() {
		delay := s.autoLaunchDelay()
		s.setArmed(true)
		timer = s.clock.NewTimer(delay)
		defer timer.Stop()
		timerCh = timer.Chan()
		s.logger.Debug("auto-launch armed",
			logging.String("uuid", s.uuid),
			logging.Duration("delay", delay),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.drainCommands(stoppingErr("command"))
			return
		case <-s.removed:
			s.finalizeRemoval()
			return
		case <-timerCh:
			timerCh = nil
			s.setArmed(false)
			if s.hasPendingLaunch() {
				// A manual request is already queued; let it drive the launch.
				continue
			}
			s.logger.Info("auto-launching", logging.String("game", s.name()), logging.String("uuid", s.uuid))
			if v := s.runSession(ctx, nil); v != verdictIdle {
				s.finishVerdict(v)
				return
			}
		case cmd := <-s.cmds:
			switch cmd.kind {
			case cmdStop:
				deliver(cmd.reply, notRunning(s.name()))
			case cmdLaunch:
				if stale := s.consumeLaunch(cmd.gen); stale {
					deliver(cmd.reply, services.Wrap(services.ErrConflict, "session", "launch", "launch request superseded by another session", nil))
					continue
				}
				if timer != nil {
					timer.Stop()
					timerCh = nil
					s.setArmed(false)
				}
				if v := s.runSession(ctx, cmd.reply); v != verdictIdle {
					s.finishVerdict(v)
					return
				}
			}
		}
	}
}

func (s *session) finishVerdict(v verdict) {
	switch v {
	case verdictRemoved:
		s.finalizeRemoval()
	case verdictShutdown:
		s.drainCommands(stoppingErr("command"))
	}
}

// register records the cartridge in the registry and announces it. A
// registry failure is surfaced but does not block the session: the game can
// still be played, only its history suffers.
func (s *session) register(ctx context.Context) {
	if _, err := s.coord.store.GetOrCreate(ctx, s.metaSnapshot(), s.mount); err != nil {
		s.logger.Error("cartridge registration failed",
			logging.String("uuid", s.uuid),
			logging.Error(err),
		)
		s.setStatus(services.StatusLabel(err))
	}
	s.coord.bus.Publish(events.CartridgeInserted(s.uuid, s.name(), s.mount))
	s.logger.Info("cartridge inserted",
		logging.String("uuid", s.uuid),
		logging.String("game", s.name()),
		logging.String("mount_path", s.mount),
		logging.Bool("auto_launch", s.autoLaunchEnabled()),
	)
	if err := s.coord.notifier.NotifyCartridgeInserted(ctx, s.name()); err != nil {
		s.logger.Debug("insert notification failed", logging.Error(err))
	}
}

// runSession walks one play session through sync-in, launch, and the
// running game. The reply channel, when present, is answered as soon as the
// game is running or the attempt fails; it never waits for the game to end.
func (s *session) runSession(ctx context.Context, reply chan error) verdict {
	s.beginSession()
	s.refreshMeta()
	meta := s.metaSnapshot()
	if meta == nil {
		err := services.Wrap(services.ErrValidation, "session", "launch", "no descriptor available", nil)
		s.setState(StateIdle, services.StatusLabel(err))
		deliver(reply, err)
		return verdictIdle
	}
	prefixDir := s.cfg.PrefixDir(s.uuid)

	s.logger.Info("syncing saves from cartridge",
		logging.String("uuid", s.uuid),
		logging.String("game", s.name()),
	)
	syncCtx, cancel := s.activityCtx(ctx)
	_, err := s.coord.syncer.SyncIn(syncCtx, s.mount, prefixDir, meta.Runtime.SavePaths)
	cancel()
	if err != nil {
		if v, stopped := s.interrupted(ctx); stopped {
			deliver(reply, interruptErr(v, "launch"))
			return v
		}
		s.logger.Error("sync-in failed, launch aborted",
			logging.String("uuid", s.uuid),
			logging.Error(err),
		)
		s.coord.bus.Publish(events.SyncWarning(s.uuid, s.name(), err.Error()))
		s.notifyError(ctx, err, "save sync")
		s.setState(StateIdle, services.StatusLabel(err))
		deliver(reply, err)
		return verdictIdle
	}

	s.setState(StateLaunching, "")
	h, err := s.coord.launcher.Launch(ctx, meta, s.mount)
	if err != nil {
		if v, stopped := s.interrupted(ctx); stopped {
			deliver(reply, interruptErr(v, "launch"))
			return v
		}
		s.logger.Error("launch failed",
			logging.String("uuid", s.uuid),
			logging.String("game", s.name()),
			logging.Error(err),
		)
		s.notifyError(ctx, err, "launch")
		s.setState(StateIdle, services.StatusLabel(err))
		deliver(reply, err)
		return verdictIdle
	}

	s.mu.Lock()
	s.state = StateRunning
	s.status = ""
	s.pid = h.PID()
	s.runningSince = s.clock.Now()
	s.mu.Unlock()
	s.logger.Info("game launched",
		logging.String("uuid", s.uuid),
		logging.String("game", s.name()),
		logging.Int("pid", h.PID()),
	)
	s.coord.bus.Publish(events.GameLaunched(s.uuid, s.name()))
	if err := s.coord.notifier.NotifyGameLaunched(ctx, s.name()); err != nil {
		s.logger.Debug("launch notification failed", logging.Error(err))
	}
	deliver(reply, nil)

	return s.watchGame(ctx, h)
}

// watchGame services commands while the game runs and reacts to whichever
// ends it: a natural exit, a removal, or daemon shutdown.
func (s *session) watchGame(ctx context.Context, h *launch.Handle) verdict {
	for {
		select {
		case <-h.Done():
			return s.finishSession(ctx, h)
		case <-s.removed:
			s.removalWhileRunning(ctx, h)
			return verdictRemoved
		case <-ctx.Done():
			s.shutdownWhileRunning(h)
			return verdictShutdown
		case cmd := <-s.cmds:
			switch cmd.kind {
			case cmdStop:
				s.logger.Info("stop requested",
					logging.String("uuid", s.uuid),
					logging.String("game", s.name()),
				)
				deliver(cmd.reply, h.Terminate(ctx, s.terminationGrace()))
			case cmdLaunch:
				s.clearPending()
				deliver(cmd.reply, services.Wrap(services.ErrConflict, "session", "launch", fmt.Sprintf("%s is already running", s.name()), nil))
			}
		}
	}
}

// finishSession handles a natural process exit: record playtime, mirror it
// to the descriptor, and push saves back out. A sync-out failure is a
// warning, never a trap: the session returns to Idle so the cartridge can
// be ejected.
func (s *session) finishSession(ctx context.Context, h *launch.Handle) verdict {
	playtime := h.Playtime()
	endedAt := s.clock.Now()
	if exitErr := h.ExitErr(); exitErr != nil {
		s.logger.Warn("game exited with error",
			logging.String("uuid", s.uuid),
			logging.String("game", s.name()),
			logging.Duration("playtime", playtime),
			logging.Error(exitErr),
		)
	} else {
		s.logger.Info("game exited",
			logging.String("uuid", s.uuid),
			logging.String("game", s.name()),
			logging.Duration("playtime", playtime),
		)
	}
	s.setRunningDone()
	s.setState(StateSyncingOut, "")

	entry := s.recordSession(context.Background(), playtime, endedAt)
	s.mirrorDescriptor(entry, playtime, endedAt)
	s.coord.bus.Publish(events.GameStopped(s.uuid, s.name(), playtime))
	s.notifySessionEnd(ctx, playtime)

	syncCtx, cancel := s.activityCtx(ctx)
	_, syncErr := s.coord.syncer.SyncOut(syncCtx, s.mount, s.cfg.PrefixDir(s.uuid), s.savePatterns())
	cancel()
	if v, stopped := s.interrupted(ctx); stopped {
		if v == verdictRemoved && syncErr != nil {
			s.logger.Warn("sync-out cut short by removal, cartridge saves may be stale",
				logging.String("uuid", s.uuid),
				logging.Error(syncErr),
			)
			s.coord.bus.Publish(events.SyncWarning(s.uuid, s.name(), "removed during save sync"))
		}
		return v
	}

	status := ""
	if syncErr != nil {
		status = services.StatusLabel(syncErr)
		s.logger.Warn("sync-out failed, cartridge may have stale saves",
			logging.String("uuid", s.uuid),
			logging.Error(syncErr),
		)
		s.coord.bus.Publish(events.SyncWarning(s.uuid, s.name(), syncErr.Error()))
		s.notifyError(ctx, syncErr, "save sync")
	}
	s.setState(StateIdle, status)
	return verdictIdle
}

// removalWhileRunning handles the cartridge vanishing under a live game:
// terminate it, record what was played, and push saves at whatever is left
// of the mount point under a bounded timeout.
func (s *session) removalWhileRunning(ctx context.Context, h *launch.Handle) {
	s.logger.Warn("cartridge removed while game running, terminating",
		logging.String("uuid", s.uuid),
		logging.String("game", s.name()),
	)
	if err := h.Terminate(ctx, s.terminationGrace()); err != nil {
		s.logger.Warn("game did not terminate cleanly", logging.Error(err))
	}
	playtime := h.Playtime()
	endedAt := s.clock.Now()
	s.setRunningDone()
	s.setState(StateSyncingOut, "")

	s.recordSession(context.Background(), playtime, endedAt)
	s.coord.bus.Publish(events.GameStopped(s.uuid, s.name(), playtime))
	s.notifySessionEnd(context.Background(), playtime)

	syncCtx, cancel := s.boundedCtx(context.Background(), s.removalSyncTimeout())
	_, syncErr := s.coord.syncer.SyncOut(syncCtx, s.mount, s.cfg.PrefixDir(s.uuid), s.savePatterns())
	cancel()
	if syncErr != nil {
		s.logger.Warn("save sync after removal failed, cartridge saves may be stale",
			logging.String("uuid", s.uuid),
			logging.Error(syncErr),
		)
		s.coord.bus.Publish(events.SyncWarning(s.uuid, s.name(), syncErr.Error()))
	}
}

// shutdownWhileRunning winds a session down for daemon exit. The cartridge
// stays present in the registry: it is still in the slot.
func (s *session) shutdownWhileRunning(h *launch.Handle) {
	s.logger.Info("stopping game for shutdown",
		logging.String("uuid", s.uuid),
		logging.String("game", s.name()),
	)
	grace := s.terminationGrace()
	termCtx, cancelTerm := s.boundedCtx(context.Background(), grace+5*time.Second)
	err := h.Terminate(termCtx, grace)
	cancelTerm()
	if err != nil {
		s.logger.Warn("game did not terminate cleanly", logging.Error(err))
	}
	playtime := h.Playtime()
	endedAt := s.clock.Now()
	s.setRunningDone()
	s.setState(StateSyncingOut, "")

	entry := s.recordSession(context.Background(), playtime, endedAt)
	s.mirrorDescriptor(entry, playtime, endedAt)
	s.coord.bus.Publish(events.GameStopped(s.uuid, s.name(), playtime))
	s.notifySessionEnd(context.Background(), playtime)

	syncCtx, cancel := s.boundedCtx(context.Background(), s.removalSyncTimeout())
	_, syncErr := s.coord.syncer.SyncOut(syncCtx, s.mount, s.cfg.PrefixDir(s.uuid), s.savePatterns())
	cancel()
	if syncErr != nil {
		s.logger.Warn("final sync-out failed", logging.String("uuid", s.uuid), logging.Error(syncErr))
		s.coord.bus.Publish(events.SyncWarning(s.uuid, s.name(), syncErr.Error()))
	}
	s.setState(StateIdle, "")
}

// finalizeRemoval marks the session terminal. Reinsertion of the same
// cartridge starts a new session, never revives this one.
func (s *session) finalizeRemoval() {
	s.setState(StateRemoved, "")
	if err := s.coord.store.SetPresence(context.Background(), s.uuid, false, ""); err != nil {
		s.logger.Warn("presence update failed",
			logging.String("uuid", s.uuid),
			logging.Error(err),
		)
	}
	s.coord.bus.Publish(events.CartridgeRemoved(s.uuid, s.name()))
	s.logger.Info("cartridge removed",
		logging.String("uuid", s.uuid),
		logging.String("game", s.name()),
	)
	s.drainCommands(removedErr("command"))
}

// recordSession writes the finished session into the registry. The store
// retries transient contention itself; a persistent failure is logged and
// surfaced without blocking ejection.
func (s *session) recordSession(ctx context.Context, playtime time.Duration, endedAt time.Time) *registry.Entry {
	entry, err := s.coord.store.RecordSession(ctx, s.uuid, playtime, endedAt)
	if err != nil {
		s.logger.Error("playtime recording failed",
			logging.String("uuid", s.uuid),
			logging.Duration("playtime", playtime),
			logging.Error(err),
		)
		s.setStatus(services.StatusLabel(err))
		s.notifyError(ctx, err, "playtime recording")
		return nil
	}
	return entry
}

// mirrorDescriptor copies registry playtime counters onto the cartridge so
// the descriptor travels with its history. Best effort: the registry stays
// authoritative when the cartridge is gone or read-only.
func (s *session) mirrorDescriptor(entry *registry.Entry, playtime time.Duration, endedAt time.Time) {
	if s.isRemoved() {
		return
	}
	apply := func(m *metadata.Metadata) {
		if entry != nil {
			m.Cartridge.TotalPlaytime = entry.TotalPlaytime
			m.Cartridge.PlayCount = entry.PlayCount
			m.Cartridge.LastPlayed = entry.LastPlayed
		} else {
			m.ApplySession(playtime, endedAt)
		}
	}
	err := metadata.Rewrite(metadata.DescriptorPath(s.mount), func(m *metadata.Metadata) error {
		apply(m)
		return nil
	})
	if err != nil {
		s.logger.Debug("descriptor playtime mirror skipped",
			logging.String("uuid", s.uuid),
			logging.Error(err),
		)
		return
	}
	s.mu.Lock()
	if s.meta != nil {
		cp := *s.meta
		apply(&cp)
		s.meta = &cp
	}
	s.mu.Unlock()
}

// refreshMeta rereads the descriptor so a session picks up on-cartridge
// edits made since insertion. The cached copy stands in when the reread
// fails.
func (s *session) refreshMeta() {
	m, err := metadata.Parse(metadata.DescriptorPath(s.mount))
	if err != nil {
		s.logger.Debug("descriptor reread failed, using cached copy",
			logging.String("uuid", s.uuid),
			logging.Error(err),
		)
		return
	}
	s.mu.Lock()
	s.meta = m
	s.gameName = m.DisplayName()
	s.mu.Unlock()
}

func (s *session) requestLaunch(ctx context.Context) error {
	s.mu.Lock()
	name := s.gameName
	switch {
	case s.state == StateRemoved:
		s.mu.Unlock()
		return removedErr("launch")
	case s.state == StateRunning:
		s.mu.Unlock()
		return services.Wrap(services.ErrConflict, "session", "launch", fmt.Sprintf("%s is already running", name), nil)
	case s.state != StateIdle || s.launchPending:
		s.mu.Unlock()
		return services.Wrap(services.ErrConflict, "session", "launch", fmt.Sprintf("launch already in progress for %s", name), nil)
	}
	s.launchPending = true
	gen := s.gen
	s.mu.Unlock()

	cmd := command{kind: cmdLaunch, gen: gen, reply: make(chan error, 1)}
	select {
	case s.cmds <- cmd:
	case <-s.removed:
		s.clearPending()
		return removedErr("launch")
	case <-ctx.Done():
		s.clearPending()
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-s.removed:
		return removedErr("launch")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) requestStop(ctx context.Context) error {
	s.mu.Lock()
	state := s.state
	name := s.gameName
	s.mu.Unlock()
	if state != StateRunning {
		return notRunning(name)
	}

	cmd := command{kind: cmdStop, reply: make(chan error, 1)}
	select {
	case s.cmds <- cmd:
	case <-s.removed:
		return removedErr("stop")
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-s.removed:
		return removedErr("stop")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) signalRemoval() {
	s.removeOnce.Do(func() { close(s.removed) })
}

func (s *session) isRemoved() bool {
	select {
	case <-s.removed:
		return true
	default:
		return false
	}
}

// interrupted classifies why an in-flight activity failed. Removal wins
// over shutdown: the device is gone either way, and the removal path leaves
// the registry consistent.
func (s *session) interrupted(ctx context.Context) (verdict, bool) {
	if s.isRemoved() {
		return verdictRemoved, true
	}
	select {
	case <-ctx.Done():
		return verdictShutdown, true
	default:
	}
	return verdictIdle, false
}

// activityCtx derives a context canceled by cartridge removal, so syncs and
// waits observe removal at their next suspension point.
func (s *session) activityCtx(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	go func() {
		select {
		case <-s.removed:
			cancel()
		case <-done:
		}
	}()
	var once sync.Once
	return ctx, func() {
		once.Do(func() { close(done) })
		cancel()
	}
}

// boundedCtx caps an activity with a clock-driven timeout.
func (s *session) boundedCtx(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	if timeout <= 0 {
		return ctx, cancel
	}
	timer := s.clock.AfterFunc(timeout, cancel)
	return ctx, func() {
		timer.Stop()
		cancel()
	}
}

func (s *session) drainCommands(err error) {
	for {
		select {
		case cmd := <-s.cmds:
			deliver(cmd.reply, err)
		default:
			return
		}
	}
}

func (s *session) notifySessionEnd(ctx context.Context, playtime time.Duration) {
	if err := s.coord.notifier.NotifySessionEnded(ctx, s.name(), playtime); err != nil {
		s.logger.Debug("session notification failed", logging.Error(err))
	}
}

func (s *session) notifyError(ctx context.Context, cause error, label string) {
	if err := s.coord.notifier.NotifyError(ctx, cause, label); err != nil {
		s.logger.Debug("error notification failed", logging.Error(err))
	}
}

func (s *session) snapshot() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		UUID:            s.uuid,
		Name:            s.gameName,
		MountPath:       s.mount,
		State:           s.state,
		Status:          s.status,
		PID:             s.pid,
		InsertedAt:      s.insertedAt,
		RunningSince:    s.runningSince,
		AutoLaunchArmed: s.armed,
		Meta:            s.meta,
	}
}

func (s *session) name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameName
}

func (s *session) metaSnapshot() *metadata.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

func (s *session) savePatterns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.meta == nil {
		return nil
	}
	return s.meta.Runtime.SavePaths
}

func (s *session) autoLaunchEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta != nil && s.meta.Cartridge.AutoLaunch
}

func (s *session) beginSession() {
	s.mu.Lock()
	s.gen++
	s.state = StateSyncingIn
	s.status = ""
	s.mu.Unlock()
}

func (s *session) setState(state State, status string) {
	s.mu.Lock()
	s.state = state
	s.status = status
	s.mu.Unlock()
	s.logger.Debug("session state",
		logging.String("uuid", s.uuid),
		logging.String("state", string(state)),
	)
}

func (s *session) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *session) setArmed(armed bool) {
	s.mu.Lock()
	s.armed = armed
	s.mu.Unlock()
}

func (s *session) setRunningDone() {
	s.mu.Lock()
	s.pid = 0
	s.runningSince = time.Time{}
	s.mu.Unlock()
}

func (s *session) clearPending() {
	s.mu.Lock()
	s.launchPending = false
	s.mu.Unlock()
}

func (s *session) hasPendingLaunch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launchPending
}

// consumeLaunch clears the pending flag for a dequeued launch command and
// reports whether another session ran since it was enqueued. Stale requests
// are rejected, not replayed.
func (s *session) consumeLaunch(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.launchPending = false
	return gen != s.gen
}

func (s *session) terminationGrace() time.Duration {
	d := time.Duration(s.cfg.Session.TerminationGrace) * time.Second
	if d < 0 {
		d = 0
	}
	return d
}

func (s *session) removalSyncTimeout() time.Duration {
	d := time.Duration(s.cfg.Session.RemovalSyncTimeout) * time.Second
	if d < 0 {
		d = 0
	}
	return d
}

func (s *session) autoLaunchDelay() time.Duration {
	d := time.Duration(s.cfg.Session.AutoLaunchDelay) * time.Second
	if d < 0 {
		d = 0
	}
	return d
}

func deliver(reply chan error, err error) {
	if reply != nil {
		reply <- err
	}
}

func interruptErr(v verdict, operation string) error {
	if v == verdictRemoved {
		return removedErr(operation)
	}
	return stoppingErr(operation)
}

func removedErr(operation string) error {
	return services.Wrap(services.ErrNotFound, "session", operation, "cartridge removed", nil)
}

func stoppingErr(operation string) error {
	return services.Wrap(services.ErrConflict, "session", operation, "daemon shutting down", nil)
}

func notRunning(name string) error {
	return services.Wrap(services.ErrNotFound, "session", "stop", fmt.Sprintf("no running game for %s", name), nil)
}
