package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"physica/internal/events"
	"physica/internal/metadata"
	"physica/internal/monitor"
	"physica/internal/services"
	"physica/internal/session"
	"physica/internal/testsupport"
)

func TestInsertionPublishesAndRegisters(t *testing.T) {
	h := newHarness(t)
	m, mountDir := h.insert(testsupport.WithAutoLaunch(false))
	uuid := m.Cartridge.UUID

	evts, _ := h.bus.Tail(16)
	var inserted *events.Event
	for i := range evts {
		if evts[i].Type == events.TypeCartridgeInserted && evts[i].UUID == uuid {
			inserted = &evts[i]
		}
	}
	if inserted == nil {
		t.Fatalf("no cartridge_inserted event on the bus")
	}
	if inserted.Name != "Test Game" || inserted.Detail != mountDir {
		t.Fatalf("inserted event = %+v, want name %q detail %q", inserted, "Test Game", mountDir)
	}

	info, ok := h.coord.Get(uuid)
	if !ok {
		t.Fatalf("session not tracked after insertion")
	}
	if info.State != session.StateIdle || info.MountPath != mountDir {
		t.Fatalf("info = %+v, want idle at %s", info, mountDir)
	}
	if info.AutoLaunchArmed {
		t.Fatalf("auto-launch armed for a cartridge with auto_launch = false")
	}
	if !info.InsertedAt.Equal(h.clock.Now()) {
		t.Fatalf("InsertedAt = %v, want %v", info.InsertedAt, h.clock.Now())
	}
	if got := len(h.coord.Sessions()); got != 1 {
		t.Fatalf("Sessions() has %d entries, want 1", got)
	}

	h.clock.Advance(time.Minute)
	if n := h.exec.startCount(); n != 0 {
		t.Fatalf("%d processes started without a launch request", n)
	}

	entry := h.entry(uuid)
	if !entry.Present || entry.LastMountPoint != mountDir {
		t.Fatalf("registry entry = %+v, want present at %s", entry, mountDir)
	}
	if entry.Name != "Test Game" || entry.GameID != "test-game" {
		t.Fatalf("registry entry identity = %q/%q", entry.Name, entry.GameID)
	}
}

func TestDuplicateInsertionIgnored(t *testing.T) {
	h := newHarness(t)
	a, mountA := h.insert(testsupport.WithAutoLaunch(false))

	// Same UUID announced again, as a flapping mount would.
	h.src <- monitor.Event{
		Kind:      monitor.KindInserted,
		UUID:      a.Cartridge.UUID,
		Name:      a.DisplayName(),
		MountPath: mountA,
		Meta:      a,
	}
	h.insert(testsupport.WithAutoLaunch(false), testsupport.WithGame("Other Game", "other-game"))

	if got := len(h.coord.Sessions()); got != 2 {
		t.Fatalf("Sessions() has %d entries, want 2", got)
	}
	if n := h.countEvents(events.TypeCartridgeInserted, a.Cartridge.UUID); n != 1 {
		t.Fatalf("%d inserted events for duplicate announcement, want 1", n)
	}
}

func TestManualLaunchHappyPath(t *testing.T) {
	h := newHarness(t)
	m, mountDir := h.insert(testsupport.WithAutoLaunch(false), testsupport.WithSavePaths("saves"))
	uuid := m.Cartridge.UUID
	testsupport.WriteTextFile(t, cartSavePath(mountDir, "saves/slot1.dat"), "cartridge-save-v1")

	if err := h.coord.Launch(context.Background(), uuid); err != nil {
		t.Fatalf("launch: %v", err)
	}

	if got := readFile(t, h.prefixPath(uuid, "saves/slot1.dat")); got != "cartridge-save-v1" {
		t.Fatalf("prefix save after sync-in = %q", got)
	}
	info, _ := h.coord.Get(uuid)
	if info.State != session.StateRunning || info.PID == 0 {
		t.Fatalf("info after launch = %+v, want running with a pid", info)
	}
	if !h.coord.IsRunning(uuid) {
		t.Fatalf("IsRunning = false for a running game")
	}
	h.waitEvent(events.TypeGameLaunched, uuid)

	spec := h.exec.spec(t, 0)
	if !strings.HasSuffix(spec.Binary, "/proton") {
		t.Fatalf("launched binary = %q, want the runtime entry script", spec.Binary)
	}
	if got := envValue(spec.Env, "WINEPREFIX"); got != h.cfg.PrefixDir(uuid) {
		t.Fatalf("WINEPREFIX = %q, want %q", got, h.cfg.PrefixDir(uuid))
	}

	testsupport.WriteTextFile(t, h.prefixPath(uuid, "saves/slot1.dat"), "prefix-save-v2")
	h.clock.Advance(90 * time.Second)
	h.exec.proc(t, 0).exit(nil)

	stopped := h.waitEvent(events.TypeGameStopped, uuid)
	if stopped.PlaytimeSeconds != 90 {
		t.Fatalf("stopped event playtime = %d, want 90", stopped.PlaytimeSeconds)
	}
	info = h.waitState(uuid, session.StateIdle)
	if info.Status != "" {
		t.Fatalf("status after clean session = %q", info.Status)
	}

	entry := h.entry(uuid)
	if entry.TotalPlaytime != 90 || entry.PlayCount != 1 {
		t.Fatalf("registry playtime = %d/%d plays, want 90/1", entry.TotalPlaytime, entry.PlayCount)
	}
	if !entry.Present {
		t.Fatalf("entry marked absent after a session with the cartridge still in")
	}

	// Descriptor counters mirror the registry after the session.
	onCart, err := metadata.Parse(metadata.DescriptorPath(mountDir))
	if err != nil {
		t.Fatalf("reparse descriptor: %v", err)
	}
	if onCart.Cartridge.TotalPlaytime != 90 || onCart.Cartridge.PlayCount != 1 {
		t.Fatalf("descriptor playtime = %d/%d plays, want 90/1",
			onCart.Cartridge.TotalPlaytime, onCart.Cartridge.PlayCount)
	}
	if onCart.Cartridge.LastPlayed != entry.LastPlayed {
		t.Fatalf("descriptor last_played = %q, registry has %q", onCart.Cartridge.LastPlayed, entry.LastPlayed)
	}

	if got := readFile(t, cartSavePath(mountDir, "saves/slot1.dat")); got != "prefix-save-v2" {
		t.Fatalf("cartridge save after sync-out = %q", got)
	}
}

func TestLaunchRejectsSecondRequestWhileRunning(t *testing.T) {
	h := newHarness(t)
	m, _ := h.insert(testsupport.WithAutoLaunch(false))
	uuid := m.Cartridge.UUID

	if err := h.coord.Launch(context.Background(), uuid); err != nil {
		t.Fatalf("launch: %v", err)
	}
	err := h.coord.Launch(context.Background(), uuid)
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("second launch error = %v, want conflict", err)
	}
	if n := h.exec.startCount(); n != 1 {
		t.Fatalf("%d processes started, want 1", n)
	}
}

func TestConcurrentLaunchesSingleWinner(t *testing.T) {
	h := newHarness(t)
	m, _ := h.insert(testsupport.WithAutoLaunch(false))
	uuid := m.Cartridge.UUID

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			results <- h.coord.Launch(context.Background(), uuid)
		}()
	}

	var ok, conflict int
	for i := 0; i < 2; i++ {
		switch err := <-results; {
		case err == nil:
			ok++
		case errors.Is(err, services.ErrConflict):
			conflict++
		default:
			t.Fatalf("unexpected launch error: %v", err)
		}
	}
	if ok != 1 || conflict != 1 {
		t.Fatalf("launch outcomes = %d ok / %d conflict, want 1/1", ok, conflict)
	}
	if n := h.exec.startCount(); n != 1 {
		t.Fatalf("%d processes started, want 1", n)
	}
}

func TestStopGameSyncsAndRecords(t *testing.T) {
	h := newHarness(t)
	m, mountDir := h.insert(testsupport.WithAutoLaunch(false), testsupport.WithSavePaths("saves"))
	uuid := m.Cartridge.UUID
	testsupport.WriteTextFile(t, cartSavePath(mountDir, "saves/slot1.dat"), "v1")

	if err := h.coord.Launch(context.Background(), uuid); err != nil {
		t.Fatalf("launch: %v", err)
	}
	testsupport.WriteTextFile(t, h.prefixPath(uuid, "saves/progress.txt"), "checkpoint 7")
	h.clock.Advance(30 * time.Second)

	if err := h.coord.StopGame(context.Background(), uuid); err != nil {
		t.Fatalf("stop: %v", err)
	}

	proc := h.exec.proc(t, 0)
	if proc.signalCount() == 0 {
		t.Fatalf("game never received a termination signal")
	}
	if proc.wasKilled() {
		t.Fatalf("cooperative game was force killed")
	}

	stopped := h.waitEvent(events.TypeGameStopped, uuid)
	if stopped.PlaytimeSeconds != 30 {
		t.Fatalf("stopped event playtime = %d, want 30", stopped.PlaytimeSeconds)
	}
	h.waitState(uuid, session.StateIdle)

	if got := readFile(t, cartSavePath(mountDir, "saves/progress.txt")); got != "checkpoint 7" {
		t.Fatalf("cartridge save after stop = %q", got)
	}
	entry := h.entry(uuid)
	if entry.TotalPlaytime != 30 || entry.PlayCount != 1 {
		t.Fatalf("registry playtime = %d/%d plays, want 30/1", entry.TotalPlaytime, entry.PlayCount)
	}

	err := h.coord.StopGame(context.Background(), uuid)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("stop with nothing running = %v, want not found", err)
	}
}

func TestAutoLaunchFiresAfterDelay(t *testing.T) {
	h := newHarness(t, testsupport.WithAutoLaunchDelay(2))
	m, _ := h.insert()
	uuid := m.Cartridge.UUID

	// The timer waiter appearing on the clock means the arm is visible.
	h.clock.BlockUntil(1)
	info, _ := h.coord.Get(uuid)
	if !info.AutoLaunchArmed {
		t.Fatalf("auto-launch not armed after insertion")
	}

	h.clock.Advance(2 * time.Second)

	h.waitEvent(events.TypeGameLaunched, uuid)
	info, _ = h.coord.Get(uuid)
	if info.State != session.StateRunning {
		t.Fatalf("state after auto-launch = %s", info.State)
	}
	if info.AutoLaunchArmed {
		t.Fatalf("auto-launch still armed after firing")
	}
	if n := h.exec.startCount(); n != 1 {
		t.Fatalf("%d processes started, want 1", n)
	}
}

func TestManualLaunchDisarmsAutoLaunch(t *testing.T) {
	h := newHarness(t, testsupport.WithAutoLaunchDelay(30))
	m, _ := h.insert()
	uuid := m.Cartridge.UUID

	h.clock.BlockUntil(1)
	if err := h.coord.Launch(context.Background(), uuid); err != nil {
		t.Fatalf("launch: %v", err)
	}
	info, _ := h.coord.Get(uuid)
	if info.AutoLaunchArmed {
		t.Fatalf("auto-launch still armed after a manual launch")
	}

	// The delay passing must not start a second copy.
	h.clock.Advance(time.Minute)
	if n := h.exec.startCount(); n != 1 {
		t.Fatalf("%d processes started, want 1", n)
	}
	if n := h.countEvents(events.TypeGameLaunched, uuid); n != 1 {
		t.Fatalf("%d game_launched events, want 1", n)
	}
}

func TestRemovalCancelsAutoLaunch(t *testing.T) {
	h := newHarness(t, testsupport.WithAutoLaunchDelay(30))
	m, _ := h.insert()
	uuid := m.Cartridge.UUID

	h.clock.BlockUntil(1)
	h.remove(m)
	h.waitEvent(events.TypeCartridgeRemoved, uuid)

	h.clock.Advance(time.Minute)
	if n := h.exec.startCount(); n != 0 {
		t.Fatalf("%d processes started after removal", n)
	}
	if entry := h.entry(uuid); entry.Present {
		t.Fatalf("entry still marked present after removal")
	}
}

func TestRemovalWhileIdle(t *testing.T) {
	h := newHarness(t)

	// A removal for a cartridge nobody tracks is ignored.
	h.src <- monitor.Event{Kind: monitor.KindRemoved, UUID: "0000-unknown", Name: "ghost"}

	m, _ := h.insert(testsupport.WithAutoLaunch(false))
	uuid := m.Cartridge.UUID
	h.remove(m)
	h.waitEvent(events.TypeCartridgeRemoved, uuid)

	if _, ok := h.coord.Get(uuid); ok {
		t.Fatalf("session still tracked after removal")
	}
	if entry := h.entry(uuid); entry.Present {
		t.Fatalf("entry still marked present after removal")
	}
	err := h.coord.Launch(context.Background(), uuid)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("launch after removal = %v, want not found", err)
	}
}

func TestRemovalWhileRunningTerminatesAndSyncs(t *testing.T) {
	h := newHarness(t)
	m, mountDir := h.insert(testsupport.WithAutoLaunch(false), testsupport.WithSavePaths("saves"))
	uuid := m.Cartridge.UUID
	testsupport.WriteTextFile(t, cartSavePath(mountDir, "saves/slot1.dat"), "v1")

	// This game ignores SIGTERM; only the kill escalation ends it. The
	// cleanup exit keeps a failed assertion from wedging coordinator Stop.
	stubborn := newFakeProcess(555, false)
	h.exec.push(stubborn)
	t.Cleanup(func() { stubborn.exit(errors.New("test cleanup")) })

	if err := h.coord.Launch(context.Background(), uuid); err != nil {
		t.Fatalf("launch: %v", err)
	}
	testsupport.WriteTextFile(t, h.prefixPath(uuid, "saves/slot1.dat"), "v2")
	h.clock.Advance(45 * time.Second)

	h.remove(m)
	<-stubborn.signaled
	h.clock.BlockUntil(1)
	h.clock.Advance(5 * time.Second)

	stopped := h.waitEvent(events.TypeGameStopped, uuid)
	if stopped.PlaytimeSeconds != 50 {
		t.Fatalf("stopped event playtime = %d, want 50 including the grace period", stopped.PlaytimeSeconds)
	}
	h.waitEvent(events.TypeCartridgeRemoved, uuid)

	if !stubborn.wasKilled() {
		t.Fatalf("stubborn game never got the kill escalation")
	}
	entry := h.entry(uuid)
	if entry.TotalPlaytime != 50 || entry.PlayCount != 1 {
		t.Fatalf("registry playtime = %d/%d plays, want 50/1", entry.TotalPlaytime, entry.PlayCount)
	}
	if entry.Present {
		t.Fatalf("entry still marked present after removal")
	}
	if got := readFile(t, cartSavePath(mountDir, "saves/slot1.dat")); got != "v2" {
		t.Fatalf("cartridge save after removal sync = %q, want v2", got)
	}

	// The descriptor is never rewritten once the cartridge is gone.
	onCart, err := metadata.Parse(metadata.DescriptorPath(mountDir))
	if err != nil {
		t.Fatalf("reparse descriptor: %v", err)
	}
	if onCart.Cartridge.PlayCount != 0 {
		t.Fatalf("descriptor play_count = %d after removal, want untouched 0", onCart.Cartridge.PlayCount)
	}
}

func TestIndependentCartridgesRunConcurrently(t *testing.T) {
	h := newHarness(t)
	a, _ := h.insert(testsupport.WithAutoLaunch(false))
	b, _ := h.insert(testsupport.WithAutoLaunch(false), testsupport.WithGame("Other Game", "other-game"))

	if err := h.coord.Launch(context.Background(), a.Cartridge.UUID); err != nil {
		t.Fatalf("launch a: %v", err)
	}
	if err := h.coord.Launch(context.Background(), b.Cartridge.UUID); err != nil {
		t.Fatalf("launch b while a is running: %v", err)
	}
	if got := h.coord.RunningCount(); got != 2 {
		t.Fatalf("RunningCount = %d, want 2", got)
	}

	// Each game writes into its own prefix.
	prefixA := envValue(h.exec.spec(t, 0).Env, "WINEPREFIX")
	prefixB := envValue(h.exec.spec(t, 1).Env, "WINEPREFIX")
	if prefixA == prefixB || prefixA == "" {
		t.Fatalf("prefixes not isolated: %q vs %q", prefixA, prefixB)
	}

	h.clock.Advance(10 * time.Second)
	h.exec.proc(t, 0).exit(nil)
	h.exec.proc(t, 1).exit(nil)
	h.waitState(a.Cartridge.UUID, session.StateIdle)
	h.waitState(b.Cartridge.UUID, session.StateIdle)

	if h.entry(a.Cartridge.UUID).PlayCount != 1 || h.entry(b.Cartridge.UUID).PlayCount != 1 {
		t.Fatalf("both sessions should have recorded one play")
	}
}

func TestSyncInFailureLeavesSessionIdle(t *testing.T) {
	h := newHarness(t)
	m, _ := h.insert(testsupport.WithAutoLaunch(false), testsupport.WithSavePaths("../escape"))
	uuid := m.Cartridge.UUID

	err := h.coord.Launch(context.Background(), uuid)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("launch error = %v, want validation failure", err)
	}
	if n := h.exec.startCount(); n != 0 {
		t.Fatalf("%d processes started despite sync-in failure", n)
	}

	h.waitEvent(events.TypeSyncWarning, uuid)
	info, _ := h.coord.Get(uuid)
	if info.State != session.StateIdle {
		t.Fatalf("state after failed sync-in = %s, want idle", info.State)
	}
	if info.Status == "" {
		t.Fatalf("no status surfaced for the sync-in failure")
	}
}

func TestLaunchFailureSurfacesError(t *testing.T) {
	h := newHarness(t)
	m, _ := h.insert(testsupport.WithAutoLaunch(false))
	uuid := m.Cartridge.UUID

	h.exec.setErr(errors.New("spawn failed"))
	err := h.coord.Launch(context.Background(), uuid)
	if !errors.Is(err, services.ErrLaunchFailed) {
		t.Fatalf("launch error = %v, want launch failure", err)
	}

	info, _ := h.coord.Get(uuid)
	if info.State != session.StateIdle || info.Status != "launch failed" {
		t.Fatalf("info after failed launch = %+v", info)
	}
	if n := h.countEvents(events.TypeGameLaunched, uuid); n != 0 {
		t.Fatalf("%d game_launched events for a failed launch", n)
	}
}

func TestSyncOutFailureDoesNotBlockRemoval(t *testing.T) {
	h := newHarness(t)
	m, mountDir := h.insert(testsupport.WithAutoLaunch(false), testsupport.WithSavePaths("saves"))
	uuid := m.Cartridge.UUID
	testsupport.WriteTextFile(t, cartSavePath(mountDir, "saves/slot1.dat"), "v1")

	if err := h.coord.Launch(context.Background(), uuid); err != nil {
		t.Fatalf("launch: %v", err)
	}

	// Make the cartridge side unwritable: savedata becomes a plain file.
	saveRoot := filepath.Join(mountDir, metadata.SaveDataDir)
	if err := os.RemoveAll(saveRoot); err != nil {
		t.Fatalf("remove save root: %v", err)
	}
	testsupport.WriteTextFile(t, saveRoot, "not a directory")

	h.clock.Advance(25 * time.Second)
	h.exec.proc(t, 0).exit(nil)

	h.waitEvent(events.TypeGameStopped, uuid)
	h.waitEvent(events.TypeSyncWarning, uuid)
	info := h.waitState(uuid, session.StateIdle)
	if info.Status != "save sync failed" {
		t.Fatalf("status = %q, want save sync failed", info.Status)
	}

	// Playtime still counts even though the sync-out was lost.
	entry := h.entry(uuid)
	if entry.TotalPlaytime != 25 || entry.PlayCount != 1 {
		t.Fatalf("registry playtime = %d/%d plays, want 25/1", entry.TotalPlaytime, entry.PlayCount)
	}

	h.remove(m)
	h.waitEvent(events.TypeCartridgeRemoved, uuid)
}

func TestShutdownStopsRunningGames(t *testing.T) {
	h := newHarness(t)
	m, mountDir := h.insert(testsupport.WithAutoLaunch(false), testsupport.WithSavePaths("saves"))
	uuid := m.Cartridge.UUID
	testsupport.WriteTextFile(t, cartSavePath(mountDir, "saves/slot1.dat"), "v1")

	if err := h.coord.Launch(context.Background(), uuid); err != nil {
		t.Fatalf("launch: %v", err)
	}
	testsupport.WriteTextFile(t, h.prefixPath(uuid, "saves/slot1.dat"), "v2")
	h.clock.Advance(15 * time.Second)

	h.coord.Stop()

	if proc := h.exec.proc(t, 0); proc.signalCount() == 0 {
		t.Fatalf("game not signaled during shutdown")
	}
	entry := h.entry(uuid)
	if entry.TotalPlaytime != 15 || entry.PlayCount != 1 {
		t.Fatalf("registry playtime = %d/%d plays, want 15/1", entry.TotalPlaytime, entry.PlayCount)
	}
	if !entry.Present {
		t.Fatalf("shutdown marked a still-inserted cartridge absent")
	}
	if got := readFile(t, cartSavePath(mountDir, "saves/slot1.dat")); got != "v2" {
		t.Fatalf("cartridge save after shutdown sync = %q, want v2", got)
	}
	if n := h.countEvents(events.TypeGameStopped, uuid); n != 1 {
		t.Fatalf("%d game_stopped events, want 1", n)
	}
	if n := h.countEvents(events.TypeCartridgeRemoved, uuid); n != 0 {
		t.Fatalf("shutdown published a cartridge_removed event")
	}
}

func TestCrashStillRecordsPlaytime(t *testing.T) {
	h := newHarness(t)
	m, _ := h.insert(testsupport.WithAutoLaunch(false))
	uuid := m.Cartridge.UUID

	if err := h.coord.Launch(context.Background(), uuid); err != nil {
		t.Fatalf("launch: %v", err)
	}
	h.clock.Advance(10 * time.Second)
	h.exec.proc(t, 0).exit(errors.New("exit status 127"))

	stopped := h.waitEvent(events.TypeGameStopped, uuid)
	if stopped.PlaytimeSeconds != 10 {
		t.Fatalf("stopped event playtime = %d, want 10", stopped.PlaytimeSeconds)
	}
	info := h.waitState(uuid, session.StateIdle)
	if info.Status != "" {
		t.Fatalf("crash left status %q, want none", info.Status)
	}
	entry := h.entry(uuid)
	if entry.TotalPlaytime != 10 || entry.PlayCount != 1 {
		t.Fatalf("registry playtime = %d/%d plays, want 10/1", entry.TotalPlaytime, entry.PlayCount)
	}
}

func TestNotifierObservesLifecycle(t *testing.T) {
	rec := &recordingNotifier{}
	h := buildHarness(t, rec)
	m, _ := h.insert(testsupport.WithAutoLaunch(false))
	uuid := m.Cartridge.UUID

	if err := h.coord.Launch(context.Background(), uuid); err != nil {
		t.Fatalf("launch: %v", err)
	}
	h.clock.Advance(2 * time.Minute)
	h.exec.proc(t, 0).exit(nil)
	h.waitState(uuid, session.StateIdle)

	inserted, launched, ended := rec.snapshot()
	if len(inserted) != 1 || inserted[0] != "Test Game" {
		t.Fatalf("inserted notifications = %v", inserted)
	}
	if len(launched) != 1 || launched[0] != "Test Game" {
		t.Fatalf("launched notifications = %v", launched)
	}
	if len(ended) != 1 || ended[0].name != "Test Game" || ended[0].playtime != 2*time.Minute {
		t.Fatalf("ended notifications = %+v", ended)
	}
}

func envValue(env []string, key string) string {
	prefix := key + "="
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			return strings.TrimPrefix(kv, prefix)
		}
	}
	return ""
}
