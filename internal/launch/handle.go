package launch

import (
	"context"
	"log/slog"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
)

// Handle tracks one running game process from start to reaped exit.
type Handle struct {
	uuid    string
	name    string
	proc    Process
	clock   clockwork.Clock
	started time.Time
	logger  *slog.Logger
}

// UUID returns the cartridge UUID the session belongs to.
func (h *Handle) UUID() string { return h.uuid }

// Name returns the game's display name.
func (h *Handle) Name() string { return h.name }

// PID returns the process id of the launched game.
func (h *Handle) PID() int { return h.proc.PID() }

// Started returns the wall-clock start time of the session.
func (h *Handle) Started() time.Time { return h.started }

// Done is closed once the process has exited and been reaped.
func (h *Handle) Done() <-chan struct{} { return h.proc.Done() }

// Running reports whether the process has not yet exited.
func (h *Handle) Running() bool {
	select {
	case <-h.proc.Done():
		return false
	default:
		return true
	}
}

// ExitErr reports how the process exited. It is nil while the process still
// runs and after a clean exit; crashes and non-zero exits report the exec
// error. Playtime is attributed either way.
func (h *Handle) ExitErr() error { return h.proc.Err() }

// Playtime returns the wall-clock time elapsed since the session started.
// Callers snapshot it when they observe Done.
func (h *Handle) Playtime() time.Duration {
	return h.clock.Since(h.started)
}

// Terminate stops the process: SIGTERM first, escalating to SIGKILL once the
// grace period elapses. It returns after the process has been reaped. A
// canceled context skips the remaining grace wait and escalates immediately.
func (h *Handle) Terminate(ctx context.Context, grace time.Duration) error {
	select {
	case <-h.proc.Done():
		return nil
	default:
	}

	h.logger.Info("terminating game process", "game", h.name, "pid", h.proc.PID(), "grace", grace)
	if err := h.proc.Signal(syscall.SIGTERM); err == nil && grace > 0 {
		select {
		case <-h.proc.Done():
			return nil
		case <-h.clock.After(grace):
		case <-ctx.Done():
		}
	}

	select {
	case <-h.proc.Done():
		return nil
	default:
	}
	h.logger.Warn("game did not exit within grace period, killing", "game", h.name, "pid", h.proc.PID())
	_ = h.proc.Kill()

	select {
	case <-h.proc.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
