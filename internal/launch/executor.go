package launch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// ProcessSpec describes a game process to start.
type ProcessSpec struct {
	Binary  string
	Args    []string
	Dir     string
	Env     []string
	LogPath string
}

// Process is a started game process. Done is closed once the process has
// exited and been reaped; Err reports the exit error after that.
type Process interface {
	PID() int
	Done() <-chan struct{}
	Err() error
	Signal(sig os.Signal) error
	Kill() error
}

// Executor starts game processes. The default executor shells out through
// os/exec; tests substitute their own to avoid spawning real games.
type Executor interface {
	Start(ctx context.Context, spec ProcessSpec) (Process, error)
}

type commandExecutor struct{}

func (commandExecutor) Start(ctx context.Context, spec ProcessSpec) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var logFile *os.File
	if spec.LogPath != "" {
		f, err := os.OpenFile(spec.LogPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening launch log: %w", err)
		}
		logFile = f
	}

	// No CommandContext here: a game outlives any request context, and
	// shutdown goes through Handle.Terminate rather than a context kill.
	cmd := exec.Command(spec.Binary, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	if logFile != nil {
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, err
	}

	p := &osProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		if logFile != nil {
			logFile.Close()
		}
		close(p.done)
	}()
	return p, nil
}

type osProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func (p *osProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *osProcess) Done() <-chan struct{} {
	return p.done
}

func (p *osProcess) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

func (p *osProcess) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}

func (p *osProcess) Kill() error {
	return p.cmd.Process.Kill()
}
