package services_test

import (
	"errors"
	"strings"
	"testing"

	"physica/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrSync, "savesync", "sync_out", "copy failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrSync) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"savesync", "sync_out", "copy failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestStatusLabelMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		expect string
	}{
		{"validation", services.Wrap(services.ErrValidation, "metadata", "parse", "missing name", nil), "cartridge not recognized"},
		{"runtime", services.Wrap(services.ErrRuntimeNotFound, "launch", "resolve", "GE-Proton8-14", nil), "runtime not found"},
		{"executable", services.Wrap(services.ErrExecutableNotFound, "launch", "start", "game.exe", nil), "executable not found"},
		{"launch", services.Wrap(services.ErrLaunchFailed, "launch", "start", "spawn failed", errors.New("fork")), "launch failed"},
		{"sync", services.Wrap(services.ErrSync, "savesync", "sync_in", "read failed", errors.New("io")), "save sync failed"},
		{"conflict", services.Wrap(services.ErrConflict, "monitor", "scan", "duplicate uuid", nil), "conflict"},
		{"registry", services.Wrap(services.ErrRegistryIO, "registry", "record", "disk full", errors.New("io")), "registry unavailable"},
		{"unknown", errors.New("mystery"), "error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.StatusLabel(tc.err); got != tc.expect {
				t.Fatalf("expected %q, got %q", tc.expect, got)
			}
		})
	}
	if got := services.StatusLabel(nil); got != "" {
		t.Fatalf("expected empty label for nil error, got %q", got)
	}
}

func TestBlocksSession(t *testing.T) {
	syncErr := services.Wrap(services.ErrSync, "savesync", "sync_out", "write failed", nil)
	if services.BlocksSession(syncErr) {
		t.Fatal("sync errors must not block the session")
	}
	launchErr := services.Wrap(services.ErrExecutableNotFound, "launch", "start", "missing", nil)
	if !services.BlocksSession(launchErr) {
		t.Fatal("launch errors must block the session")
	}
	if services.BlocksSession(nil) {
		t.Fatal("nil error must not block")
	}
}
