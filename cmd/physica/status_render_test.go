package main

import (
	"io"
	"strings"
	"testing"

	"physica/internal/api"
)

func TestRenderStatusLine(t *testing.T) {
	plain := renderStatusLine("Physica", statusOK, "Running (pid 42)", false)
	if !strings.HasPrefix(plain, statusIndent+"Physica:") {
		t.Fatalf("unexpected prefix: %q", plain)
	}
	requireContains(t, plain, "[OK] Running (pid 42)")
	if strings.Contains(plain, ansiGreen) {
		t.Fatalf("plain line should not carry color codes: %q", plain)
	}

	colored := renderStatusLine("Physica", statusWarn, "Not running", true)
	if !strings.HasPrefix(colored, ansiYellow) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("colored line missing ANSI wrapping: %q", colored)
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader("Tools", false)
	if len(lines) != 2 {
		t.Fatalf("expected header and rule, got %d lines", len(lines))
	}
	if lines[0] != "== Tools ==" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != strings.Repeat("-", len(lines[0])) {
		t.Fatalf("rule does not match header width: %q", lines[1])
	}
}

func TestToolLines(t *testing.T) {
	tools := []api.ToolStatus{
		{Name: "lsblk", Available: true, Command: "lsblk"},
		{Name: "udisksctl", Available: false, Optional: true, Detail: "not found in PATH"},
	}

	lines := toolLines(tools, false)
	if len(lines) != 3 {
		t.Fatalf("expected two tool lines plus trailer, got %d", len(lines))
	}
	requireContains(t, lines[0], "[OK] Ready (command: lsblk)")
	requireContains(t, lines[1], "[WARN] not found in PATH")
	requireContains(t, lines[2], "Missing tools")
	requireContains(t, lines[2], "udisksctl")
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatal("non-file writer should not colorize")
	}
}
