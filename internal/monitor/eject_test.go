package monitor_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"physica/internal/monitor"
	"physica/internal/testsupport"
)

func TestDeviceForMount(t *testing.T) {
	output := strings.Join([]string{
		`PATH="/dev/nvme0n1p2" MOUNTPOINT="/"`,
		`PATH="/dev/sda1" MOUNTPOINT="/run/media/deck/CART-01"`,
		`PATH="/dev/sdb1" MOUNTPOINT="/run/media/deck/My Games"`,
		`PATH="/dev/sdc1" MOUNTPOINT=""`,
		``,
	}, "\n")

	cases := []struct {
		name  string
		mount string
		want  string
	}{
		{"exact match", "/run/media/deck/CART-01", "/dev/sda1"},
		{"mount point with spaces", "/run/media/deck/My Games", "/dev/sdb1"},
		{"trailing slash normalized", "/run/media/deck/CART-01/", "/dev/sda1"},
		{"unknown path", "/run/media/deck/OTHER", ""},
		{"root never matches blank entries", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := monitor.DeviceForMount(output, tc.mount); got != tc.want {
				t.Fatalf("DeviceForMount(%q) = %q, want %q", tc.mount, got, tc.want)
			}
		})
	}
}

func TestDeviceForMountGarbageOutput(t *testing.T) {
	if got := monitor.DeviceForMount("not lsblk output at all", "/run/media/x"); got != "" {
		t.Fatalf("expected no device from garbage output, got %q", got)
	}
}

// writeEjectStubs installs lsblk and udisksctl scripts on PATH. The lsblk
// stub reports device for mount, and udisksctl appends its argv to callLog.
func writeEjectStubs(t *testing.T, device, mount, callLog string, unmountFails bool) {
	t.Helper()
	binDir := t.TempDir()

	lsblk := fmt.Sprintf("#!/bin/sh\nprintf 'PATH=\"%s\" MOUNTPOINT=\"%s\"\\n'\n", device, mount)
	if err := os.WriteFile(filepath.Join(binDir, "lsblk"), []byte(lsblk), 0o755); err != nil {
		t.Fatalf("write lsblk stub: %v", err)
	}

	udisksctl := fmt.Sprintf("#!/bin/sh\necho \"$@\" >> %q\n", callLog)
	if unmountFails {
		udisksctl += "if [ \"$1\" = unmount ]; then echo 'target is busy'; exit 1; fi\n"
	}
	udisksctl += "exit 0\n"
	if err := os.WriteFile(filepath.Join(binDir, "udisksctl"), []byte(udisksctl), 0o755); err != nil {
		t.Fatalf("write udisksctl stub: %v", err)
	}

	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestCommandEjectorUnmountsAndPowersOff(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	mount := filepath.Join(testsupport.MountBase(cfg), "CART-01")
	callLog := filepath.Join(t.TempDir(), "calls.log")
	writeEjectStubs(t, "/dev/sdz1", mount, callLog, false)

	result, err := monitor.NewEjector(cfg).Eject(context.Background(), mount)
	if err != nil {
		t.Fatalf("Eject: %v", err)
	}
	if result.Device != "/dev/sdz1" {
		t.Fatalf("device = %q, want /dev/sdz1", result.Device)
	}
	if !result.PoweredOff {
		t.Fatal("expected power-off to be reported")
	}

	data, err := os.ReadFile(callLog)
	if err != nil {
		t.Fatalf("read call log: %v", err)
	}
	calls := strings.TrimSpace(string(data))
	want := "unmount --block-device /dev/sdz1\npower-off --block-device /dev/sdz1"
	if calls != want {
		t.Fatalf("udisksctl calls:\n%s\nwant:\n%s", calls, want)
	}
}

func TestCommandEjectorSurfacesUnmountFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	mount := filepath.Join(testsupport.MountBase(cfg), "CART-01")
	callLog := filepath.Join(t.TempDir(), "calls.log")
	writeEjectStubs(t, "/dev/sdz1", mount, callLog, true)

	result, err := monitor.NewEjector(cfg).Eject(context.Background(), mount)
	if err == nil {
		t.Fatal("expected unmount failure")
	}
	if !strings.Contains(err.Error(), "target is busy") {
		t.Fatalf("error should carry udisksctl output, got: %v", err)
	}
	if result.Device != "/dev/sdz1" {
		t.Fatalf("device should be reported even on failure, got %q", result.Device)
	}
	if result.PoweredOff {
		t.Fatal("power-off must not run after a failed unmount")
	}

	data, _ := os.ReadFile(callLog)
	if strings.Contains(string(data), "power-off") {
		t.Fatalf("power-off was attempted: %s", data)
	}
}

func TestCommandEjectorUnknownMount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	callLog := filepath.Join(t.TempDir(), "calls.log")
	writeEjectStubs(t, "/dev/sdz1", "/run/media/deck/ELSEWHERE", callLog, false)

	_, err := monitor.NewEjector(cfg).Eject(context.Background(), filepath.Join(testsupport.MountBase(cfg), "CART-01"))
	if err == nil {
		t.Fatal("expected resolve failure for unknown mount")
	}
	if !strings.Contains(err.Error(), "no block device mounted at") {
		t.Fatalf("unexpected error: %v", err)
	}
}
