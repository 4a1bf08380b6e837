package monitor

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"physica/internal/config"
)

// EjectResult reports what a completed eject did to the device.
type EjectResult struct {
	Device     string
	PoweredOff bool
}

// Ejector detaches a cartridge filesystem so the device can be pulled
// safely.
type Ejector interface {
	Eject(ctx context.Context, mountPath string) (EjectResult, error)
}

type commandEjector struct {
	cfg *config.Config
}

// NewEjector returns an Ejector that resolves the backing block device with
// lsblk and detaches it with udisksctl, matching what a desktop automounter
// does on eject.
func NewEjector(cfg *config.Config) Ejector {
	return &commandEjector{cfg: cfg}
}

func (e *commandEjector) Eject(ctx context.Context, mountPath string) (EjectResult, error) {
	device, err := ResolveDevice(ctx, e.cfg.LsblkBinary(), mountPath)
	if err != nil {
		return EjectResult{}, err
	}

	out, err := exec.CommandContext(ctx, e.cfg.UdisksctlBinary(), "unmount", "--block-device", device).CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			return EjectResult{Device: device}, fmt.Errorf("unmount %s: %w", device, err)
		}
		return EjectResult{Device: device}, fmt.Errorf("unmount %s: %w: %s", device, err, detail)
	}

	result := EjectResult{Device: device}
	// The unmount already made removal safe. Power-off lets the drive spin
	// down first, and not every device grants it, so a refusal stays quiet.
	if err := exec.CommandContext(ctx, e.cfg.UdisksctlBinary(), "power-off", "--block-device", device).Run(); err == nil {
		result.PoweredOff = true
	}
	return result, nil
}

// ResolveDevice returns the block device mounted at mountPath, using
// lsblk -P key/value output.
func ResolveDevice(ctx context.Context, lsblkBinary, mountPath string) (string, error) {
	lsblkCtx, cancel := context.WithTimeout(ctx, lsblkTimeout)
	defer cancel()

	output, err := exec.CommandContext(lsblkCtx, lsblkBinary, "-P", "-o", "PATH,MOUNTPOINT").Output()
	if err != nil {
		return "", fmt.Errorf("run lsblk: %w", err)
	}
	device := DeviceForMount(string(output), mountPath)
	if device == "" {
		return "", fmt.Errorf("no block device mounted at %s", mountPath)
	}
	return device, nil
}

// DeviceForMount scans `lsblk -P -o PATH,MOUNTPOINT` output for the device
// whose mount point matches mountPath. Empty string means no device claims
// the path.
func DeviceForMount(output, mountPath string) string {
	mountPath = filepath.Clean(mountPath)
	for _, line := range strings.Split(output, "\n") {
		fields := parseKeyValueLine(line)
		if fields["MOUNTPOINT"] == "" || fields["PATH"] == "" {
			continue
		}
		if filepath.Clean(fields["MOUNTPOINT"]) == mountPath {
			return fields["PATH"]
		}
	}
	return ""
}

// lsblk -P quotes every value and escapes embedded quotes, so mount points
// with spaces survive. strings.Fields would split those.
var lsblkPairPattern = regexp.MustCompile(`([A-Z]+)="((?:[^"\\]|\\.)*)"`)

func parseKeyValueLine(line string) map[string]string {
	matches := lsblkPairPattern.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return nil
	}
	fields := make(map[string]string, len(matches))
	for _, m := range matches {
		fields[m[1]] = strings.ReplaceAll(m[2], `\"`, `"`)
	}
	return fields
}
