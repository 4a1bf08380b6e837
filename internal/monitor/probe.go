package monitor

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"physica/internal/logging"
	"physica/internal/metadata"
)

// lsblkTimeout bounds the mount listing so a wedged device cannot stall the
// scan loop.
const lsblkTimeout = 5 * time.Second

type probe struct {
	path string
	meta *metadata.Metadata
}

// lsblkDevice mirrors one entry of `lsblk -J` output.
type lsblkDevice struct {
	MountPoint string        `json:"mountpoint"`
	Type       string        `json:"type"`
	Children   []lsblkDevice `json:"children"`
}

type lsblkReport struct {
	BlockDevices []lsblkDevice `json:"blockdevices"`
}

// ParseMounts extracts candidate mount points from
// `lsblk -J -o MOUNTPOINT,TYPE` output. The root filesystem and swap are
// never cartridge candidates.
func ParseMounts(data []byte) ([]string, error) {
	var report lsblkReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	var mounts []string
	var walk func(devices []lsblkDevice)
	walk = func(devices []lsblkDevice) {
		for _, dev := range devices {
			if mp := dev.MountPoint; mp != "" && mp != "/" && mp != "[SWAP]" {
				mounts = append(mounts, mp)
			}
			walk(dev.Children)
		}
	}
	walk(report.BlockDevices)
	return mounts, nil
}

func (m *Monitor) mountedPaths(ctx context.Context) []string {
	lsblkCtx, cancel := context.WithTimeout(ctx, lsblkTimeout)
	defer cancel()

	output, err := exec.CommandContext(lsblkCtx, m.cfg.LsblkBinary(), "-J", "-o", "MOUNTPOINT,TYPE").Output()
	if err != nil {
		m.logger.Debug("lsblk unavailable, scanning mount bases only", logging.Error(err))
		return nil
	}
	mounts, err := ParseMounts(output)
	if err != nil {
		m.logger.Debug("unreadable lsblk output, scanning mount bases only", logging.Error(err))
		return nil
	}
	return mounts
}

// discover lists candidate mount points and probes each one: every mount
// point lsblk reports plus every subdirectory of the configured mount bases.
// It returns the valid cartridges and the paths that carry a gamecard
// directory but cannot be used, keyed to a reason. Paths without a gamecard
// directory are ordinary drives and are skipped silently.
func (m *Monitor) discover(ctx context.Context) ([]probe, map[string]string) {
	invalid := make(map[string]string)
	probes := make([]probe, 0, 4)
	seen := make(map[string]struct{})

	consider := func(path string) {
		path = filepath.Clean(path)
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		if !metadata.HasGamecardDir(path) {
			return
		}
		meta, err := metadata.Parse(metadata.DescriptorPath(path))
		if err != nil {
			invalid[path] = err.Error()
			return
		}
		probes = append(probes, probe{path: path, meta: meta})
	}

	for _, mount := range m.mountedPaths(ctx) {
		consider(mount)
	}
	for _, base := range m.cfg.Monitor.MountBases {
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			consider(filepath.Join(base, entry.Name()))
		}
	}
	return probes, invalid
}
