package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"physica/internal/config"
	"physica/internal/metadata"
)

// CheckNotificationsFromConfig evaluates the ntfy configuration without
// sending anything.
func CheckNotificationsFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("ntfy topic %q", topic)}
}

// CartridgeProbe reports the cartridges visible under the mount bases.
type CartridgeProbe struct {
	Names   []string
	Invalid int
}

// ProbeCartridges scans the configured mount bases for descriptor trees.
// It answers from the filesystem alone so the CLI can describe the slot
// state even when the daemon is down.
func ProbeCartridges(cfg *config.Config) CartridgeProbe {
	var probe CartridgeProbe
	if cfg == nil {
		return probe
	}
	for _, base := range cfg.Monitor.MountBases {
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			descriptor := metadata.DescriptorPath(filepath.Join(base, entry.Name()))
			if _, err := os.Stat(descriptor); err != nil {
				continue
			}
			m, err := metadata.Parse(descriptor)
			if err != nil {
				probe.Invalid++
				continue
			}
			probe.Names = append(probe.Names, m.DisplayName())
		}
	}
	sort.Strings(probe.Names)
	return probe
}

// Detail renders a display-friendly summary for status UIs.
func (p CartridgeProbe) Detail() string {
	if len(p.Names) == 0 {
		if p.Invalid > 0 {
			return fmt.Sprintf("no readable cartridges (%d invalid)", p.Invalid)
		}
		return "No cartridges detected"
	}
	detail := strings.Join(p.Names, ", ")
	if p.Invalid > 0 {
		detail = fmt.Sprintf("%s (+%d invalid)", detail, p.Invalid)
	}
	return detail
}
