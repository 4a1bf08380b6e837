package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"physica/internal/fileutil"
	"physica/internal/services"
)

const (
	// DirName is the marker directory a cartridge carries at its root.
	DirName = ".gamecard"
	// FileName is the descriptor file inside DirName.
	FileName = "metadata.toml"
	// GameDataDir is the conventional game-files directory on a cartridge.
	GameDataDir = "game"
	// SaveDataDir is the cartridge-side root for synced save subtrees.
	SaveDataDir = "savedata"

	// maxDescriptorBytes bounds the descriptor read so a corrupt filesystem
	// cannot stall the monitor with a multi-gigabyte parse.
	maxDescriptorBytes = 1 << 20
)

// Game describes the [game] descriptor section.
type Game struct {
	Name        string `toml:"name" json:"name"`
	ID          string `toml:"id" json:"id"`
	Version     string `toml:"version" json:"version"`
	Publisher   string `toml:"publisher" json:"publisher"`
	ReleaseDate string `toml:"release_date" json:"release_date"`
	Executable  string `toml:"executable" json:"executable"`
	Genre       string `toml:"genre" json:"genre"`
}

// Runtime describes the [runtime] descriptor section.
type Runtime struct {
	Platform         string            `toml:"platform" json:"platform"`
	NeedsWine        bool              `toml:"needs_wine" json:"needs_wine"`
	WineVersion      string            `toml:"wine_version" json:"wine_version"`
	LaunchArgs       []string          `toml:"launch_args" json:"launch_args"`
	WorkingDirectory string            `toml:"working_directory" json:"working_directory"`
	SavePaths        []string          `toml:"save_paths" json:"save_paths"`
	EnvVars          map[string]string `toml:"env_vars" json:"env_vars"`
}

// Cartridge describes the [cartridge] descriptor section.
type Cartridge struct {
	FormattedDate string `toml:"formatted_date" json:"formatted_date"`
	UUID          string `toml:"uuid" json:"uuid"`
	TotalPlaytime int64  `toml:"total_playtime" json:"total_playtime"`
	LastPlayed    string `toml:"last_played" json:"last_played"`
	PlayCount     int    `toml:"play_count" json:"play_count"`
	Notes         string `toml:"notes" json:"notes"`
	AutoLaunch    bool   `toml:"auto_launch" json:"auto_launch"`
}

// Import describes the [import] provenance section.
type Import struct {
	Source       string `toml:"source" json:"source"`
	ImportDate   string `toml:"import_date" json:"import_date"`
	OriginalSize int64  `toml:"original_size" json:"original_size"`
	SourcePath   string `toml:"source_path" json:"source_path"`
}

// Metadata is the full cartridge descriptor.
type Metadata struct {
	Game      Game      `toml:"game" json:"game"`
	Runtime   Runtime   `toml:"runtime" json:"runtime"`
	Cartridge Cartridge `toml:"cartridge" json:"cartridge"`
	Import    Import    `toml:"import" json:"import"`
}

// defaults mirrors the values an import tool bakes into new cartridges, so
// descriptors written by older tools parse with sensible settings.
func defaults() Metadata {
	return Metadata{
		Runtime: Runtime{
			Platform:         "windows",
			NeedsWine:        true,
			WorkingDirectory: GameDataDir,
			LaunchArgs:       []string{},
			SavePaths:        []string{},
			EnvVars:          map[string]string{},
		},
		Cartridge: Cartridge{
			AutoLaunch: true,
		},
		Import: Import{
			Source: "directory",
		},
	}
}

// DescriptorPath returns the metadata file location for a mount root.
func DescriptorPath(mountPath string) string {
	return filepath.Join(mountPath, DirName, FileName)
}

// HasGamecardDir reports whether the mount carries a .gamecard directory,
// whether or not the descriptor inside it parses.
func HasGamecardDir(mountPath string) bool {
	info, err := os.Stat(filepath.Join(mountPath, DirName))
	return err == nil && info.IsDir()
}

// Parse reads and validates the descriptor at path.
func Parse(path string) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "metadata", "read", "descriptor unreadable", err)
	}
	if info.Size() > maxDescriptorBytes {
		return nil, services.Wrap(services.ErrValidation, "metadata", "read",
			fmt.Sprintf("descriptor is %d bytes, limit is %d", info.Size(), maxDescriptorBytes), nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "metadata", "read", "descriptor unreadable", err)
	}
	return ParseBytes(data)
}

// ParseBytes decodes and validates a descriptor document.
func ParseBytes(data []byte) (*Metadata, error) {
	m := defaults()
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, services.Wrap(services.ErrValidation, "metadata", "parse", "descriptor is not valid TOML", err)
	}
	m.normalize()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Serialize encodes m so that ParseBytes(Serialize(m)) reproduces m exactly.
func Serialize(m *Metadata) ([]byte, error) {
	normalized := *m
	normalized.normalize()
	data, err := toml.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("encode descriptor: %w", err)
	}
	return data, nil
}

// WriteFile serializes m to path with an atomic replace, so an interrupted
// write never leaves a truncated descriptor on the cartridge.
func WriteFile(path string, m *Metadata) error {
	data, err := Serialize(m)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write descriptor %s: %w", path, err)
	}
	return nil
}

// Rewrite loads the descriptor at path, applies mutate, and writes the result
// back atomically.
func Rewrite(path string, mutate func(*Metadata) error) error {
	m, err := Parse(path)
	if err != nil {
		return err
	}
	if err := mutate(m); err != nil {
		return err
	}
	return WriteFile(path, m)
}

func (m *Metadata) normalize() {
	if m.Runtime.LaunchArgs == nil {
		m.Runtime.LaunchArgs = []string{}
	}
	if m.Runtime.SavePaths == nil {
		m.Runtime.SavePaths = []string{}
	}
	if m.Runtime.EnvVars == nil {
		m.Runtime.EnvVars = map[string]string{}
	}
}

// DisplayName returns the game name, falling back to the slug for
// descriptors written before name became required.
func (m *Metadata) DisplayName() string {
	if name := strings.TrimSpace(m.Game.Name); name != "" {
		return name
	}
	return m.Game.ID
}

// RuntimeVersion returns the descriptor's compatibility-runtime hint, or
// fallback when the descriptor does not pin one.
func (m *Metadata) RuntimeVersion(fallback string) string {
	if v := strings.TrimSpace(m.Runtime.WineVersion); v != "" {
		return v
	}
	return fallback
}

// ExecutablePath resolves the game executable against the cartridge mount.
func (m *Metadata) ExecutablePath(mountPath string) string {
	return filepath.Join(mountPath, m.Game.Executable)
}

// WorkingDirPath resolves the declared working directory against the mount.
// An empty declaration means the cartridge root.
func (m *Metadata) WorkingDirPath(mountPath string) string {
	if strings.TrimSpace(m.Runtime.WorkingDirectory) == "" {
		return mountPath
	}
	return filepath.Join(mountPath, m.Runtime.WorkingDirectory)
}

// ApplySession folds a finished play session into the cartridge statistics.
// Playtime only ever accumulates; the play count increments once per session.
func (m *Metadata) ApplySession(playtime time.Duration, endedAt time.Time) {
	seconds := int64(playtime / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	m.Cartridge.TotalPlaytime += seconds
	m.Cartridge.LastPlayed = endedAt.UTC().Format(time.RFC3339)
	m.Cartridge.PlayCount++
}
