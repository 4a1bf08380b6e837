package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"physica/internal/metadata"
)

// CartridgeOption mutates the generated descriptor before it is written.
type CartridgeOption func(*metadata.Metadata)

// WithUUID pins the cartridge UUID instead of generating one.
func WithUUID(id string) CartridgeOption {
	return func(m *metadata.Metadata) {
		m.Cartridge.UUID = id
	}
}

// WithGame sets the display name and slug identifier.
func WithGame(name, id string) CartridgeOption {
	return func(m *metadata.Metadata) {
		m.Game.Name = name
		m.Game.ID = id
	}
}

// WithExecutable overrides the executable path relative to the mount root.
func WithExecutable(rel string) CartridgeOption {
	return func(m *metadata.Metadata) {
		m.Game.Executable = rel
	}
}

// WithWineVersion pins the runtime version the descriptor requests.
func WithWineVersion(version string) CartridgeOption {
	return func(m *metadata.Metadata) {
		m.Runtime.WineVersion = version
	}
}

// WithSavePaths replaces the descriptor save path patterns.
func WithSavePaths(patterns ...string) CartridgeOption {
	return func(m *metadata.Metadata) {
		m.Runtime.SavePaths = patterns
	}
}

// WithAutoLaunch toggles auto-launch on insertion.
func WithAutoLaunch(enabled bool) CartridgeOption {
	return func(m *metadata.Metadata) {
		m.Cartridge.AutoLaunch = enabled
	}
}

// WithPlaytime seeds accumulated playtime stats on the descriptor.
func WithPlaytime(totalSeconds int64, playCount int, lastPlayed string) CartridgeOption {
	return func(m *metadata.Metadata) {
		m.Cartridge.TotalPlaytime = totalSeconds
		m.Cartridge.PlayCount = playCount
		m.Cartridge.LastPlayed = lastPlayed
	}
}

// NewMetadata returns a valid descriptor with test defaults applied.
func NewMetadata(opts ...CartridgeOption) *metadata.Metadata {
	m := &metadata.Metadata{}
	m.Game.Name = "Test Game"
	m.Game.ID = "test-game"
	m.Game.Executable = filepath.Join(metadata.GameDataDir, "test-game.exe")
	m.Runtime.Platform = "windows"
	m.Runtime.NeedsWine = true
	m.Runtime.WorkingDirectory = metadata.GameDataDir
	m.Runtime.SavePaths = []string{"drive_c/users/steamuser/AppData/Roaming/TestGame"}
	m.Cartridge.UUID = uuid.NewString()
	m.Cartridge.AutoLaunch = true
	m.Import.Source = "directory"
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WriteCartridge builds a cartridge tree under mountDir: the .gamecard
// descriptor, the game payload directory, and a stub executable. The tree is
// staged outside the mount base and renamed into place, so a monitor scan
// running concurrently never observes a half-written cartridge. It returns
// the descriptor that was written.
func WriteCartridge(t testing.TB, mountDir string, opts ...CartridgeOption) *metadata.Metadata {
	t.Helper()

	m := NewMetadata(opts...)
	staging := filepath.Join(t.TempDir(), "cartridge")
	exePath := filepath.Join(staging, filepath.FromSlash(m.Game.Executable))
	if err := os.MkdirAll(filepath.Dir(exePath), 0o755); err != nil {
		t.Fatalf("mkdir game dir: %v", err)
	}
	if err := os.WriteFile(exePath, []byte("MZ stub\n"), 0o755); err != nil {
		t.Fatalf("write executable stub: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(staging, metadata.DirName), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", metadata.DirName, err)
	}
	if err := metadata.WriteFile(metadata.DescriptorPath(staging), m); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(mountDir), 0o755); err != nil {
		t.Fatalf("mkdir mount base: %v", err)
	}
	if err := os.Rename(staging, mountDir); err != nil {
		t.Fatalf("place cartridge: %v", err)
	}
	return m
}
