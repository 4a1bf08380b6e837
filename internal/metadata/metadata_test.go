package metadata_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"physica/internal/metadata"
	"physica/internal/services"
)

const sampleDescriptor = `
[game]
name = "Hollow Knight"
id = "hollow-knight"
version = "1.5.78"
publisher = "Team Cherry"
executable = "game/hollow_knight.exe"
genre = "metroidvania"

[runtime]
platform = "windows"
needs_wine = true
wine_version = "GE-Proton8-14"
launch_args = ["-windowed"]
working_directory = "game"
save_paths = ["drive_c/users/steamuser/AppData/LocalLow/Team Cherry"]

[cartridge]
uuid = "2b1c0c3e-9f2d-4a6b-8f41-67a1f0d9b001"
formatted_date = "2025-11-02T18:04:05Z"
total_playtime = 3600
last_played = "2026-01-10T21:12:00Z"
play_count = 4
auto_launch = true

[import]
source = "directory"
import_date = "2025-11-02T18:04:05Z"
original_size = 9273491456
source_path = "/home/deck/games/hollow-knight"
`

func writeDescriptor(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	gamecard := filepath.Join(dir, metadata.DirName)
	if err := os.MkdirAll(gamecard, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(gamecard, metadata.FileName)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseValidDescriptor(t *testing.T) {
	path := writeDescriptor(t, sampleDescriptor)

	m, err := metadata.Parse(path)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if m.Game.Name != "Hollow Knight" {
		t.Fatalf("unexpected name: %q", m.Game.Name)
	}
	if m.Game.ID != "hollow-knight" {
		t.Fatalf("unexpected id: %q", m.Game.ID)
	}
	if m.Cartridge.UUID != "2b1c0c3e-9f2d-4a6b-8f41-67a1f0d9b001" {
		t.Fatalf("unexpected uuid: %q", m.Cartridge.UUID)
	}
	if m.Cartridge.TotalPlaytime != 3600 {
		t.Fatalf("unexpected playtime: %d", m.Cartridge.TotalPlaytime)
	}
	if len(m.Runtime.LaunchArgs) != 1 || m.Runtime.LaunchArgs[0] != "-windowed" {
		t.Fatalf("unexpected launch args: %v", m.Runtime.LaunchArgs)
	}
	if !m.Runtime.NeedsWine {
		t.Fatal("expected needs_wine")
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	path := writeDescriptor(t, `
[game]
name = "Stardew Valley"
id = "stardew-valley"
executable = "game/Stardew.exe"

[cartridge]
uuid = "5f0a7c2e-1d3b-4a8c-9e21-006f5ad00042"
`)

	m, err := metadata.Parse(path)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if m.Runtime.Platform != "windows" {
		t.Fatalf("expected windows platform default, got %q", m.Runtime.Platform)
	}
	if !m.Runtime.NeedsWine {
		t.Fatal("expected needs_wine default true")
	}
	if m.Runtime.WorkingDirectory != "game" {
		t.Fatalf("expected working_directory default, got %q", m.Runtime.WorkingDirectory)
	}
	if !m.Cartridge.AutoLaunch {
		t.Fatal("expected auto_launch default true")
	}
	if m.Import.Source != "directory" {
		t.Fatalf("expected import source default, got %q", m.Import.Source)
	}
	if m.Cartridge.TotalPlaytime != 0 || m.Cartridge.PlayCount != 0 {
		t.Fatal("expected zero statistics for a fresh cartridge")
	}
	if m.Runtime.LaunchArgs == nil || m.Runtime.SavePaths == nil || m.Runtime.EnvVars == nil {
		t.Fatal("expected collections to be non-nil after parse")
	}
	if m.Runtime.WineVersion != "" {
		t.Fatalf("expected no runtime pin, got %q", m.Runtime.WineVersion)
	}
	if got := m.RuntimeVersion("GE-Proton8-14"); got != "GE-Proton8-14" {
		t.Fatalf("expected fallback version, got %q", got)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	path := writeDescriptor(t, sampleDescriptor)
	original, err := metadata.Parse(path)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	original.Runtime.EnvVars["DXVK_HUD"] = "fps"
	original.Cartridge.Notes = "second playthrough"

	data, err := metadata.Serialize(original)
	if err != nil {
		t.Fatalf("Serialize returned error: %v", err)
	}
	reparsed, err := metadata.ParseBytes(data)
	if err != nil {
		t.Fatalf("ParseBytes returned error: %v", err)
	}
	if !reflect.DeepEqual(original, reparsed) {
		t.Fatalf("round trip mismatch:\noriginal: %+v\nreparsed: %+v", original, reparsed)
	}
}

func TestValidateRejectsTraversal(t *testing.T) {
	path := writeDescriptor(t, `
[game]
name = "Evil"
id = "evil"
executable = "../../etc/passwd"

[cartridge]
uuid = "5f0a7c2e-1d3b-4a8c-9e21-006f5ad00042"
`)

	_, err := metadata.Parse(path)
	if err == nil {
		t.Fatal("expected traversal rejection")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "executable") {
		t.Fatalf("expected error to name the executable, got %v", err)
	}
}

func TestValidateRejectsAbsoluteSavePath(t *testing.T) {
	path := writeDescriptor(t, `
[game]
name = "Game"
id = "game"
executable = "game/app.exe"

[runtime]
save_paths = ["/etc"]

[cartridge]
uuid = "5f0a7c2e-1d3b-4a8c-9e21-006f5ad00042"
`)

	_, err := metadata.Parse(path)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateRequiresUUID(t *testing.T) {
	cases := []struct {
		name string
		uuid string
	}{
		{"missing", ""},
		{"malformed", "not-a-uuid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := `
[game]
name = "Game"
id = "game"
executable = "game/app.exe"
`
			if tc.uuid != "" {
				doc += "\n[cartridge]\nuuid = \"" + tc.uuid + "\"\n"
			}
			path := writeDescriptor(t, doc)
			_, err := metadata.Parse(path)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestParseRejectsMalformedTOML(t *testing.T) {
	path := writeDescriptor(t, "[game\nname = broken")
	_, err := metadata.Parse(path)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseRejectsOversizeDescriptor(t *testing.T) {
	path := writeDescriptor(t, strings.Repeat("# padding\n", 1<<18))
	_, err := metadata.Parse(path)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWriteFileReplacesAtomically(t *testing.T) {
	path := writeDescriptor(t, sampleDescriptor)
	m, err := metadata.Parse(path)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	m.Cartridge.Notes = "updated"
	if err := metadata.WriteFile(path, m); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the descriptor in .gamecard, found %d entries", len(entries))
	}

	reparsed, err := metadata.Parse(path)
	if err != nil {
		t.Fatalf("Parse after write returned error: %v", err)
	}
	if reparsed.Cartridge.Notes != "updated" {
		t.Fatalf("unexpected notes: %q", reparsed.Cartridge.Notes)
	}
}

func TestRewrite(t *testing.T) {
	path := writeDescriptor(t, sampleDescriptor)

	err := metadata.Rewrite(path, func(m *metadata.Metadata) error {
		m.ApplySession(90*time.Second, time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))
		return nil
	})
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}

	m, err := metadata.Parse(path)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if m.Cartridge.TotalPlaytime != 3690 {
		t.Fatalf("expected playtime 3690, got %d", m.Cartridge.TotalPlaytime)
	}
	if m.Cartridge.PlayCount != 5 {
		t.Fatalf("expected play count 5, got %d", m.Cartridge.PlayCount)
	}
	if m.Cartridge.LastPlayed != "2026-02-01T12:00:00Z" {
		t.Fatalf("unexpected last played: %q", m.Cartridge.LastPlayed)
	}
}

func TestApplySessionClampsNegative(t *testing.T) {
	m := &metadata.Metadata{}
	m.ApplySession(-5*time.Second, time.Now())
	if m.Cartridge.TotalPlaytime != 0 {
		t.Fatalf("expected clamp to zero, got %d", m.Cartridge.TotalPlaytime)
	}
	if m.Cartridge.PlayCount != 1 {
		t.Fatalf("expected play count 1, got %d", m.Cartridge.PlayCount)
	}
}

func TestPathHelpers(t *testing.T) {
	mount := "/run/media/CART"
	if got := metadata.DescriptorPath(mount); got != filepath.Join(mount, ".gamecard", "metadata.toml") {
		t.Fatalf("unexpected descriptor path: %q", got)
	}

	m := &metadata.Metadata{}
	m.Game.Executable = "game/app.exe"
	if got := m.ExecutablePath(mount); got != filepath.Join(mount, "game", "app.exe") {
		t.Fatalf("unexpected executable path: %q", got)
	}
	if got := m.WorkingDirPath(mount); got != mount {
		t.Fatalf("expected mount root for empty working dir, got %q", got)
	}
	m.Runtime.WorkingDirectory = "game"
	if got := m.WorkingDirPath(mount); got != filepath.Join(mount, "game") {
		t.Fatalf("unexpected working dir: %q", got)
	}
}

func TestDisplayName(t *testing.T) {
	m := &metadata.Metadata{}
	m.Game.ID = "hollow-knight"
	if m.DisplayName() != "hollow-knight" {
		t.Fatalf("expected slug fallback, got %q", m.DisplayName())
	}
	m.Game.Name = "Hollow Knight"
	if m.DisplayName() != "Hollow Knight" {
		t.Fatalf("expected name, got %q", m.DisplayName())
	}
}
