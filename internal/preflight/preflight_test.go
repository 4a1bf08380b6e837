package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"physica/internal/metadata"
	"physica/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckMountBase_OK(t *testing.T) {
	result := CheckMountBase(t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckMountBase_Missing(t *testing.T) {
	result := CheckMountBase(filepath.Join(t.TempDir(), "media"))
	if result.Passed {
		t.Fatal("expected failure for missing mount base")
	}
}

func TestCheckRuntimes_Installed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.InstallRuntime(t, cfg, cfg.Runtime.DefaultVersion)

	result := CheckRuntimes(cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, cfg.Runtime.DefaultVersion) {
		t.Fatalf("detail %q does not name the version", result.Detail)
	}
}

func TestCheckRuntimes_MissingDefault(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.InstallRuntime(t, cfg, "GE-Proton9-1")

	result := CheckRuntimes(cfg)
	if result.Passed {
		t.Fatal("expected failure when the default version is not installed")
	}
	if !strings.Contains(result.Detail, "GE-Proton9-1") {
		t.Fatalf("detail %q does not list the installed version", result.Detail)
	}
}

func TestCheckRuntimes_NoneInstalled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckRuntimes(cfg)
	if result.Passed {
		t.Fatal("expected failure with no runtimes installed")
	}
	if !strings.Contains(result.Detail, "no runtimes installed") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ReadyConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	testsupport.InstallRuntime(t, cfg, cfg.Runtime.DefaultVersion)

	results := RunAll(cfg)
	// data + log + prefix root + one mount base + runtime
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestCheckTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	statuses := CheckTools(cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 tool statuses, got %d", len(statuses))
	}
	for _, status := range statuses {
		if !status.Available {
			t.Errorf("tool %q unavailable: %s", status.Name, status.Detail)
		}
	}
}

func TestCheckTools_MissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	t.Setenv("PATH", t.TempDir())

	statuses := CheckTools(cfg)
	for _, status := range statuses {
		if status.Available {
			t.Errorf("tool %q reported available on an empty PATH", status.Name)
		}
		if status.Detail == "" {
			t.Errorf("tool %q has no detail", status.Name)
		}
	}
}

func TestCheckNotificationsFromConfig(t *testing.T) {
	disabled := testsupport.NewConfig(t)
	result := CheckNotificationsFromConfig(disabled)
	if !result.Passed || result.Detail != "Disabled" {
		t.Fatalf("disabled config = %+v", result)
	}

	enabled := testsupport.NewConfig(t, testsupport.WithNtfyTopic("physica-test"))
	result = CheckNotificationsFromConfig(enabled)
	if !result.Passed || !strings.Contains(result.Detail, "physica-test") {
		t.Fatalf("enabled config = %+v", result)
	}
}

func TestProbeCartridges(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.MountBase(cfg)

	testsupport.WriteCartridge(t, filepath.Join(base, "CART-A"),
		testsupport.WithGame("Hollow Knight", "hollow-knight"))
	// A mount without a descriptor is not a cartridge.
	if err := os.MkdirAll(filepath.Join(base, "USB-STICK", "photos"), 0o755); err != nil {
		t.Fatal(err)
	}
	// A descriptor that does not parse counts as invalid.
	testsupport.WriteTextFile(t,
		metadata.DescriptorPath(filepath.Join(base, "CART-B")), "not toml [")

	probe := ProbeCartridges(cfg)
	if len(probe.Names) != 1 || probe.Names[0] != "Hollow Knight" {
		t.Fatalf("probe names = %v", probe.Names)
	}
	if probe.Invalid != 1 {
		t.Fatalf("probe invalid = %d, want 1", probe.Invalid)
	}
	if !strings.Contains(probe.Detail(), "Hollow Knight") {
		t.Fatalf("probe detail = %q", probe.Detail())
	}
}
