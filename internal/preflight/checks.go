package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"physica/internal/config"
	"physica/internal/launch"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckMountBase verifies a mount base can be scanned. Write access is not
// required: the automounter owns these directories.
func CheckMountBase(path string) Result {
	const name = "Mount base"
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (scan ok)", path)}
}

// CheckRuntimes verifies the configured default compatibility runtime is
// installed. Cartridges pinning another version resolve at launch time; the
// default is the one worth flagging early because every descriptor without a
// wine_version lands on it.
func CheckRuntimes(cfg *config.Config) Result {
	const name = "Default runtime"
	version := strings.TrimSpace(cfg.Runtime.DefaultVersion)
	resolver := launch.NewResolver(cfg.Runtime.SearchPaths)
	if dir, err := resolver.Resolve(version); err == nil {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", version, dir)}
	}
	available := resolver.Available()
	if len(available) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("no runtimes installed under %s",
			strings.Join(cfg.Runtime.SearchPaths, ", "))}
	}
	return Result{Name: name, Detail: fmt.Sprintf("%s not installed (available: %s)",
		version, strings.Join(available, ", "))}
}

// ToolStatus reports the availability of one external binary.
type ToolStatus struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckTools reports availability for the binaries Physica shells out to.
// Both the daemon and the CLI status command use this list, so the
// requirements live in one place.
func CheckTools(cfg *config.Config) []ToolStatus {
	tools := []ToolStatus{
		{
			Name:        "lsblk",
			Command:     cfg.LsblkBinary(),
			Description: "Resolves mounted block devices during cartridge scans",
		},
		{
			Name:        "udisksctl",
			Command:     cfg.UdisksctlBinary(),
			Description: "Unmounts and powers off cartridges on eject",
			Optional:    true,
		},
	}
	for i := range tools {
		command := strings.TrimSpace(tools[i].Command)
		if command == "" {
			tools[i].Detail = "command not configured"
			continue
		}
		if _, err := exec.LookPath(command); err != nil {
			tools[i].Detail = fmt.Sprintf("binary %q not found", command)
			continue
		}
		tools[i].Available = true
	}
	return tools
}
