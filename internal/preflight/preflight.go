package preflight

import (
	"physica/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem and runtime checks for the given config.
// All checks are local; none of them touch the network.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Prefix root", cfg.PrefixRoot()),
	}
	for _, base := range cfg.Monitor.MountBases {
		results = append(results, CheckMountBase(base))
	}
	results = append(results, CheckRuntimes(cfg))
	return results
}
