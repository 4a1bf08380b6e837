// Package preflight provides readiness checks for the directories,
// runtimes, and external binaries Physica depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs failures as warnings.
//     A check never blocks startup; it only degrades the feature it covers.
//   - The CLI "physica status" command uses individual check functions
//     (CheckRuntimes, CheckTools, ProbeCartridges) to display host state,
//     including when the daemon is down.
package preflight
