package launch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"physica/internal/services"
)

// Resolver locates installed compatibility runtimes by exact version name.
type Resolver struct {
	searchPaths []string

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver creates a Resolver over the given search paths. Paths are
// scanned in order, so an earlier path shadows a same-named install in a
// later one.
func NewResolver(searchPaths []string) *Resolver {
	return &Resolver{
		searchPaths: searchPaths,
		cache:       make(map[string]string),
	}
}

// Resolve returns the runtime directory whose name equals version. There is
// no substitution of another installed version: a prefix created by one
// runtime is not safely readable by another, so a missing version is an
// error, never a fallback.
func (r *Resolver) Resolve(version string) (string, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return "", services.Wrap(services.ErrRuntimeNotFound, "launch", "resolve", "no runtime version requested", nil)
	}

	r.mu.Lock()
	cached, ok := r.cache[version]
	r.mu.Unlock()
	if ok {
		if hasEntryScript(cached) {
			return cached, nil
		}
		// The install was removed since we last saw it.
		r.mu.Lock()
		delete(r.cache, version)
		r.mu.Unlock()
	}

	for _, base := range r.searchPaths {
		dir := filepath.Join(base, version)
		if hasEntryScript(dir) {
			r.mu.Lock()
			r.cache[version] = dir
			r.mu.Unlock()
			return dir, nil
		}
	}
	return "", services.Wrap(services.ErrRuntimeNotFound, "launch", "resolve",
		fmt.Sprintf("runtime %q not installed in any search path", version), nil)
}

// Available returns the sorted version names installed across all search
// paths. Directories without a runtime entry script are skipped.
func (r *Resolver) Available() []string {
	seen := make(map[string]struct{})
	versions := make([]string, 0, 8)
	for _, base := range r.searchPaths {
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if _, dup := seen[name]; dup {
				continue
			}
			if hasEntryScript(filepath.Join(base, name)) {
				seen[name] = struct{}{}
				versions = append(versions, name)
			}
		}
	}
	sort.Strings(versions)
	return versions
}

// EntryScript returns the path of the runtime's proton entry script.
func EntryScript(runtimeDir string) string {
	return filepath.Join(runtimeDir, entryScriptName)
}

func hasEntryScript(runtimeDir string) bool {
	info, err := os.Stat(EntryScript(runtimeDir))
	return err == nil && info.Mode().IsRegular()
}
