package testsupport

import (
	"context"
	"testing"

	"physica/internal/config"
	"physica/internal/metadata"
	"physica/internal/registry"
)

// MustOpenRegistry opens a registry.Store for tests and registers cleanup.
func MustOpenRegistry(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()

	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedEntry registers a cartridge descriptor with the store as if it had just
// been detected at mountPoint.
func SeedEntry(t testing.TB, store *registry.Store, m *metadata.Metadata, mountPoint string) *registry.Entry {
	t.Helper()

	entry, err := store.GetOrCreate(context.Background(), m, mountPoint)
	if err != nil {
		t.Fatalf("store.GetOrCreate: %v", err)
	}
	return entry
}
