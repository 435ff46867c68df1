package testsupport

import (
	"testing"

	"hublink/internal/config"
	"hublink/internal/configdb"
)

// MustOpenStore opens a configdb.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *configdb.Store {
	t.Helper()

	store, err := configdb.Open(cfg.SettingsDBPath())
	if err != nil {
		t.Fatalf("configdb.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
