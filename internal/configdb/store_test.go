package configdb_test

import (
	"context"
	"errors"
	"testing"

	"hublink/internal/configdb"
	"hublink/internal/testsupport"
)

func TestSaveAndLoadConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	want := map[string]any{
		"pollInterval": float64(30),
		"devices":      []any{"lamp-1", "lamp-2"},
		"debug":        true,
	}
	if err := store.SaveConfig(context.Background(), "test-adapter", want); err != nil {
		t.Fatalf("SaveConfig returned error: %v", err)
	}

	got, err := store.LoadConfig(context.Background(), "test-adapter")
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if got["pollInterval"] != float64(30) || got["debug"] != true {
		t.Fatalf("unexpected config: %v", got)
	}
	devices, ok := got["devices"].([]any)
	if !ok || len(devices) != 2 || devices[0] != "lamp-1" {
		t.Fatalf("unexpected devices: %v", got["devices"])
	}
}

func TestSaveConfigReplacesPrevious(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := store.SaveConfig(ctx, "test-adapter", map[string]any{"v": float64(1)}); err != nil {
		t.Fatalf("first SaveConfig: %v", err)
	}
	if err := store.SaveConfig(ctx, "test-adapter", map[string]any{"v": float64(2)}); err != nil {
		t.Fatalf("second SaveConfig: %v", err)
	}

	got, err := store.LoadConfig(ctx, "test-adapter")
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if got["v"] != float64(2) {
		t.Fatalf("expected replacement, got %v", got)
	}
}

func TestLoadConfigMissingPackage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.LoadConfig(context.Background(), "never-saved"); !errors.Is(err, configdb.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveNilConfigStoresEmptyObject(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := store.SaveConfig(ctx, "test-adapter", nil); err != nil {
		t.Fatalf("SaveConfig returned error: %v", err)
	}
	got, err := store.LoadConfig(ctx, "test-adapter")
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty config, got %v", got)
	}
}
