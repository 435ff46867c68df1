package testsupport

import (
	"path/filepath"
	"testing"

	"hublink/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.DataDir = filepath.Join(base, "data")
	cfgVal.SchemaDir = filepath.Join(base, "schemas")
	cfgVal.GatewayPort = 0
	cfgVal.LogLevel = "debug"
	cfgVal.LogFormat = "json"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	return builder.cfg
}

// WithGatewayPort sets the gateway port on the test config.
func WithGatewayPort(port int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.GatewayPort = port
	}
}

// WithSchemaDir overrides the schema directory on the test config.
func WithSchemaDir(dir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.SchemaDir = dir
	}
}
