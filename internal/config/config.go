package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Config centralizes runtime settings for the plugin process and CLI.
type Config struct {
	// DataDir holds the settings database and per-plugin lock files.
	DataDir string `toml:"data_dir"`
	// SchemaDir is the externally provided schema catalogue, one JSON
	// Schema document per message type.
	SchemaDir string `toml:"schema_dir"`
	// GatewayPort is the loopback port the hub's IPC endpoint listens on.
	GatewayPort int `toml:"gateway_port"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	Verbose   bool   `toml:"verbose"`
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist and path was not set explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultConfigPath()
	}

	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(expanded)
	switch {
	case err == nil:
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", expanded, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if explicit {
			return nil, fmt.Errorf("config file %s does not exist", expanded)
		}
	default:
		return nil, fmt.Errorf("read config %s: %w", expanded, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file %s already exists", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the directories the runtime writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure directory %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.DataDir, err = ExpandPath(c.DataDir); err != nil {
		return err
	}
	if c.SchemaDir, err = ExpandPath(c.SchemaDir); err != nil {
		return err
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	return nil
}

// ExpandPath resolves a leading tilde against the current user's home.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return trimmed, nil
}
