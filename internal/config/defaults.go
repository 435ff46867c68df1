package config

import "path/filepath"

const (
	defaultDataDir     = "~/.local/share/hublink"
	defaultSchemaDir   = "~/.local/share/hublink/schemas"
	defaultGatewayPort = 9500
	defaultLogLevel    = "info"
	defaultLogFormat   = "console"
	defaultConfigPath  = "~/.config/hublink/config.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		DataDir:     defaultDataDir,
		SchemaDir:   defaultSchemaDir,
		GatewayPort: defaultGatewayPort,
		LogLevel:    defaultLogLevel,
		LogFormat:   defaultLogFormat,
	}
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	return defaultConfigPath
}

// SettingsDBPath returns the SQLite settings database path under DataDir.
func (c *Config) SettingsDBPath() string {
	return filepath.Join(c.DataDir, "settings.db")
}

// LockPath returns the per-plugin instance lock file path under DataDir.
func (c *Config) LockPath(pluginID string) string {
	return filepath.Join(c.DataDir, pluginID+".lock")
}
