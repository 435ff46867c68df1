package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	if c.GatewayPort <= 0 || c.GatewayPort > 65535 {
		return fmt.Errorf("gateway_port %d out of range", c.GatewayPort)
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("log_format %q unsupported (console or json)", c.LogFormat)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q unsupported", c.LogLevel)
	}
	return nil
}
