package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"hublink/internal/config"
	"hublink/internal/logging"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		if c.verboseFlag != nil && *c.verboseFlag {
			cfg.Verbose = true
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// newLogger builds a logger from the resolved config. Interactive terminals
// default to the console handler, everything else to JSON.
func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	format := cfg.LogFormat
	if format == "" && !logging.IsTerminal(os.Stderr) {
		format = "json"
	}
	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: format,
		Output: os.Stderr,
	})
}
