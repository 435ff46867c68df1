package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"hublink/internal/config"
	"hublink/internal/configdb"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand())
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigSetCommand(ctx))

	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <package-name>",
		Short: "Print the stored settings blob for an add-on package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := configdb.Open(cfg.SettingsDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			blob, err := store.LoadConfig(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			raw, err := json.MarshalIndent(blob, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		},
	}
}

func newConfigSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <package-name> <json>",
		Short: "Replace the stored settings blob for an add-on package",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			blob := map[string]any{}
			if err := json.Unmarshal([]byte(args[1]), &blob); err != nil {
				return fmt.Errorf("parse settings JSON: %w", err)
			}
			store, err := configdb.Open(cfg.SettingsDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SaveConfig(cmd.Context(), args[0], blob); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved settings for %s\n", args[0])
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = config.DefaultConfigPath()
			}
			target, err := config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if _, err := os.Stat(target); err == nil {
				if !overwrite {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				}
				if err := os.Remove(target); err != nil {
					return fmt.Errorf("remove existing config: %w", err)
				}
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("check config path: %w", err)
			}

			if err := config.WriteSample(target); err != nil {
				return fmt.Errorf("write sample config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Target path for the sample config")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing config file")

	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:         "validate",
		Short:       "Validate a configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(strings.TrimSpace(configPath))
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "path", "p", "", "Configuration file to validate (defaults to the standard location)")

	return cmd
}
