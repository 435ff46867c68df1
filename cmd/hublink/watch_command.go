package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hublink/internal/hotplug"
	"hublink/internal/logging"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var subsystem string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Log hardware hotplug events for a udev subsystem",
		Long: "Subscribes to udev netlink events and prints add/remove observations. " +
			"Useful when deciding what an adapter's pairing discovery should match on.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			monitor := hotplug.New(subsystem, func(_ context.Context, ev hotplug.Event) {
				logger.Info("hotplug event",
					logging.String("action", ev.Action),
					logging.String("subsystem", ev.Subsystem),
					logging.String("devpath", ev.DevPath))
			}, logger)
			if monitor == nil {
				return fmt.Errorf("subsystem is required")
			}
			if err := monitor.Start(runCtx); err != nil {
				return err
			}
			defer monitor.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s events, Ctrl-C to stop\n", subsystem)
			<-runCtx.Done()
			return nil
		},
	}

	cmd.Flags().StringVarP(&subsystem, "subsystem", "s", "usb", "udev subsystem to watch")

	return cmd
}
