package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hublink/internal/logging"
	"hublink/internal/message"
	"hublink/internal/schema"
	"hublink/internal/transport"
)

const mockGatewayVersion = "1.1.0"

func newMockHubCommand(ctx *commandContext) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "mockhub",
		Short: "Run a mock hub endpoint for exercising plugins",
		Long: "Listens on the loopback IPC port, answers registration requests, and " +
			"logs every message a connected plugin sends. Intended for plugin " +
			"development without a running gateway.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}
			if port == 0 {
				port = cfg.GatewayPort
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hub := &mockHub{logger: logging.NewComponentLogger(logger, "mockhub")}
			tr, err := transport.New(transport.RoleServer, port, schema.NewDirStore(cfg.SchemaDir),
				hub.handle, "mockhub", logger, transport.Options{Verbose: cfg.Verbose})
			if err != nil {
				return fmt.Errorf("start mock hub: %w", err)
			}
			defer tr.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "mock hub listening on 127.0.0.1:%d\n", tr.Port())

			<-runCtx.Done()
			hub.unloadAll()
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Loopback port to listen on (defaults to gateway_port)")

	return cmd
}

// mockHub tracks registered plugins so shutdown can ask them to unload.
type mockHub struct {
	logger *slog.Logger

	mu      sync.Mutex
	plugins map[string]*transport.Conn
}

func (h *mockHub) handle(msg message.Message, conn *transport.Conn) {
	if msg.Type == message.PluginRegisterRequest {
		h.register(msg, conn)
		return
	}
	h.logger.Info("received",
		logging.String(logging.FieldMessageType, msg.Type.String()),
		logging.Any("data", msg.Data))
}

func (h *mockHub) register(msg message.Message, conn *transport.Conn) {
	pluginID, _ := msg.Data["pluginId"].(string)

	h.mu.Lock()
	if h.plugins == nil {
		h.plugins = make(map[string]*transport.Conn)
	}
	h.plugins[pluginID] = conn
	h.mu.Unlock()

	h.logger.Info("plugin registered", logging.String(logging.FieldPluginID, pluginID))
	_ = conn.Send(message.New(message.PluginRegisterResponse, map[string]any{
		"pluginId":       pluginID,
		"gatewayVersion": mockGatewayVersion,
		"userProfile": map[string]any{
			"baseDir":    "/tmp/mockhub",
			"dataDir":    "/tmp/mockhub/data",
			"mediaDir":   "/tmp/mockhub/media",
			"logDir":     "/tmp/mockhub/log",
			"gatewayDir": "/tmp/mockhub/gateway",
		},
		"preferences": map[string]any{
			"language": "en-US",
			"units":    map[string]any{"temperature": "degree celsius"},
		},
	}))
}

// unloadAll sends an unload request to every registered plugin and gives
// them a moment to answer before the listener goes away.
func (h *mockHub) unloadAll() {
	h.mu.Lock()
	plugins := make(map[string]*transport.Conn, len(h.plugins))
	for id, conn := range h.plugins {
		plugins[id] = conn
	}
	h.mu.Unlock()

	for id, conn := range plugins {
		h.logger.Debug("requesting unload", logging.String(logging.FieldPluginID, id))
		_ = conn.Send(message.New(message.PluginUnloadRequest, map[string]any{
			"pluginId": id,
		}))
	}
	if len(plugins) > 0 {
		time.Sleep(time.Second)
	}
}
