// Package hotplug watches udev netlink events so adapters can discover
// hardware appearing or disappearing while pairing is active.
package hotplug

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"hublink/internal/logging"
)

// Event is one hardware add or remove observation.
type Event struct {
	Action    string
	Subsystem string
	DevPath   string
	Env       map[string]string
}

// Handler receives matched events. Called from the monitor goroutine.
type Handler func(ctx context.Context, ev Event)

// Monitor listens for udev netlink events filtered to one subsystem.
// Adapters typically start one during StartPairing and stop it on
// CancelPairing.
type Monitor struct {
	subsystem string
	logger    *slog.Logger
	handler   Handler

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// New creates a monitor for the given subsystem ("usb", "block", ...).
// Returns nil when subsystem or handler is missing, so callers can hold a
// nil monitor safely.
func New(subsystem string, handler Handler, logger *slog.Logger) *Monitor {
	if subsystem == "" || handler == nil {
		return nil
	}
	return &Monitor{
		subsystem: subsystem,
		logger:    logging.NewComponentLogger(logger, "hotplug"),
		handler:   handler,
	}
}

// Start begins listening for udev netlink events. Failure to open the
// netlink socket is non-fatal: discovery falls back to whatever the adapter
// can poll.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; hotplug discovery unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the plugin has permission to access netlink sockets"))
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.loop(ctx, quit)

	m.logger.Debug("hotplug monitor started", logging.String("subsystem", m.subsystem))
	return nil
}

// Stop shuts down the monitor. Idempotent.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
	m.logger.Debug("hotplug monitor stopped")
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, m.matcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			env := make(map[string]string, len(uevent.Env))
			for k, v := range uevent.Env {
				env[k] = v
			}
			m.handler(ctx, Event{
				Action:    string(uevent.Action),
				Subsystem: env["SUBSYSTEM"],
				DevPath:   uevent.KObj,
				Env:       env,
			})
		case err := <-errs:
			m.logger.Warn("hotplug monitor error", logging.Error(err))
		}
	}
}

// matcher filters to add/remove events on the configured subsystem.
func (m *Monitor) matcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": m.subsystem,
		},
	})
	return rules
}
