package proxy

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"hublink/internal/entity"
	"hublink/internal/logging"
	"hublink/internal/message"
)

// unloadGrace is how long the transport stays open after a plugin unload
// response so the frame can flush before the socket closes.
const unloadGrace = 500 * time.Millisecond

// Link is the outbound half of the session the Manager is bound to. The
// registration handshake implements it.
type Link interface {
	PluginID() string
	SendNotification(t message.Type, data map[string]any) error
	// Unload tears the transport down. Called by the plugin unload
	// sequence, directly in in-process mode or via the grace timer.
	Unload()
}

// Session carries the detail negotiated during registration.
type Session struct {
	GatewayVersion string
	UserProfile    map[string]any
	Preferences    map[string]any
}

// Options tunes Manager behavior.
type Options struct {
	// InProcess marks a shared-memory test deployment: the plugin unload
	// sequence runs the local unload hook synchronously instead of
	// scheduling a delayed transport close.
	InProcess bool
	Verbose   bool
}

// Manager owns the entity registries for one plugin session and routes every
// inbound message. One instance is created per registration; registries are
// never shared globally.
type Manager struct {
	link    Link
	session Session
	logger  *slog.Logger
	opts    Options

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	adapters    map[string]entity.Adapter
	notifiers   map[string]entity.Notifier
	apiHandlers map[string]entity.APIHandler
	unloadHook  func()
	closeTimer  *time.Timer

	wg sync.WaitGroup
}

// NewManager binds a Manager to a registered session.
func NewManager(link Link, session Session, logger *slog.Logger, opts Options) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		link:        link,
		session:     session,
		logger:      logging.NewComponentLogger(logger, "manager"),
		opts:        opts,
		ctx:         ctx,
		cancel:      cancel,
		adapters:    map[string]entity.Adapter{},
		notifiers:   map[string]entity.Notifier{},
		apiHandlers: map[string]entity.APIHandler{},
	}
}

// GatewayVersion returns the hub version negotiated at registration.
func (m *Manager) GatewayVersion() string { return m.session.GatewayVersion }

// UserProfile returns the hub user profile delivered at registration.
func (m *Manager) UserProfile() map[string]any { return m.session.UserProfile }

// Preferences returns the hub preferences delivered at registration.
func (m *Manager) Preferences() map[string]any { return m.session.Preferences }

// AddAdapter registers an adapter, wires its notification path, and
// announces it to the hub.
func (m *Manager) AddAdapter(a entity.Adapter) {
	m.mu.Lock()
	m.adapters[a.ID()] = a
	m.mu.Unlock()

	a.SetSink(m)
	m.send(message.AdapterAddedNotification, map[string]any{
		"adapterId":   a.ID(),
		"name":        a.Name(),
		"packageName": a.PackageName(),
	})
	m.logger.Info("adapter added", logging.String(logging.FieldAdapterID, a.ID()))
}

// AddNotifier registers a notifier and announces it to the hub.
func (m *Manager) AddNotifier(n entity.Notifier) {
	m.mu.Lock()
	m.notifiers[n.ID()] = n
	m.mu.Unlock()

	n.SetSink(m)
	m.send(message.NotifierAddedNotification, map[string]any{
		"notifierId":  n.ID(),
		"name":        n.Name(),
		"packageName": n.PackageName(),
	})
	m.logger.Info("notifier added", logging.String(logging.FieldNotifierID, n.ID()))
}

// AddAPIHandler registers an API handler keyed by its package name and
// announces it to the hub.
func (m *Manager) AddAPIHandler(h entity.APIHandler) {
	m.mu.Lock()
	m.apiHandlers[h.PackageName()] = h
	m.mu.Unlock()

	m.send(message.APIHandlerAddedNotification, map[string]any{
		"packageName": h.PackageName(),
	})
	m.logger.Info("api handler added", logging.String(logging.FieldPackageName, h.PackageName()))
}

// Adapter resolves a registered adapter, nil when absent.
func (m *Manager) Adapter(adapterID string) entity.Adapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adapters[adapterID]
}

// Notifier resolves a registered notifier, nil when absent.
func (m *Manager) Notifier(notifierID string) entity.Notifier {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifiers[notifierID]
}

// APIHandler resolves a registered API handler, nil when absent.
func (m *Manager) APIHandler(packageName string) entity.APIHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apiHandlers[packageName]
}

// SetUnloadHook registers the local hook run by the plugin unload sequence
// in in-process mode.
func (m *Manager) SetUnloadHook(hook func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unloadHook = hook
}

// Close cancels in-flight entity work and any pending delayed transport
// close. Safe to call more than once.
func (m *Manager) Close() {
	m.cancel()
	m.mu.Lock()
	timer := m.closeTimer
	m.closeTimer = nil
	m.mu.Unlock()
	if timer != nil {
		timer.Stop()
	}
}

// Wait blocks until all in-flight entity operations have finished. Used by
// tests and orderly shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// send forwards a notification through the handshake, which injects the
// plugin identity.
func (m *Manager) send(t message.Type, data map[string]any) {
	if err := m.link.SendNotification(t, data); err != nil {
		m.logger.Warn("notification not delivered",
			logging.String(logging.FieldMessageType, t.String()),
			logging.Error(err))
	}
}

// async runs an entity operation on its own goroutine. Completions, and the
// replies they trigger, may therefore land out of order relative to other
// operations; every reply echoes its request's identifying fields.
func (m *Manager) async(fn func(ctx context.Context)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn(m.ctx)
	}()
}
