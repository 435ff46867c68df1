package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"hublink/internal/future"
	"hublink/internal/logging"
	"hublink/internal/message"
	"hublink/internal/proxy"
	"hublink/internal/schema"
	"hublink/internal/transport"
)

// State tracks registration progress.
type State int

const (
	StateUnregistered State = iota
	StateAwaitingResponse
	StateRegistered
)

func (s State) String() string {
	switch s {
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateRegistered:
		return "registered"
	default:
		return "unregistered"
	}
}

// ErrRegistrationPending rejects a Register call made while an earlier one
// is still awaiting the hub's response.
var ErrRegistrationPending = errors.New("plugin registration already in flight")

// Options tunes plugin behavior.
type Options struct {
	// Verbose enables frame-level transport logging.
	Verbose bool
	// InProcess marks a shared-memory test deployment; the unload sequence
	// runs synchronously instead of using the grace timer.
	InProcess bool
	// DialTimeout bounds the connect attempt to the hub.
	DialTimeout time.Duration
}

// Plugin is the registration handshake for one add-on process.
type Plugin struct {
	id     string
	store  schema.Store
	logger *slog.Logger
	opts   Options

	mu         sync.Mutex
	state      State
	pending    *future.Deferred[*proxy.Manager]
	tr         *transport.Transport
	manager    *proxy.Manager
	lock       *flock.Flock
	onUnloaded func()

	unloadOnce sync.Once
}

// New creates an unregistered plugin bound to a schema store.
func New(id string, store schema.Store, logger *slog.Logger, opts Options) *Plugin {
	return &Plugin{
		id:     id,
		store:  store,
		logger: logging.NewComponentLogger(logger, "plugin").With(logging.String(logging.FieldPluginID, id)),
		opts:   opts,
	}
}

// ID returns the plugin identity sent in the register request.
func (p *Plugin) ID() string { return p.id }

// State returns the current registration state.
func (p *Plugin) CurrentState() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// LockInstance takes a flock on path so a duplicate plugin process fails
// fast instead of fighting over the session. Released on Unload.
func (p *Plugin) LockInstance(path string) error {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire plugin lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another instance of plugin %s is already running", p.id)
	}
	p.mu.Lock()
	p.lock = lock
	p.mu.Unlock()
	return nil
}

// OnUnloaded registers a callback fired once when the plugin unloads.
func (p *Plugin) OnUnloaded(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUnloaded = fn
}

// Register connects to the hub's IPC port, sends the register request, and
// blocks until the register response materializes the session's Manager.
// The protocol has no handshake timeout; cancel the context to abandon the
// wait. A Register call while another is pending returns
// ErrRegistrationPending without creating a second in-flight future.
func (p *Plugin) Register(ctx context.Context, port int) (*proxy.Manager, error) {
	p.mu.Lock()
	if p.state == StateAwaitingResponse {
		p.mu.Unlock()
		p.logger.Error("register called while a registration is pending")
		return nil, ErrRegistrationPending
	}
	pending := future.New[*proxy.Manager]()
	p.pending = pending
	p.state = StateAwaitingResponse
	p.mu.Unlock()

	p.logger.Debug("registering with hub",
		logging.Int("port", port),
		logging.Int64("future_id", pending.ID()))

	tr, err := transport.New(transport.RoleClient, port, p.store, p.handleMessage, "transport", p.logger, transport.Options{
		Verbose:     p.opts.Verbose,
		DialTimeout: p.opts.DialTimeout,
	})
	if err != nil {
		p.resetToUnregistered()
		return nil, fmt.Errorf("create transport: %w", err)
	}
	p.mu.Lock()
	p.tr = tr
	p.mu.Unlock()

	go func() {
		connect := tr.ConnectFuture()
		<-connect.Done()
		if _, err := connect.Result(); err != nil {
			pending.Reject(fmt.Errorf("connect to hub: %w", err))
			return
		}
		reg, err := message.FromPayload(message.PluginRegisterRequest, message.RegisterRequest{
			PluginID: p.id,
		})
		if err != nil {
			pending.Reject(err)
			return
		}
		_ = tr.Send(reg)
	}()

	select {
	case <-ctx.Done():
		p.logger.Warn("registration abandoned", logging.Error(ctx.Err()))
		tr.Close()
		p.resetToUnregistered()
		return nil, ctx.Err()
	case <-pending.Done():
		mgr, err := pending.Result()
		if err != nil {
			tr.Close()
			p.resetToUnregistered()
			return nil, err
		}
		return mgr, nil
	}
}

// SendNotification injects the plugin identity and writes one message
// through the transport.
func (p *Plugin) SendNotification(t message.Type, data map[string]any) error {
	p.mu.Lock()
	tr := p.tr
	p.mu.Unlock()
	if tr == nil {
		return errors.New("plugin transport not connected")
	}
	if data == nil {
		data = map[string]any{}
	}
	data["pluginId"] = p.id
	return tr.Send(message.New(t, data))
}

// PluginID implements proxy.Link.
func (p *Plugin) PluginID() string { return p.id }

// Unload closes the transport, releases the instance lock, and fires the
// unloaded callback. Idempotent.
func (p *Plugin) Unload() {
	p.unloadOnce.Do(func() {
		p.mu.Lock()
		tr := p.tr
		lock := p.lock
		fn := p.onUnloaded
		p.tr = nil
		p.lock = nil
		p.state = StateUnregistered
		p.mu.Unlock()

		if tr != nil {
			tr.Close()
		}
		if lock != nil {
			if err := lock.Unlock(); err != nil {
				p.logger.Warn("failed to release plugin lock", logging.Error(err))
			}
		}
		p.logger.Info("plugin unloaded")
		if fn != nil {
			fn()
		}
	})
}

func (p *Plugin) resetToUnregistered() {
	p.mu.Lock()
	p.state = StateUnregistered
	p.pending = nil
	p.mu.Unlock()
}

// handleMessage is the transport dispatch callback. The register response
// completes the handshake; everything else forwards verbatim to the Manager
// once registered.
func (p *Plugin) handleMessage(msg message.Message, _ *transport.Conn) {
	if msg.Type == message.PluginRegisterResponse {
		p.handleRegisterResponse(msg)
		return
	}

	p.mu.Lock()
	state := p.state
	mgr := p.manager
	p.mu.Unlock()

	if state != StateRegistered || mgr == nil {
		p.logger.Warn("message before registration completed, dropping",
			logging.String(logging.FieldMessageType, msg.Type.String()),
			logging.String("state", state.String()))
		return
	}
	mgr.Handle(msg)
}

func (p *Plugin) handleRegisterResponse(msg message.Message) {
	p.mu.Lock()
	if p.state != StateAwaitingResponse || p.pending == nil {
		p.mu.Unlock()
		p.logger.Warn("unexpected register response, dropping")
		return
	}
	pending := p.pending
	p.mu.Unlock()

	var resp message.RegisterResponse
	if err := msg.DecodeData(&resp); err != nil {
		pending.Reject(fmt.Errorf("bad register response: %w", err))
		return
	}

	mgr := proxy.NewManager(p, proxy.Session{
		GatewayVersion: resp.GatewayVersion,
		UserProfile:    resp.UserProfile,
		Preferences:    resp.Preferences,
	}, p.logger, proxy.Options{
		InProcess: p.opts.InProcess,
		Verbose:   p.opts.Verbose,
	})

	p.mu.Lock()
	p.manager = mgr
	p.state = StateRegistered
	p.pending = nil
	p.mu.Unlock()

	p.logger.Info("registered with hub",
		logging.String("gateway_version", resp.GatewayVersion))
	pending.Resolve(mgr)
}
