package transport

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"hublink/internal/future"
	"hublink/internal/logging"
	"hublink/internal/message"
	"hublink/internal/schema"
)

// Role selects which side of the socket a Transport plays.
type Role int

const (
	// RoleServer binds the loopback port and accepts one logical peer.
	RoleServer Role = iota
	// RoleClient dials a peer already listening on the port.
	RoleClient
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// Callback receives every successfully parsed inbound message together with
// a handle to the connection it arrived on. Invoked exactly once per frame,
// in arrival order, from the connection's read goroutine.
type Callback func(msg message.Message, conn *Conn)

// Options tunes transport behavior.
type Options struct {
	// Verbose enables frame-level logging of every send and receive.
	Verbose bool
	// DialTimeout bounds the overall client connect attempt. Zero picks a
	// short default suitable for a hub that is already listening.
	DialTimeout time.Duration
}

const (
	defaultDialTimeout = 5 * time.Second
	dialRetryInterval  = 100 * time.Millisecond
	maxFrameBytes      = 4 << 20
)

// Transport owns one duplex loopback socket, the schema catalogue, and the
// dispatch callback.
type Transport struct {
	role      Role
	port      int
	catalogue *schema.Catalogue
	callback  Callback
	logger    *slog.Logger
	verbose   bool

	connectFut *future.Deferred[*Conn]

	mu       sync.Mutex
	listener net.Listener
	conn     *Conn
	closed   bool
}

// New constructs a Transport, loads the schema catalogue from the store, and
// starts the role's socket work in the background. The catalogue load happens
// once, at construction; missing entries are tolerated and logged.
func New(role Role, port int, store schema.Store, callback Callback, component string, logger *slog.Logger, opts Options) (*Transport, error) {
	if callback == nil {
		return nil, errors.New("transport requires a message callback")
	}
	log := logging.NewComponentLogger(logger, component)

	catalogue, err := schema.NewCatalogue(store, log)
	if err != nil {
		return nil, fmt.Errorf("load schema catalogue: %w", err)
	}

	t := &Transport{
		role:       role,
		port:       port,
		catalogue:  catalogue,
		callback:   callback,
		logger:     log,
		verbose:    opts.Verbose,
		connectFut: future.New[*Conn](),
	}

	switch role {
	case RoleServer:
		listener, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			return nil, fmt.Errorf("listen on loopback port %d: %w", port, err)
		}
		t.listener = listener
		go t.acceptLoop(listener)
	case RoleClient:
		timeout := opts.DialTimeout
		if timeout <= 0 {
			timeout = defaultDialTimeout
		}
		go t.dial(timeout)
	default:
		return nil, fmt.Errorf("unknown transport role %d", role)
	}

	return t, nil
}

// Port reports the actual bound port. For a server constructed with port 0
// this is the kernel-assigned port.
func (t *Transport) Port() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		if addr, ok := t.listener.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return t.port
}

// ConnectFuture settles with the peer connection once it is established:
// after dial succeeds in client role, after the first accept in server role.
// It is rejected if the transport closes (or the dial gives up) first.
func (t *Transport) ConnectFuture() *future.Deferred[*Conn] {
	return t.connectFut
}

// Send writes one message to the peer. When the connection is not yet open
// the message is dropped with a log line rather than an error surfaced to
// protocol code; the host applies its own timeouts.
func (t *Transport) Send(msg message.Message) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		t.logger.Warn("connection not open, dropping outbound message",
			logging.String(logging.FieldMessageType, msg.Type.String()))
		return nil
	}
	if t.verbose {
		t.logger.Debug("send", logging.String(logging.FieldMessageType, msg.Type.String()))
	}
	if err := conn.Send(msg); err != nil {
		t.logger.Warn("send failed",
			logging.String(logging.FieldMessageType, msg.Type.String()),
			logging.Error(err))
		return err
	}
	return nil
}

// Close shuts the listener and the peer connection. Idempotent.
func (t *Transport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	listener := t.listener
	conn := t.conn
	t.listener = nil
	t.conn = nil
	t.mu.Unlock()

	if listener != nil {
		_ = listener.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
	t.connectFut.Reject(errors.New("transport closed"))
	t.logger.Debug("transport closed", logging.String("role", t.role.String()))
}

func (t *Transport) acceptLoop(listener net.Listener) {
	for {
		raw, err := listener.Accept()
		if err != nil {
			t.mu.Lock()
			closed := t.closed
			t.mu.Unlock()
			if !closed {
				t.logger.Warn("accept failed", logging.Error(err))
			}
			return
		}

		conn := newConn(raw)
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			_ = conn.Close()
			return
		}
		prev := t.conn
		t.conn = conn
		t.mu.Unlock()

		if prev != nil {
			// One logical peer: a reconnect supersedes the old session.
			t.logger.Warn("replacing existing peer connection",
				logging.String("peer", conn.RemoteAddr()))
			_ = prev.Close()
		}
		t.logger.Debug("peer connected", logging.String("peer", conn.RemoteAddr()))
		t.connectFut.Resolve(conn)
		go t.readLoop(conn)
	}
}

func (t *Transport) dial(timeout time.Duration) {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(t.port))
	deadline := time.Now().Add(timeout)

	var raw net.Conn
	var err error
	for {
		raw, err = net.DialTimeout("tcp", addr, timeout)
		if err == nil {
			break
		}
		t.mu.Lock()
		closed := t.closed
		t.mu.Unlock()
		if closed {
			return
		}
		if time.Now().After(deadline) {
			t.logger.Error("failed to connect to hub",
				logging.String("addr", addr),
				logging.Duration("timeout", timeout),
				logging.Error(err))
			t.connectFut.Reject(fmt.Errorf("connect to %s: %w", addr, err))
			return
		}
		time.Sleep(dialRetryInterval)
	}

	conn := newConn(raw)
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = conn.Close()
		return
	}
	t.conn = conn
	t.mu.Unlock()

	t.logger.Debug("connected to hub", logging.String("addr", addr))
	t.connectFut.Resolve(conn)
	t.readLoop(conn)
}

// readLoop parses frames and dispatches them in arrival order. A frame that
// fails JSON parsing is logged and dropped with the connection left open.
func (t *Transport) readLoop(conn *Conn) {
	raw := func() net.Conn {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return conn.raw
	}()
	if raw == nil {
		return
	}

	scanner := bufio.NewScanner(raw)
	scanner.Buffer(make([]byte, 64*1024), maxFrameBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		t.handleFrame(line, conn)
	}

	if err := scanner.Err(); err != nil {
		t.mu.Lock()
		closed := t.closed
		t.mu.Unlock()
		if !closed {
			t.logger.Warn("connection read error", logging.Error(err))
		}
	}

	t.mu.Lock()
	if t.conn == conn {
		t.conn = nil
	}
	t.mu.Unlock()
	_ = conn.Close()
	t.logger.Debug("peer disconnected")
}

func (t *Transport) handleFrame(line []byte, conn *Conn) {
	msg, err := message.Parse(line)
	switch {
	case err == nil:
	case errors.Is(err, message.ErrMissingType):
		t.logger.Warn("frame has no messageType, dispatching anyway")
	default:
		t.logger.Warn("dropping malformed frame", logging.Error(err))
		return
	}

	if msg.Type != message.TypeUnknown {
		found, verr := t.catalogue.Validate(msg)
		switch {
		case verr != nil:
			// Advisory only: version skew between hub and plugin must not
			// stall the session.
			t.logger.Warn("message failed schema validation, dispatching anyway",
				logging.String(logging.FieldMessageType, msg.Type.String()),
				logging.Error(verr))
		case !found:
			t.logger.Debug("no schema for message type, dispatching anyway",
				logging.String(logging.FieldMessageType, msg.Type.String()))
		}
	}

	if t.verbose {
		t.logger.Debug("recv", logging.String(logging.FieldMessageType, msg.Type.String()))
	}
	t.callback(msg, conn)
}
