package plugin_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"hublink/internal/entity"
	"hublink/internal/logging"
	"hublink/internal/message"
	"hublink/internal/plugin"
	"hublink/internal/schema"
	"hublink/internal/transport"
)

type hubFrame struct {
	msg  message.Message
	conn *transport.Conn
}

// newHub runs a server-role transport standing in for the gateway. When
// autoRegister is set it answers register requests itself and forwards
// everything else.
func newHub(t *testing.T, autoRegister bool) (*transport.Transport, chan hubFrame) {
	t.Helper()

	frames := make(chan hubFrame, 32)
	hub, err := transport.New(transport.RoleServer, 0, &schema.StaticStore{},
		func(msg message.Message, conn *transport.Conn) {
			if autoRegister && msg.Type == message.PluginRegisterRequest {
				pluginID, _ := msg.Data["pluginId"].(string)
				_ = conn.Send(message.New(message.PluginRegisterResponse, map[string]any{
					"pluginId":       pluginID,
					"gatewayVersion": "1.1.0",
					"userProfile":    map[string]any{"baseDir": "/tmp/hub"},
					"preferences":    map[string]any{"language": "en-US"},
				}))
				return
			}
			frames <- hubFrame{msg: msg, conn: conn}
		}, "hub", logging.NewNop(), transport.Options{})
	if err != nil {
		t.Fatalf("start hub: %v", err)
	}
	t.Cleanup(hub.Close)
	return hub, frames
}

func awaitFrame(t *testing.T, frames chan hubFrame) hubFrame {
	t.Helper()

	select {
	case f := <-frames:
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for hub frame")
		return hubFrame{}
	}
}

func TestRegisterHandshake(t *testing.T) {
	hub, frames := newHub(t, true)

	p := plugin.New("my-plugin", &schema.StaticStore{}, logging.NewNop(), plugin.Options{
		DialTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mgr, err := p.Register(ctx, hub.Port())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	t.Cleanup(mgr.Close)
	t.Cleanup(p.Unload)

	if p.CurrentState() != plugin.StateRegistered {
		t.Fatalf("unexpected state: %v", p.CurrentState())
	}
	if mgr.GatewayVersion() != "1.1.0" {
		t.Fatalf("unexpected gateway version: %q", mgr.GatewayVersion())
	}
	if mgr.UserProfile()["baseDir"] != "/tmp/hub" {
		t.Fatalf("unexpected user profile: %v", mgr.UserProfile())
	}

	// Outbound notifications carry the plugin identity.
	mgr.AddAdapter(entity.NewBaseAdapter("adapter-1", "Test Adapter", "test-adapter"))
	frame := awaitFrame(t, frames)
	if frame.msg.Type != message.AdapterAddedNotification {
		t.Fatalf("expected adapterAddedNotification, got %v", frame.msg.Type)
	}
	if frame.msg.Data["pluginId"] != "my-plugin" {
		t.Fatalf("pluginId not injected: %v", frame.msg.Data)
	}
}

func TestInboundCommandRoundTrip(t *testing.T) {
	hub, frames := newHub(t, true)

	p := plugin.New("my-plugin", &schema.StaticStore{}, logging.NewNop(), plugin.Options{
		DialTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mgr, err := p.Register(ctx, hub.Port())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	t.Cleanup(mgr.Close)
	t.Cleanup(p.Unload)

	adapter := entity.NewBaseAdapter("adapter-1", "Test Adapter", "test-adapter")
	mgr.AddAdapter(adapter)
	device := entity.NewDevice("lamp-1", "Desk Lamp")
	device.AddProperty(entity.NewProperty(entity.PropertyDescription{Name: "on", Type: "boolean"}, false))
	adapter.AddDevice(device)

	// Drain the adapter and device announcements.
	for i := 0; i < 2; i++ {
		awaitFrame(t, frames)
	}

	hubConn := awaitHubConn(t, hub)
	if err := hubConn.Send(message.New(message.DeviceSetPropertyCommand, map[string]any{
		"pluginId":      "my-plugin",
		"adapterId":     "adapter-1",
		"deviceId":      "lamp-1",
		"propertyName":  "on",
		"propertyValue": true,
	})); err != nil {
		t.Fatalf("hub send: %v", err)
	}

	frame := awaitFrame(t, frames)
	if frame.msg.Type != message.DevicePropertyChangedNotification {
		t.Fatalf("expected propertyChangedNotification, got %v", frame.msg.Type)
	}
	prop, ok := frame.msg.Data["property"].(map[string]any)
	if !ok || prop["name"] != "on" || prop["value"] != true {
		t.Fatalf("unexpected property payload: %v", frame.msg.Data["property"])
	}
	if device.Property("on").Value() != true {
		t.Fatal("device cache not updated")
	}
}

func TestUnloadSequence(t *testing.T) {
	hub, frames := newHub(t, true)

	p := plugin.New("my-plugin", &schema.StaticStore{}, logging.NewNop(), plugin.Options{
		DialTimeout: 2 * time.Second,
	})
	unloaded := make(chan struct{})
	p.OnUnloaded(func() { close(unloaded) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mgr, err := p.Register(ctx, hub.Port())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	t.Cleanup(mgr.Close)

	hubConn := awaitHubConn(t, hub)
	if err := hubConn.Send(message.New(message.PluginUnloadRequest, map[string]any{
		"pluginId": "my-plugin",
	})); err != nil {
		t.Fatalf("hub send: %v", err)
	}

	frame := awaitFrame(t, frames)
	if frame.msg.Type != message.PluginUnloadResponse {
		t.Fatalf("expected pluginUnloadResponse, got %v", frame.msg.Type)
	}

	select {
	case <-unloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("plugin never unloaded after the grace period")
	}
	if p.CurrentState() != plugin.StateUnregistered {
		t.Fatalf("unexpected state after unload: %v", p.CurrentState())
	}
}

func TestDuplicateRegisterRejected(t *testing.T) {
	// A hub that never answers keeps the first registration pending.
	hub, _ := newHub(t, false)

	p := plugin.New("my-plugin", &schema.StaticStore{}, logging.NewNop(), plugin.Options{
		DialTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	firstDone := make(chan error, 1)
	go func() {
		_, err := p.Register(ctx, hub.Port())
		firstDone <- err
	}()

	waitForState(t, p, plugin.StateAwaitingResponse)

	if _, err := p.Register(context.Background(), hub.Port()); !errors.Is(err, plugin.ErrRegistrationPending) {
		t.Fatalf("expected ErrRegistrationPending, got %v", err)
	}

	cancel()
	select {
	case err := <-firstDone:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("first Register never returned after cancel")
	}
	if p.CurrentState() != plugin.StateUnregistered {
		t.Fatalf("unexpected state after abandon: %v", p.CurrentState())
	}
}

func TestLockInstanceIsExclusive(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "my-plugin.lock")

	first := plugin.New("my-plugin", &schema.StaticStore{}, logging.NewNop(), plugin.Options{})
	if err := first.LockInstance(lockPath); err != nil {
		t.Fatalf("first lock: %v", err)
	}

	second := plugin.New("my-plugin", &schema.StaticStore{}, logging.NewNop(), plugin.Options{})
	if err := second.LockInstance(lockPath); err == nil {
		t.Fatal("expected second instance to fail the lock")
	}

	first.Unload()

	third := plugin.New("my-plugin", &schema.StaticStore{}, logging.NewNop(), plugin.Options{})
	if err := third.LockInstance(lockPath); err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	third.Unload()
}

func awaitHubConn(t *testing.T, hub *transport.Transport) *transport.Conn {
	t.Helper()

	select {
	case <-hub.ConnectFuture().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("hub never saw a connection")
	}
	conn, err := hub.ConnectFuture().Result()
	if err != nil {
		t.Fatalf("hub connect future rejected: %v", err)
	}
	return conn
}

func waitForState(t *testing.T, p *plugin.Plugin, want plugin.State) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if p.CurrentState() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("state never reached %v, still %v", want, p.CurrentState())
}
