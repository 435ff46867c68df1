package proxy_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hublink/internal/entity"
	"hublink/internal/logging"
	"hublink/internal/message"
	"hublink/internal/proxy"
)

type sent struct {
	Type message.Type
	Data map[string]any
}

// fakeLink records outbound notifications in place of a live transport.
type fakeLink struct {
	sent chan sent

	mu         sync.Mutex
	unloadOnce sync.Once
	unloaded   chan struct{}
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		sent:     make(chan sent, 64),
		unloaded: make(chan struct{}),
	}
}

func (l *fakeLink) PluginID() string { return "plugin-1" }

func (l *fakeLink) SendNotification(t message.Type, data map[string]any) error {
	l.sent <- sent{Type: t, Data: data}
	return nil
}

func (l *fakeLink) Unload() {
	l.unloadOnce.Do(func() { close(l.unloaded) })
}

func (l *fakeLink) next(t *testing.T) sent {
	t.Helper()
	select {
	case msg := <-l.sent:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for outbound message")
		return sent{}
	}
}

func (l *fakeLink) expectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case msg := <-l.sent:
		t.Fatalf("unexpected outbound %v: %v", msg.Type, msg.Data)
	case <-time.After(wait):
	}
}

func newManager(t *testing.T, link *fakeLink, opts proxy.Options) *proxy.Manager {
	t.Helper()

	m := proxy.NewManager(link, proxy.Session{
		GatewayVersion: "1.1.0",
		UserProfile:    map[string]any{"baseDir": "/tmp"},
		Preferences:    map[string]any{"language": "en-US"},
	}, logging.NewNop(), opts)
	t.Cleanup(m.Close)
	return m
}

// newTestAdapter registers an adapter with one lamp device carrying a
// boolean property, an integer fire-and-forget property, a read-only
// property, and one declared action. The adapter-added and device-added
// announcements are drained before returning.
func newTestAdapter(t *testing.T, link *fakeLink, m *proxy.Manager) (*entity.BaseAdapter, *entity.Device) {
	t.Helper()

	adapter := entity.NewBaseAdapter("adapter-1", "Test Adapter", "test-adapter")
	m.AddAdapter(adapter)
	if got := link.next(t); got.Type != message.AdapterAddedNotification {
		t.Fatalf("expected adapterAddedNotification, got %v", got.Type)
	}

	device := entity.NewDevice("lamp-1", "Desk Lamp")
	device.AddProperty(entity.NewProperty(entity.PropertyDescription{Name: "on", Type: "boolean"}, false))

	faf := entity.NewProperty(entity.PropertyDescription{Name: "level", Type: "integer"}, int64(0))
	faf.FireAndForget = true
	device.AddProperty(faf)

	device.AddProperty(entity.NewProperty(entity.PropertyDescription{Name: "temp", Type: "number", ReadOnly: true}, 21.5))
	device.AddAction("fade", entity.ActionDescription{Title: "Fade"})
	device.OnAction = func(ctx context.Context, a *entity.Action) error { return nil }

	adapter.AddDevice(device)
	if got := link.next(t); got.Type != message.DeviceAddedNotification {
		t.Fatalf("expected deviceAddedNotification, got %v", got.Type)
	}
	return adapter, device
}

func deviceMsg(t message.Type, extra map[string]any) message.Message {
	data := map[string]any{"adapterId": "adapter-1", "deviceId": "lamp-1"}
	for k, v := range extra {
		data[k] = v
	}
	return message.New(t, data)
}

func TestSetPropertyNaturalNotification(t *testing.T) {
	link := newFakeLink()
	m := newManager(t, link, proxy.Options{})
	newTestAdapter(t, link, m)

	m.Handle(deviceMsg(message.DeviceSetPropertyCommand, map[string]any{
		"propertyName":  "on",
		"propertyValue": true,
	}))

	got := link.next(t)
	if got.Type != message.DevicePropertyChangedNotification {
		t.Fatalf("expected propertyChangedNotification, got %v", got.Type)
	}
	prop, ok := got.Data["property"].(map[string]any)
	if !ok || prop["name"] != "on" || prop["value"] != true {
		t.Fatalf("unexpected property payload: %v", got.Data["property"])
	}
	link.expectNone(t, 100*time.Millisecond)
}

func TestSetPropertyFireAndForgetSynthesizesNotification(t *testing.T) {
	link := newFakeLink()
	m := newManager(t, link, proxy.Options{})
	newTestAdapter(t, link, m)

	m.Handle(deviceMsg(message.DeviceSetPropertyCommand, map[string]any{
		"propertyName":  "level",
		"propertyValue": 30,
	}))

	got := link.next(t)
	if got.Type != message.DevicePropertyChangedNotification {
		t.Fatalf("expected synthesized notification, got %v", got.Type)
	}
	prop := got.Data["property"].(map[string]any)
	if prop["name"] != "level" || prop["value"] != int64(30) {
		t.Fatalf("unexpected property payload: %v", prop)
	}
	link.expectNone(t, 100*time.Millisecond)
}

func TestSetPropertyRejectionFallsBackToCachedValue(t *testing.T) {
	link := newFakeLink()
	m := newManager(t, link, proxy.Options{})
	newTestAdapter(t, link, m)

	m.Handle(deviceMsg(message.DeviceSetPropertyCommand, map[string]any{
		"propertyName":  "temp",
		"propertyValue": 30.0,
	}))

	got := link.next(t)
	if got.Type != message.DevicePropertyChangedNotification {
		t.Fatalf("expected fallback notification, got %v", got.Type)
	}
	prop := got.Data["property"].(map[string]any)
	if prop["value"] != 21.5 {
		t.Fatalf("fallback must carry the cached value, got %v", prop["value"])
	}
}

func TestSetPropertyUnknownPropertyIsDropped(t *testing.T) {
	link := newFakeLink()
	m := newManager(t, link, proxy.Options{})
	newTestAdapter(t, link, m)

	m.Handle(deviceMsg(message.DeviceSetPropertyCommand, map[string]any{
		"propertyName":  "bogus",
		"propertyValue": 1,
	}))
	link.expectNone(t, 150*time.Millisecond)
}

func TestRequestActionRepliesExactlyOnce(t *testing.T) {
	link := newFakeLink()
	m := newManager(t, link, proxy.Options{})
	newTestAdapter(t, link, m)

	m.Handle(deviceMsg(message.DeviceRequestActionRequest, map[string]any{
		"actionId":   "act-7",
		"actionName": "fade",
		"input":      map[string]any{"level": 50},
	}))

	var reply *sent
	statuses := 0
	for reply == nil || statuses < 3 {
		got := link.next(t)
		switch got.Type {
		case message.DeviceActionStatusNotification:
			statuses++
		case message.DeviceRequestActionResponse:
			if reply != nil {
				t.Fatal("second action response observed")
			}
			r := got
			reply = &r
		default:
			t.Fatalf("unexpected outbound %v", got.Type)
		}
	}

	if reply.Data["success"] != true {
		t.Fatalf("expected success, got %v", reply.Data)
	}
	for _, key := range []string{"adapterId", "deviceId", "actionId", "actionName"} {
		if reply.Data[key] == "" || reply.Data[key] == nil {
			t.Fatalf("reply missing %s: %v", key, reply.Data)
		}
	}
	if reply.Data["actionId"] != "act-7" {
		t.Fatalf("reply did not echo actionId: %v", reply.Data["actionId"])
	}
	link.expectNone(t, 100*time.Millisecond)
}

func TestRequestActionFailureStillReplies(t *testing.T) {
	link := newFakeLink()
	m := newManager(t, link, proxy.Options{})
	newTestAdapter(t, link, m)

	m.Handle(deviceMsg(message.DeviceRequestActionRequest, map[string]any{
		"actionId":   "act-8",
		"actionName": "explode",
	}))

	got := link.next(t)
	if got.Type != message.DeviceRequestActionResponse {
		t.Fatalf("expected action response, got %v", got.Type)
	}
	if got.Data["success"] != false {
		t.Fatalf("expected failure reply, got %v", got.Data)
	}
	if got.Data["actionId"] != "act-8" || got.Data["actionName"] != "explode" {
		t.Fatalf("failure reply must echo identifiers: %v", got.Data)
	}
}

func TestRemoveDeviceRepliesThroughSink(t *testing.T) {
	link := newFakeLink()
	m := newManager(t, link, proxy.Options{})
	newTestAdapter(t, link, m)

	m.Handle(deviceMsg(message.AdapterRemoveDeviceRequest, nil))

	got := link.next(t)
	if got.Type != message.AdapterRemoveDeviceResponse {
		t.Fatalf("expected remove device response, got %v", got.Type)
	}
	if got.Data["deviceId"] != "lamp-1" || got.Data["adapterId"] != "adapter-1" {
		t.Fatalf("unexpected reply payload: %v", got.Data)
	}
}

func TestMessagesForUnknownAdapterAreDropped(t *testing.T) {
	link := newFakeLink()
	m := newManager(t, link, proxy.Options{})
	newTestAdapter(t, link, m)

	m.Handle(message.New(message.DeviceSetPropertyCommand, map[string]any{
		"adapterId":     "nope",
		"deviceId":      "lamp-1",
		"propertyName":  "on",
		"propertyValue": true,
	}))
	m.Handle(message.New(message.DeviceSetPropertyCommand, map[string]any{
		"deviceId":      "lamp-1",
		"propertyName":  "on",
		"propertyValue": true,
	}))
	link.expectNone(t, 150*time.Millisecond)
}

func TestPluginUnloadInProcess(t *testing.T) {
	link := newFakeLink()
	m := newManager(t, link, proxy.Options{InProcess: true})

	hookRan := false
	m.SetUnloadHook(func() { hookRan = true })

	m.Handle(message.New(message.PluginUnloadRequest, nil))

	if got := link.next(t); got.Type != message.PluginUnloadResponse {
		t.Fatalf("expected unload response, got %v", got.Type)
	}
	select {
	case <-link.unloaded:
	default:
		t.Fatal("in-process unload must tear down the link synchronously")
	}
	if !hookRan {
		t.Fatal("unload hook did not run")
	}
}

func TestPluginUnloadGraceTimer(t *testing.T) {
	link := newFakeLink()
	m := newManager(t, link, proxy.Options{})

	m.Handle(message.New(message.PluginUnloadRequest, nil))

	if got := link.next(t); got.Type != message.PluginUnloadResponse {
		t.Fatalf("expected unload response, got %v", got.Type)
	}
	select {
	case <-link.unloaded:
		t.Fatal("link torn down before the grace period")
	case <-time.After(100 * time.Millisecond):
	}
	select {
	case <-link.unloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("link never torn down after the grace period")
	}
}

func TestCloseCancelsGraceTimer(t *testing.T) {
	link := newFakeLink()
	m := newManager(t, link, proxy.Options{})

	m.Handle(message.New(message.PluginUnloadRequest, nil))
	if got := link.next(t); got.Type != message.PluginUnloadResponse {
		t.Fatalf("expected unload response, got %v", got.Type)
	}
	m.Close()

	select {
	case <-link.unloaded:
		t.Fatal("grace timer fired after Close")
	case <-time.After(time.Second):
	}
}

func TestAPIRequestFailureSynthesizes500(t *testing.T) {
	link := newFakeLink()
	m := newManager(t, link, proxy.Options{})

	m.AddAPIHandler(entity.APIHandlerFunc{
		Package: "my-extension",
		Handler: func(ctx context.Context, req message.APIRequest) (message.APIResponse, error) {
			return message.APIResponse{}, errors.New("backend offline")
		},
	})
	if got := link.next(t); got.Type != message.APIHandlerAddedNotification {
		t.Fatalf("expected apiHandlerAddedNotification, got %v", got.Type)
	}

	m.Handle(message.New(message.APIHandlerAPIRequest, map[string]any{
		"packageName": "my-extension",
		"messageId":   41,
		"request": map[string]any{
			"method": "GET",
			"path":   "/status",
		},
	}))

	got := link.next(t)
	if got.Type != message.APIHandlerAPIResponse {
		t.Fatalf("expected api response, got %v", got.Type)
	}
	resp := got.Data["response"].(map[string]any)
	if resp["status"] != 500 {
		t.Fatalf("expected synthesized 500, got %v", resp)
	}
	if got.Data["messageId"] != int64(41) {
		t.Fatalf("response did not echo messageId: %v", got.Data)
	}
}

func TestOutletNotifyReplies(t *testing.T) {
	link := newFakeLink()
	m := newManager(t, link, proxy.Options{})

	notifier := entity.NewBaseNotifier("notifier-1", "Test Notifier", "test-notifier")
	m.AddNotifier(notifier)
	if got := link.next(t); got.Type != message.NotifierAddedNotification {
		t.Fatalf("expected notifierAddedNotification, got %v", got.Type)
	}

	outlet := entity.NewBaseOutlet("outlet-1", "Email")
	outlet.OnNotify = func(ctx context.Context, title, body string, level int) error {
		if level != entity.LevelHigh {
			t.Fatalf("unexpected level %d", level)
		}
		return nil
	}
	notifier.AddOutlet(outlet)
	if got := link.next(t); got.Type != message.OutletAddedNotification {
		t.Fatalf("expected outletAddedNotification, got %v", got.Type)
	}

	m.Handle(message.New(message.OutletNotifyRequest, map[string]any{
		"notifierId": "notifier-1",
		"outletId":   "outlet-1",
		"messageId":  7,
		"title":      "Alert",
		"message":    "Door open",
		"level":      2,
	}))

	got := link.next(t)
	if got.Type != message.OutletNotifyResponse {
		t.Fatalf("expected notify response, got %v", got.Type)
	}
	if got.Data["success"] != true || got.Data["messageId"] != int64(7) {
		t.Fatalf("unexpected reply: %v", got.Data)
	}
}

func TestMockRequestWithoutHooksFails(t *testing.T) {
	link := newFakeLink()
	m := newManager(t, link, proxy.Options{})
	newTestAdapter(t, link, m)

	m.Handle(message.New(message.MockAdapterAddDeviceRequest, map[string]any{
		"adapterId": "adapter-1",
		"deviceId":  "mock-1",
	}))

	got := link.next(t)
	if got.Type != message.MockAdapterAddDeviceResponse {
		t.Fatalf("expected mock add device response, got %v", got.Type)
	}
	if got.Data["success"] != false || got.Data["error"] == nil {
		t.Fatalf("expected failure reply with error text, got %v", got.Data)
	}
}
