package entity

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Adapter translates hardware state to and from protocol messages and owns a
// set of devices. Add-ons embed BaseAdapter and override the operations
// their hardware supports.
type Adapter interface {
	ID() string
	Name() string
	PackageName() string
	Device(deviceID string) *Device
	Devices() []*Device
	SetSink(sink Sink)

	StartPairing(timeout time.Duration)
	CancelPairing()
	RemoveDevice(ctx context.Context, deviceID string) error
	CancelRemoveDevice(deviceID string)
	SetPIN(ctx context.Context, deviceID, pin string) error
	SetCredentials(ctx context.Context, deviceID, username, password string) error
	DeviceSaved(deviceID string, saved map[string]any)
	Unload(ctx context.Context) error
}

// MockHooks are the simulated-device test operations a mock adapter exposes.
// The dispatcher routes the mock message block only to adapters implementing
// this interface.
type MockHooks interface {
	AddMockDevice(ctx context.Context, descriptor map[string]any) (*Device, error)
	RemoveMockDevice(ctx context.Context, deviceID string) error
	PairMockDevice(descriptor map[string]any)
	UnpairMockDevice(deviceID string)
	ClearMockState(ctx context.Context) error
}

// BaseAdapter carries the device registry and identity bookkeeping shared by
// every adapter. Pairing and unload are no-ops until overridden.
type BaseAdapter struct {
	id          string
	name        string
	packageName string

	mu      sync.Mutex
	devices map[string]*Device
	sink    Sink
}

// NewBaseAdapter creates the shared adapter core.
func NewBaseAdapter(id, name, packageName string) *BaseAdapter {
	return &BaseAdapter{
		id:          id,
		name:        name,
		packageName: packageName,
		devices:     map[string]*Device{},
		sink:        nopSink{},
	}
}

func (a *BaseAdapter) ID() string          { return a.id }
func (a *BaseAdapter) Name() string        { return a.name }
func (a *BaseAdapter) PackageName() string { return a.packageName }

// SetSink wires the notification path. Devices already registered are
// re-bound so their notifications flow to the new sink.
func (a *BaseAdapter) SetSink(sink Sink) {
	a.mu.Lock()
	if sink == nil {
		sink = nopSink{}
	}
	a.sink = sink
	devices := make([]*Device, 0, len(a.devices))
	for _, d := range a.devices {
		devices = append(devices, d)
	}
	a.mu.Unlock()
	for _, d := range devices {
		d.bind(a.id, sink)
	}
}

// AddDevice registers a device and announces it to the hub.
func (a *BaseAdapter) AddDevice(d *Device) {
	a.mu.Lock()
	a.devices[d.ID()] = d
	sink := a.sink
	a.mu.Unlock()
	d.bind(a.id, sink)
	sink.DeviceAdded(a.id, d)
}

// Device resolves a device by id, nil when absent.
func (a *BaseAdapter) Device(deviceID string) *Device {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.devices[deviceID]
}

// Devices lists registered devices sorted by id.
func (a *BaseAdapter) Devices() []*Device {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Device, 0, len(a.devices))
	for _, d := range a.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// StartPairing is a no-op unless overridden.
func (a *BaseAdapter) StartPairing(time.Duration) {}

// CancelPairing is a no-op unless overridden.
func (a *BaseAdapter) CancelPairing() {}

// RemoveDevice forgets a device and announces the removal.
func (a *BaseAdapter) RemoveDevice(_ context.Context, deviceID string) error {
	a.mu.Lock()
	_, ok := a.devices[deviceID]
	if ok {
		delete(a.devices, deviceID)
	}
	sink := a.sink
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("adapter %s has no device %s", a.id, deviceID)
	}
	sink.DeviceRemoved(a.id, deviceID)
	return nil
}

// CancelRemoveDevice is a no-op unless overridden.
func (a *BaseAdapter) CancelRemoveDevice(string) {}

// SetPIN rejects unless overridden.
func (a *BaseAdapter) SetPIN(_ context.Context, deviceID, _ string) error {
	return fmt.Errorf("adapter %s does not support PIN setup for device %s", a.id, deviceID)
}

// SetCredentials rejects unless overridden.
func (a *BaseAdapter) SetCredentials(_ context.Context, deviceID, _, _ string) error {
	return fmt.Errorf("adapter %s does not support credentials for device %s", a.id, deviceID)
}

// DeviceSaved is informational; no-op unless overridden.
func (a *BaseAdapter) DeviceSaved(string, map[string]any) {}

// Unload is a no-op unless overridden.
func (a *BaseAdapter) Unload(context.Context) error { return nil }
