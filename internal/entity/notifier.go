package entity

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Notification severity levels as the hub defines them.
const (
	LevelLow    = 0
	LevelNormal = 1
	LevelHigh   = 2
)

// Outlet delivers user-facing alerts through one channel (an email address,
// a speaker, a push target).
type Outlet interface {
	ID() string
	Name() string
	Notify(ctx context.Context, title, body string, level int) error
}

// Notifier owns a set of outlets.
type Notifier interface {
	ID() string
	Name() string
	PackageName() string
	Outlet(outletID string) Outlet
	Outlets() []Outlet
	SetSink(sink Sink)
	Unload(ctx context.Context) error
}

// NotifyHook performs the actual delivery for a BaseOutlet.
type NotifyHook func(ctx context.Context, title, body string, level int) error

// BaseOutlet is an outlet data holder with an injectable delivery hook.
type BaseOutlet struct {
	// OnNotify performs delivery; nil rejects every notification.
	OnNotify NotifyHook

	id   string
	name string
}

// NewBaseOutlet creates an outlet data holder.
func NewBaseOutlet(id, name string) *BaseOutlet {
	return &BaseOutlet{id: id, name: name}
}

func (o *BaseOutlet) ID() string   { return o.id }
func (o *BaseOutlet) Name() string { return o.name }

// Notify delivers through the hook.
func (o *BaseOutlet) Notify(ctx context.Context, title, body string, level int) error {
	if o.OnNotify == nil {
		return fmt.Errorf("outlet %s cannot deliver notifications", o.id)
	}
	return o.OnNotify(ctx, title, body, level)
}

// Descriptor returns the JSON shape of the outlet.
func (o *BaseOutlet) Descriptor() map[string]any {
	return map[string]any{"id": o.id, "name": o.name}
}

// BaseNotifier carries the outlet registry shared by every notifier.
type BaseNotifier struct {
	id          string
	name        string
	packageName string

	mu      sync.Mutex
	outlets map[string]Outlet
	sink    Sink
}

// NewBaseNotifier creates the shared notifier core.
func NewBaseNotifier(id, name, packageName string) *BaseNotifier {
	return &BaseNotifier{
		id:          id,
		name:        name,
		packageName: packageName,
		outlets:     map[string]Outlet{},
		sink:        nopSink{},
	}
}

func (n *BaseNotifier) ID() string          { return n.id }
func (n *BaseNotifier) Name() string        { return n.name }
func (n *BaseNotifier) PackageName() string { return n.packageName }

// SetSink wires the notification path.
func (n *BaseNotifier) SetSink(sink Sink) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if sink == nil {
		sink = nopSink{}
	}
	n.sink = sink
}

// AddOutlet registers an outlet and announces it to the hub.
func (n *BaseNotifier) AddOutlet(o Outlet) {
	n.mu.Lock()
	n.outlets[o.ID()] = o
	sink := n.sink
	n.mu.Unlock()
	sink.OutletAdded(n.id, o)
}

// RemoveOutlet forgets an outlet and announces the removal.
func (n *BaseNotifier) RemoveOutlet(outletID string) error {
	n.mu.Lock()
	_, ok := n.outlets[outletID]
	if ok {
		delete(n.outlets, outletID)
	}
	sink := n.sink
	n.mu.Unlock()
	if !ok {
		return fmt.Errorf("notifier %s has no outlet %s", n.id, outletID)
	}
	sink.OutletRemoved(n.id, outletID)
	return nil
}

// Outlet resolves an outlet by id, nil when absent.
func (n *BaseNotifier) Outlet(outletID string) Outlet {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.outlets[outletID]
}

// Outlets lists registered outlets sorted by id.
func (n *BaseNotifier) Outlets() []Outlet {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Outlet, 0, len(n.outlets))
	for _, o := range n.outlets {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Unload is a no-op unless overridden.
func (n *BaseNotifier) Unload(context.Context) error { return nil }
