package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// ActionHandler performs a requested action. It runs on the dispatcher's
// worker goroutine and may block on hardware.
type ActionHandler func(ctx context.Context, action *Action) error

// Device is an addressable entity exposing properties, actions, and events.
// It is a data holder: behavior is injected through the handler hooks.
type Device struct {
	// OnAction performs requested actions; nil rejects every request.
	OnAction ActionHandler
	// OnCancelAction is invoked when the hub removes an in-flight action.
	OnCancelAction func(ctx context.Context, action *Action) error
	// OnDebug receives opaque debug commands. No reply is sent.
	OnDebug func(cmd string, params json.RawMessage)

	id          string
	title       string
	description string
	atContext   string
	atTypes     []string

	credentialsRequired bool
	pinRequired         bool
	pinPattern          string

	mu         sync.Mutex
	properties map[string]*Property
	actions    map[string]ActionDescription
	events     map[string]EventDescription
	requested  map[string]*Action
	adapterID  string
	sink       Sink
}

// NewDevice creates a device data holder.
func NewDevice(id, title string) *Device {
	return &Device{
		id:         id,
		title:      title,
		atContext:  "https://webthings.io/schemas",
		properties: map[string]*Property{},
		actions:    map[string]ActionDescription{},
		events:     map[string]EventDescription{},
		requested:  map[string]*Action{},
		sink:       nopSink{},
	}
}

// ID returns the device identifier.
func (d *Device) ID() string { return d.id }

// Title returns the display title.
func (d *Device) Title() string { return d.title }

// SetDescription sets the free-form description.
func (d *Device) SetDescription(desc string) { d.description = desc }

// SetTypes sets the semantic @type annotations.
func (d *Device) SetTypes(types ...string) { d.atTypes = types }

// RequirePIN marks the device as needing a pairing PIN.
func (d *Device) RequirePIN(pattern string) {
	d.pinRequired = true
	d.pinPattern = pattern
}

// RequireCredentials marks the device as needing username/password setup.
func (d *Device) RequireCredentials() { d.credentialsRequired = true }

// AddProperty attaches a property and binds its notification path.
func (d *Device) AddProperty(p *Property) {
	d.mu.Lock()
	d.properties[p.Name()] = p
	d.mu.Unlock()
	p.bind(d)
}

// Property resolves a property by name, nil when absent.
func (d *Device) Property(name string) *Property {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.properties[name]
}

// AddAction declares a supported action.
func (d *Device) AddAction(name string, desc ActionDescription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions[name] = desc
}

// AddEvent declares an event the device can raise.
func (d *Device) AddEvent(name string, desc EventDescription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events[name] = desc
}

// RequestAction runs a named action with a hub-assigned instance id. Status
// transitions are pushed through the sink as they happen; the returned error
// reflects the handler outcome.
func (d *Device) RequestAction(ctx context.Context, actionID, actionName string, input any) error {
	d.mu.Lock()
	_, declared := d.actions[actionName]
	handler := d.OnAction
	d.mu.Unlock()

	if !declared {
		return fmt.Errorf("device %s has no action %q", d.id, actionName)
	}
	if handler == nil {
		return fmt.Errorf("device %s cannot perform actions", d.id)
	}

	action := NewAction(actionName, input)
	action.ID = actionID

	d.mu.Lock()
	d.requested[actionID] = action
	d.mu.Unlock()

	d.notifyActionStatus(action)
	action.Start()
	d.notifyActionStatus(action)

	if err := handler(ctx, action); err != nil {
		d.mu.Lock()
		delete(d.requested, actionID)
		d.mu.Unlock()
		return err
	}

	action.Finish()
	d.notifyActionStatus(action)
	d.mu.Lock()
	delete(d.requested, actionID)
	d.mu.Unlock()
	return nil
}

// RemoveAction cancels an in-flight action instance.
func (d *Device) RemoveAction(ctx context.Context, actionID, actionName string) error {
	d.mu.Lock()
	action := d.requested[actionID]
	cancel := d.OnCancelAction
	d.mu.Unlock()

	if action == nil {
		return fmt.Errorf("device %s has no requested action %s (%s)", d.id, actionID, actionName)
	}
	if cancel != nil {
		if err := cancel(ctx, action); err != nil {
			return err
		}
	}
	d.mu.Lock()
	delete(d.requested, actionID)
	d.mu.Unlock()
	return nil
}

// DebugCommand forwards an opaque debug command to the device hook.
func (d *Device) DebugCommand(cmd string, params json.RawMessage) {
	if d.OnDebug != nil {
		d.OnDebug(cmd, params)
	}
}

// RaiseEvent pushes an event occurrence to the hub.
func (d *Device) RaiseEvent(name string, data any) {
	d.mu.Lock()
	adapterID := d.adapterID
	sink := d.sink
	d.mu.Unlock()
	sink.EventRaised(adapterID, d.id, NewEvent(name, data))
}

// SetConnected reports the device's connectivity to the hub.
func (d *Device) SetConnected(connected bool) {
	d.mu.Lock()
	adapterID := d.adapterID
	sink := d.sink
	d.mu.Unlock()
	sink.ConnectedStateChanged(adapterID, d.id, connected)
}

// Descriptor returns the JSON shape of the device the hub stores.
func (d *Device) Descriptor() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()

	props := map[string]any{}
	for name, p := range d.properties {
		props[name] = p.Descriptor()
	}
	actions := map[string]any{}
	for name, a := range d.actions {
		actions[name] = descriptionToMap(a)
	}
	events := map[string]any{}
	for name, e := range d.events {
		events[name] = descriptionToMap(e)
	}

	out := map[string]any{
		"id":         d.id,
		"title":      d.title,
		"@context":   d.atContext,
		"@type":      append([]string{}, d.atTypes...),
		"properties": props,
		"actions":    actions,
		"events":     events,
	}
	if d.description != "" {
		out["description"] = d.description
	}
	if d.credentialsRequired {
		out["credentialsRequired"] = true
	}
	out["pin"] = map[string]any{
		"required": d.pinRequired,
		"pattern":  d.pinPattern,
	}
	return out
}

// PropertyNames returns declared property names in sorted order.
func (d *Device) PropertyNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.properties))
	for name := range d.properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Device) bind(adapterID string, sink Sink) {
	d.mu.Lock()
	d.adapterID = adapterID
	if sink != nil {
		d.sink = sink
	}
	d.mu.Unlock()
}

func (d *Device) notifyPropertyChanged(p *Property) {
	d.mu.Lock()
	adapterID := d.adapterID
	sink := d.sink
	d.mu.Unlock()
	sink.PropertyChanged(adapterID, d.id, p)
}

func (d *Device) notifyActionStatus(a *Action) {
	d.mu.Lock()
	adapterID := d.adapterID
	sink := d.sink
	d.mu.Unlock()
	sink.ActionStatus(adapterID, d.id, a)
}

func descriptionToMap(v any) map[string]any {
	raw, _ := json.Marshal(v)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return out
}
