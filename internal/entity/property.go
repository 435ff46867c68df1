package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// ErrReadOnly rejects writes to read-only properties.
var ErrReadOnly = fmt.Errorf("property is read-only")

// PropertyDescription is the declarative part of a property: everything the
// hub needs to render and constrain it.
type PropertyDescription struct {
	Name        string   `json:"name"`
	Title       string   `json:"title,omitempty"`
	Type        string   `json:"type"`
	AtType      string   `json:"@type,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	Description string   `json:"description,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
	Enum        []any    `json:"enum,omitempty"`
	ReadOnly    bool     `json:"readOnly,omitempty"`
	MultipleOf  *float64 `json:"multipleOf,omitempty"`
}

// SetHook performs the hardware write for a property. It returns the value
// actually applied, which may differ from the requested one (a dimmer that
// snaps to its step size, for example).
type SetHook func(ctx context.Context, value any) (any, error)

// Property is a device property: a described, cached value with an optional
// hardware write hook. The cached value is last-write-wins; both local
// entity code and inbound set-property commands may update it.
type Property struct {
	Description PropertyDescription

	// FireAndForget marks properties whose writes produce no natural
	// changed notification; the dispatcher synthesizes one after a
	// successful set.
	FireAndForget bool

	// Set, when non-nil, performs the hardware write. When nil a set
	// simply updates the cache.
	Set SetHook

	mu     sync.Mutex
	value  any
	device *Device
}

// NewProperty builds a property with an initial cached value.
func NewProperty(desc PropertyDescription, initial any) *Property {
	return &Property{Description: desc, value: initial}
}

// Name returns the property name.
func (p *Property) Name() string { return p.Description.Name }

// Value returns the cached value.
func (p *Property) Value() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// SetCachedValue overwrites the cache without touching hardware or
// notifying. Used by adapters reporting externally observed state before
// calling NotifyChanged.
func (p *Property) SetCachedValue(value any) {
	p.mu.Lock()
	p.value = value
	p.mu.Unlock()
}

// SetValue coerces value against the declared type, rejects writes to
// read-only properties, runs the hardware hook when present, updates the
// cache, and raises the natural changed notification through the owning
// device unless the property is fire-and-forget.
func (p *Property) SetValue(ctx context.Context, value any) (any, error) {
	if p.Description.ReadOnly {
		return p.Value(), ErrReadOnly
	}
	coerced, err := CoerceValue(value, p.Description.Type)
	if err != nil {
		return p.Value(), err
	}
	if p.Set != nil {
		applied, err := p.Set(ctx, coerced)
		if err != nil {
			return p.Value(), err
		}
		coerced = applied
	}

	p.mu.Lock()
	p.value = coerced
	device := p.device
	p.mu.Unlock()

	if !p.FireAndForget && device != nil {
		device.notifyPropertyChanged(p)
	}
	return coerced, nil
}

// NotifyChanged pushes the current cached value to the hub. Adapters call
// this when hardware state changes outside a set command.
func (p *Property) NotifyChanged() {
	p.mu.Lock()
	device := p.device
	p.mu.Unlock()
	if device != nil {
		device.notifyPropertyChanged(p)
	}
}

func (p *Property) bind(device *Device) {
	p.mu.Lock()
	p.device = device
	p.mu.Unlock()
}

// Descriptor returns the JSON shape of the property, including its cached
// value.
func (p *Property) Descriptor() map[string]any {
	raw, _ := json.Marshal(p.Description)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	out["value"] = p.Value()
	return out
}

// CoerceValue converts a loosely typed wire value into the property's
// declared type. Numeric truthiness is accepted for booleans because hub UI
// toggles historically send 0/1.
func CoerceValue(value any, typ string) (any, error) {
	switch typ {
	case "boolean":
		switch v := value.(type) {
		case bool:
			return v, nil
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, fmt.Errorf("coerce %v to boolean", value)
			}
			return f != 0, nil
		case float64:
			return v != 0, nil
		case int:
			return v != 0, nil
		default:
			return nil, fmt.Errorf("coerce %T to boolean", value)
		}
	case "integer":
		switch v := value.(type) {
		case json.Number:
			if i, err := v.Int64(); err == nil {
				return i, nil
			}
			f, err := v.Float64()
			if err != nil || f != float64(int64(f)) {
				return nil, fmt.Errorf("coerce %v to integer", value)
			}
			return int64(f), nil
		case float64:
			if v != float64(int64(v)) {
				return nil, fmt.Errorf("coerce %v to integer", value)
			}
			return int64(v), nil
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		default:
			return nil, fmt.Errorf("coerce %T to integer", value)
		}
	case "number":
		switch v := value.(type) {
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, fmt.Errorf("coerce %v to number", value)
			}
			return f, nil
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		default:
			return nil, fmt.Errorf("coerce %T to number", value)
		}
	case "string":
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("coerce %T to string", value)
		}
		return s, nil
	default:
		// Untyped and object/array properties pass through.
		return value, nil
	}
}
