package entity

import (
	"time"

	"github.com/google/uuid"
)

// Action lifecycle statuses as the hub displays them.
const (
	ActionStatusCreated   = "created"
	ActionStatusPending   = "pending"
	ActionStatusCompleted = "completed"
)

// Action is one requested instance of a named device action.
type Action struct {
	ID            string
	Name          string
	Input         any
	Status        string
	TimeRequested time.Time
	TimeCompleted time.Time
}

// NewAction creates a locally initiated action instance with a generated id.
func NewAction(name string, input any) *Action {
	return &Action{
		ID:            uuid.New().String(),
		Name:          name,
		Input:         input,
		Status:        ActionStatusCreated,
		TimeRequested: time.Now().UTC(),
	}
}

// Start marks the action pending.
func (a *Action) Start() {
	a.Status = ActionStatusPending
}

// Finish marks the action completed.
func (a *Action) Finish() {
	a.Status = ActionStatusCompleted
	a.TimeCompleted = time.Now().UTC()
}

// Descriptor returns the JSON shape of the action instance.
func (a *Action) Descriptor() map[string]any {
	out := map[string]any{
		"id":            a.ID,
		"name":          a.Name,
		"status":        a.Status,
		"timeRequested": a.TimeRequested.Format(time.RFC3339),
	}
	if a.Input != nil {
		out["input"] = a.Input
	}
	if !a.TimeCompleted.IsZero() {
		out["timeCompleted"] = a.TimeCompleted.Format(time.RFC3339)
	}
	return out
}

// ActionDescription declares an action a device supports.
type ActionDescription struct {
	Title       string         `json:"title,omitempty"`
	AtType      string         `json:"@type,omitempty"`
	Description string         `json:"description,omitempty"`
	Input       map[string]any `json:"input,omitempty"`
}

// Event is one occurrence of a named device event.
type Event struct {
	Name      string
	Data      any
	Timestamp time.Time
}

// NewEvent creates an event stamped with the current time.
func NewEvent(name string, data any) *Event {
	return &Event{Name: name, Data: data, Timestamp: time.Now().UTC()}
}

// Descriptor returns the JSON shape of the event occurrence.
func (e *Event) Descriptor() map[string]any {
	out := map[string]any{
		"name":      e.Name,
		"timestamp": e.Timestamp.Format(time.RFC3339),
	}
	if e.Data != nil {
		out["data"] = e.Data
	}
	return out
}

// EventDescription declares an event a device can raise.
type EventDescription struct {
	Title       string `json:"title,omitempty"`
	AtType      string `json:"@type,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Unit        string `json:"unit,omitempty"`
}
