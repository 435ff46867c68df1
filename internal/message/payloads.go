package message

import "encoding/json"

// Payload structs for the variants the dispatcher consumes. Reply payloads
// are assembled as maps because every reply echoes request-identifying
// fields plus a handful of computed values.

// RegisterRequest bootstraps a session; the only request the plugin ever
// initiates.
type RegisterRequest struct {
	PluginID string `json:"pluginId"`
}

// RegisterResponse carries the negotiated session detail.
type RegisterResponse struct {
	PluginID       string         `json:"pluginId"`
	GatewayVersion string         `json:"gatewayVersion"`
	UserProfile    map[string]any `json:"userProfile"`
	Preferences    map[string]any `json:"preferences"`
}

// AdapterScoped is the common prefix of every adapter-addressed payload.
type AdapterScoped struct {
	PluginID  string `json:"pluginId"`
	AdapterID string `json:"adapterId"`
}

// DeviceScoped extends AdapterScoped with a device address.
type DeviceScoped struct {
	AdapterScoped
	DeviceID string `json:"deviceId"`
}

// StartPairingCommand asks an adapter to begin discovery for a bounded time.
type StartPairingCommand struct {
	AdapterScoped
	Timeout float64 `json:"timeout"`
}

// SetPropertyCommand writes a property value on a device.
type SetPropertyCommand struct {
	DeviceScoped
	PropertyName  string `json:"propertyName"`
	PropertyValue any    `json:"propertyValue"`
}

// RequestActionRequest starts a named action on a device.
type RequestActionRequest struct {
	DeviceScoped
	ActionID   string `json:"actionId"`
	ActionName string `json:"actionName"`
	Input      any    `json:"input"`
}

// RemoveActionRequest cancels a previously requested action.
type RemoveActionRequest struct {
	DeviceScoped
	ActionID   string `json:"actionId"`
	ActionName string `json:"actionName"`
	MessageID  int64  `json:"messageId"`
}

// SetPINRequest supplies a pairing PIN for a device.
type SetPINRequest struct {
	DeviceScoped
	PIN       string `json:"pin"`
	MessageID int64  `json:"messageId"`
}

// SetCredentialsRequest supplies username/password credentials for a device.
type SetCredentialsRequest struct {
	DeviceScoped
	Username  string `json:"username"`
	Password  string `json:"password"`
	MessageID int64  `json:"messageId"`
}

// DebugCommand is an opaque passthrough to device debug hooks.
type DebugCommand struct {
	DeviceScoped
	Cmd    string          `json:"cmd"`
	Params json.RawMessage `json:"params"`
}

// SavedNotification informs the adapter that the hub persisted a
// device it owns.
type SavedNotification struct {
	DeviceScoped
	Device map[string]any `json:"device"`
}

// MockDeviceRequest drives the simulated-device test hooks.
type MockDeviceRequest struct {
	AdapterScoped
	DeviceID   string         `json:"deviceId"`
	Descriptor map[string]any `json:"device"`
}

// NotifierScoped is the common prefix of notifier-addressed payloads.
type NotifierScoped struct {
	PluginID   string `json:"pluginId"`
	NotifierID string `json:"notifierId"`
}

// NotifyRequest delivers a user-facing alert through an outlet.
type NotifyRequest struct {
	NotifierScoped
	OutletID  string `json:"outletId"`
	MessageID int64  `json:"messageId"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Level     int    `json:"level"`
}

// APIHandlerScoped addresses an API handler by its package name.
type APIHandlerScoped struct {
	PluginID    string `json:"pluginId"`
	PackageName string `json:"packageName"`
}

// APIRequest is a hub-forwarded REST request for an API handler.
type APIRequest struct {
	Method string         `json:"method"`
	Path   string         `json:"path"`
	Query  map[string]any `json:"query"`
	Body   map[string]any `json:"body"`
}

// APIHandlerAPIRequestPayload wraps an inbound API request.
type APIHandlerAPIRequestPayload struct {
	APIHandlerScoped
	MessageID int64      `json:"messageId"`
	Request   APIRequest `json:"request"`
}

// APIResponse is the handler's reply to an APIRequest.
type APIResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType,omitempty"`
	Content     any    `json:"content,omitempty"`
}
