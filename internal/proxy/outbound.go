package proxy

import (
	"hublink/internal/entity"
	"hublink/internal/message"
)

// The Manager is the Sink for every registered entity: state changes funnel
// through these methods into canonical notification payloads.
var _ entity.Sink = (*Manager)(nil)

// DeviceAdded announces a new device and its full descriptor.
func (m *Manager) DeviceAdded(adapterID string, device *entity.Device) {
	m.send(message.DeviceAddedNotification, map[string]any{
		"adapterId": adapterID,
		"device":    device.Descriptor(),
	})
}

// DeviceRemoved confirms a device removal. This doubles as the reply to a
// remove-device request, which is why the adapter emits it on the way out of
// its registry rather than the router replying directly.
func (m *Manager) DeviceRemoved(adapterID, deviceID string) {
	m.send(message.AdapterRemoveDeviceResponse, map[string]any{
		"adapterId": adapterID,
		"deviceId":  deviceID,
	})
}

// PropertyChanged pushes a property's descriptor, including its current
// cached value.
func (m *Manager) PropertyChanged(adapterID, deviceID string, property *entity.Property) {
	m.send(message.DevicePropertyChangedNotification, map[string]any{
		"adapterId": adapterID,
		"deviceId":  deviceID,
		"property":  property.Descriptor(),
	})
}

// ActionStatus pushes an action instance's current status.
func (m *Manager) ActionStatus(adapterID, deviceID string, action *entity.Action) {
	m.send(message.DeviceActionStatusNotification, map[string]any{
		"adapterId": adapterID,
		"deviceId":  deviceID,
		"action":    action.Descriptor(),
	})
}

// EventRaised pushes an event occurrence.
func (m *Manager) EventRaised(adapterID, deviceID string, event *entity.Event) {
	m.send(message.DeviceEventNotification, map[string]any{
		"adapterId": adapterID,
		"deviceId":  deviceID,
		"event":     event.Descriptor(),
	})
}

// ConnectedStateChanged pushes device connectivity.
func (m *Manager) ConnectedStateChanged(adapterID, deviceID string, connected bool) {
	m.send(message.DeviceConnectedStateNotification, map[string]any{
		"adapterId": adapterID,
		"deviceId":  deviceID,
		"connected": connected,
	})
}

// OutletAdded announces a new outlet under a notifier.
func (m *Manager) OutletAdded(notifierID string, outlet entity.Outlet) {
	m.send(message.OutletAddedNotification, map[string]any{
		"notifierId": notifierID,
		"outlet": map[string]any{
			"id":   outlet.ID(),
			"name": outlet.Name(),
		},
	})
}

// OutletRemoved announces an outlet removal.
func (m *Manager) OutletRemoved(notifierID, outletID string) {
	m.send(message.OutletRemovedNotification, map[string]any{
		"notifierId": notifierID,
		"outletId":   outletID,
	})
}

// SendPairingPrompt surfaces a pairing instruction to the hub user. URL and
// device are optional context.
func (m *Manager) SendPairingPrompt(adapterID, prompt, url string, device *entity.Device) {
	data := map[string]any{
		"adapterId": adapterID,
		"prompt":    prompt,
	}
	if url != "" {
		data["url"] = url
	}
	if device != nil {
		data["deviceId"] = device.ID()
	}
	m.send(message.AdapterPairingPromptNotification, data)
}

// SendUnpairingPrompt surfaces an unpairing instruction to the hub user.
func (m *Manager) SendUnpairingPrompt(adapterID, prompt, url string, device *entity.Device) {
	data := map[string]any{
		"adapterId": adapterID,
		"prompt":    prompt,
	}
	if url != "" {
		data["url"] = url
	}
	if device != nil {
		data["deviceId"] = device.ID()
	}
	m.send(message.AdapterUnpairingPromptNotification, data)
}

// SendError raises a generic plugin error on the hub.
func (m *Manager) SendError(messageText string) {
	m.send(message.PluginErrorNotification, map[string]any{
		"message": messageText,
	})
}
