package proxy

import (
	"context"
	"errors"
	"time"

	"hublink/internal/entity"
	"hublink/internal/logging"
	"hublink/internal/message"
)

// Handle routes one inbound message. Called from the transport read loop, so
// classification happens strictly in arrival order; only the entity
// operations themselves run concurrently.
func (m *Manager) Handle(msg message.Message) {
	// Global messages need no entity key.
	switch msg.Type {
	case message.PluginUnloadRequest:
		m.handlePluginUnload()
		return
	case message.APIHandlerUnloadRequest:
		m.handleAPIHandlerUnload(msg)
		return
	case message.APIHandlerAPIRequest:
		m.handleAPIRequest(msg)
		return
	}

	// Notifier-scoped messages carry a notifierId.
	switch msg.Type {
	case message.NotifierUnloadRequest:
		if n := m.resolveNotifier(msg); n != nil {
			m.handleNotifierUnload(n)
		}
		return
	case message.OutletNotifyRequest:
		if n := m.resolveNotifier(msg); n != nil {
			m.handleOutletNotify(n, msg)
		}
		return
	}

	// Everything left is adapter- or device-scoped.
	adapterID := stringField(msg.Data, "adapterId")
	if adapterID == "" {
		m.logger.Warn("message without adapterId",
			logging.String(logging.FieldMessageType, msg.Type.String()))
		return
	}
	adapter := m.Adapter(adapterID)
	if adapter == nil {
		m.logger.Warn("message for unknown adapter",
			logging.String(logging.FieldMessageType, msg.Type.String()),
			logging.String(logging.FieldAdapterID, adapterID))
		return
	}

	switch msg.Type {
	case message.AdapterStartPairingCommand:
		var cmd message.StartPairingCommand
		if err := msg.DecodeData(&cmd); err != nil {
			m.logger.Warn("bad start pairing payload", logging.Error(err))
			return
		}
		adapter.StartPairing(time.Duration(cmd.Timeout * float64(time.Second)))
		return
	case message.AdapterCancelPairingCommand:
		adapter.CancelPairing()
		return
	case message.AdapterUnloadRequest:
		m.handleAdapterUnload(adapter)
		return
	case message.DeviceSavedNotification:
		var note message.SavedNotification
		if err := msg.DecodeData(&note); err != nil {
			m.logger.Warn("bad device saved payload", logging.Error(err))
			return
		}
		adapter.DeviceSaved(note.DeviceID, note.Device)
		return
	case message.MockAdapterAddDeviceRequest,
		message.MockAdapterRemoveDeviceRequest,
		message.MockAdapterPairDeviceCommand,
		message.MockAdapterUnpairDeviceCommand,
		message.MockAdapterClearStateRequest:
		m.handleMock(adapter, msg)
		return
	}

	// Device-scoped messages resolve deviceId under the adapter.
	deviceID := stringField(msg.Data, "deviceId")
	if deviceID == "" {
		m.logger.Warn("message without deviceId",
			logging.String(logging.FieldMessageType, msg.Type.String()),
			logging.String(logging.FieldAdapterID, adapterID))
		return
	}
	device := adapter.Device(deviceID)
	if device == nil {
		m.logger.Warn("message for unknown device",
			logging.String(logging.FieldMessageType, msg.Type.String()),
			logging.String(logging.FieldAdapterID, adapterID),
			logging.String(logging.FieldDeviceID, deviceID))
		return
	}

	switch msg.Type {
	case message.AdapterRemoveDeviceRequest:
		m.async(func(ctx context.Context) {
			if err := adapter.RemoveDevice(ctx, deviceID); err != nil {
				m.logger.Warn("remove device failed",
					logging.String(logging.FieldDeviceID, deviceID),
					logging.Error(err))
			}
		})
	case message.AdapterCancelRemoveDeviceRequest:
		adapter.CancelRemoveDevice(deviceID)
	case message.DeviceSetPropertyCommand:
		m.handleSetProperty(adapter, device, msg)
	case message.DeviceRequestActionRequest:
		m.handleRequestAction(adapter, device, msg)
	case message.DeviceRemoveActionRequest:
		m.handleRemoveAction(adapter, device, msg)
	case message.DeviceSetPINRequest:
		m.handleSetPIN(adapter, device, msg)
	case message.DeviceSetCredentialsRequest:
		m.handleSetCredentials(adapter, device, msg)
	case message.DeviceDebugCommand:
		var cmd message.DebugCommand
		if err := msg.DecodeData(&cmd); err != nil {
			m.logger.Warn("bad debug payload", logging.Error(err))
			return
		}
		device.DebugCommand(cmd.Cmd, cmd.Params)
	default:
		m.logger.Warn("unrecognized message type",
			logging.String(logging.FieldMessageType, msg.Type.String()))
	}
}

func (m *Manager) resolveNotifier(msg message.Message) entity.Notifier {
	notifierID := stringField(msg.Data, "notifierId")
	if notifierID == "" {
		m.logger.Warn("message without notifierId",
			logging.String(logging.FieldMessageType, msg.Type.String()))
		return nil
	}
	n := m.Notifier(notifierID)
	if n == nil {
		m.logger.Warn("message for unknown notifier",
			logging.String(logging.FieldMessageType, msg.Type.String()),
			logging.String(logging.FieldNotifierID, notifierID))
	}
	return n
}

func (m *Manager) handlePluginUnload() {
	m.logger.Info("plugin unload requested")
	m.send(message.PluginUnloadResponse, map[string]any{})

	m.mu.Lock()
	hook := m.unloadHook
	m.mu.Unlock()

	if m.opts.InProcess {
		if hook != nil {
			hook()
		}
		m.link.Unload()
		return
	}

	// Give the response time to flush before the socket closes. The timer
	// is cancellable via Close so early process shutdown is not held up.
	m.mu.Lock()
	if m.closeTimer == nil {
		m.closeTimer = time.AfterFunc(unloadGrace, m.link.Unload)
	}
	m.mu.Unlock()
}

func (m *Manager) handleAdapterUnload(adapter entity.Adapter) {
	m.async(func(ctx context.Context) {
		if err := adapter.Unload(ctx); err != nil {
			m.logger.Warn("adapter unload failed",
				logging.String(logging.FieldAdapterID, adapter.ID()),
				logging.Error(err))
		}
		m.mu.Lock()
		delete(m.adapters, adapter.ID())
		m.mu.Unlock()
		m.send(message.AdapterUnloadResponse, map[string]any{
			"adapterId": adapter.ID(),
		})
	})
}

func (m *Manager) handleNotifierUnload(n entity.Notifier) {
	m.async(func(ctx context.Context) {
		if err := n.Unload(ctx); err != nil {
			m.logger.Warn("notifier unload failed",
				logging.String(logging.FieldNotifierID, n.ID()),
				logging.Error(err))
		}
		m.mu.Lock()
		delete(m.notifiers, n.ID())
		m.mu.Unlock()
		m.send(message.NotifierUnloadResponse, map[string]any{
			"notifierId": n.ID(),
		})
	})
}

func (m *Manager) handleOutletNotify(n entity.Notifier, msg message.Message) {
	var req message.NotifyRequest
	if err := msg.DecodeData(&req); err != nil {
		m.logger.Warn("bad outlet notify payload", logging.Error(err))
		return
	}
	outlet := n.Outlet(req.OutletID)
	if outlet == nil {
		m.logger.Warn("notify for unknown outlet",
			logging.String(logging.FieldNotifierID, n.ID()),
			logging.String(logging.FieldOutletID, req.OutletID))
		return
	}
	m.async(func(ctx context.Context) {
		reply := map[string]any{
			"notifierId": n.ID(),
			"outletId":   req.OutletID,
			"messageId":  req.MessageID,
			"success":    true,
		}
		if err := outlet.Notify(ctx, req.Title, req.Message, req.Level); err != nil {
			m.logger.Warn("outlet notify failed",
				logging.String(logging.FieldOutletID, req.OutletID),
				logging.Error(err))
			reply["success"] = false
		}
		m.send(message.OutletNotifyResponse, reply)
	})
}

func (m *Manager) handleAPIHandlerUnload(msg message.Message) {
	packageName := stringField(msg.Data, "packageName")
	handler := m.APIHandler(packageName)
	if handler == nil {
		m.logger.Warn("unload for unknown api handler",
			logging.String(logging.FieldPackageName, packageName))
		return
	}
	m.async(func(ctx context.Context) {
		if err := handler.Unload(ctx); err != nil {
			m.logger.Warn("api handler unload failed",
				logging.String(logging.FieldPackageName, packageName),
				logging.Error(err))
		}
		m.mu.Lock()
		delete(m.apiHandlers, packageName)
		m.mu.Unlock()
		m.send(message.APIHandlerUnloadResponse, map[string]any{
			"packageName": packageName,
		})
	})
}

func (m *Manager) handleAPIRequest(msg message.Message) {
	var req message.APIHandlerAPIRequestPayload
	if err := msg.DecodeData(&req); err != nil {
		m.logger.Warn("bad api request payload", logging.Error(err))
		return
	}
	handler := m.APIHandler(req.PackageName)
	if handler == nil {
		m.logger.Warn("api request for unknown handler",
			logging.String(logging.FieldPackageName, req.PackageName))
		return
	}
	m.async(func(ctx context.Context) {
		resp, err := handler.HandleRequest(ctx, req.Request)
		if err != nil {
			m.logger.Warn("api request failed",
				logging.String(logging.FieldPackageName, req.PackageName),
				logging.Error(err))
			resp = message.APIResponse{
				Status:      500,
				ContentType: "text/plain",
				Content:     err.Error(),
			}
		}
		m.send(message.APIHandlerAPIResponse, map[string]any{
			"packageName": req.PackageName,
			"messageId":   req.MessageID,
			"response": map[string]any{
				"status":      resp.Status,
				"contentType": resp.ContentType,
				"content":     resp.Content,
			},
		})
	})
}

func (m *Manager) handleSetProperty(adapter entity.Adapter, device *entity.Device, msg message.Message) {
	var cmd message.SetPropertyCommand
	if err := msg.DecodeData(&cmd); err != nil {
		m.logger.Warn("bad set property payload", logging.Error(err))
		return
	}
	prop := device.Property(cmd.PropertyName)
	if prop == nil {
		m.logger.Warn("set for unknown property",
			logging.String(logging.FieldDeviceID, device.ID()),
			logging.String("property", cmd.PropertyName))
		return
	}
	m.async(func(ctx context.Context) {
		if _, err := prop.SetValue(ctx, cmd.PropertyValue); err != nil {
			// The hub still gets a changed notification carrying the
			// cached value, so it is never left waiting on this write.
			m.logger.Warn("set property rejected",
				logging.String(logging.FieldDeviceID, device.ID()),
				logging.String("property", cmd.PropertyName),
				logging.Error(err))
			m.PropertyChanged(adapter.ID(), device.ID(), prop)
			return
		}
		if prop.FireAndForget {
			// No natural changed notification will occur; synthesize one.
			m.PropertyChanged(adapter.ID(), device.ID(), prop)
		}
	})
}

func (m *Manager) handleRequestAction(adapter entity.Adapter, device *entity.Device, msg message.Message) {
	var req message.RequestActionRequest
	if err := msg.DecodeData(&req); err != nil {
		m.logger.Warn("bad request action payload", logging.Error(err))
		return
	}
	m.async(func(ctx context.Context) {
		reply := map[string]any{
			"adapterId":  adapter.ID(),
			"deviceId":   device.ID(),
			"actionId":   req.ActionID,
			"actionName": req.ActionName,
			"success":    true,
		}
		if err := device.RequestAction(ctx, req.ActionID, req.ActionName, req.Input); err != nil {
			m.logger.Warn("action request failed",
				logging.String(logging.FieldDeviceID, device.ID()),
				logging.String("action", req.ActionName),
				logging.Error(err))
			reply["success"] = false
		}
		m.send(message.DeviceRequestActionResponse, reply)
	})
}

func (m *Manager) handleRemoveAction(adapter entity.Adapter, device *entity.Device, msg message.Message) {
	var req message.RemoveActionRequest
	if err := msg.DecodeData(&req); err != nil {
		m.logger.Warn("bad remove action payload", logging.Error(err))
		return
	}
	m.async(func(ctx context.Context) {
		reply := map[string]any{
			"adapterId":  adapter.ID(),
			"deviceId":   device.ID(),
			"actionId":   req.ActionID,
			"actionName": req.ActionName,
			"messageId":  req.MessageID,
			"success":    true,
		}
		if err := device.RemoveAction(ctx, req.ActionID, req.ActionName); err != nil {
			m.logger.Warn("action removal failed",
				logging.String(logging.FieldDeviceID, device.ID()),
				logging.String("action", req.ActionName),
				logging.Error(err))
			reply["success"] = false
		}
		m.send(message.DeviceRemoveActionResponse, reply)
	})
}

func (m *Manager) handleSetPIN(adapter entity.Adapter, device *entity.Device, msg message.Message) {
	var req message.SetPINRequest
	if err := msg.DecodeData(&req); err != nil {
		m.logger.Warn("bad set pin payload", logging.Error(err))
		return
	}
	m.async(func(ctx context.Context) {
		reply := map[string]any{
			"adapterId": adapter.ID(),
			"deviceId":  device.ID(),
			"messageId": req.MessageID,
		}
		if err := adapter.SetPIN(ctx, device.ID(), req.PIN); err != nil {
			m.logger.Warn("set pin failed",
				logging.String(logging.FieldDeviceID, device.ID()),
				logging.Error(err))
			reply["success"] = false
		} else {
			reply["success"] = true
			reply["device"] = device.Descriptor()
		}
		m.send(message.DeviceSetPINResponse, reply)
	})
}

func (m *Manager) handleSetCredentials(adapter entity.Adapter, device *entity.Device, msg message.Message) {
	var req message.SetCredentialsRequest
	if err := msg.DecodeData(&req); err != nil {
		m.logger.Warn("bad set credentials payload", logging.Error(err))
		return
	}
	m.async(func(ctx context.Context) {
		reply := map[string]any{
			"adapterId": adapter.ID(),
			"deviceId":  device.ID(),
			"messageId": req.MessageID,
		}
		if err := adapter.SetCredentials(ctx, device.ID(), req.Username, req.Password); err != nil {
			m.logger.Warn("set credentials failed",
				logging.String(logging.FieldDeviceID, device.ID()),
				logging.Error(err))
			reply["success"] = false
		} else {
			reply["success"] = true
			reply["device"] = device.Descriptor()
		}
		m.send(message.DeviceSetCredentialsResponse, reply)
	})
}

func (m *Manager) handleMock(adapter entity.Adapter, msg message.Message) {
	var req message.MockDeviceRequest
	if err := msg.DecodeData(&req); err != nil {
		m.logger.Warn("bad mock payload", logging.Error(err))
		return
	}

	hooks, ok := adapter.(entity.MockHooks)
	if !ok {
		m.logger.Warn("mock message for adapter without mock hooks",
			logging.String(logging.FieldAdapterID, adapter.ID()),
			logging.String(logging.FieldMessageType, msg.Type.String()))
		switch msg.Type {
		case message.MockAdapterAddDeviceRequest:
			m.sendMockReply(message.MockAdapterAddDeviceResponse, adapter.ID(), req.DeviceID, errNoMockHooks)
		case message.MockAdapterRemoveDeviceRequest:
			m.sendMockReply(message.MockAdapterRemoveDeviceResponse, adapter.ID(), req.DeviceID, errNoMockHooks)
		case message.MockAdapterClearStateRequest:
			m.sendMockReply(message.MockAdapterClearStateResponse, adapter.ID(), "", errNoMockHooks)
		}
		return
	}

	switch msg.Type {
	case message.MockAdapterAddDeviceRequest:
		m.async(func(ctx context.Context) {
			deviceID := req.DeviceID
			device, err := hooks.AddMockDevice(ctx, req.Descriptor)
			if err == nil && device != nil {
				deviceID = device.ID()
			}
			m.sendMockReply(message.MockAdapterAddDeviceResponse, adapter.ID(), deviceID, err)
		})
	case message.MockAdapterRemoveDeviceRequest:
		m.async(func(ctx context.Context) {
			err := hooks.RemoveMockDevice(ctx, req.DeviceID)
			m.sendMockReply(message.MockAdapterRemoveDeviceResponse, adapter.ID(), req.DeviceID, err)
		})
	case message.MockAdapterPairDeviceCommand:
		hooks.PairMockDevice(req.Descriptor)
	case message.MockAdapterUnpairDeviceCommand:
		hooks.UnpairMockDevice(req.DeviceID)
	case message.MockAdapterClearStateRequest:
		m.async(func(ctx context.Context) {
			err := hooks.ClearMockState(ctx)
			m.sendMockReply(message.MockAdapterClearStateResponse, adapter.ID(), "", err)
		})
	}
}

var errNoMockHooks = errors.New("adapter does not implement mock hooks")

func (m *Manager) sendMockReply(t message.Type, adapterID, deviceID string, err error) {
	reply := map[string]any{
		"adapterId": adapterID,
		"success":   err == nil,
	}
	if deviceID != "" {
		reply["deviceId"] = deviceID
	}
	if err != nil {
		m.logger.Warn("mock operation failed",
			logging.String(logging.FieldAdapterID, adapterID),
			logging.Error(err))
		reply["error"] = err.Error()
	}
	m.send(t, reply)
}

// stringField reads a string out of a loose data map; empty when absent or
// the wrong type.
func stringField(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	s, _ := data[key].(string)
	return s
}
