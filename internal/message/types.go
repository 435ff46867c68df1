package message

import "strconv"

// Type identifies a message kind on the wire. The catalogue assigns each
// entity family its own block: plugin lifecycle starts at 0, adapters at
// 4096, devices at 8192, notifiers and outlets at 12288, API handlers at
// 20480, and the mock adapter test hooks at 61440.
type Type int

// TypeUnknown marks a frame whose messageType field was absent or malformed.
const TypeUnknown Type = -1

const (
	PluginRegisterRequest   Type = 0
	PluginRegisterResponse  Type = 1
	PluginUnloadRequest     Type = 2
	PluginUnloadResponse    Type = 3
	PluginErrorNotification Type = 4
)

const (
	AdapterAddedNotification           Type = 4096
	AdapterUnloadRequest               Type = 4097
	AdapterUnloadResponse              Type = 4098
	AdapterStartPairingCommand         Type = 4099
	AdapterCancelPairingCommand        Type = 4100
	AdapterRemoveDeviceRequest         Type = 4103
	AdapterRemoveDeviceResponse        Type = 4104
	AdapterCancelRemoveDeviceRequest   Type = 4105
	AdapterPairingPromptNotification   Type = 4110
	AdapterUnpairingPromptNotification Type = 4111
)

const (
	DeviceActionStatusNotification      Type = 8192
	DeviceAddedNotification             Type = 8193
	DeviceConnectedStateNotification    Type = 8194
	DeviceEventNotification             Type = 8195
	DevicePropertyChangedNotification   Type = 8196
	DeviceRemoveActionRequest           Type = 8197
	DeviceRemoveActionResponse          Type = 8198
	DeviceRequestActionRequest          Type = 8199
	DeviceRequestActionResponse         Type = 8200
	DeviceSetCredentialsRequest         Type = 8201
	DeviceSetCredentialsResponse        Type = 8202
	DeviceSetPINRequest                 Type = 8203
	DeviceSetPINResponse                Type = 8204
	DeviceSetPropertyCommand            Type = 8205
	DeviceDebugCommand                  Type = 8206
	DeviceSavedNotification             Type = 8207
)

const (
	NotifierAddedNotification Type = 12288
	NotifierUnloadRequest     Type = 12289
	NotifierUnloadResponse    Type = 12290
	OutletAddedNotification   Type = 12291
	OutletRemovedNotification Type = 12292
	OutletNotifyRequest       Type = 12293
	OutletNotifyResponse      Type = 12294
)

const (
	APIHandlerAddedNotification Type = 20480
	APIHandlerUnloadRequest     Type = 20481
	APIHandlerUnloadResponse    Type = 20482
	APIHandlerAPIRequest        Type = 20483
	APIHandlerAPIResponse       Type = 20484
)

const (
	MockAdapterAddDeviceRequest     Type = 61440
	MockAdapterAddDeviceResponse    Type = 61441
	MockAdapterRemoveDeviceRequest  Type = 61442
	MockAdapterRemoveDeviceResponse Type = 61443
	MockAdapterPairDeviceCommand    Type = 61444
	MockAdapterUnpairDeviceCommand  Type = 61445
	MockAdapterClearStateRequest    Type = 61446
	MockAdapterClearStateResponse   Type = 61447
)

var typeNames = map[Type]string{
	PluginRegisterRequest:   "pluginRegisterRequest",
	PluginRegisterResponse:  "pluginRegisterResponse",
	PluginUnloadRequest:     "pluginUnloadRequest",
	PluginUnloadResponse:    "pluginUnloadResponse",
	PluginErrorNotification: "pluginErrorNotification",

	AdapterAddedNotification:           "adapterAddedNotification",
	AdapterUnloadRequest:               "adapterUnloadRequest",
	AdapterUnloadResponse:              "adapterUnloadResponse",
	AdapterStartPairingCommand:         "adapterStartPairingCommand",
	AdapterCancelPairingCommand:        "adapterCancelPairingCommand",
	AdapterRemoveDeviceRequest:         "adapterRemoveDeviceRequest",
	AdapterRemoveDeviceResponse:        "adapterRemoveDeviceResponse",
	AdapterCancelRemoveDeviceRequest:   "adapterCancelRemoveDeviceRequest",
	AdapterPairingPromptNotification:   "adapterPairingPromptNotification",
	AdapterUnpairingPromptNotification: "adapterUnpairingPromptNotification",

	DeviceActionStatusNotification:    "deviceActionStatusNotification",
	DeviceAddedNotification:           "deviceAddedNotification",
	DeviceConnectedStateNotification:  "deviceConnectedStateNotification",
	DeviceEventNotification:           "deviceEventNotification",
	DevicePropertyChangedNotification: "devicePropertyChangedNotification",
	DeviceRemoveActionRequest:         "deviceRemoveActionRequest",
	DeviceRemoveActionResponse:        "deviceRemoveActionResponse",
	DeviceRequestActionRequest:        "deviceRequestActionRequest",
	DeviceRequestActionResponse:       "deviceRequestActionResponse",
	DeviceSetCredentialsRequest:       "deviceSetCredentialsRequest",
	DeviceSetCredentialsResponse:      "deviceSetCredentialsResponse",
	DeviceSetPINRequest:               "deviceSetPinRequest",
	DeviceSetPINResponse:              "deviceSetPinResponse",
	DeviceSetPropertyCommand:          "deviceSetPropertyCommand",
	DeviceDebugCommand:                "deviceDebugCommand",
	DeviceSavedNotification:           "deviceSavedNotification",

	NotifierAddedNotification: "notifierAddedNotification",
	NotifierUnloadRequest:     "notifierUnloadRequest",
	NotifierUnloadResponse:    "notifierUnloadResponse",
	OutletAddedNotification:   "outletAddedNotification",
	OutletRemovedNotification: "outletRemovedNotification",
	OutletNotifyRequest:       "outletNotifyRequest",
	OutletNotifyResponse:      "outletNotifyResponse",

	APIHandlerAddedNotification: "apiHandlerAddedNotification",
	APIHandlerUnloadRequest:     "apiHandlerUnloadRequest",
	APIHandlerUnloadResponse:    "apiHandlerUnloadResponse",
	APIHandlerAPIRequest:        "apiHandlerApiRequest",
	APIHandlerAPIResponse:       "apiHandlerApiResponse",

	MockAdapterAddDeviceRequest:     "mockAdapterAddDeviceRequest",
	MockAdapterAddDeviceResponse:    "mockAdapterAddDeviceResponse",
	MockAdapterRemoveDeviceRequest:  "mockAdapterRemoveDeviceRequest",
	MockAdapterRemoveDeviceResponse: "mockAdapterRemoveDeviceResponse",
	MockAdapterPairDeviceCommand:    "mockAdapterPairDeviceCommand",
	MockAdapterUnpairDeviceCommand:  "mockAdapterUnpairDeviceCommand",
	MockAdapterClearStateRequest:    "mockAdapterClearStateRequest",
	MockAdapterClearStateResponse:   "mockAdapterClearStateResponse",
}

// String returns the catalogue name for known types and the raw integer for
// everything else.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return strconv.Itoa(int(t))
}

// Known reports whether the type belongs to the published enumeration.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// Types returns every type in the enumeration in ascending order. Used by
// catalogue completeness checks and CLI listings.
func Types() []Type {
	out := make([]Type, 0, len(typeNames))
	for t := range typeNames {
		out = append(out, t)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
