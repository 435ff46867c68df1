package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldPluginID tags log lines with the owning plugin identifier.
	FieldPluginID = "plugin_id"
	// FieldAdapterID tags log lines with an adapter identifier.
	FieldAdapterID = "adapter_id"
	// FieldDeviceID tags log lines with a device identifier.
	FieldDeviceID = "device_id"
	// FieldNotifierID tags log lines with a notifier identifier.
	FieldNotifierID = "notifier_id"
	// FieldOutletID tags log lines with an outlet identifier.
	FieldOutletID = "outlet_id"
	// FieldPackageName tags log lines with an API handler package name.
	FieldPackageName = "package_name"
	// FieldMessageType carries the catalogue name of the message being handled.
	FieldMessageType = "message_type"
	// FieldErrorHint suggests a remediation for an error log line.
	FieldErrorHint = "error_hint"
)
