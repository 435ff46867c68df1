package entity

// Sink receives entity state changes destined for the hub. The dispatcher
// implements it; entities receive one when registered and call it from
// whatever goroutine their hardware work runs on.
type Sink interface {
	DeviceAdded(adapterID string, device *Device)
	DeviceRemoved(adapterID, deviceID string)
	PropertyChanged(adapterID, deviceID string, property *Property)
	ActionStatus(adapterID, deviceID string, action *Action)
	EventRaised(adapterID, deviceID string, event *Event)
	ConnectedStateChanged(adapterID, deviceID string, connected bool)
	OutletAdded(notifierID string, outlet Outlet)
	OutletRemoved(notifierID, outletID string)
}

// nopSink lets entities fire notifications before they are registered.
type nopSink struct{}

func (nopSink) DeviceAdded(string, *Device)                 {}
func (nopSink) DeviceRemoved(string, string)                {}
func (nopSink) PropertyChanged(string, string, *Property)   {}
func (nopSink) ActionStatus(string, string, *Action)        {}
func (nopSink) EventRaised(string, string, *Event)          {}
func (nopSink) ConnectedStateChanged(string, string, bool)  {}
func (nopSink) OutletAdded(string, Outlet)                  {}
func (nopSink) OutletRemoved(string, string)                {}
