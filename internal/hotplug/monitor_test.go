package hotplug_test

import (
	"context"
	"testing"

	"hublink/internal/hotplug"
	"hublink/internal/logging"
)

func TestNewRequiresSubsystemAndHandler(t *testing.T) {
	handler := func(context.Context, hotplug.Event) {}

	if m := hotplug.New("", handler, logging.NewNop()); m != nil {
		t.Fatal("expected nil monitor without a subsystem")
	}
	if m := hotplug.New("usb", nil, logging.NewNop()); m != nil {
		t.Fatal("expected nil monitor without a handler")
	}
	if m := hotplug.New("usb", handler, logging.NewNop()); m == nil {
		t.Fatal("expected monitor with subsystem and handler")
	}
}

func TestNilMonitorIsSafe(t *testing.T) {
	var m *hotplug.Monitor

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("nil Start returned error: %v", err)
	}
	if m.Running() {
		t.Fatal("nil monitor reports running")
	}
	m.Stop()
}

func TestStopBeforeStart(t *testing.T) {
	m := hotplug.New("usb", func(context.Context, hotplug.Event) {}, logging.NewNop())

	m.Stop()
	m.Stop()
	if m.Running() {
		t.Fatal("unstarted monitor reports running")
	}
}
