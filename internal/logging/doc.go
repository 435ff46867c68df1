// Package logging assembles the structured slog loggers used across hublink.
//
// It owns the console and JSON handlers, centralizes level plumbing, and
// exposes Attr helpers plus standardized field names so protocol components
// tag log lines uniformly (component, plugin, adapter, device, message type).
// A no-op logger is provided for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
