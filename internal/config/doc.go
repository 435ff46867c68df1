// Package config loads, normalizes, and validates hublink runtime
// configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the plugin runtime and CLI need: data directory, schema catalogue
// directory, the hub's IPC port, and logging shape.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
