// Package main hosts the hublink CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces developer tooling around the add-on
// protocol: schema catalogue inspection, a mock hub for exercising plugins
// without a real gateway, and configuration scaffolding. It centralizes
// configuration resolution and structured logging setup so subcommands can
// focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
