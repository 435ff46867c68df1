// Package entity defines the hardware-backed collaborators a plugin exposes
// to the hub: adapters and the devices, properties, actions, and events they
// own, plus notifiers with their outlets and package-scoped API handlers.
//
// Adapter, Notifier, Outlet, and APIHandler are interfaces because their
// behavior is add-on specific; Base implementations cover the bookkeeping so
// an add-on only overrides what its hardware needs. Device, Property,
// Action, and Event are concrete data holders with optional hooks for the
// slow, hardware-touching paths.
//
// State changes flow to the hub through a Sink, wired in when an entity is
// registered with the dispatcher. Entities never talk to the socket
// directly.
package entity
