// Package message defines the closed set of IPC message types exchanged
// between the hub and an add-on process, the wire-level Message frame, and
// typed payload structs for the variants the dispatcher consumes.
//
// The integer values mirror the externally published schema catalogue; each
// schema document declares its own constant messageType and this enumeration
// must stay in lockstep with it. Routing code switches over Type so a new
// variant surfaces as a compile-time gap rather than a silent default case.
package message
