// Package plugin implements the client-role bootstrap that registers an
// add-on process with the hub and yields the message dispatcher bound to the
// negotiated session.
//
// A Plugin moves through unregistered, awaiting-response, and registered
// states. Register connects a client transport, sends the register request
// carrying the plugin identity, and settles a single-use future when the
// hub's register response arrives; the protocol itself has no handshake
// timeout, so callers bound the wait with a context. A second Register call
// while one is pending is rejected rather than creating a second in-flight
// future.
//
// An optional flock-based instance lock keeps a second copy of the same
// plugin from bootstrapping against the same data directory.
package plugin
