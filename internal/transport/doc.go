// Package transport owns one duplex loopback socket and the framing,
// parsing, and advisory validation of the JSON messages that cross it.
//
// A Transport is constructed in server role (the hub side: bind, accept one
// logical peer) or client role (the plugin side: dial a listening hub).
// Frames are newline-delimited JSON objects of the form
// {"messageType": N, "data": {...}}. Every frame that parses as JSON is
// handed to the dispatch callback exactly once, in arrival order; schema
// validation failures and unknown message types are logged but never block
// dispatch, since the two processes may run slightly different protocol
// versions and a hard reject would stall the session.
package transport
