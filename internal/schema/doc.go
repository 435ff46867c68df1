// Package schema loads the externally published IPC schema catalogue and
// compiles one JSON Schema validator per message type.
//
// The catalogue is a collaborator, not something this repository authors:
// the hub distribution ships one schema document per message type, each
// declaring its own constant integer messageType. Validation is advisory
// throughout: a missing or failing schema is logged, never fatal, because
// the hub and plugin may run slightly different protocol versions and a hard
// reject would deadlock the registration handshake on any skew.
package schema
