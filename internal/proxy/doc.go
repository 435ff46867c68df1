// Package proxy routes inbound hub messages to registered entities and
// emits outbound notifications with the correlation fields the hub matches
// replies on.
//
// The Manager owns the adapter, notifier, and API handler registries for one
// plugin session. Inbound messages are classified in a fixed order (global,
// then notifier-scoped, adapter-scoped, device-scoped) and entity operations
// that may touch hardware run on their own goroutines, so replies can
// complete out of order; every reply therefore echoes the identifying fields
// of its request. A missing target entity is logged and dropped without a
// reply; all other failures produce a best-effort failure reply so the hub
// is never left waiting on an exchange it can see.
package proxy
