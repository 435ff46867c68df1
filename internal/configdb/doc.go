// Package configdb persists per-package add-on configuration in the same
// SQLite settings layout the hub uses.
//
// Each package's configuration is one JSON blob under the key
// "addons.config.<packageName>" in the settings table. The store is a
// collaborator of the protocol layer, not part of it: entity code loads and
// saves its own configuration here while the dispatcher stays stateless.
package configdb
