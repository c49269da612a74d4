// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration and introspection layer for the event-loop engine.
//
// Provides concurrent-safe primitives:
//   - Snapshot config reads, atomic updates and TOML file loading
//   - Reload observers notified on config change
//   - Debug probe registration; the loop publishes its handle and
//     request counts here for leak diagnosis
package control
