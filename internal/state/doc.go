// Package state holds the presenter's in-memory state: the live view
// instances, the model cache, global and per-view variables, and the
// pending action queue.
//
// The Store is explicitly owned and passed to every component that needs
// it; there is no package-level singleton. All writes happen on the engine's
// single Run goroutine and publish a new immutable Snapshot, so the selector
// resolver and request builder always work against a consistent view.
package state
