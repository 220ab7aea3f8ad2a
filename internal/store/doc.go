// Package store provides SQLite-backed persistence for the presenter.
//
// Two tables live in one database:
//   - session: key/value pairs backing the auth token store
//   - cycles: an append-only journal of synchronization cycles, one row
//     per request sent to the backend
//
// Cycle rows are ordered by the engine's logical clock (seq), never by
// wall time. Request and response bodies are stored as canonical JSON so
// the request hash can be recomputed from the stored text.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
