// Package engine implements the presenter's synchronization engine.
//
// The engine receives actions from view controllers and from the backend,
// applies them to the state store, and keeps the client in step with the
// server by sending batched synchronization cycles.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Every state write happens in one goroutine. Network calls run as
// background effects whose results are fed back into the same FIFO queue.
// This ensures:
//   - A batch's response is applied exactly once
//   - Success actions run in the order the backend declared them
//   - Views destroyed while a batch is in flight are never resurrected
//
// Cycle Flow:
//  1. LoadView builds a view request and asks for a cycle
//  2. ModelAction queues a mutation and asks for a cycle
//  3. If no cycle is in flight, the queued mutations are drained and sent
//     with every live view's request; otherwise the cycle is marked dirty
//  4. On completion the response (or error) is reconciled, success actions
//     are dispatched, and a dirty cycle triggers exactly one follow-up
//
// Every cycle is stamped with a token and a monotonic seq from Clock and
// may be journaled for later inspection.
package engine
