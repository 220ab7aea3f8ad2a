// Package request builds the wire requests sent to the backend.
//
// BuildRequest walks a view's ComponentConfig tree in lock-step with the
// view's current ComponentData tree and produces a ComponentRequest tree of
// the same shape. Only query values that declare inputs are materialized;
// each input is filled in by the selector resolver.
//
// BuildViewsRequest assembles one StateRequest covering every mounted view
// plus the drained action queue, and lifts the per-action side effects
// (success actions and error messages) out of the wire copies.
package request
