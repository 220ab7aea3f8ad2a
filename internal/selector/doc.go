// Package selector resolves the declarative placeholders carried by view
// configuration and backend responses into concrete values.
//
// Placeholders come in four shapes: the "$me" string, model selects
// ({model, id, attribute}), scope selects ({scope, select}) and
// {default: v} wrappers. Resolution is a pure function of a
// state.Snapshot, so the same input against the same snapshot always
// yields the same output.
package selector
