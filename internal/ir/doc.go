// Package ir holds the typed value tree and the wire shapes shared by every
// other package: view configuration, component data, requests and responses.
//
// ir imports nothing internal, so it stays the foundational layer with no
// circular dependencies.
//
// Key design constraints:
//   - Values are a sealed typed tree (IRValue), never interface{} blobs
//   - Config, data and request trees share one recursive node shape each,
//     with Children present only on layout nodes
//   - Attribute paths use a closed grammar (field names, integer and quoted
//     indexes); there is no expression evaluation
//   - JSON field names follow the backend contract (camelCase)
package ir
