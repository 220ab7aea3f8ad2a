// Package viewconfig loads view configurations from disk and validates
// them.
//
// A configuration source is a single file or a directory. CUE, JSON and
// YAML are supported; each source declares its views under a top-level
// "views" field keyed by view name:
//
//	views: orders: {
//		layout: {type: "page", route: "orders"}
//	}
//
// Every .cue file of a directory is unified into one CUE instance, so
// views may be split across files and share definitions.
package viewconfig
