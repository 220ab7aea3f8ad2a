// Package view mounts views into the engine.
//
// A Controller owns one mounted instance: it allocates the id, creates the
// instance, requests its first load exactly once, and destroys it on
// unmount. A Loader mounts views by name without any UI, one controller
// per name.
package view
