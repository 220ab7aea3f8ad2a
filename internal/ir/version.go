package ir

// Version constants for the wire schema and the client runtime.
const (
	// WireVersion is the version of the request/response shapes.
	WireVersion = "1"

	// EngineVersion is the presenter runtime version.
	EngineVersion = "0.1.0"
)
