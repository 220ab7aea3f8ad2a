package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/presenter/internal/ir"
)

// RuntimeError represents an error detected by the engine.
//
// Runtime errors include:
//   - Unknown action: an action name with no registered constructor
//   - Invalid payload: a registered action whose params do not parse
//   - View config: a view instance names a view the configuration lacks
//   - Config not loaded: view configuration could not be fetched
//   - Sync failed: the backend rejected or never answered a batch
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Action names the action involved, if any.
	Action string

	// View names the view configuration involved, if any.
	View string

	// Cycle identifies the synchronization cycle (for sync errors).
	Cycle string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownAction indicates no constructor is registered for a name.
	ErrCodeUnknownAction RuntimeErrorCode = "UNKNOWN_ACTION"

	// ErrCodeInvalidPayload indicates action params could not be parsed.
	ErrCodeInvalidPayload RuntimeErrorCode = "INVALID_PAYLOAD"

	// ErrCodeViewConfigNotFound indicates a view has no configuration.
	ErrCodeViewConfigNotFound RuntimeErrorCode = "VIEW_CONFIG_NOT_FOUND"

	// ErrCodeConfigNotLoaded indicates the view configuration fetch failed.
	ErrCodeConfigNotLoaded RuntimeErrorCode = "CONFIG_NOT_LOADED"

	// ErrCodeSyncFailed indicates a synchronization batch failed.
	ErrCodeSyncFailed RuntimeErrorCode = "SYNC_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Action != "":
		msg += fmt.Sprintf(" (action=%s)", e.Action)
	case e.View != "":
		msg += fmt.Sprintf(" (view=%s)", e.View)
	case e.Cycle != "":
		msg += fmt.Sprintf(" (cycle=%s)", e.Cycle)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsUnknownActionError returns true if the error is an unknown action error.
// Uses errors.As to handle wrapped errors.
func IsUnknownActionError(err error) bool {
	return hasCode(err, ErrCodeUnknownAction)
}

// IsInvalidPayloadError returns true if the error is an invalid payload error.
func IsInvalidPayloadError(err error) bool {
	return hasCode(err, ErrCodeInvalidPayload)
}

// IsSyncError returns true if the error is a synchronization failure.
func IsSyncError(err error) bool {
	return hasCode(err, ErrCodeSyncFailed)
}

// NewUnknownActionError creates a RuntimeError for an unregistered name.
func NewUnknownActionError(name string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnknownAction,
		Message: "no constructor registered for action",
		Action:  name,
	}
}

// NewInvalidPayloadError creates a RuntimeError for unparseable params.
func NewInvalidPayloadError(name string, params ir.IRObject, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidPayload,
		Message: "invalid action params",
		Action:  name,
		Details: map[string]string{"params": ir.String(params)},
		Err:     err,
	}
}

// NewViewConfigError creates a RuntimeError for a view with no usable
// configuration.
func NewViewConfigError(view string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeViewConfigNotFound,
		Message: "cannot build request for view",
		View:    view,
		Err:     err,
	}
}

// NewConfigNotLoadedError creates a RuntimeError for a failed view
// configuration fetch.
func NewConfigNotLoadedError(err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeConfigNotLoaded,
		Message: "view configuration could not be loaded",
		Err:     err,
	}
}

// NewSyncError creates a RuntimeError for a failed batch.
func NewSyncError(cycle string, views, actions int, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeSyncFailed,
		Message: "synchronization failed",
		Cycle:   cycle,
		Details: map[string]string{
			"views":   fmt.Sprintf("%d", views),
			"actions": fmt.Sprintf("%d", actions),
		},
		Err: err,
	}
}
