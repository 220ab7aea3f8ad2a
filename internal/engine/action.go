package engine

import (
	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/notify"
)

// Action is anything the Run loop can process. Backend-declared actions
// are built from their params by a Registry; lifecycle actions are
// dispatched directly by view controllers.
type Action interface {
	ActionName() string
}

// Names of the backend-declared actions.
const (
	NameLogin            = "login"
	NameLogout           = "logout"
	NameMutateModel      = "mutate-model"
	NameSetVariable      = "set-variable"
	NameNavigate         = "navigate"
	NameShowNotification = "show-notification"
)

// Names of the lifecycle actions.
const (
	NameCreateView     = "create-view"
	NameLoadView       = "load-view"
	NameDestroyView    = "destroy-view"
	NameRequestState   = "request-state"
	NameLoadViewConfig = "load-view-config"
	NameRestoreSession = "restore-session"
)

// LoginAction exchanges credentials for a session token.
type LoginAction struct {
	Request ir.LoginRequest
}

func (LoginAction) ActionName() string { return NameLogin }

// LogoutAction ends the session and returns to the home route.
type LogoutAction struct{}

func (LogoutAction) ActionName() string { return NameLogout }

// ModelAction queues a model mutation for the next batch.
type ModelAction struct {
	Request *ir.ActionRequest
}

func (ModelAction) ActionName() string { return NameMutateModel }

// SetVariable writes a variable. A nil ViewID targets the global scope.
type SetVariable struct {
	Name   string
	Value  ir.IRValue
	ViewID *ir.ViewID
}

func (SetVariable) ActionName() string { return NameSetVariable }

// NavigateRoute moves to a new URL. Selector segments are resolved first.
type NavigateRoute struct {
	Route string
}

func (NavigateRoute) ActionName() string { return NameNavigate }

// ShowNotification displays a message.
type ShowNotification struct {
	Notification notify.Notification
}

func (ShowNotification) ActionName() string { return NameShowNotification }

// CreateView registers a view instance under an allocated id.
type CreateView struct {
	ID   ir.ViewID
	View string
}

func (CreateView) ActionName() string { return NameCreateView }

// LoadView builds the request of a view instance and schedules a batch.
// Data is the instance's current response, nil on the first load.
type LoadView struct {
	ID   ir.ViewID
	Data *ir.ComponentData
}

func (LoadView) ActionName() string { return NameLoadView }

// DestroyView removes a view instance.
type DestroyView struct {
	ID ir.ViewID
}

func (DestroyView) ActionName() string { return NameDestroyView }

// RequestState schedules a synchronization batch.
type RequestState struct{}

func (RequestState) ActionName() string { return NameRequestState }

// LoadViewConfig fetches the view configuration from the backend.
type LoadViewConfig struct{}

func (LoadViewConfig) ActionName() string { return NameLoadViewConfig }

// RestoreSession records a user restored from a persisted session.
type RestoreSession struct {
	UserID int64
}

func (RestoreSession) ActionName() string { return NameRestoreSession }
