package engine

import (
	"time"

	"github.com/roach88/presenter/internal/notify"
)

// Settings are the engine's fixed routes, durations and message keys.
type Settings struct {
	// LoginRoute is where an unauthorized batch sends the user.
	LoginRoute string
	// HomeRoute is where logout sends the user.
	HomeRoute string
	// NotificationDuration applies to notifications that set none.
	NotificationDuration time.Duration
	// ErrorDuration applies to failed-batch notifications.
	ErrorDuration time.Duration
	// ConnectionErrorMessage is shown when a failed batch declared no message.
	ConnectionErrorMessage string
	// LoginFailedMessage is shown when the login exchange fails.
	LoginFailedMessage string
}

// DefaultSettings returns the stock settings.
func DefaultSettings() Settings {
	return Settings{
		LoginRoute:             "/login",
		HomeRoute:              "/",
		NotificationDuration:   notify.DefaultDuration,
		ErrorDuration:          5000 * time.Millisecond,
		ConnectionErrorMessage: "CORE.globals.connection-error",
		LoginFailedMessage:     "CORE.globals.login.failed",
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.LoginRoute == "" {
		s.LoginRoute = d.LoginRoute
	}
	if s.HomeRoute == "" {
		s.HomeRoute = d.HomeRoute
	}
	if s.NotificationDuration <= 0 {
		s.NotificationDuration = d.NotificationDuration
	}
	if s.ErrorDuration <= 0 {
		s.ErrorDuration = d.ErrorDuration
	}
	if s.ConnectionErrorMessage == "" {
		s.ConnectionErrorMessage = d.ConnectionErrorMessage
	}
	if s.LoginFailedMessage == "" {
		s.LoginFailedMessage = d.LoginFailedMessage
	}
	return s
}
