package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/notify"
	"github.com/roach88/presenter/internal/state"
)

type configResult struct {
	configs map[string]*ir.ViewConfig
	err     error
}

type loginResult struct {
	req    ir.LoginRequest
	userID int64
	err    error
}

func (e *Engine) notify(n notify.Notification) {
	if n.Duration <= 0 {
		n.Duration = e.settings.NotificationDuration
	}
	e.notifier.Notify(n)
}

// loadViewConfig fetches the view configuration. Concurrent fetches share
// one backend call.
func (e *Engine) loadViewConfig(ctx context.Context) {
	e.spawn(ctx, func(ctx context.Context) Event {
		v, err, shared := e.configFlight.Do("view-config", func() (any, error) {
			return e.backend.LoadViewConfig(ctx)
		})
		if shared {
			slog.Debug("view configuration fetch shared")
		}
		res := &configResult{err: err}
		if err == nil {
			res.configs, _ = v.(map[string]*ir.ViewConfig)
		}
		return Event{Type: EventTypeConfigLoaded, Config: res}
	})
}

// completeConfig stores the configuration, rebuilds the route table and
// replays loads that arrived too early. On failure the parked views are
// marked errored.
func (e *Engine) completeConfig(ctx context.Context, res *configResult) error {
	pending := e.pendingLoads
	e.pendingLoads = nil

	if res.err != nil {
		rerr := NewConfigNotLoadedError(res.err)
		ids := make([]ir.ViewID, len(pending))
		for i, p := range pending {
			ids[i] = p.ID
		}
		e.state.ApplyError(ids, rerr)
		e.notify(notify.Notification{
			Message:  e.settings.ConnectionErrorMessage,
			Duration: e.settings.ErrorDuration,
		})
		return rerr
	}

	configs := res.configs
	if configs == nil {
		configs = map[string]*ir.ViewConfig{}
	}
	if err := e.router.Configure(configs); err != nil {
		slog.Warn("route table incomplete", "error", err)
	}
	e.state.SetConfig(configs)
	slog.Info("view configuration loaded", "views", len(configs), "pending_loads", len(pending))

	// Re-match the current URL against the new table.
	if url := e.state.Snapshot().URL; url != "" {
		e.navigate(url)
	}

	for _, p := range pending {
		if err := e.loadView(ctx, p); err != nil {
			slog.Warn("parked load failed", "view_id", p.ID, "error", err)
		}
	}
	return nil
}

// login runs the credential exchange: the token is stored as soon as it
// arrives so the follow-up user lookup is authenticated.
func (e *Engine) login(ctx context.Context, a LoginAction) {
	e.spawn(ctx, func(ctx context.Context) Event {
		res := &loginResult{req: a.Request}
		res.userID, res.err = e.exchange(ctx, a.Request)
		return Event{Type: EventTypeLoginComplete, Login: res}
	})
}

func (e *Engine) exchange(ctx context.Context, req ir.LoginRequest) (int64, error) {
	resp, err := e.backend.Login(ctx, req)
	if err != nil {
		return 0, err
	}
	if resp == nil || resp.AccessToken == "" {
		return 0, fmt.Errorf("login response carries no token")
	}
	if err := e.auth.SetToken(ctx, resp.AccessToken); err != nil {
		return 0, fmt.Errorf("store token: %w", err)
	}

	id := resp.UserID
	if id == 0 {
		if id, err = e.backend.Me(ctx); err != nil {
			return 0, fmt.Errorf("fetch user: %w", err)
		}
	}
	if err := e.auth.SetUserID(ctx, id); err != nil {
		return 0, fmt.Errorf("store user id: %w", err)
	}
	return id, nil
}

func (e *Engine) completeLogin(ctx context.Context, res *loginResult) error {
	if res.err != nil {
		slog.Warn("login failed", "user", res.req.Username, "error", res.err)
		e.notify(notify.Notification{Message: e.settings.LoginFailedMessage})
		return nil
	}

	slog.Info("login succeeded", "user", res.req.Username, "user_id", res.userID)
	e.state.SetLoggedUser(&state.User{ID: res.userID})
	if res.req.RedirectURL != "" {
		e.navigate(res.req.RedirectURL)
	}
	// Mounted views refresh under the new session.
	e.requestState(ctx)
	return nil
}

func (e *Engine) logout(ctx context.Context) {
	if err := e.auth.Logout(ctx); err != nil {
		slog.Error("logout: clearing session failed", "error", err)
	}
	e.state.SetLoggedUser(nil)
	e.navigate(e.settings.HomeRoute)
	slog.Info("logged out")
}
