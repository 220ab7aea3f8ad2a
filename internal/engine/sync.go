package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/presenter/internal/backend"
	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/notify"
	"github.com/roach88/presenter/internal/request"
	"github.com/roach88/presenter/internal/selector"
	"github.com/roach88/presenter/internal/store"
)

// cycleResult is the outcome of one synchronization batch.
type cycleResult struct {
	token string
	seq   int64
	batch *request.Batch
	resp  *ir.StateResponse
	err   error
}

// loadView builds the request for one instance and schedules a batch.
// Loads that arrive before the view configuration are parked and replayed
// once it is stored.
func (e *Engine) loadView(ctx context.Context, a LoadView) error {
	if !e.state.MarkLoading(a.ID) {
		slog.Debug("load for unknown view ignored", "view_id", a.ID)
		return nil
	}

	if !e.state.Snapshot().ConfigLoaded() {
		slog.Debug("view configuration not loaded, parking load", "view_id", a.ID)
		e.dropPendingLoad(a.ID)
		e.pendingLoads = append(e.pendingLoads, a)
		return nil
	}

	req, err := request.BuildRequest(e.state.Snapshot(), a.ID, a.Data)
	if err != nil {
		if errors.Is(err, request.ErrViewNotFound) {
			return nil
		}
		view := ""
		if inst := e.state.Snapshot().View(a.ID); inst != nil {
			view = inst.View
		}
		rerr := NewViewConfigError(view, err)
		e.state.ApplyError([]ir.ViewID{a.ID}, rerr)
		return rerr
	}

	e.state.SetViewRequest(a.ID, req)
	e.requestState(ctx)
	return nil
}

func (e *Engine) dropPendingLoad(id ir.ViewID) {
	kept := e.pendingLoads[:0]
	for _, p := range e.pendingLoads {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	e.pendingLoads = kept
}

// requestState starts a batch, or marks the in-flight one dirty so a
// follow-up batch starts as soon as it settles. Repeated requests while a
// batch is in flight collapse into that single follow-up.
func (e *Engine) requestState(ctx context.Context) {
	if e.inFlight {
		e.dirty = true
		slog.Debug("cycle in flight, coalescing request")
		return
	}
	e.startCycle(ctx)
}

func (e *Engine) startCycle(ctx context.Context) {
	drained := e.state.DrainActions()
	batch := request.BuildViewsRequest(e.state.Snapshot(), drained)
	if len(batch.ViewIDs) == 0 && len(batch.Request.Actions) == 0 {
		slog.Debug("nothing to synchronize")
		return
	}

	res := &cycleResult{
		token: e.tokens.Generate(),
		seq:   e.clock.Next(),
		batch: batch,
	}
	e.inFlight = true

	slog.Info("cycle starting",
		"cycle", res.token,
		"seq", res.seq,
		"views", len(batch.ViewIDs),
		"actions", len(batch.Request.Actions),
	)

	e.spawn(ctx, func(ctx context.Context) Event {
		res.resp, res.err = e.backend.RequestState(ctx, batch.Request)
		if res.err == nil && res.resp == nil {
			res.resp = &ir.StateResponse{}
		}
		return Event{Type: EventTypeCycleComplete, Cycle: res}
	})
}

// completeCycle reconciles a settled batch into state.
//
// Success writes every live view's data, merges models, refreshes route
// data, then dispatches the drained success actions in order. An
// unauthorized batch goes to the login route and marks no view. Any other
// failure marks exactly the batch's views as errored and notifies. Drained
// actions are never re-queued.
func (e *Engine) completeCycle(ctx context.Context, res *cycleResult) error {
	e.inFlight = false
	outcome := store.OutcomeSuccess

	switch {
	case res.err == nil:
		applied := e.state.ApplyResponse(res.resp)
		e.router.ConfigureRouteData(res.resp.Views)
		slog.Info("cycle completed",
			"cycle", res.token,
			"seq", res.seq,
			"views", len(applied),
			"models", len(res.resp.Models),
		)
		for _, ev := range res.batch.SuccessActions {
			action, err := e.registry.New(ev.Action, ev.Params)
			if err != nil {
				slog.Error("success action dropped", "cycle", res.token, "action", ev.Action, "error", err)
				continue
			}
			e.Dispatch(action)
		}

	case backend.IsUnauthorized(res.err):
		outcome = store.OutcomeUnauthorized
		slog.Warn("cycle unauthorized, redirecting to login",
			"cycle", res.token,
			"seq", res.seq,
		)
		e.navigate(e.settings.LoginRoute)

	default:
		outcome = store.OutcomeError
		syncErr := NewSyncError(res.token, len(res.batch.ViewIDs), len(res.batch.Request.Actions), res.err)
		e.state.ApplyError(res.batch.ViewIDs, syncErr)
		slog.Warn("cycle failed",
			"cycle", res.token,
			"seq", res.seq,
			"error", res.err,
		)
		messages := res.batch.ErrorMessages
		if len(messages) == 0 {
			messages = []string{e.settings.ConnectionErrorMessage}
		}
		for _, msg := range messages {
			e.notify(notify.Notification{Message: msg, Duration: e.settings.ErrorDuration})
		}
	}

	e.journalCycle(ctx, res, outcome)

	if e.dirty {
		e.dirty = false
		e.startCycle(ctx)
	}
	return nil
}

func (e *Engine) journalCycle(ctx context.Context, res *cycleResult, outcome store.Outcome) {
	if e.journal == nil {
		return
	}
	var resp *ir.StateResponse
	if outcome == store.OutcomeSuccess {
		resp = res.resp
	}
	c, err := store.NewCycle(res.token, res.seq, res.batch.Request, resp, outcome, res.err)
	if err != nil {
		slog.Error("cycle not journaled", "cycle", res.token, "error", err)
		return
	}
	if err := e.journal.WriteCycle(ctx, c); err != nil {
		slog.Error("cycle not journaled", "cycle", res.token, "error", err)
	}
}

// navigate resolves selector segments in url, matches it against the
// route table and records the result. An unmatched URL is kept with no
// route tree.
func (e *Engine) navigate(url string) {
	if resolved, changed := selector.RewriteURL(e.state.Snapshot(), url); changed {
		slog.Debug("navigation target rewritten", "from", url, "to", resolved)
		url = resolved
	}
	node, err := e.router.Match(url)
	if err != nil {
		slog.Warn("navigation target matches no route", "url", url, "error", err)
		node = nil
	}
	e.state.SetRoute(url, node)
}
