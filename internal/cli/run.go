package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/roach88/presenter/internal/auth"
	"github.com/roach88/presenter/internal/backend"
	"github.com/roach88/presenter/internal/engine"
	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/notify"
	"github.com/roach88/presenter/internal/request"
	"github.com/roach88/presenter/internal/state"
	"github.com/roach88/presenter/internal/store"
	"github.com/roach88/presenter/internal/view"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	API      string
	Database string
	Views    []string
	Username string
	Password string
	Timeout  time.Duration

	// Backend overrides the HTTP client (for testing).
	Backend engine.Backend

	// TokenGenerator overrides cycle tokens (for testing).
	// If nil, defaults to UUIDv7Generator.
	TokenGenerator engine.CycleTokenGenerator
}

// ViewStatus is one mounted view after the run settled.
type ViewStatus struct {
	Name   string    `json:"name"`
	ID     ir.ViewID `json:"id"`
	Status string    `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// RunResult summarizes a headless run.
type RunResult struct {
	Views         []ViewStatus `json:"views"`
	URL           string       `json:"url,omitempty"`
	UserID        int64        `json:"user_id,omitempty"`
	Notifications []string     `json:"notifications,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Mount views against a backend and synchronize",
		Long: `Start the presenter engine against a backend, optionally log in, mount
the given views and synchronize until every view has settled. Each view's
status is printed and every cycle is journaled to the SQLite database.

The session token is kept in the database, so a later run reuses it.

Exit codes:
  0 - Every view received a response
  1 - A view failed or the engine stopped with an error
  2 - Command error (bad config, database not writable, etc.)

Examples:
  presenter run --api http://localhost:8080 --db ./presenter.db --view dashboard
  presenter run --view dashboard --view orders --user alice --password secret`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.API, "api", "", "backend base URL (overrides config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().StringArrayVar(&opts.Views, "view", nil, "view to mount (repeatable, required)")
	_ = cmd.MarkFlagRequired("view")
	cmd.Flags().StringVar(&opts.Username, "user", "", "log in as this user before mounting")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password for --user")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "give up if views have not settled by then")

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.API != "" {
		cfg.API.BaseURL = opts.API
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	setupLogging(cmd.ErrOrStderr(), cfg.Level(), opts.Verbose)
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Username != "" && opts.Password == "" {
		password, err := promptPassword(cmd)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read password", err)
		}
		opts.Password = password
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	slog.Info("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	session, err := auth.NewService(ctx, auth.NewSQLiteStore(st))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load session", err)
	}

	be := opts.Backend
	if be == nil {
		be = backend.New(cfg.API.BaseURL, session).WithTimeout(cfg.API.Timeout)
	}

	recorder := &notify.Recorder{}
	engineOpts := []engine.EngineOption{
		engine.WithAuth(session),
		engine.WithJournal(st),
		engine.WithSettings(cfg.EngineSettings()),
		engine.WithNotifier(notify.Multi{notify.LogNotifier{}, recorder}),
	}
	if opts.TokenGenerator != nil {
		engineOpts = append(engineOpts, engine.WithTokenGenerator(opts.TokenGenerator))
	}
	clock, err := engine.ResumeClock(ctx, st)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	engineOpts = append(engineOpts, engine.WithClock(clock))
	eng := engine.New(state.NewStore(), be, engineOpts...)
	loader := view.NewLoader(eng)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(gctx)
	})
	g.Go(func() error {
		defer eng.Stop()
		return drive(gctx, eng, loader, opts)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, context.DeadlineExceeded) {
			return WrapExitError(ExitFailure, "views did not settle in time", err)
		}
		return WrapExitError(ExitFailure, "engine error", err)
	}

	snap := eng.Store().Snapshot()
	result := RunResult{URL: snap.URL, Notifications: recorder.Messages()}
	if snap.LoggedUser != nil {
		result.UserID = snap.LoggedUser.ID
	}
	failed := 0
	for _, c := range loader.Controllers() {
		vs := ViewStatus{Name: c.Name(), Status: c.Status()}
		vs.ID, _ = c.ID()
		if inst := c.Instance(); inst != nil && inst.Err != nil && vs.Status == state.StatusError {
			vs.Error = inst.Err.Error()
		}
		if vs.Status != state.StatusResponse {
			failed++
		}
		result.Views = append(result.Views, vs)
	}

	if failed > 0 {
		if !formatter.isJSON() {
			printRunResult(formatter, result)
		}
		message := fmt.Sprintf("%d view(s) without a response", failed)
		return formatter.Failure(ExitFailure, string(engine.ErrCodeSyncFailed), message, result)
	}

	if formatter.isJSON() {
		return formatter.Success(result)
	}
	printRunResult(formatter, result)
	return nil
}

// drive bootstraps the engine, logs in when asked, mounts every view and
// waits for the engine to settle after each phase.
func drive(ctx context.Context, eng *engine.Engine, loader *view.Loader, opts *RunOptions) error {
	eng.Bootstrap()
	if opts.Username != "" {
		err := eng.DispatchNamed(engine.NameLogin, ir.IRObject{
			"username": ir.IRString(opts.Username),
			"password": ir.IRString(opts.Password),
		})
		if err != nil {
			return err
		}
	}
	if err := eng.WaitIdle(ctx); err != nil {
		return err
	}

	configs := eng.Store().Snapshot().Config
	for _, name := range opts.Views {
		if configs[name] == nil {
			return fmt.Errorf("mount %s: %w", name, request.ErrViewConfigNotFound)
		}
		if _, err := loader.Load(name); err != nil {
			return fmt.Errorf("mount %s: %w", name, err)
		}
	}
	return eng.WaitIdle(ctx)
}

// promptPassword reads a password without echo when stdin is a terminal.
// Piped stdin yields an empty password.
func promptPassword(cmd *cobra.Command) (string, error) {
	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(in.Fd())) {
		return "", nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	password, err := term.ReadPassword(int(in.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func printRunResult(formatter *OutputFormatter, result RunResult) {
	w := formatter.Writer
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"", "View", "ID", "Status", "Error"})
	for _, v := range result.Views {
		mark := "✓"
		if v.Status != state.StatusResponse {
			mark = "✗"
		}
		tw.AppendRow(table.Row{mark, v.Name, v.ID, v.Status, v.Error})
	}
	tw.Render()
	for _, msg := range result.Notifications {
		fmt.Fprintf(w, "notification: %s\n", msg)
	}
	if result.URL != "" {
		fmt.Fprintf(w, "url: %s\n", result.URL)
	}
}
