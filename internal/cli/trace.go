package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/presenter/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Token    string // optional - show a single cycle in full
	Limit    int
	Outcome  string // optional - filter the timeline by outcome
}

// TraceEvent is one journaled synchronization cycle.
type TraceEvent struct {
	Seq         int64           `json:"seq"`
	Token       string          `json:"token"`
	Outcome     string          `json:"outcome"`
	RequestHash string          `json:"request_hash"`
	Views       int             `json:"views"`
	Actions     int             `json:"actions"`
	Error       string          `json:"error,omitempty"`
	Request     json.RawMessage `json:"request,omitempty"`
	Response    json.RawMessage `json:"response,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats counts every journaled cycle by outcome.
type TraceStats struct {
	Total        int `json:"total"`
	Success      int `json:"success"`
	Error        int `json:"error"`
	Unauthorized int `json:"unauthorized"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show journaled synchronization cycles",
		Long: `Show the synchronization cycles journaled by "presenter run".

Each cycle records the request that was sent, its canonical hash, the
outcome and the response or error. Without --token the most recent cycles
are listed; with --token one cycle is shown with its full request and
response.

Examples:
  presenter trace --db ./presenter.db
  presenter trace --db ./presenter.db --limit 50 --outcome error
  presenter trace --db ./presenter.db --token 0192f3c4-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Token, "token", "", "show a single cycle")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of recent cycles to show (0 for all)")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "only show cycles with this outcome (success, error, unauthorized)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	switch store.Outcome(opts.Outcome) {
	case "", store.OutcomeSuccess, store.OutcomeError, store.OutcomeUnauthorized:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid outcome %q", opts.Outcome))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	stats, err := readStats(ctx, st)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count cycles", err)
	}
	result := TraceResult{Timeline: []TraceEvent{}, Stats: stats}

	if opts.Token != "" {
		c, err := st.ReadCycle(ctx, opts.Token)
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitFailure, fmt.Sprintf("cycle not found: %s", opts.Token))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read cycle", err)
		}
		result.Timeline = append(result.Timeline, toTraceEvent(c, true))
	} else {
		cycles, err := st.ReadCycles(ctx, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read cycles", err)
		}
		for _, c := range cycles {
			if opts.Outcome != "" && string(c.Outcome) != opts.Outcome {
				continue
			}
			result.Timeline = append(result.Timeline, toTraceEvent(c, false))
		}
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	if formatter.isJSON() {
		return formatter.Success(result)
	}
	return outputTraceText(formatter, result, opts.Token != "")
}

func readStats(ctx context.Context, st *store.Store) (TraceStats, error) {
	var stats TraceStats
	for _, o := range []struct {
		outcome store.Outcome
		count   *int
	}{
		{"", &stats.Total},
		{store.OutcomeSuccess, &stats.Success},
		{store.OutcomeError, &stats.Error},
		{store.OutcomeUnauthorized, &stats.Unauthorized},
	} {
		n, err := st.CountCycles(ctx, o.outcome)
		if err != nil {
			return TraceStats{}, err
		}
		*o.count = n
	}
	return stats, nil
}

func toTraceEvent(c store.Cycle, full bool) TraceEvent {
	ev := TraceEvent{
		Seq:         c.Seq,
		Token:       c.Token,
		Outcome:     string(c.Outcome),
		RequestHash: c.RequestHash,
		Views:       c.ViewCount,
		Actions:     c.ActionCount,
		Error:       c.Error,
	}
	if full {
		ev.Request = json.RawMessage(c.Request)
		if c.Response != "" {
			ev.Response = json.RawMessage(c.Response)
		}
	}
	return ev
}

func outputTraceText(formatter *OutputFormatter, result TraceResult, full bool) error {
	w := formatter.Writer

	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No cycles found.")
	} else {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"Seq", "Token", "Outcome", "Views", "Actions", "Hash", "Error"})
		for _, ev := range result.Timeline {
			hash := ev.RequestHash
			if len(hash) > 12 {
				hash = hash[:12]
			}
			tw.AppendRow(table.Row{ev.Seq, ev.Token, ev.Outcome, ev.Views, ev.Actions, hash, ev.Error})
		}
		tw.Render()
	}

	if full {
		for _, ev := range result.Timeline {
			fmt.Fprintf(w, "\n%s\n  request:  %s\n", ev.Token, ev.Request)
			if ev.Response != nil {
				fmt.Fprintf(w, "  response: %s\n", ev.Response)
			}
		}
	}

	s := result.Stats
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Cycles: %d total, %d success, %d error, %d unauthorized\n",
		s.Total, s.Success, s.Error, s.Unauthorized)
	return nil
}
