package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/presenter/internal/ir"
	"github.com/roach88/presenter/internal/request"
	"github.com/roach88/presenter/internal/state"
	"github.com/roach88/presenter/internal/viewconfig"
)

// RequestOptions holds flags for the request command.
type RequestOptions struct {
	*RootOptions
	Views []string
	User  int64
}

// RequestResult is the batch a first load of the named views would send.
type RequestResult struct {
	Hash    string `json:"hash"`
	Request any    `json:"request"`
}

// NewRequestCommand creates the request command.
func NewRequestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "request <config-path>",
		Short: "Print the initial state request for views",
		Long: `Build the state request that mounting the given views would send,
without contacting a backend. Views get ids in flag order starting at 0.

Examples:
  presenter request ./views --view dashboard
  presenter request ./views --view dashboard --view orders --user 7 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Views, "view", nil, "view to mount (repeatable, required)")
	_ = cmd.MarkFlagRequired("view")
	cmd.Flags().Int64Var(&opts.User, "user", 0, "logged-in user id for $me placeholders")

	return cmd
}

func runRequest(opts *RequestOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := viewconfig.Load(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	req, err := BuildInitialRequest(loaded.Views, opts.Views, opts.User)
	if err != nil {
		_ = formatter.Error("E_REQUEST", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to build request", err)
	}

	hash, err := ir.RequestHash(req)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash request", err)
	}
	body, err := ir.MarshalCanonical(req.ToIR())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode request", err)
	}

	if formatter.isJSON() {
		return formatter.Success(RequestResult{Hash: hash, Request: ir.ToAny(req.ToIR())})
	}
	fmt.Fprintf(formatter.Writer, "hash: %s\n", hash)
	fmt.Fprintln(formatter.Writer, string(body))
	return nil
}

// BuildInitialRequest mounts each named view in a scratch store and returns
// the batch its first load would send.
func BuildInitialRequest(configs map[string]*ir.ViewConfig, views []string, user int64) (*ir.StateRequest, error) {
	st := state.NewStore()
	st.SetConfig(configs)
	if user != 0 {
		st.SetLoggedUser(&state.User{ID: user})
	}

	for _, name := range views {
		if configs[name] == nil {
			return nil, fmt.Errorf("view %q: %w", name, request.ErrViewConfigNotFound)
		}
		id := st.AllocateViewID()
		st.CreateView(id, name)
		vr, err := request.BuildRequest(st.Snapshot(), id, nil)
		if err != nil {
			return nil, err
		}
		st.SetViewRequest(id, vr)
	}
	return request.BuildViewsRequest(st.Snapshot(), nil).Request, nil
}
