package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/presenter/internal/engine"
	"github.com/roach88/presenter/internal/viewconfig"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                         `json:"valid"`
	Views  []string                     `json:"views,omitempty"`
	Files  []string                     `json:"files,omitempty"`
	Errors []viewconfig.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-path>",
		Short: "Validate view configurations",
		Long: `Load view configurations from a file or directory of CUE, JSON and YAML
files and check them: every component has a type, query inputs are named
and well formed, base routes and event actions exist.

Exit codes:
  0 - All views valid
  1 - Validation errors found
  2 - Configuration could not be loaded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, err := viewconfig.Load(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d view(s) from %d file(s)", len(loaded.Views), len(loaded.Files))

	errs := viewconfig.Validate(loaded.Views, viewconfig.WithActions(engine.DefaultRegistry().Has))
	if len(errs) > 0 {
		return outputValidationErrors(formatter, loaded, errs)
	}

	if formatter.isJSON() {
		return formatter.Success(ValidationResult{Valid: true, Views: loaded.Names(), Files: loaded.Files})
	}
	fmt.Fprintf(formatter.Writer, "✓ %d view(s) valid\n", len(loaded.Views))
	return nil
}

// outputLoadError reports a configuration that could not be loaded.
func outputLoadError(formatter *OutputFormatter, err error) error {
	code, message := viewconfig.ErrCodeLoadFailed, err.Error()
	var loadErr *viewconfig.LoadError
	if errors.As(err, &loadErr) {
		code = loadErr.Code
	}
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

func outputValidationErrors(formatter *OutputFormatter, loaded *viewconfig.Result, errs []viewconfig.ValidationError) error {
	message := fmt.Sprintf("validation failed with %d error(s)", len(errs))
	if formatter.isJSON() {
		return formatter.Failure(ExitFailure, errs[0].Code, message, ValidationResult{
			Valid:  false,
			Views:  loaded.Names(),
			Files:  loaded.Files,
			Errors: errs,
		})
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "%s\n  %s: %s\n\n", e.Field, e.Code, e.Message)
	}
	return NewExitError(ExitFailure, message)
}
