package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tester/internal/env"
	"github.com/roach88/tester/internal/plugins/webserver"
	"github.com/roach88/tester/internal/suite"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Filter string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                    `json:"valid"`
	Files  []string                `json:"files"`
	Cases  int                     `json:"cases"`
	Errors []suite.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [paths...]",
		Short: "Check suites without running them",
		Long: `Check suite files without invoking any command.

Reports unknown assertion kinds, invalid export names, missing commands or
expectedData, invalid keys, references to exports no earlier testcase
writes, and expressions that cannot be parsed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only load suite files whose name matches this glob")

	return cmd
}

func runValidate(opts *ValidateOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	files, err := loadSuites(formatter, orDefault(args, opts.config().Suites), opts.Filter)
	if err != nil {
		return err
	}

	tr := newTester(env.New(), webserver.New(webserver.Options{}), nil)
	var nodes []suite.Node
	for _, f := range files {
		formatter.VerboseLog("checking %s", f.Path)
		nodes = append(nodes, f.Nodes...)
	}

	errs := suite.Validate(nodes, tr.Registry().Has)
	result := ValidationResult{
		Valid:  len(errs) == 0,
		Files:  suitePaths(files),
		Cases:  suite.Count(nodes),
		Errors: errs,
	}

	if result.Valid {
		if formatter.json() {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "✓ All suites valid (%d files, %d testcases)\n", len(files), result.Cases)
		return nil
	}

	failed := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	failed.Reported = true

	if formatter.json() {
		if err := formatter.Failure(CodeInvalidSuite, failed.Message, result, nil); err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", e)
	}
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintln(formatter.Writer, failed.Message)
	return failed
}
