package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tester/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Test     string
}

// RunView is a stored run in JSON output. Cases and exports are only
// filled in when a single run is shown.
type RunView struct {
	ID         string         `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Suites     []string       `json:"suites"`
	Tests      int            `json:"tests"`
	Passed     int            `json:"passed"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"`
	Cases      []CaseReport   `json:"cases,omitempty"`
	Exports    map[string]any `json:"exports,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id|latest]",
		Short: "Show recorded runs",
		Long: `Show runs recorded with "tester run --db".

Without arguments the most recent runs are listed. With a run ID, or
"latest", that run is shown with its cases and exports. With --test the
outcomes of one test across runs are listed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the run history database")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of entries (0 for all)")
	cmd.Flags().StringVar(&opts.Test, "test", "", "show the history of one test ID")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	db := opts.Database
	if db == "" {
		db = opts.config().DB
	}
	if db == "" {
		return fail(formatter, ExitCommandError, CodeInvalidArguments, "no database given (use --db or set db in the config file)", nil)
	}
	// Opening would create the file, so a typo must not silently succeed.
	if _, err := os.Stat(db); err != nil {
		return fail(formatter, ExitCommandError, CodeStoreFailed, fmt.Sprintf("database not found: %s", db), err)
	}

	st, err := store.Open(db, store.WithLogger(newLogger(cmd.ErrOrStderr(), opts.Verbose)))
	if err != nil {
		return fail(formatter, ExitCommandError, CodeStoreFailed, "failed to open database", err)
	}
	defer st.Close()

	ctx := commandContext(cmd)
	switch {
	case opts.Test != "":
		cases, err := st.CaseHistory(ctx, opts.Test, opts.Limit)
		if err != nil {
			return fail(formatter, ExitCommandError, CodeStoreFailed, "failed to read history", err)
		}
		return outputCaseHistory(formatter, cases)

	case len(args) == 1:
		var rec *store.RunRecord
		if args[0] == "latest" {
			rec, err = st.LatestRun(ctx)
		} else {
			rec, err = st.ReadRun(ctx, args[0])
		}
		if errors.Is(err, store.ErrNotFound) {
			return fail(formatter, ExitCommandError, CodeRunNotFound, fmt.Sprintf("run not found: %s", args[0]), nil)
		}
		if err != nil {
			return fail(formatter, ExitCommandError, CodeStoreFailed, "failed to read run", err)
		}
		return outputRunDetail(formatter, rec)

	default:
		runs, err := st.ListRuns(ctx, opts.Limit)
		if err != nil {
			return fail(formatter, ExitCommandError, CodeStoreFailed, "failed to list runs", err)
		}
		return outputRunList(formatter, runs)
	}
}

func newRunView(sum store.RunSummary) RunView {
	return RunView{
		ID:         sum.ID,
		StartedAt:  sum.StartedAt,
		FinishedAt: sum.FinishedAt,
		Suites:     sum.Suites,
		Tests:      sum.Total,
		Passed:     sum.Passed,
		Failed:     sum.Failed,
		Skipped:    sum.Skipped,
	}
}

func caseReports(cases []store.CaseRecord) []CaseReport {
	out := make([]CaseReport, len(cases))
	for i, c := range cases {
		out[i] = CaseReport{
			ID:         c.TestID,
			Status:     c.Status,
			Command:    c.Command,
			DurationMS: c.Duration.Milliseconds(),
			Errors:     c.Errors,
		}
	}
	return out
}

func outputRunList(formatter *OutputFormatter, runs []store.RunSummary) error {
	views := make([]RunView, len(runs))
	for i, r := range runs {
		views[i] = newRunView(r)
	}
	if formatter.json() {
		return formatter.Success(views)
	}
	if len(views) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tTESTS\tPASSED\tFAILED\tSKIPPED")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n",
			v.ID, v.StartedAt.Local().Format(time.DateTime), v.Tests, v.Passed, v.Failed, v.Skipped)
	}
	return tw.Flush()
}

func outputRunDetail(formatter *OutputFormatter, rec *store.RunRecord) error {
	view := newRunView(rec.Summary())
	view.Cases = caseReports(rec.Cases)
	view.Exports = rec.Exports
	if formatter.json() {
		return formatter.Success(view)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s\n", view.ID)
	fmt.Fprintf(w, "Started:  %s\n", view.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "Duration: %s\n", view.FinishedAt.Sub(view.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "Suites:   %s\n", strings.Join(view.Suites, ", "))
	fmt.Fprintf(w, "Results:  %d passed, %d failed, %d skipped\n\n", view.Passed, view.Failed, view.Skipped)
	for _, c := range view.Cases {
		fmt.Fprintf(w, "  %-7s %s\n", strings.ToUpper(c.Status), c.ID)
		for _, e := range c.Errors {
			for _, line := range strings.Split(e, "\n") {
				fmt.Fprintf(w, "          %s\n", line)
			}
		}
	}
	return nil
}

func outputCaseHistory(formatter *OutputFormatter, cases []store.CaseRecord) error {
	reports := caseReports(cases)
	if formatter.json() {
		return formatter.Success(reports)
	}
	if len(reports) == 0 {
		fmt.Fprintln(formatter.Writer, "No recorded outcomes.")
		return nil
	}
	for _, c := range reports {
		fmt.Fprintf(formatter.Writer, "%-7s %dms\n", strings.ToUpper(c.Status), c.DurationMS)
	}
	return nil
}
