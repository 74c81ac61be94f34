package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tester"
	"github.com/roach88/tester/internal/engine"
	"github.com/roach88/tester/internal/env"
	"github.com/roach88/tester/internal/harness"
	"github.com/roach88/tester/internal/plugins/webserver"
	"github.com/roach88/tester/internal/store"
	"github.com/roach88/tester/internal/suite"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Run      []string
	Skip     []string
	Dotenv   []string
	Filter   string
	NoColor  bool

	// Client backs the http.get command. Nil uses http.DefaultClient.
	Client *http.Client
}

// RunReport is the result of a run in JSON output.
type RunReport struct {
	RunID   string       `json:"run_id,omitempty"`
	Suites  []string     `json:"suites"`
	Tests   int          `json:"tests"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Skipped int          `json:"skipped"`
	Cases   []CaseReport `json:"cases"`
}

// CaseReport is one case of a RunReport.
type CaseReport struct {
	ID         string   `json:"id"`
	Status     string   `json:"status"`
	Command    string   `json:"command,omitempty"`
	DurationMS int64    `json:"duration_ms"`
	Errors     []string `json:"errors,omitempty"`
	SkipReason string   `json:"skip_reason,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run test suites",
		Long: `Run the suites found in the given files and directories.

Directories are searched recursively for .yaml, .yml, .json and .cue files.
Without arguments the suites listed in the config file are run. Testcases
run one at a time in file order; exports carry over between files.

Exit codes:
  0 - All tests passed
  1 - One or more tests failed
  2 - Command error (invalid paths, bad suite files, database errors)

Examples:
  tester run ./suites
  tester run ./suites --run 'login/.*' --skip slow
  tester run ./suites --db ./history.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuites(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringArrayVar(&opts.Run, "run", nil, "only run tests whose ID matches (regex per path component, repeatable)")
	cmd.Flags().StringArrayVar(&opts.Skip, "skip", nil, "skip tests whose ID matches (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Dotenv, "dotenv", nil, "load environment overrides from a dotenv file (repeatable)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only load suite files whose name matches this glob")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	return cmd
}

func runSuites(opts *RunOptions, args []string, cmd *cobra.Command) error {
	cfg := opts.config()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	files, err := loadSuites(formatter, orDefault(args, cfg.Suites), opts.Filter)
	if err != nil {
		return err
	}

	filters, err := harness.NewRegexFilters(orDefault(opts.Run, cfg.Run), orDefault(opts.Skip, cfg.Skip))
	if err != nil {
		return fail(formatter, ExitCommandError, CodeInvalidArguments, "invalid test filter", err)
	}

	e := env.New()
	if err := e.LoadDotenv(append(slices.Clone(cfg.Dotenv), opts.Dotenv...)...); err != nil {
		return fail(formatter, ExitCommandError, CodeLoadFailed, "failed to load dotenv", err)
	}

	ws := webserver.New(webserver.Options{CORS: true})
	commands := make(map[string]string)
	tr := newTester(e, ws, opts.Client,
		tester.WithLogger(logger),
		tester.WithObserver(func(o engine.Outcome) {
			commands[suite.JoinPath(o.Path)] = o.Command
		}),
	)
	tr.AfterTest(func(ctx context.Context) error {
		if ws.Running() {
			return ws.Stop(ctx)
		}
		return nil
	})
	for _, f := range files {
		formatter.VerboseLog("loaded %s (%d testcases)", f.Path, suite.Count(f.Nodes))
		tr.Test(f.Nodes...)
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Warn("received signal, skipping remaining tests", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	hconf := harness.Config{Filter: filters, Logger: logger}
	if !formatter.json() {
		hconf.TestLogger = harness.ConsoleTestLogger{
			Out:     cmd.OutOrStdout(),
			Verbose: opts.Verbose,
			NoColor: opts.NoColor,
		}
	}

	started := time.Now()
	results := tr.Run(ctx, hconf)
	finished := time.Now()

	report := newRunReport(results, commands, suitePaths(files))

	db := opts.Database
	if db == "" {
		db = cfg.DB
	}
	if db != "" {
		id, err := recordRun(context.WithoutCancel(ctx), db, logger, report, started, finished, tr.Exports().Snapshot())
		if err != nil {
			return fail(formatter, ExitCommandError, CodeStoreFailed, "failed to record run", err)
		}
		report.RunID = id
	}

	return outputRun(formatter, results, report, opts.NoColor)
}

// newTester builds a Tester with the builtin and webserver commands.
func newTester(e *env.Env, ws *webserver.WebServer, client *http.Client, opts ...tester.Option) *tester.Tester {
	base := []tester.Option{tester.WithEnv(e), tester.WithBuiltins(client)}
	tr := tester.New(append(base, opts...)...)
	tr.Use(webserver.Commands(ws)...)
	return tr
}

// loadSuites loads paths and reports problems through formatter.
func loadSuites(formatter *OutputFormatter, paths []string, filter string) ([]*suite.File, error) {
	if len(paths) == 0 {
		return nil, fail(formatter, ExitCommandError, CodeInvalidArguments, "no suite paths given", nil)
	}
	files, err := suite.LoadPaths(paths, filter)
	if err != nil {
		return nil, fail(formatter, ExitCommandError, CodeLoadFailed, "failed to load suites", err)
	}
	if len(files) == 0 {
		return nil, fail(formatter, ExitCommandError, CodeLoadFailed, "no suite files found", nil)
	}
	return files, nil
}

func newRunReport(results harness.Results, commands map[string]string, suites []string) *RunReport {
	report := &RunReport{
		Suites:  suites,
		Tests:   len(results.Tests),
		Passed:  results.Passed(),
		Failed:  len(results.Failures),
		Skipped: len(results.Skipped),
		Cases:   make([]CaseReport, 0, len(results.Tests)),
	}
	for _, r := range results.Tests {
		id := r.TestID.String()
		c := CaseReport{
			ID:         id,
			Status:     string(r.Status),
			Command:    commands[id],
			DurationMS: r.Duration.Milliseconds(),
			SkipReason: r.SkipReason,
		}
		for _, err := range r.Errors {
			c.Errors = append(c.Errors, err.Error())
		}
		report.Cases = append(report.Cases, c)
	}
	return report
}

func (r *RunReport) records() []store.CaseRecord {
	out := make([]store.CaseRecord, len(r.Cases))
	for i, c := range r.Cases {
		out[i] = store.CaseRecord{
			TestID:   c.ID,
			Status:   c.Status,
			Command:  c.Command,
			Duration: time.Duration(c.DurationMS) * time.Millisecond,
			Errors:   c.Errors,
		}
	}
	return out
}

func recordRun(ctx context.Context, path string, logger *slog.Logger, report *RunReport,
	started, finished time.Time, exported map[string]any) (string, error) {
	st, err := store.Open(path, store.WithLogger(logger))
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	return st.SaveRun(ctx, store.RunRecord{
		StartedAt:  started,
		FinishedAt: finished,
		Suites:     report.Suites,
		Cases:      report.records(),
		Exports:    exported,
	})
}

func outputRun(formatter *OutputFormatter, results harness.Results, report *RunReport, noColor bool) error {
	var failed *ExitError
	if report.Failed > 0 {
		failed = NewExitError(ExitFailure, fmt.Sprintf("%d test(s) failed", report.Failed))
		failed.Reported = true
	}

	if formatter.json() {
		if failed != nil {
			if err := formatter.Failure(CodeTestFailed, failed.Message, report, nil); err != nil {
				return err
			}
			return failed
		}
		return formatter.Success(report)
	}

	w := formatter.Writer
	fmt.Fprintln(w)
	harness.PrintResults(w, results, noColor)
	if report.RunID != "" {
		fmt.Fprintf(w, "Run recorded: %s\n", report.RunID)
	}
	if failed != nil {
		return failed
	}
	return nil
}

func suitePaths(files []*suite.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

// orDefault returns flags unless empty, then fallback.
func orDefault(flags, fallback []string) []string {
	if len(flags) > 0 {
		return flags
	}
	return fallback
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
