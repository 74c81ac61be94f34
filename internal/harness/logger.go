package harness

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	errorColor   = color.New(color.FgYellow)
	failedColor  = color.New(color.FgRed)
	skippedColor = color.New(color.Faint, color.FgBlue)
	passedColor  = color.New(color.FgGreen)
)

// TestLogger receives progress events from Runner.
type TestLogger interface {
	TestStarted(id TestID)
	TestError(id TestID, err error)
	TestFinished(id TestID, failed bool, elapsed time.Duration)
	TestSkipped(id TestID, reason string)
}

type nullTestLogger struct{}

func (nullTestLogger) TestStarted(TestID)                       {}
func (nullTestLogger) TestError(TestID, error)                  {}
func (nullTestLogger) TestFinished(TestID, bool, time.Duration) {}
func (nullTestLogger) TestSkipped(TestID, string)               {}

// ConsoleTestLogger prints progress in color.
type ConsoleTestLogger struct {
	Out     io.Writer // defaults to os.Stdout
	Verbose bool      // also print passing cases with their duration
	NoColor bool
}

func (c ConsoleTestLogger) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c ConsoleTestLogger) print(col *color.Color, format string, args ...any) {
	if c.NoColor {
		fmt.Fprintf(c.out(), format, args...)
		return
	}
	_, _ = col.Fprintf(c.out(), format, args...)
}

func (c ConsoleTestLogger) TestStarted(id TestID) {
	fmt.Fprintf(c.out(), "[%s]\n", id)
}

func (c ConsoleTestLogger) TestError(_ TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		c.print(errorColor, "  %s\n", line)
	}
}

func (c ConsoleTestLogger) TestFinished(id TestID, failed bool, elapsed time.Duration) {
	switch {
	case failed:
		c.print(failedColor, "  FAILED: %s\n", id)
	case c.Verbose:
		c.print(passedColor, "  ok (%s)\n", elapsed.Round(time.Millisecond))
	}
}

func (c ConsoleTestLogger) TestSkipped(id TestID, reason string) {
	if reason == "" {
		c.print(skippedColor, "  SKIPPED: %s\n", id)
	} else {
		c.print(skippedColor, "  SKIPPED: %s (%s)\n", id, reason)
	}
}

// PrintResults writes a summary of results to w.
func PrintResults(w io.Writer, results Results, noColor bool) {
	c := ConsoleTestLogger{Out: w, NoColor: noColor}
	if results.OK() {
		c.print(passedColor, "All tests passed (%d passed, %d skipped)\n", results.Passed(), len(results.Skipped))
		return
	}
	c.print(failedColor, "FAILED TESTS (%d):\n", len(results.Failures))
	for _, f := range results.Failures {
		c.print(failedColor, "  * %s\n", f.TestID)
	}
	fmt.Fprintf(w, "%d passed, %d failed, %d skipped\n", results.Passed(), len(results.Failures), len(results.Skipped))
}
