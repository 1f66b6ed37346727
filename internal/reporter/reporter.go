// Package reporter renders test-run progress and results to a terminal
// (or, in JSON mode, to a single machine-readable document).
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/hone-lang/hone/internal/ast"
	"github.com/hone-lang/hone/internal/executor"
)

// OutputFormat selects how a Reporter renders its final output.
type OutputFormat int

const (
	FormatText OutputFormat = iota
	FormatJSON
)

func canColor(w io.Writer) bool {
	if os.Getenv("TERM") == "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

type colorizer struct{ enabled bool }

func (c colorizer) wrap(code, s string) string {
	if !c.enabled {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func (c colorizer) red(s string) string    { return c.wrap("31", s) }
func (c colorizer) green(s string) string  { return c.wrap("32", s) }
func (c colorizer) yellow(s string) string { return c.wrap("33", s) }
func (c colorizer) dim(s string) string    { return c.wrap("2", s) }

// DefaultReporter prints progress dots and failure detail to stdout/stderr,
// or accumulates a JSON document when Format is FormatJSON.
type DefaultReporter struct {
	Verbose bool
	Format  OutputFormat
	Stdout  io.Writer
	Stderr  io.Writer

	color colorizer
}

// New builds a DefaultReporter writing to os.Stdout/os.Stderr.
func New(verbose bool, format OutputFormat) *DefaultReporter {
	r := &DefaultReporter{Verbose: verbose, Format: format, Stdout: os.Stdout, Stderr: os.Stderr}
	r.color = colorizer{enabled: canColor(os.Stdout)}
	return r
}

func (r *DefaultReporter) isJSON() bool { return r.Format == FormatJSON }

func (r *DefaultReporter) OnFileStart(filename string) {
	if r.isJSON() {
		return
	}
	fmt.Fprintf(r.Stdout, "Running %s\n", filename)
}

func (r *DefaultReporter) OnRunComplete(runID string, success bool) {
	if r.isJSON() {
		return
	}
	mark := r.color.green("✓")
	if !success {
		mark = r.color.red("✗")
	}
	fmt.Fprint(r.Stdout, mark)
	if r.Verbose && runID != "" {
		fmt.Fprintf(r.Stdout, " (%s)", r.color.dim(runID))
	}
}

func (r *DefaultReporter) OnAssertionPass() {
	if r.isJSON() || !r.Verbose {
		return
	}
	fmt.Fprint(r.Stdout, ".")
}

func (r *DefaultReporter) OnParseErrors(errs []ast.ParseError) {
	if r.isJSON() {
		return
	}
	for _, e := range errs {
		fmt.Fprintf(r.Stdout, "%s %s %s\n", r.color.red("Parse Error:"), r.color.dim(fmt.Sprintf(":%d", e.Line)), e.Message)
	}
}

func (r *DefaultReporter) OnWarning(message string) {
	if r.isJSON() {
		return
	}
	fmt.Fprintf(r.Stderr, "%s %s\n", r.color.yellow("Warning:"), message)
}

func (r *DefaultReporter) OnFailure(failure executor.TestFailure) {
	if r.isJSON() {
		return
	}
	PrintFailure(r.Stdout, r.color, failure, r.Verbose)
}

func (r *DefaultReporter) OnSummary(results executor.TestResults) {
	if r.isJSON() {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			fmt.Fprintf(r.Stdout, `{"error": %q}`+"\n", err.Error())
			return
		}
		fmt.Fprintln(r.Stdout, string(data))
		return
	}

	fmt.Fprintln(r.Stdout)

	if results.FailedAssertions == 0 && len(results.Failures) == 0 {
		filesWord := pluralize(results.TotalFiles, "file", "files")
		assertWord := pluralize(results.PassedAssertions, "assertion", "assertions")
		fmt.Fprintf(r.Stdout, "%s All tests passed (%d %s, %d %s)\n",
			r.color.green("✓"), results.TotalFiles, filesWord, results.PassedAssertions, assertWord)
		return
	}

	filesWord := pluralize(results.TotalFiles, "file", "files")
	fmt.Fprintf(r.Stdout, "%s %d of %d %s failed\n",
		r.color.red("✗"), results.FailedFiles, results.TotalFiles, filesWord)
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// PrintFailure renders one TestFailure as a multi-line block.
func PrintFailure(w io.Writer, c colorizer, failure executor.TestFailure, verbose bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	location := c.dim(fmt.Sprintf("%s:%d", failure.Filename, failure.Line))
	testName := ""
	if failure.TestName != "" {
		testName = c.dim(fmt.Sprintf(":: %q", failure.TestName))
	}
	fmt.Fprintf(w, "%s %s %s\n", c.red("FAIL"), location, testName)

	if failure.RunCommand != "" {
		fmt.Fprintf(w, "%s %s\n", c.dim("RUN:"), failure.RunCommand)
	}
	if failure.Assertion != "" {
		fmt.Fprintf(w, "%s %s\n", c.dim("ASSERT:"), failure.Assertion)
	}
	if failure.Expected != "" {
		fmt.Fprintf(w, "%s %s\n", c.yellow("Expected:"), failure.Expected)
	}
	if failure.Actual != "" {
		fmt.Fprintln(w, c.yellow("Actual:"))
		lines := strings.Split(failure.Actual, "\n")
		limit := len(lines)
		if !verbose && limit > 10 {
			limit = 10
		}
		for _, line := range lines[:limit] {
			fmt.Fprintf(w, "   %s %s\n", c.dim(" "), line)
		}
		if !verbose && len(lines) > 10 {
			fmt.Fprintf(w, "   %s ... (%d more lines)\n", c.dim(" "), len(lines)-10)
		}
	}
	if failure.Error != "" {
		fmt.Fprintf(w, "%s %s\n", c.red("Error:"), failure.Error)
	}
}
