// Command hone runs declarative .hone test files against a persistent
// shell session and reports pass/fail with per-assertion diagnostics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hone-lang/hone/internal/config"
	"github.com/hone-lang/hone/internal/executor"
	"github.com/hone-lang/hone/internal/reporter"
)

var (
	shellFlag   string
	verboseFlag bool
	jsonFlag    bool
)

func main() {
	os.Exit(Main())
}

// Main runs the CLI and returns the process exit code, without calling
// os.Exit itself — this lets scripttest drive the binary in-process.
func Main() int {
	cmd := newRootCmd()
	hadTestFailures := false
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		failed, err := runHone(args)
		hadTestFailures = failed
		return err
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if hadTestFailures {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hone [patterns...]",
		Short: "Run declarative shell-command tests",
		Args:  cobra.ArbitraryArgs,
	}

	cmd.Flags().StringVar(&shellFlag, "shell", "", "shell interpreter to use (default: config file, then the file's shell pragma, then $SHELL, then /bin/bash)")
	cmd.Flags().BoolVar(&verboseFlag, "verbose", false, "show per-run and per-assertion progress")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "emit a JSON report instead of text")

	return cmd
}

// runHone executes the test run and reports whether any test failed,
// distinct from err which reports a hard failure to even attempt the run.
func runHone(args []string) (failed bool, err error) {
	cwd, err := os.Getwd()
	if err != nil {
		return false, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	fileConfig, err := config.Load(cwd)
	if err != nil {
		return false, err
	}

	patterns := fileConfig.MergePatterns(args)

	opts := executor.RunnerOptions{
		Shell:   fileConfig.MergeShell(shellFlag),
		Verbose: fileConfig.MergeVerbose(verboseFlag),
	}

	format := reporter.FormatText
	if jsonFlag {
		format = reporter.FormatJSON
	}
	rep := reporter.New(opts.Verbose, format)

	results, err := executor.RunTests(patterns, opts, rep)
	if err != nil {
		return false, err
	}

	return results.FailedFiles > 0 || len(results.Failures) > 0, nil
}
