// Package executor drives parsed .hone files: it groups each file's nodes
// into TEST blocks, runs each block in its own shell session, evaluates
// assertions against captured RunResults, and rolls the outcome up into a
// TestResults summary.
package executor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hone-lang/hone/internal/assertions"
	"github.com/hone-lang/hone/internal/ast"
	"github.com/hone-lang/hone/internal/discovery"
	"github.com/hone-lang/hone/internal/invariant"
	"github.com/hone-lang/hone/internal/parser"
	"github.com/hone-lang/hone/internal/redact"
	"github.com/hone-lang/hone/internal/shellsession"
)

// RunnerOptions configures one invocation of RunTests.
type RunnerOptions struct {
	Shell   string
	Verbose bool
}

// TestFailure records why one TEST block (or an entire file's parse) failed.
type TestFailure struct {
	Filename   string `json:"filename"`
	Line       int    `json:"line"`
	TestName   string `json:"test_name,omitempty"`
	RunCommand string `json:"run_command,omitempty"`
	Assertion  string `json:"assertion,omitempty"`
	Expected   string `json:"expected,omitempty"`
	Actual     string `json:"actual,omitempty"`
	Error      string `json:"error,omitempty"`
}

// TestResults is the final tally across every file a run touched.
type TestResults struct {
	TotalFiles       int           `json:"total_files"`
	PassedFiles      int           `json:"passed_files"`
	FailedFiles      int           `json:"failed_files"`
	TotalAssertions  int           `json:"total_assertions"`
	PassedAssertions int           `json:"passed_assertions"`
	FailedAssertions int           `json:"failed_assertions"`
	Failures         []TestFailure `json:"failures"`
}

// Reporter receives progress events as RunTests executes. Implementations
// only need to satisfy this shape — nothing in this package imports a
// concrete reporter, so any renderer (text, JSON, silent) can be injected.
type Reporter interface {
	OnFileStart(filename string)
	OnRunComplete(runID string, success bool)
	OnAssertionPass()
	OnParseErrors(errs []ast.ParseError)
	OnWarning(message string)
	OnFailure(failure TestFailure)
	OnSummary(results TestResults)
}

// NullReporter discards every event. Useful for embedding the executor in
// a context (tests, scripting) that wants only the final TestResults.
type NullReporter struct{}

func (NullReporter) OnFileStart(string)             {}
func (NullReporter) OnRunComplete(string, bool)     {}
func (NullReporter) OnAssertionPass()               {}
func (NullReporter) OnParseErrors([]ast.ParseError) {}
func (NullReporter) OnWarning(string)               {}
func (NullReporter) OnFailure(TestFailure)          {}
func (NullReporter) OnSummary(TestResults)          {}

type testBlock struct {
	testName string
	testLine int
	nodes    []ast.Node
}

type fileRunResult struct {
	passed           bool
	assertionsPassed int
	assertionsFailed int
	failure          *TestFailure
}

// RunTests resolves patterns to .hone files, parses each, and executes the
// valid ones in sequence, reporting progress through reporter.
func RunTests(patterns []string, options RunnerOptions, reporter Reporter) (TestResults, error) {
	cwd, err := filepath.Abs(".")
	if err != nil {
		return TestResults{}, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	scrubber, err := redact.NewScrubber()
	if err != nil {
		return TestResults{}, err
	}

	files, err := discovery.ResolveAll(patterns, cwd)
	if err != nil {
		return TestResults{}, err
	}

	if len(files) == 0 {
		reporter.OnWarning(fmt.Sprintf("No test files found matching: %s", joinPatterns(patterns)))
		return TestResults{}, nil
	}

	var parseFailures []TestFailure
	type parsed struct {
		filename string
		nodes    []ast.Node
	}
	var validFiles []parsed

	for _, file := range files {
		content, err := discovery.ReadFile(file)
		if err != nil {
			return TestResults{}, err
		}

		result := parser.Parse(content, file)

		for _, w := range result.Warnings {
			reporter.OnWarning(fmt.Sprintf("%s:%d :: %s", file, w.Line, w.Message))
		}

		if len(result.Errors) > 0 {
			reporter.OnParseErrors(result.Errors)
			for _, e := range result.Errors {
				parseFailures = append(parseFailures, TestFailure{
					Filename: file,
					Line:     e.Line,
					Error:    e.Message,
				})
			}
			continue
		}

		validFiles = append(validFiles, parsed{filename: file, nodes: result.Nodes})
	}

	var fileResults []fileRunResult
	for _, f := range validFiles {
		result, err := runFile(f.nodes, f.filename, options, reporter, scrubber)
		if err != nil {
			return TestResults{}, err
		}
		fileResults = append(fileResults, result)
	}

	totalAssertions := 0
	passedAssertions := 0
	failedAssertions := 0
	passedFiles := 0
	var failures []TestFailure
	failures = append(failures, parseFailures...)

	for _, r := range fileResults {
		totalAssertions += r.assertionsPassed + r.assertionsFailed
		passedAssertions += r.assertionsPassed
		failedAssertions += r.assertionsFailed
		if r.passed {
			passedFiles++
		}
		if r.failure != nil {
			failures = append(failures, *r.failure)
		}
	}

	for i := range failures {
		scrubFailure(&failures[i], scrubber)
	}

	results := TestResults{
		TotalFiles:       len(files),
		PassedFiles:      passedFiles,
		FailedFiles:      len(files) - passedFiles,
		TotalAssertions:  totalAssertions,
		PassedAssertions: passedAssertions,
		FailedAssertions: failedAssertions,
		Failures:         failures,
	}

	reporter.OnSummary(results)
	return results, nil
}

func joinPatterns(patterns []string) string {
	out := ""
	for i, p := range patterns {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

func runFile(nodes []ast.Node, filename string, options RunnerOptions, reporter Reporter, scrubber *redact.Scrubber) (fileRunResult, error) {
	cwd := filepath.Dir(filename)
	basename := filepath.Base(filename)

	reporter.OnFileStart(basename)

	var pragmas []ast.PragmaNode
	for _, n := range nodes {
		if n.Kind == ast.NodePragma {
			pragmas = append(pragmas, n.Pragma)
			if n.Pragma.Type == ast.PragmaEnv && redact.IsLikelySecretKey(n.Pragma.Key) {
				scrubber.Track(n.Pragma.Value)
			}
		}
	}

	shellConfig := shellsession.CreateConfig(pragmas, filename, cwd, options.Shell)

	blocks := groupNodesByTest(nodes)

	totalPassed := 0
	var failure *TestFailure

	for _, block := range blocks {
		session := shellsession.New(shellConfig)
		if err := session.Start(context.Background()); err != nil {
			failure = &TestFailure{
				Filename: filename,
				Line:     block.testLine,
				TestName: block.testName,
				Error:    fmt.Sprintf("Failed to start shell: %v", err),
			}
			break
		}

		result := executeTestBlock(block, session, filename, reporter, scrubber)
		_ = session.Stop()

		totalPassed += result.assertionsPassed

		if result.failure != nil {
			failure = result.failure
			break
		}
	}

	if failure != nil {
		scrubFailure(failure, scrubber)
		reporter.OnFailure(*failure)
		return fileRunResult{passed: false, assertionsPassed: totalPassed, assertionsFailed: 1, failure: failure}, nil
	}

	return fileRunResult{passed: true, assertionsPassed: totalPassed}, nil
}

// scrubFailure replaces any tracked secret values in a failure's
// user-visible fields with their placeholders, in place.
func scrubFailure(f *TestFailure, scrubber *redact.Scrubber) {
	f.RunCommand = scrubber.Scrub(f.RunCommand)
	f.Assertion = scrubber.Scrub(f.Assertion)
	f.Expected = scrubber.Scrub(f.Expected)
	f.Actual = scrubber.Scrub(f.Actual)
	f.Error = scrubber.Scrub(f.Error)
}

func groupNodesByTest(nodes []ast.Node) []testBlock {
	var blocks []testBlock
	current := testBlock{}
	hasCurrent := false

	flush := func() {
		if hasCurrent && (current.testName != "" || len(current.nodes) > 0 || current.testLine != 0) {
			blocks = append(blocks, current)
		}
	}

	for _, n := range nodes {
		switch n.Kind {
		case ast.NodeTest:
			flush()
			current = testBlock{testName: n.Test.Name, testLine: n.Test.Line}
			hasCurrent = true
		case ast.NodePragma, ast.NodeComment:
			// not part of any block
		default:
			current.nodes = append(current.nodes, n)
			hasCurrent = true
		}
	}
	flush()

	return blocks
}

type executeResult struct {
	assertionsPassed int
	failure          *TestFailure
}

func executeTestBlock(block testBlock, session *shellsession.Session, filename string, reporter Reporter, scrubber *redact.Scrubber) executeResult {
	invariant.NotNil(session, "shell session")
	session.SetCurrentTest(block.testName)

	var lastRun *shellsession.RunResult
	runResults := map[string]shellsession.RunResult{}
	assertionsPassed := 0
	var pendingEnv []ast.EnvNode

	for _, node := range block.nodes {
		switch node.Kind {
		case ast.NodeEnv:
			if redact.IsLikelySecretKey(node.Env.Key) {
				scrubber.Track(node.Env.Value)
			}
			pendingEnv = append(pendingEnv, node.Env)

		case ast.NodeRun:
			if len(pendingEnv) > 0 {
				if err := session.SetEnvVars(pendingEnv); err != nil {
					return executeResult{
						assertionsPassed: assertionsPassed,
						failure: &TestFailure{
							Filename: filename,
							Line:     node.Run.Line,
							TestName: block.testName,
							Error:    fmt.Sprintf("Failed to set environment variables: %v", err),
						},
					}
				}
				pendingEnv = nil
			}

			result, err := session.Run(node.Run.Command, node.Run.Name)
			if err != nil {
				reporter.OnRunComplete("", false)
				return executeResult{
					assertionsPassed: assertionsPassed,
					failure: &TestFailure{
						Filename:   filename,
						Line:       node.Run.Line,
						TestName:   block.testName,
						RunCommand: node.Run.Command,
						Error:      err.Error(),
					},
				}
			}

			reporter.OnRunComplete(result.RunID, true)
			if node.Run.Name != "" {
				runResults[node.Run.Name] = result
			}
			r := result
			lastRun = &r

		case ast.NodeAssert:
			result := evaluateAssertion(node.Assert, lastRun, runResults, session)
			if !result.Passed {
				runCommand := ""
				if lastRun != nil {
					runCommand = lastRun.RunID
				}
				return executeResult{
					assertionsPassed: assertionsPassed,
					failure: &TestFailure{
						Filename:   filename,
						Line:       node.Assert.Line,
						TestName:   block.testName,
						RunCommand: runCommand,
						Assertion:  node.Assert.Raw,
						Expected:   result.Expected,
						Actual:     result.Actual,
						Error:      result.Error,
					},
				}
			}

			assertionsPassed++
			reporter.OnAssertionPass()
		}
	}

	return executeResult{assertionsPassed: assertionsPassed}
}

func evaluateAssertion(node ast.AssertNode, lastRun *shellsession.RunResult, runResults map[string]shellsession.RunResult, session *shellsession.Session) assertions.Result {
	expr := node.Expression

	switch expr.Kind {
	case ast.AssertOutput:
		target, errResult := resolveTarget(expr.Target, lastRun, runResults)
		if errResult != nil {
			return *errResult
		}
		source := assertions.OutputSource{Stdout: target.Stdout, StdoutRaw: target.StdoutRaw, Stderr: target.Stderr}
		output := assertions.SelectOutput(source, expr.Selector)
		return assertions.EvaluateOutput(output, expr.Output)

	case ast.AssertExitCode:
		target, errResult := resolveTarget(expr.Target, lastRun, runResults)
		if errResult != nil {
			return *errResult
		}
		return assertions.EvaluateExitCode(target.ExitCode, expr.ExitCode)

	case ast.AssertDuration:
		target, errResult := resolveTarget(expr.Target, lastRun, runResults)
		if errResult != nil {
			return *errResult
		}
		return assertions.EvaluateDuration(target.DurationMs, expr.Duration)

	case ast.AssertFile:
		cwd, err := session.GetCwd()
		if err != nil {
			cwd = "."
		}
		return assertions.EvaluateFile(expr.FilePath, expr.FilePredicate, cwd)

	default:
		return assertions.Result{Passed: false}
	}
}

func resolveTarget(target string, lastRun *shellsession.RunResult, runResults map[string]shellsession.RunResult) (*shellsession.RunResult, *assertions.Result) {
	if target != "" {
		r, ok := runResults[target]
		if !ok {
			res := assertions.Result{Passed: false, Expected: fmt.Sprintf("RUN named %q to exist", target), Actual: "RUN not found"}
			return nil, &res
		}
		return &r, nil
	}

	if lastRun == nil {
		res := assertions.Result{
			Passed:   false,
			Expected: "a previous RUN command",
			Actual:   "no RUN command executed",
			Error:    "ASSERT without a preceding RUN",
		}
		return nil, &res
	}
	return lastRun, nil
}
