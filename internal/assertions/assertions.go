// Package assertions evaluates a parsed AssertionExpression against a
// captured RunResult or the filesystem, producing a pass/fail verdict
// plus the expected/actual strings a report renders on failure.
package assertions

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hone-lang/hone/internal/ast"
)

// Result is the outcome of evaluating one assertion.
type Result struct {
	Passed   bool
	Expected string
	Actual   string
	Error    string
}

func newResult(passed bool, expected, actual string) Result {
	return Result{Passed: passed, Expected: expected, Actual: actual}
}

func errorResult(passed bool, expected, actual, errMsg string) Result {
	return Result{Passed: passed, Expected: expected, Actual: actual, Error: errMsg}
}

// OutputSource supplies the three captured streams a Output assertion can
// select between.
type OutputSource struct {
	Stdout    string
	StdoutRaw string
	Stderr    string
}

// SelectOutput returns the stream an OutputSelector names.
func SelectOutput(source OutputSource, selector ast.OutputSelector) string {
	switch selector {
	case ast.SelectorStdout:
		return source.Stdout
	case ast.SelectorStdoutRaw:
		return source.StdoutRaw
	case ast.SelectorStderr:
		return source.Stderr
	default:
		return ""
	}
}

// EvaluateOutput dispatches an OutputPredicate against a captured stream.
func EvaluateOutput(output string, predicate ast.OutputPredicate) Result {
	switch predicate.Kind {
	case ast.OutputContains:
		return evaluateContains(output, predicate.ContainsValue)
	case ast.OutputMatches:
		return evaluateMatches(output, predicate.MatchesValue)
	case ast.OutputEquals:
		return evaluateStringEquals(output, predicate.EqualsOp, predicate.EqualsValue, "")
	default:
		return newResult(false, "", output)
	}
}

func evaluateContains(output string, value ast.StringLiteral) Result {
	passed := strings.Contains(output, value.Value)
	return newResult(passed, "to contain "+value.Raw, output)
}

func evaluateMatches(output string, value ast.RegexLiteral) Result {
	pattern := regexPattern(value)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return errorResult(false, "to match "+value.Raw, output, "Invalid regex: "+err.Error())
	}
	passed := re.MatchString(output)
	return newResult(passed, "to match "+value.Raw, output)
}

func regexPattern(value ast.RegexLiteral) string {
	if value.Flags == "" {
		return value.Pattern
	}
	return "(?" + translateRegexFlags(value.Flags) + ")" + value.Pattern
}

// translateRegexFlags maps the source language's flag letters onto Go's
// RE2 inline flag syntax. "g" (global) and "y" (sticky) have no RE2
// equivalent and don't affect MatchString, so they're dropped; "u"
// (unicode) is RE2's default and is also dropped.
func translateRegexFlags(flags string) string {
	var b strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			b.WriteRune(f)
		}
	}
	return b.String()
}

func evaluateStringEquals(actual string, operator ast.StringComparisonOperator, value ast.StringLiteral, prefix string) Result {
	normalizedActual := normalizeWhitespace(actual)
	normalizedValue := normalizeWhitespace(value.Value)

	isEqual := normalizedActual == normalizedValue
	passed := isEqual
	if operator == ast.StringOpNotEqual {
		passed = !isEqual
	}

	return newResult(passed, fmt.Sprintf("%s%s %s", prefix, operator.String(), value.Raw), actual)
}

// normalizeWhitespace canonicalizes line endings and trims per-line
// trailing whitespace plus the string's own leading/trailing whitespace,
// so an Equals assertion isn't defeated by a shell's CRLF quirks or a
// stray trailing space a command happened to print.
func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\v\f")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// EvaluateExitCode compares an observed exit code against the declared
// predicate. Only equality and inequality are meaningful for exit codes.
func EvaluateExitCode(exitCode int32, predicate ast.ExitCodePredicate) Result {
	isEqual := exitCode == predicate.Value
	passed := isEqual
	if predicate.Operator == ast.StringOpNotEqual {
		passed = !isEqual
	}
	expected := fmt.Sprintf("exit_code %s %d", predicate.Operator.String(), predicate.Value)
	return newResult(passed, expected, fmt.Sprintf("%d", exitCode))
}

// EvaluateDuration compares an observed duration (ms) against a declared
// duration using any of the six comparison operators.
func EvaluateDuration(durationMs int64, predicate ast.DurationPredicate) Result {
	expectedMs := predicate.Value.Milliseconds()
	passed := compareFloat(float64(durationMs), predicate.Operator, float64(expectedMs))
	expected := "duration " + predicate.Operator.String() + " " + predicate.Value.Raw
	return newResult(passed, expected, formatDuration(durationMs))
}

func compareFloat(actual float64, op ast.ComparisonOperator, expected float64) bool {
	switch op {
	case ast.OpEqual:
		return actual == expected
	case ast.OpNotEqual:
		return actual != expected
	case ast.OpLessThan:
		return actual < expected
	case ast.OpLessThanOrEqual:
		return actual <= expected
	case ast.OpGreaterThan:
		return actual > expected
	case ast.OpGreaterThanOrEqual:
		return actual >= expected
	default:
		return false
	}
}

func formatDuration(durationMs int64) string {
	if durationMs >= 1000 {
		return fmt.Sprintf("%.2fs", float64(durationMs)/1000.0)
	}
	return fmt.Sprintf("%dms", durationMs)
}

// fileExistsResult is the outcome of probing the filesystem for a path,
// distinguishing an exact match from a match that only differs by case
// (common on case-insensitive filesystems, where a test author's typo in
// casing would otherwise go unnoticed).
type fileExistsResult struct {
	exists      bool
	casingMatch bool
	actualName  string
}

func checkFileExists(path string) fileExistsResult {
	if _, err := os.Lstat(path); err != nil {
		return fileExistsResult{exists: false, casingMatch: true}
	}

	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fileExistsResult{exists: true, casingMatch: true}
	}

	expectedName := filepath.Base(path)
	actualName := filepath.Base(realPath)

	if expectedName != actualName {
		return fileExistsResult{exists: true, casingMatch: false, actualName: actualName}
	}
	return fileExistsResult{exists: true, casingMatch: true}
}

// EvaluateFile resolves path relative to cwd and dispatches the
// FilePredicate against it.
func EvaluateFile(filePath ast.StringLiteral, predicate ast.FilePredicate, cwd string) Result {
	resolvedPath := filepath.Join(cwd, filePath.Value)

	switch predicate.Kind {
	case ast.FileExists:
		return evaluateFileExists(resolvedPath, filePath.Raw)
	case ast.FileContains:
		return evaluateFileContains(resolvedPath, predicate.ContainsValue, filePath.Raw)
	case ast.FileMatches:
		return evaluateFileMatches(resolvedPath, predicate.MatchesValue, filePath.Raw)
	case ast.FileEquals:
		return evaluateFileEquals(resolvedPath, predicate.EqualsOp, predicate.EqualsValue, filePath.Raw)
	default:
		return newResult(false, "", "")
	}
}

func evaluateFileExists(resolvedPath, pathRaw string) Result {
	result := checkFileExists(resolvedPath)

	if result.exists && !result.casingMatch {
		return errorResult(
			false,
			"file "+pathRaw+" to exist",
			fmt.Sprintf("file exists but with different casing: %q", result.actualName),
			fmt.Sprintf("Case mismatch: expected %q but found %q", filepath.Base(resolvedPath), result.actualName),
		)
	}

	actual := "file does not exist"
	if result.exists {
		actual = "file exists"
	}
	return newResult(result.exists, "file "+pathRaw+" to exist", actual)
}

func readFileContent(resolvedPath, pathRaw string) (string, *Result) {
	result := checkFileExists(resolvedPath)

	if !result.exists {
		r := newResult(false, "file "+pathRaw+" to exist", "file does not exist")
		return "", &r
	}

	if !result.casingMatch {
		r := errorResult(
			false,
			"file "+pathRaw+" to exist with exact casing",
			fmt.Sprintf("file exists but with different casing: %q", result.actualName),
			fmt.Sprintf("Case mismatch: expected %q but found %q", filepath.Base(resolvedPath), result.actualName),
		)
		return "", &r
	}

	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		r := newResult(false, "to read file "+pathRaw, "failed to read file: "+err.Error())
		return "", &r
	}

	return string(content), nil
}

func evaluateFileContains(resolvedPath string, value ast.StringLiteral, pathRaw string) Result {
	content, errResult := readFileContent(resolvedPath, pathRaw)
	if errResult != nil {
		return *errResult
	}

	passed := strings.Contains(content, value.Value)
	return newResult(passed, "file "+pathRaw+" to contain "+value.Raw, content)
}

func evaluateFileMatches(resolvedPath string, value ast.RegexLiteral, pathRaw string) Result {
	content, errResult := readFileContent(resolvedPath, pathRaw)
	if errResult != nil {
		return *errResult
	}

	pattern := regexPattern(value)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return errorResult(false, "file "+pathRaw+" to match "+value.Raw, content, "Invalid regex: "+err.Error())
	}

	passed := re.MatchString(content)
	return newResult(passed, "file "+pathRaw+" to match "+value.Raw, content)
}

func evaluateFileEquals(resolvedPath string, operator ast.StringComparisonOperator, value ast.StringLiteral, pathRaw string) Result {
	content, errResult := readFileContent(resolvedPath, pathRaw)
	if errResult != nil {
		return *errResult
	}

	normalizedContent := normalizeWhitespace(content)
	normalizedValue := normalizeWhitespace(value.Value)

	isEqual := normalizedContent == normalizedValue
	passed := isEqual
	if operator == ast.StringOpNotEqual {
		passed = !isEqual
	}

	expected := fmt.Sprintf("file %s %s %s", pathRaw, operator.String(), value.Raw)
	return newResult(passed, expected, content)
}
