package assertions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hone-lang/hone/internal/ast"
)

func strLit(value string) ast.StringLiteral {
	return ast.StringLiteral{Value: value, Raw: `"` + value + `"`, QuoteType: ast.QuoteDouble}
}

func regexLit(pattern, flags string) ast.RegexLiteral {
	return ast.RegexLiteral{Pattern: pattern, Flags: flags, Raw: "/" + pattern + "/" + flags}
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "", normalizeWhitespace(""))
	assert.Equal(t, "", normalizeWhitespace("   \n  \n  "))
	assert.Equal(t, "hello world", normalizeWhitespace("hello world"))
	assert.Equal(t, "line1\nline2", normalizeWhitespace("line1  \nline2  "))
	assert.Equal(t, "hello\n  world", normalizeWhitespace("  hello  \n  world  "))
	assert.Equal(t, "line1\nline2", normalizeWhitespace("line1\r\nline2\r\n"))
	assert.Equal(t, "line1\nline2\nline3", normalizeWhitespace("line1\r\nline2\nline3"))
}

func TestEvaluateContains(t *testing.T) {
	assert.True(t, EvaluateOutput("hello world", ast.OutputPredicate{Kind: ast.OutputContains, ContainsValue: strLit("hello")}).Passed)
	assert.False(t, EvaluateOutput("hello world", ast.OutputPredicate{Kind: ast.OutputContains, ContainsValue: strLit("goodbye")}).Passed)
	assert.False(t, EvaluateOutput("", ast.OutputPredicate{Kind: ast.OutputContains, ContainsValue: strLit("test")}).Passed)
}

func TestEvaluateEquals(t *testing.T) {
	assert.True(t, EvaluateOutput("hello", ast.OutputPredicate{Kind: ast.OutputEquals, EqualsOp: ast.StringOpEqual, EqualsValue: strLit("hello")}).Passed)
	assert.False(t, EvaluateOutput("goodbye", ast.OutputPredicate{Kind: ast.OutputEquals, EqualsOp: ast.StringOpEqual, EqualsValue: strLit("hello")}).Passed)
	assert.True(t, EvaluateOutput("goodbye", ast.OutputPredicate{Kind: ast.OutputEquals, EqualsOp: ast.StringOpNotEqual, EqualsValue: strLit("hello")}).Passed)
}

func TestEvaluateEqualsWhitespaceNormalization(t *testing.T) {
	value := ast.StringLiteral{Value: "line1\nline2", Raw: `"line1\nline2"`}
	result := EvaluateOutput("line1  \r\nline2  ", ast.OutputPredicate{Kind: ast.OutputEquals, EqualsOp: ast.StringOpEqual, EqualsValue: value})
	assert.True(t, result.Passed)
}

func TestEvaluateMatches(t *testing.T) {
	assert.True(t, EvaluateOutput("hello world", ast.OutputPredicate{Kind: ast.OutputMatches, MatchesValue: regexLit("hello.*", "")}).Passed)
	assert.False(t, EvaluateOutput("hello world", ast.OutputPredicate{Kind: ast.OutputMatches, MatchesValue: regexLit("^goodbye", "")}).Passed)
	assert.True(t, EvaluateOutput("hello world", ast.OutputPredicate{Kind: ast.OutputMatches, MatchesValue: regexLit("HELLO", "i")}).Passed)
	assert.True(t, EvaluateOutput("line1\nline2", ast.OutputPredicate{Kind: ast.OutputMatches, MatchesValue: regexLit("^line2", "m")}).Passed)
}

func TestEvaluateMatchesInvalidRegex(t *testing.T) {
	result := EvaluateOutput("test", ast.OutputPredicate{Kind: ast.OutputMatches, MatchesValue: regexLit("[unclosed", "")})
	assert.False(t, result.Passed)
	require.NotEmpty(t, result.Error)
	assert.Contains(t, result.Error, "Invalid regex")
}

func TestEvaluateExitCode(t *testing.T) {
	result := EvaluateExitCode(0, ast.ExitCodePredicate{Operator: ast.StringOpEqual, Value: 0})
	assert.True(t, result.Passed)
	assert.Equal(t, "0", result.Actual)

	result = EvaluateExitCode(1, ast.ExitCodePredicate{Operator: ast.StringOpNotEqual, Value: 0})
	assert.True(t, result.Passed)
}

func TestEvaluateDuration(t *testing.T) {
	pred := ast.DurationPredicate{Operator: ast.OpLessThan, Value: ast.Duration{Value: 200, Unit: ast.DurationMilliseconds, Raw: "200ms"}}
	assert.True(t, EvaluateDuration(100, pred).Passed)
	assert.False(t, EvaluateDuration(300, pred).Passed)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "500ms", formatDuration(500))
	assert.Equal(t, "1.50s", formatDuration(1500))
}

func TestEvaluateFileExistsNonexistent(t *testing.T) {
	path := strLit("nonexistent-file-hone-test.txt")
	result := EvaluateFile(path, ast.FilePredicate{Kind: ast.FileExists}, t.TempDir())
	assert.False(t, result.Passed)
	assert.Contains(t, result.Actual, "does not exist")
}

func TestEvaluateFileExistsExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "exists.txt"), []byte("content"), 0o644))

	result := EvaluateFile(strLit("exists.txt"), ast.FilePredicate{Kind: ast.FileExists}, dir)
	assert.True(t, result.Passed)
}

func TestEvaluateFileContains(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contains.txt"), []byte("hello world"), 0o644))

	result := EvaluateFile(strLit("contains.txt"), ast.FilePredicate{Kind: ast.FileContains, ContainsValue: strLit("world")}, dir)
	assert.True(t, result.Passed)

	result = EvaluateFile(strLit("contains.txt"), ast.FilePredicate{Kind: ast.FileContains, ContainsValue: strLit("goodbye")}, dir)
	assert.False(t, result.Passed)
}

func TestEvaluateFileEqualsNormalized(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "equals.txt"), []byte("line1  \r\nline2  "), 0o644))

	result := EvaluateFile(strLit("equals.txt"), ast.FilePredicate{Kind: ast.FileEquals, EqualsOp: ast.StringOpEqual, EqualsValue: strLit("line1\nline2")}, dir)
	assert.True(t, result.Passed)
}
