package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hone-lang/hone/internal/ast"
)

func parseTestName(t *testing.T, name string) bool {
	t.Helper()
	content := `TEST "` + name + `"`
	c := &collector{}
	_, ok := parseTest(content, 1, c)
	return ok
}

func TestNamesAcceptAnyCharacters(t *testing.T) {
	cases := []string{
		"simple", "Test123", "my test name", "test-with-dashes",
		"test_with_underscores", "test with equals = sign",
		"test: with colon", "is this valid?", "test with @ symbol",
		"test with # hash", "test with $ dollar", "test with * asterisk",
		"test with | pipe",
	}
	for _, name := range cases {
		assert.True(t, parseTestName(t, name), "expected %q to be accepted", name)
	}
}

func TestEmptyTestNameRejected(t *testing.T) {
	content := "TEST \"\"\nRUN echo hello\nASSERT stdout contains \"hello\""
	file := Parse(content, "test.hone")

	require.NotEmpty(t, file.Errors)
	found := false
	for _, e := range file.Errors {
		if strings.Contains(e.Message, "cannot be empty") {
			found = true
		}
	}
	assert.True(t, found, "expected an empty test name error")
}

func TestWhitespaceOnlyTestNameAllowed(t *testing.T) {
	assert.True(t, parseTestName(t, " "))
	assert.True(t, parseTestName(t, "   "))
}

func TestErrorNodeInAST(t *testing.T) {
	content := "TEST \"valid test\"\nINVALID LINE\nRUN echo hello"
	file := Parse(content, "test.hone")

	require.NotEmpty(t, file.Errors)
	foundMsg := false
	for _, e := range file.Errors {
		if strings.Contains(e.Message, "Unknown statement") {
			foundMsg = true
		}
	}
	assert.True(t, foundMsg)

	foundNode := false
	for _, n := range file.Nodes {
		if n.Kind == ast.NodeError {
			foundNode = true
		}
	}
	assert.True(t, foundNode, "expected error nodes in AST for invalid syntax")
}

func TestMultipleErrorsCollected(t *testing.T) {
	content := "INVALID1\nINVALID2\nTEST \"test\"\nINVALID3"
	file := Parse(content, "test.hone")
	assert.Len(t, file.Errors, 3)
}

func TestPragmaEnvRejectsInvalidKeyStartingWithNumber(t *testing.T) {
	file := Parse("#!env: 123ABC=value", "test.hone")
	require.NotEmpty(t, file.Errors)
	assert.Contains(t, file.Errors[0].Message, "Invalid environment variable name")
}

func TestPragmaEnvRejectsKeyWithHyphen(t *testing.T) {
	file := Parse("#!env: MY-VAR=value", "test.hone")
	require.NotEmpty(t, file.Errors)
	assert.Contains(t, file.Errors[0].Message, "Invalid environment variable name")
}

func TestPragmaEnvRejectsEmptyKey(t *testing.T) {
	file := Parse("#!env: =value", "test.hone")
	require.NotEmpty(t, file.Errors)
	assert.Contains(t, file.Errors[0].Message, "empty key")
}

func TestPragmaEnvAcceptsValidKey(t *testing.T) {
	file := Parse("#!env: MY_VAR_123=value", "test.hone")
	require.Empty(t, file.Errors)
	require.Len(t, file.Pragmas, 1)
	assert.Equal(t, "MY_VAR_123", file.Pragmas[0].Key)
}

func TestDuplicateRunNameRejected(t *testing.T) {
	content := "TEST \"dup\"\nRUN setup: echo a\nRUN setup: echo b"
	file := Parse(content, "test.hone")
	require.NotEmpty(t, file.Errors)
	assert.Contains(t, file.Errors[0].Message, "Duplicate RUN name")
}

func TestRunNamesResetPerTestBlock(t *testing.T) {
	content := "TEST \"one\"\nRUN setup: echo a\nTEST \"two\"\nRUN setup: echo b"
	file := Parse(content, "test.hone")
	assert.Empty(t, file.Errors)
}

func TestPragmasOnlyAtTop(t *testing.T) {
	content := "TEST \"t\"\nRUN echo hi\n#! shell: /bin/zsh"
	file := Parse(content, "test.hone")
	require.NotEmpty(t, file.Errors)
	assert.Contains(t, file.Errors[0].Message, "Pragmas must appear at the top")
}

func TestAssertExitCodeEquals(t *testing.T) {
	content := "RUN echo hi\nASSERT exit_code == 0"
	file := Parse(content, "test.hone")
	require.Empty(t, file.Errors)

	var found *ast.AssertNode
	for i := range file.Nodes {
		if file.Nodes[i].Kind == ast.NodeAssert {
			found = &file.Nodes[i].Assert
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, ast.AssertExitCode, found.Expression.Kind)
	assert.Equal(t, int32(0), found.Expression.ExitCode.Value)
	assert.Equal(t, ast.StringOpEqual, found.Expression.ExitCode.Operator)
}

func TestAssertExitCodeOverflow(t *testing.T) {
	content := "ASSERT exit_code == 999999999999999999999"
	file := Parse(content, "test.hone")
	require.NotEmpty(t, file.Errors)
	assert.Contains(t, file.Errors[0].Message, "too large")
}

func TestAssertOutputContains(t *testing.T) {
	content := "ASSERT stdout contains \"hello\""
	file := Parse(content, "test.hone")
	require.Empty(t, file.Errors)
	node := file.Nodes[0].Assert
	assert.Equal(t, ast.OutputContains, node.Expression.Output.Kind)
	assert.Equal(t, "hello", node.Expression.Output.ContainsValue.Value)
}

func TestAssertNamedTarget(t *testing.T) {
	content := "ASSERT build.stdout contains \"ok\""
	file := Parse(content, "test.hone")
	require.Empty(t, file.Errors)
	node := file.Nodes[0].Assert
	assert.Equal(t, "build", node.Expression.Target)
	assert.Equal(t, ast.SelectorStdout, node.Expression.Selector)
}

func TestAssertFileExists(t *testing.T) {
	content := `ASSERT file "out.txt" exists`
	file := Parse(content, "test.hone")
	require.Empty(t, file.Errors)
	node := file.Nodes[0].Assert
	assert.Equal(t, ast.AssertFile, node.Expression.Kind)
	assert.Equal(t, ast.FileExists, node.Expression.FilePredicate.Kind)
	assert.Equal(t, "out.txt", node.Expression.FilePath.Value)
}

func TestAssertDurationComparison(t *testing.T) {
	content := "ASSERT duration < 200ms"
	file := Parse(content, "test.hone")
	require.Empty(t, file.Errors)
	node := file.Nodes[0].Assert
	assert.Equal(t, ast.AssertDuration, node.Expression.Kind)
	assert.Equal(t, ast.OpLessThan, node.Expression.Duration.Operator)
	assert.Equal(t, 200.0, node.Expression.Duration.Value.Value)
}
