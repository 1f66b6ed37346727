// Package parser turns the lines of a .hone file into a ParsedFile. It
// never fails outright: a line it can't make sense of becomes an Error
// node plus a matching entry in ParsedFile.Errors, and parsing continues
// with the next line. This lets tooling built on top of the AST (editor
// integrations, formatters) work against a file that is still being
// written.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hone-lang/hone/internal/ast"
	"github.com/hone-lang/hone/internal/lexer"
)

var (
	pragmaEnvKeyRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	envKeyRe       = pragmaEnvKeyRe
	namedRunRe     = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_-]*):\s*`)
	namedTargetRe  = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_-]*)\.(.+)`)
)

type collector struct {
	errors   []ast.ParseError
	warnings []ast.ParseWarning
}

func (c *collector) addError(message string, line int) {
	c.errors = append(c.errors, ast.ParseError{Message: message, Line: line})
}

func (c *collector) addWarning(message string, line int) {
	c.warnings = append(c.warnings, ast.ParseWarning{Message: message, Line: line})
}

// Parse parses the full contents of a .hone file, always returning a
// complete ParsedFile regardless of how malformed content is.
func Parse(content, filename string) ast.ParsedFile {
	lines := strings.Split(content, "\n")
	// strings.Split on a trailing newline produces a spurious final empty
	// element; content.lines() in the reference implementation does not
	// emit one for a final "\n", so drop it to match line numbering.
	if len(lines) > 0 && lines[len(lines)-1] == "" && strings.HasSuffix(content, "\n") {
		lines = lines[:len(lines)-1]
	}

	c := &collector{}
	var pragmas []ast.PragmaNode
	var nodes []ast.Node
	runNames := map[string]bool{}
	inPragmaSection := true

	for i, line := range lines {
		lineNumber := i + 1
		token := lexer.ClassifyLine(line, lineNumber)
		errCount := len(c.errors)

		switch token.Type {
		case lexer.TokenEmpty:
			// skip

		case lexer.TokenComment:
			nodes = append(nodes, ast.Node{
				Kind: ast.NodeComment,
				Comment: ast.CommentNode{
					Text: strings.TrimSpace(strings.TrimPrefix(token.Content, "#")),
					Line: lineNumber,
				},
			})

		case lexer.TokenPragma:
			if !inPragmaSection {
				c.addError("Pragmas must appear at the top of the file", lineNumber)
			} else if pragma, ok := parsePragma(token.Content, lineNumber, c); ok {
				pragmas = append(pragmas, pragma)
				nodes = append(nodes, ast.Node{Kind: ast.NodePragma, Pragma: pragma})
			}

		case lexer.TokenTest:
			inPragmaSection = false
			runNames = map[string]bool{}
			if test, ok := parseTest(token.Content, lineNumber, c); ok {
				nodes = append(nodes, ast.Node{Kind: ast.NodeTest, Test: test})
			}

		case lexer.TokenRun:
			inPragmaSection = false
			if run, ok := parseRun(token.Content, lineNumber, c, runNames); ok {
				nodes = append(nodes, ast.Node{Kind: ast.NodeRun, Run: run})
			}

		case lexer.TokenAssert:
			inPragmaSection = false
			if assertNode, ok := parseAssert(token.Content, lineNumber, c); ok {
				nodes = append(nodes, ast.Node{Kind: ast.NodeAssert, Assert: assertNode})
			}

		case lexer.TokenEnv:
			inPragmaSection = false
			if env, ok := parseEnv(token.Content, lineNumber, c); ok {
				nodes = append(nodes, ast.Node{Kind: ast.NodeEnv, Env: env})
			}

		case lexer.TokenUnknown:
			inPragmaSection = false
			message := "Unknown statement: " + token.Content
			nodes = append(nodes, ast.Node{
				Kind: ast.NodeError,
				Error: ast.ErrorNode{
					Message: message,
					Span:    ast.SingleLine(lineNumber, 0, len([]rune(line))),
					Raw:     token.Content,
				},
			})
			c.addError(message, lineNumber)
		}

		if len(c.errors) > errCount && token.Type != lexer.TokenUnknown {
			nodes = append(nodes, ast.Node{
				Kind: ast.NodeError,
				Error: ast.ErrorNode{
					Message: c.errors[len(c.errors)-1].Message,
					Span:    ast.SingleLine(lineNumber, 0, len([]rune(line))),
					Raw:     token.Content,
				},
			})
		}
	}

	return ast.ParsedFile{
		Filename: filename,
		Pragmas:  pragmas,
		Nodes:    nodes,
		Warnings: c.warnings,
		Errors:   c.errors,
	}
}

func parsePragma(content string, line int, c *collector) (ast.PragmaNode, bool) {
	rest := strings.TrimSpace(content[2:])

	colonIndex := strings.IndexByte(rest, ':')
	if colonIndex == -1 {
		if rest == "" {
			c.addWarning("Invalid pragma syntax: empty pragma", line)
		} else {
			c.addWarning("Invalid pragma syntax: expected 'key: value' format, got '"+rest+"'", line)
		}
		return ast.PragmaNode{}, false
	}

	pragmaKey := strings.ToLower(strings.TrimSpace(rest[:colonIndex]))
	pragmaValue := strings.TrimSpace(rest[colonIndex+1:])

	switch pragmaKey {
	case "shell":
		return ast.PragmaNode{Type: ast.PragmaShell, Value: pragmaValue, Line: line, Raw: content}, true

	case "env":
		eqIndex := strings.IndexByte(pragmaValue, '=')
		if eqIndex == -1 {
			c.addError("Invalid env pragma: "+content, line)
			return ast.PragmaNode{}, false
		}
		envKey := strings.TrimSpace(pragmaValue[:eqIndex])
		envValue := pragmaValue[eqIndex+1:]

		if envKey == "" {
			c.addError("Invalid env pragma: empty key", line)
			return ast.PragmaNode{}, false
		}
		if !pragmaEnvKeyRe.MatchString(envKey) {
			c.addError("Invalid environment variable name: \""+envKey+"\". Names must start with a letter or underscore and contain only alphanumeric characters and underscores", line)
			return ast.PragmaNode{}, false
		}

		return ast.PragmaNode{Type: ast.PragmaEnv, Key: envKey, Value: envValue, Line: line, Raw: content}, true

	case "timeout":
		duration, _, ok := lexer.ParseDuration(pragmaValue, 0)
		if !ok {
			c.addError("Invalid timeout format: "+pragmaValue+". Expected format: <number>s or <number>ms", line)
			return ast.PragmaNode{}, false
		}

		msValue := duration.Value
		if duration.Unit == ast.DurationSeconds {
			msValue = duration.Value * 1000.0
		}
		if msValue < 1.0 {
			c.addError("Timeout value too small: "+pragmaValue+". Minimum timeout is 1ms", line)
			return ast.PragmaNode{}, false
		}

		return ast.PragmaNode{Type: ast.PragmaTimeout, Value: pragmaValue, Line: line, Raw: content}, true

	default:
		c.addWarning("Unknown pragma: "+pragmaKey, line)
		return ast.PragmaNode{Type: ast.PragmaUnknown, Value: rest, Line: line, Raw: content}, true
	}
}

func parseTest(content string, line int, c *collector) (ast.TestNode, bool) {
	rest := content[5:] // after "TEST "
	lit, _, ok := lexer.ParseStringLiteral(rest, 0)
	if !ok {
		c.addError("Expected quoted string after TEST", line)
		return ast.TestNode{}, false
	}

	if lit.Value == "" {
		c.addError("Test name cannot be empty", line)
		return ast.TestNode{}, false
	}

	return ast.TestNode{Name: lit.Value, Line: line}, true
}

func parseRun(content string, line int, c *collector, runNames map[string]bool) (ast.RunNode, bool) {
	rest := content[4:] // after "RUN "

	if loc := namedRunRe.FindStringSubmatchIndex(rest); loc != nil {
		name := rest[loc[2]:loc[3]]
		matchedLen := loc[1]
		command := rest[matchedLen:]

		if runNames[name] {
			c.addError("Duplicate RUN name: \""+name+"\". RUN names must be unique within a test", line)
			return ast.RunNode{}, false
		}
		runNames[name] = true

		if strings.TrimSpace(command) == "" {
			c.addError("Empty command in RUN statement", line)
			return ast.RunNode{}, false
		}

		return ast.RunNode{Name: name, Command: strings.TrimSpace(command), Line: line}, true
	}

	if strings.TrimSpace(rest) == "" {
		c.addError("Empty command in RUN statement", line)
		return ast.RunNode{}, false
	}

	return ast.RunNode{Command: strings.TrimSpace(rest), Line: line}, true
}

func parseEnv(content string, line int, c *collector) (ast.EnvNode, bool) {
	rest := content[4:] // after "ENV "
	eqIndex := strings.IndexByte(rest, '=')
	if eqIndex == -1 {
		c.addError("Invalid ENV syntax: expected KEY=value format", line)
		return ast.EnvNode{}, false
	}

	key := strings.TrimSpace(rest[:eqIndex])
	value := rest[eqIndex+1:]

	if key == "" {
		c.addError("Invalid ENV syntax: empty key", line)
		return ast.EnvNode{}, false
	}

	if !envKeyRe.MatchString(key) {
		c.addError("Invalid environment variable name: \""+key+"\". Names must start with a letter or underscore and contain only alphanumeric characters and underscores", line)
		return ast.EnvNode{}, false
	}

	return ast.EnvNode{Key: key, Value: value, Line: line}, true
}

func parseAssert(content string, line int, c *collector) (ast.AssertNode, bool) {
	rest := content[7:] // after "ASSERT "
	expr, ok := parseAssertionExpression(rest, line, c)
	if !ok {
		return ast.AssertNode{}, false
	}
	return ast.AssertNode{Expression: expr, Line: line, Raw: content}, true
}

func parseAssertionExpression(input string, line int, c *collector) (ast.AssertionExpression, bool) {
	i := lexer.SkipWhitespace(input, 0)

	if lexer.MatchWord(input, i, "file") {
		return parseFileAssertion(input, line, c)
	}

	if lexer.MatchWord(input, i, "stdout.raw") {
		i += 10
		return parseOutputAssertion(input, i, ast.SelectorStdoutRaw, "", line, c)
	}

	target := ""
	effectiveInput := input
	if m := namedTargetRe.FindStringSubmatchIndex(input); m != nil {
		potentialTarget := input[m[2]:m[3]]
		remainder := input[m[4]:m[5]]
		switch potentialTarget {
		case "stdout", "stderr", "exit_code", "duration":
			// reserved words, not a named target
		default:
			target = potentialTarget
			effectiveInput = remainder
			i = 0
		}
	}

	if lexer.MatchWord(effectiveInput, i, "stdout.raw") {
		i += 10
		return parseOutputAssertion(effectiveInput, i, ast.SelectorStdoutRaw, target, line, c)
	}

	if lexer.MatchWord(effectiveInput, i, "stdout") {
		i += 6
		return parseOutputAssertion(effectiveInput, i, ast.SelectorStdout, target, line, c)
	}

	if lexer.MatchWord(effectiveInput, i, "stderr") {
		i += 6
		return parseOutputAssertion(effectiveInput, i, ast.SelectorStderr, target, line, c)
	}

	if lexer.MatchWord(effectiveInput, i, "exit_code") {
		i += 9
		return parseExitCodeAssertion(effectiveInput, i, target, line, c)
	}

	if lexer.MatchWord(effectiveInput, i, "duration") {
		i += 8
		return parseDurationAssertion(effectiveInput, i, target, line, c)
	}

	c.addError("Unknown assertion type: "+input, line)
	return ast.AssertionExpression{}, false
}

func parseOutputAssertion(input string, startIndex int, selector ast.OutputSelector, target string, line int, c *collector) (ast.AssertionExpression, bool) {
	i := lexer.SkipWhitespace(input, startIndex)

	if lexer.MatchWord(input, i, "contains") {
		i += 8
		i = lexer.SkipWhitespace(input, i)
		lit, _, ok := lexer.ParseStringLiteral(input, i)
		if !ok {
			c.addError("Expected quoted string after \"contains\"", line)
			return ast.AssertionExpression{}, false
		}
		return ast.AssertionExpression{
			Kind:     ast.AssertOutput,
			Target:   target,
			Selector: selector,
			Output:   ast.OutputPredicate{Kind: ast.OutputContains, ContainsValue: lit},
		}, true
	}

	if lexer.MatchWord(input, i, "matches") {
		i += 7
		i = lexer.SkipWhitespace(input, i)
		lit, _, ok := lexer.ParseRegexLiteral(input, i)
		if !ok {
			c.addError("Expected regex literal after \"matches\"", line)
			return ast.AssertionExpression{}, false
		}
		return ast.AssertionExpression{
			Kind:     ast.AssertOutput,
			Target:   target,
			Selector: selector,
			Output:   ast.OutputPredicate{Kind: ast.OutputMatches, MatchesValue: lit},
		}, true
	}

	if op, endIndex, ok := lexer.ParseComparisonOperator(input, i); ok {
		if op == ast.OpEqual || op == ast.OpNotEqual {
			i = lexer.SkipWhitespace(input, endIndex)
			lit, _, ok := lexer.ParseStringLiteral(input, i)
			if !ok {
				c.addError("Expected quoted string after comparison operator", line)
				return ast.AssertionExpression{}, false
			}
			stringOp := ast.StringOpEqual
			if op == ast.OpNotEqual {
				stringOp = ast.StringOpNotEqual
			}
			return ast.AssertionExpression{
				Kind:     ast.AssertOutput,
				Target:   target,
				Selector: selector,
				Output:   ast.OutputPredicate{Kind: ast.OutputEquals, EqualsOp: stringOp, EqualsValue: lit},
			}, true
		}
	}

	c.addError("Expected predicate (contains, matches, ==, !=) after \""+selector.String()+"\"", line)
	return ast.AssertionExpression{}, false
}

func parseExitCodeAssertion(input string, startIndex int, target string, line int, c *collector) (ast.AssertionExpression, bool) {
	op, endIndex, ok := lexer.ParseComparisonOperator(input, startIndex)
	if !ok || (op != ast.OpEqual && op != ast.OpNotEqual) {
		c.addError("Expected == or != after \"exit_code\"", line)
		return ast.AssertionExpression{}, false
	}

	value, _, state := parseNumberChecked(input, endIndex)
	switch state {
	case numberOverflow:
		c.addError("Exit code value is too large (must fit in i32 range)", line)
		return ast.AssertionExpression{}, false
	case numberInvalid:
		c.addError("Expected number after comparison operator", line)
		return ast.AssertionExpression{}, false
	}

	stringOp := ast.StringOpEqual
	if op == ast.OpNotEqual {
		stringOp = ast.StringOpNotEqual
	}

	return ast.AssertionExpression{
		Kind:     ast.AssertExitCode,
		Target:   target,
		ExitCode: ast.ExitCodePredicate{Operator: stringOp, Value: value},
	}, true
}

func parseDurationAssertion(input string, startIndex int, target string, line int, c *collector) (ast.AssertionExpression, bool) {
	op, endIndex, ok := lexer.ParseComparisonOperator(input, startIndex)
	if !ok {
		c.addError("Expected comparison operator after \"duration\"", line)
		return ast.AssertionExpression{}, false
	}

	durationValue, _, ok := lexer.ParseDuration(input, endIndex)
	if !ok {
		c.addError("Expected duration value (e.g., 200ms, 1.5s) after comparison operator", line)
		return ast.AssertionExpression{}, false
	}

	return ast.AssertionExpression{
		Kind:     ast.AssertDuration,
		Target:   target,
		Duration: ast.DurationPredicate{Operator: op, Value: durationValue},
	}, true
}

func parseFileAssertion(input string, line int, c *collector) (ast.AssertionExpression, bool) {
	i := 4 // after "file"
	i = lexer.SkipWhitespace(input, i)

	path, endIndex, ok := lexer.ParseStringLiteral(input, i)
	if !ok {
		c.addError("Expected quoted file path after \"file\"", line)
		return ast.AssertionExpression{}, false
	}
	i = lexer.SkipWhitespace(input, endIndex)

	if lexer.MatchWord(input, i, "exists") {
		return ast.AssertionExpression{
			Kind:          ast.AssertFile,
			FilePath:      path,
			FilePredicate: ast.FilePredicate{Kind: ast.FileExists},
		}, true
	}

	if lexer.MatchWord(input, i, "contains") {
		i += 8
		i = lexer.SkipWhitespace(input, i)
		lit, _, ok := lexer.ParseStringLiteral(input, i)
		if !ok {
			c.addError("Expected quoted string after \"contains\"", line)
			return ast.AssertionExpression{}, false
		}
		return ast.AssertionExpression{
			Kind:          ast.AssertFile,
			FilePath:      path,
			FilePredicate: ast.FilePredicate{Kind: ast.FileContains, ContainsValue: lit},
		}, true
	}

	if lexer.MatchWord(input, i, "matches") {
		i += 7
		i = lexer.SkipWhitespace(input, i)
		lit, _, ok := lexer.ParseRegexLiteral(input, i)
		if !ok {
			c.addError("Expected regex literal after \"matches\"", line)
			return ast.AssertionExpression{}, false
		}
		return ast.AssertionExpression{
			Kind:          ast.AssertFile,
			FilePath:      path,
			FilePredicate: ast.FilePredicate{Kind: ast.FileMatches, MatchesValue: lit},
		}, true
	}

	if op, endIndex, ok := lexer.ParseComparisonOperator(input, i); ok {
		if op == ast.OpEqual || op == ast.OpNotEqual {
			i = lexer.SkipWhitespace(input, endIndex)
			lit, _, ok := lexer.ParseStringLiteral(input, i)
			if !ok {
				c.addError("Expected quoted string after comparison operator", line)
				return ast.AssertionExpression{}, false
			}
			stringOp := ast.StringOpEqual
			if op == ast.OpNotEqual {
				stringOp = ast.StringOpNotEqual
			}
			return ast.AssertionExpression{
				Kind:          ast.AssertFile,
				FilePath:      path,
				FilePredicate: ast.FilePredicate{Kind: ast.FileEquals, EqualsOp: stringOp, EqualsValue: lit},
			}, true
		}
	}

	c.addError("Expected predicate (exists, contains, matches, ==, !=) after file path", line)
	return ast.AssertionExpression{}, false
}

type numberState int

const (
	numberOK numberState = iota
	numberOverflow
	numberInvalid
)

// parseNumberChecked is like lexer.ParseNumber but distinguishes a value
// that overflows int32 from input that isn't numeric at all, so the
// caller can report the more specific of the two errors.
func parseNumberChecked(input string, startIndex int) (int32, int, numberState) {
	runes := []rune(input)
	i := startIndex
	for i < len(runes) && runes[i] == ' ' {
		i++
	}

	numStart := i
	if i < len(runes) && runes[i] == '-' {
		i++
	}
	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		i++
	}

	if i == numStart || (i == numStart+1 && runes[numStart] == '-') {
		return 0, 0, numberInvalid
	}

	numStr := string(runes[numStart:i])
	value, err := strconv.ParseInt(numStr, 10, 32)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, 0, numberOverflow
		}
		return 0, 0, numberInvalid
	}

	return int32(value), i, numberOK
}
