// Package lexer turns a single line of a .hone file into a classified
// token, and provides the token-level literal parsers (strings, regexes,
// durations, numbers, comparison operators) the parser composes into full
// statements. All positions are rune offsets, not byte offsets, so a
// caller indexing into the original line must walk runes rather than
// bytes.
package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/hone-lang/hone/internal/ast"
)

// TokenType classifies a line by its leading keyword or punctuation.
type TokenType int

const (
	TokenPragma TokenType = iota
	TokenComment
	TokenTest
	TokenRun
	TokenAssert
	TokenEnv
	TokenEmpty
	TokenUnknown
)

// Token is a classified line, trimmed of surrounding whitespace.
type Token struct {
	Type    TokenType
	Content string
	Line    int
}

// ClassifyLine inspects the trimmed line and tags it by its leading
// keyword. Keyword matches require a trailing space ("TEST ", "RUN ", ...)
// so that e.g. "RUNNER" is not mistaken for a RUN statement.
func ClassifyLine(line string, lineNumber int) Token {
	trimmed := strings.TrimSpace(line)

	switch {
	case trimmed == "":
		return Token{Type: TokenEmpty, Content: trimmed, Line: lineNumber}
	case strings.HasPrefix(trimmed, "#!"):
		return Token{Type: TokenPragma, Content: trimmed, Line: lineNumber}
	case strings.HasPrefix(trimmed, "#"):
		return Token{Type: TokenComment, Content: trimmed, Line: lineNumber}
	case strings.HasPrefix(trimmed, "TEST "):
		return Token{Type: TokenTest, Content: trimmed, Line: lineNumber}
	case strings.HasPrefix(trimmed, "RUN "):
		return Token{Type: TokenRun, Content: trimmed, Line: lineNumber}
	case strings.HasPrefix(trimmed, "ASSERT "):
		return Token{Type: TokenAssert, Content: trimmed, Line: lineNumber}
	case strings.HasPrefix(trimmed, "ENV "):
		return Token{Type: TokenEnv, Content: trimmed, Line: lineNumber}
	default:
		return Token{Type: TokenUnknown, Content: trimmed, Line: lineNumber}
	}
}

// ParseStringLiteral reads a single- or double-quoted string starting at
// the rune offset startIndex. Double-quoted strings decode \n, \t, \" and
// \\; anything else after a backslash is kept literally, backslash and
// all. Single-quoted strings never decode escapes: a backslash is always
// literal. It returns the literal and the rune offset just past the
// closing quote, or ok=false if startIndex isn't a quote or the string is
// unterminated.
func ParseStringLiteral(input string, startIndex int) (ast.StringLiteral, int, bool) {
	runes := []rune(input)
	if startIndex >= len(runes) {
		return ast.StringLiteral{}, 0, false
	}

	startChar := runes[startIndex]
	if startChar != '"' && startChar != '\'' {
		return ast.StringLiteral{}, 0, false
	}

	quoteType := ast.QuoteDouble
	if startChar == '\'' {
		quoteType = ast.QuoteSingle
	}

	var value strings.Builder
	i := startIndex + 1
	escaped := false

	for i < len(runes) {
		ch := runes[i]

		switch {
		case escaped:
			if quoteType == ast.QuoteDouble {
				switch ch {
				case 'n':
					value.WriteRune('\n')
				case 't':
					value.WriteRune('\t')
				case '"':
					value.WriteRune('"')
				case '\\':
					value.WriteRune('\\')
				default:
					value.WriteRune('\\')
					value.WriteRune(ch)
				}
			} else {
				value.WriteRune('\\')
				value.WriteRune(ch)
			}
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == startChar:
			endIndex := i + 1
			raw := string(runes[startIndex:endIndex])
			return ast.StringLiteral{Value: value.String(), Raw: raw, QuoteType: quoteType}, endIndex, true
		default:
			value.WriteRune(ch)
		}
		i++
	}

	return ast.StringLiteral{}, 0, false
}

// ParseRegexLiteral reads a /pattern/flags literal starting at the rune
// offset startIndex. Flags are any run of the characters g, i, m, s, u, y
// immediately following the closing slash.
func ParseRegexLiteral(input string, startIndex int) (ast.RegexLiteral, int, bool) {
	runes := []rune(input)
	if startIndex >= len(runes) || runes[startIndex] != '/' {
		return ast.RegexLiteral{}, 0, false
	}

	var pattern strings.Builder
	i := startIndex + 1
	escaped := false

	for i < len(runes) {
		ch := runes[i]

		switch {
		case escaped:
			pattern.WriteRune(ch)
			escaped = false
		case ch == '\\':
			pattern.WriteRune(ch)
			escaped = true
		case ch == '/':
			i++
			var flags strings.Builder
			for i < len(runes) && isRegexFlag(runes[i]) {
				flags.WriteRune(runes[i])
				i++
			}
			raw := string(runes[startIndex:i])
			return ast.RegexLiteral{Pattern: pattern.String(), Flags: flags.String(), Raw: raw}, i, true
		default:
			pattern.WriteRune(ch)
		}
		i++
	}

	return ast.RegexLiteral{}, 0, false
}

func isRegexFlag(r rune) bool {
	switch r {
	case 'g', 'i', 'm', 's', 'u', 'y':
		return true
	default:
		return false
	}
}

// ParseDuration reads a numeric literal followed by a unit ("ms" or "s")
// starting at the rune offset startIndex, skipping leading spaces first.
func ParseDuration(input string, startIndex int) (ast.Duration, int, bool) {
	runes := []rune(input)
	i := startIndex

	for i < len(runes) && runes[i] == ' ' {
		i++
	}

	numStart := i
	for i < len(runes) && (unicode.IsDigit(runes[i]) && runes[i] < 128 || runes[i] == '.') {
		i++
	}

	if i == numStart {
		return ast.Duration{}, 0, false
	}

	numStr := string(runes[numStart:i])
	value, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return ast.Duration{}, 0, false
	}

	unitStart := i
	for i < len(runes) && runes[i] >= 'a' && runes[i] <= 'z' {
		i++
	}

	var unit ast.DurationUnit
	switch string(runes[unitStart:i]) {
	case "ms":
		unit = ast.DurationMilliseconds
	case "s":
		unit = ast.DurationSeconds
	default:
		return ast.Duration{}, 0, false
	}

	raw := strings.TrimSpace(string(runes[startIndex:i]))
	return ast.Duration{Value: value, Unit: unit, Raw: raw}, i, true
}

// ParseNumber reads an optionally negative run of ASCII digits starting at
// the rune offset startIndex, skipping leading spaces first, as a signed
// 32-bit value.
func ParseNumber(input string, startIndex int) (int32, int, bool) {
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
		return 0, 0, false
	}

	numStr := string(runes[numStart:i])
	value, err := strconv.ParseInt(numStr, 10, 32)
	if err != nil {
		return 0, 0, false
	}

	return int32(value), i, true
}

// SkipWhitespace advances past a run of ASCII spaces (not tabs) starting
// at the rune offset startIndex.
func SkipWhitespace(input string, startIndex int) int {
	runes := []rune(input)
	i := startIndex
	for i < len(runes) && runes[i] == ' ' {
		i++
	}
	return i
}

// MatchWord reports whether word occurs at the rune offset startIndex and
// is followed by a word boundary: a space, a dot, or end of input. This
// lets "stdout.raw" be recognized as the word "stdout" followed by ".raw"
// without also matching a hypothetical "stdoutx".
func MatchWord(input string, startIndex int, word string) bool {
	runes := []rune(input)
	wordRunes := []rune(word)

	if startIndex+len(wordRunes) > len(runes) {
		return false
	}

	for i, ch := range wordRunes {
		if runes[startIndex+i] != ch {
			return false
		}
	}

	nextIndex := startIndex + len(wordRunes)
	if nextIndex >= len(runes) {
		return true
	}

	nextChar := runes[nextIndex]
	return nextChar == ' ' || nextChar == '.'
}

// ParseComparisonOperator reads one of the six comparison operators
// starting at the rune offset startIndex, skipping leading spaces first.
// Two-character operators are checked before their one-character prefixes
// so "<=" isn't mistaken for "<".
func ParseComparisonOperator(input string, startIndex int) (ast.ComparisonOperator, int, bool) {
	runes := []rune(input)
	i := SkipWhitespace(input, startIndex)
	remaining := string(runes[i:])

	switch {
	case strings.HasPrefix(remaining, "=="):
		return ast.OpEqual, i + 2, true
	case strings.HasPrefix(remaining, "!="):
		return ast.OpNotEqual, i + 2, true
	case strings.HasPrefix(remaining, "<="):
		return ast.OpLessThanOrEqual, i + 2, true
	case strings.HasPrefix(remaining, ">="):
		return ast.OpGreaterThanOrEqual, i + 2, true
	case strings.HasPrefix(remaining, "<"):
		return ast.OpLessThan, i + 1, true
	case strings.HasPrefix(remaining, ">"):
		return ast.OpGreaterThan, i + 1, true
	default:
		return 0, 0, false
	}
}
