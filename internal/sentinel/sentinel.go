// Package sentinel implements the out-of-band framing protocol the shell
// session uses to tell a RUN's output apart from everything else flowing
// down the same stdout pipe: the trailer line a wrapped command emits once
// it finishes, and the logic to find and strip that line out of a growing
// read buffer.
package sentinel

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// UnitSeparator is the ASCII byte (0x1F) that delimits sentinel fields. It
// never appears in ordinary command output, so searching for Prefix plus
// this byte can't be fooled by a program that merely prints the word
// "__HONE__".
const UnitSeparator = '\x1f'

// Prefix opens every sentinel line.
const Prefix = "__HONE__"

func marker() string {
	return Prefix + string(rune(UnitSeparator))
}

// Data is the decoded trailer a completed RUN emits.
type Data struct {
	RunID          string
	ExitCode       int32
	EndTimestampMs uint64
}

// GenerateRunID builds the identifier a RUN's sentinel trailer carries,
// derived from the file's basename, the enclosing TEST name (if any), and
// either the RUN's own name or its position within the TEST block.
func GenerateRunID(filename string, testName string, runName string, runIndex int) string {
	parts := make([]string, 0, 3)

	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		base = filename
	}
	parts = append(parts, base)

	if testName != "" {
		parts = append(parts, sanitizeForRunID(testName))
	}

	if runName != "" {
		parts = append(parts, runName)
	} else {
		parts = append(parts, strconv.Itoa(runIndex))
	}

	return strings.Join(parts, "-")
}

func sanitizeForRunID(testName string) string {
	replaced := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '-'
		}
		return r
	}, testName)
	return strings.ToLower(replaced)
}

// escapeForShellString escapes the characters that would let a run ID
// break out of the double-quoted printf format string embedded in the
// shell wrapper.
func escapeForShellString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '$', '`', '\\', '"':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// GenerateShellWrapper wraps command so that, once it finishes, the shell
// emits a sentinel trailer carrying its exit code and completion
// timestamp. The command runs inside a brace group rather than a subshell
// so that side effects on the session's working directory and variables
// persist after it returns; stderr is redirected to stderrPath so it can
// be read back separately from the multiplexed stdout stream.
func GenerateShellWrapper(command, runID, stderrPath string) string {
	escapedStderrPath := strings.ReplaceAll(stderrPath, "'", `'"'"'`)
	escapedRunID := escapeForShellString(runID)

	lines := []string{
		": > '" + escapedStderrPath + "'",
		"{ " + command + " ; } 2> '" + escapedStderrPath + "'",
		"HONE_EC=$?",
		"printf \"" + Prefix + string(rune(UnitSeparator)) + escapedRunID + string(rune(UnitSeparator)) +
			"%d" + string(rune(UnitSeparator)) + "%s\\n\" \"$HONE_EC\" \"$(date +%s%3N)\"",
	}
	return strings.Join(lines, "\n")
}

// ParseSentinel decodes a single sentinel trailer line. It returns false
// if line isn't a well-formed sentinel: the wrong number of fields, a
// field that's empty, or an exit code/timestamp that doesn't parse.
func ParseSentinel(line string) (Data, bool) {
	if !strings.HasPrefix(line, Prefix) {
		return Data{}, false
	}

	parts := strings.Split(line, string(rune(UnitSeparator)))
	if len(parts) != 4 {
		return Data{}, false
	}

	runID, exitCodeStr, timestampStr := parts[1], parts[2], parts[3]
	if runID == "" || exitCodeStr == "" || timestampStr == "" {
		return Data{}, false
	}

	exitCode, err := strconv.ParseInt(exitCodeStr, 10, 32)
	if err != nil {
		return Data{}, false
	}

	timestamp, err := strconv.ParseUint(timestampStr, 10, 64)
	if err != nil {
		return Data{}, false
	}

	return Data{RunID: runID, ExitCode: int32(exitCode), EndTimestampMs: timestamp}, true
}

// ContainsSentinel reports whether line contains the full sentinel marker
// (prefix plus unit separator), ruling out a false match against plain
// text that merely mentions "__HONE__".
func ContainsSentinel(line string) bool {
	return strings.Contains(line, marker())
}

// ExtractResult is the outcome of scanning a read buffer for a complete
// sentinel trailer belonging to a specific run.
type ExtractResult struct {
	Found     bool
	Output    string
	Sentinel  Data
	Remaining string
}

// Extract scans buffer for a sentinel trailer matching expectedRunID. If
// found, it returns the output preceding the trailer (with one trailing
// newline stripped) and whatever came after the trailer's own newline. If
// the marker is present but incomplete (no newline yet), belongs to a
// different run, or fails to parse, Extract reports not-found and hands
// the whole buffer back untouched so the caller can keep accumulating
// reads.
func Extract(buffer, expectedRunID string) ExtractResult {
	notFound := ExtractResult{Found: false, Output: buffer}

	m := marker()
	sentinelIndex := strings.Index(buffer, m)
	if sentinelIndex == -1 {
		return notFound
	}

	output := buffer[:sentinelIndex]
	afterSentinel := buffer[sentinelIndex:]

	newlineIndex := strings.IndexByte(afterSentinel, '\n')
	if newlineIndex == -1 {
		return notFound
	}

	sentinelLine := afterSentinel[:newlineIndex]
	remaining := afterSentinel[newlineIndex+1:]

	parsed, ok := ParseSentinel(strings.TrimSpace(sentinelLine))
	if !ok || parsed.RunID != expectedRunID {
		return notFound
	}

	cleanOutput := strings.TrimSuffix(output, "\n")

	return ExtractResult{
		Found:     true,
		Output:    cleanOutput,
		Sentinel:  parsed,
		Remaining: remaining,
	}
}
