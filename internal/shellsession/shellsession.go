// Package shellsession drives a single persistent POSIX shell process
// across the lifetime of one TEST block. Every RUN in the block executes
// in the same process, so shell state — the working directory, exported
// variables, shell functions — carries from one RUN to the next exactly
// as it would in an interactive terminal.
package shellsession

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hone-lang/hone/internal/ast"
	"github.com/hone-lang/hone/internal/invariant"
	"github.com/hone-lang/hone/internal/sentinel"
)

// Config describes how to launch and configure a session's shell.
type Config struct {
	Shell     string
	Env       map[string]string
	TimeoutMs int64
	Cwd       string
	Filename  string
}

// RunResult is everything captured from executing one RUN statement.
type RunResult struct {
	RunID      string
	Stdout     string
	StdoutRaw  string
	Stderr     string
	ExitCode   int32
	DurationMs int64
	StderrPath string
}

// getShellFlags returns the flags that suppress a shell's startup files,
// so a user's personal rc file can't change the session's behavior out
// from under the test.
func getShellFlags(shellPath string) []string {
	switch filepath.Base(shellPath) {
	case "bash":
		return []string{"--norc", "--noprofile"}
	case "zsh":
		return []string{"--no-rcs"}
	default:
		return nil
	}
}

// IsShellSupported reports whether shellPath names one of the POSIX
// shells this package knows how to drive.
func IsShellSupported(shellPath string) bool {
	switch filepath.Base(shellPath) {
	case "bash", "zsh", "sh":
		return true
	default:
		return false
	}
}

// Session is a live persistent shell process plus the buffered output
// read from it so far.
type Session struct {
	config      Config
	artifactDir string
	runIndex    int
	currentTest string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader

	mu  sync.Mutex
	buf strings.Builder
}

// New prepares a Session against config. The shell isn't spawned until
// Start is called.
func New(config Config) *Session {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	basename := strings.TrimSuffix(filepath.Base(config.Filename), filepath.Ext(config.Filename))
	if basename == "" {
		basename = "test"
	}

	artifactDir := filepath.Join(config.Cwd, ".hone", "runs", fmt.Sprintf("%s-%s", timestamp, basename))

	return &Session{config: config, artifactDir: artifactDir}
}

// SetCurrentTest records the enclosing TEST block's name, used to derive
// each RUN's sentinel run ID.
func (s *Session) SetCurrentTest(testName string) {
	s.currentTest = testName
}

// Start spawns the configured shell and waits for it to come up.
func (s *Session) Start(ctx context.Context) error {
	shellFlags := getShellFlags(s.config.Shell)

	if err := os.MkdirAll(s.artifactDir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	env := make([]string, 0, len(s.config.Env)+2)
	for k, v := range s.config.Env {
		env = append(env, k+"="+v)
	}
	env = append(env, "PS1=", "TERM=dumb")

	cmd := exec.CommandContext(ctx, s.config.Shell, shellFlags...)
	cmd.Dir = s.config.Cwd
	cmd.Env = env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open shell stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open shell stdout: %w", err)
	}
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to spawn shell: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.reader = bufio.NewReader(stdout)

	go s.pump()

	return s.waitForReady()
}

// pump continuously appends shell output to the session's buffer until
// the pipe closes. It runs for the lifetime of the session.
func (s *Session) pump() {
	chunk := make([]byte, 4096)
	for {
		n, err := s.reader.Read(chunk)
		if n > 0 {
			s.mu.Lock()
			s.buf.Write(chunk[:n])
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) bufferContains(marker string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Contains(s.buf.String(), marker)
}

func (s *Session) bufferString() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (s *Session) bufferClear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
}

func (s *Session) bufferSet(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
	s.buf.WriteString(value)
}

func (s *Session) waitForReady() error {
	readyMarker := "__HONE_READY_" + uuid.NewString() + "__"
	if err := s.writeToShell("echo \"" + readyMarker + "\"\n"); err != nil {
		return err
	}

	if !s.waitForString(readyMarker, 5000*time.Millisecond) {
		return fmt.Errorf("shell failed to start within 5000ms. Shell: %s", s.config.Shell)
	}

	s.bufferClear()
	return nil
}

func (s *Session) waitForString(marker string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.bufferContains(marker) {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return s.bufferContains(marker)
}

// SetEnvVars exports each variable into the shell, in the order given,
// then flushes so subsequent reads don't see the export echoed back as
// command output.
func (s *Session) SetEnvVars(vars []ast.EnvNode) error {
	for _, v := range vars {
		escaped := strings.ReplaceAll(v.Value, "'", `'\''`)
		if err := s.writeToShell(fmt.Sprintf("export %s='%s'\n", v.Key, escaped)); err != nil {
			return err
		}
	}
	return s.flush()
}

// GetCwd asks the live shell for its current working directory. If the
// shell doesn't answer within 2s, it falls back to the session's
// configured cwd rather than failing the caller.
func (s *Session) GetCwd() (string, error) {
	marker := "__HONE_CWD_" + uuid.NewString() + "__"
	if err := s.writeToShell("echo \"" + marker + "$PWD" + marker + "\"\n"); err != nil {
		return "", err
	}

	if !s.waitForString(marker, 2000*time.Millisecond) {
		return s.config.Cwd, nil
	}

	pattern, err := regexp.Compile(regexp.QuoteMeta(marker) + `(.+?)` + regexp.QuoteMeta(marker))
	invariant.ExpectNoError(err, "cwd sandwich pattern built from an escaped uuid marker must compile")

	if m := pattern.FindStringSubmatch(s.bufferString()); m != nil {
		s.bufferClear()
		return m[1], nil
	}

	return s.config.Cwd, nil
}

func (s *Session) flush() error {
	flushMarker := "__HONE_FLUSH_" + uuid.NewString() + "__"
	if err := s.writeToShell("echo \"" + flushMarker + "\"\n"); err != nil {
		return err
	}
	s.waitForString(flushMarker, 2000*time.Millisecond)
	s.bufferClear()
	return nil
}

// Run executes command as a RUN statement, returning its captured output
// and exit code once the shell reports completion. name is empty for an
// unnamed RUN.
func (s *Session) Run(command, name string) (RunResult, error) {
	invariant.Precondition(s.cmd != nil, "shell session must be started before Run")

	s.runIndex++
	invariant.Positive(s.runIndex, "session run index")

	runID := sentinel.GenerateRunID(s.config.Filename, s.currentTest, name, s.runIndex)
	invariant.Postcondition(runID != "", "generated run id must not be empty")

	stderrPath := filepath.Join(s.artifactDir, runID+"-stderr.txt")

	wrapper := sentinel.GenerateShellWrapper(command, runID, stderrPath)
	start := time.Now()

	if err := s.writeToShell(wrapper + "\n"); err != nil {
		return RunResult{}, err
	}

	extracted, err := s.waitForSentinel(runID)
	if err != nil {
		return RunResult{}, err
	}
	invariant.Invariant(!sentinel.ContainsSentinel(extracted.Output), "extracted run output must not contain a sentinel trailer")
	durationMs := time.Since(start).Milliseconds()

	stderrBytes, _ := os.ReadFile(stderrPath)

	exitCode := int32(-1)
	if extracted.Sentinel.RunID != "" {
		exitCode = extracted.Sentinel.ExitCode
	}

	return RunResult{
		RunID:      runID,
		Stdout:     stripANSI(extracted.Output),
		StdoutRaw:  extracted.Output,
		Stderr:     string(stderrBytes),
		ExitCode:   exitCode,
		DurationMs: durationMs,
		StderrPath: stderrPath,
	}, nil
}

func (s *Session) waitForSentinel(runID string) (sentinel.ExtractResult, error) {
	deadline := time.Now().Add(time.Duration(s.config.TimeoutMs) * time.Millisecond)

	for time.Now().Before(deadline) {
		result := sentinel.Extract(s.bufferString(), runID)
		if result.Found {
			s.bufferSet(result.Remaining)
			return result, nil
		}
		time.Sleep(10 * time.Millisecond)
	}

	return sentinel.ExtractResult{}, fmt.Errorf(
		"timeout waiting for command completion (%dms). Run ID: %s", s.config.TimeoutMs, runID)
}

func (s *Session) writeToShell(data string) error {
	if s.stdin == nil {
		return fmt.Errorf("shell stdin not available")
	}
	if _, err := io.WriteString(s.stdin, data); err != nil {
		return fmt.Errorf("failed to write to shell: %w", err)
	}
	return nil
}

// Stop asks the shell to exit cleanly, force-killing it if it doesn't
// within 100ms.
func (s *Session) Stop() error {
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}

	_ = s.writeToShell("exit\n")

	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		_ = s.cmd.Process.Kill()
	}

	if s.stdin != nil {
		_ = s.stdin.Close()
	}
	return nil
}

// ansiEscapePattern matches ANSI CSI/OSC terminal escape sequences.
// go-ecosystem tools don't ship a single canonical stripper analogous to
// strip-ansi-escapes, so this stays a small regexp rather than pulling in
// a one-function dependency.
var ansiEscapePattern = regexp.MustCompile("\x1b\\[[0-9;?]*[a-zA-Z]|\x1b\\].*?(\x07|\x1b\\\\)")

func stripANSI(s string) string {
	return ansiEscapePattern.ReplaceAllString(s, "")
}

// CreateConfig derives a ShellConfig from a parsed file's pragmas, the
// discovered shell (explicit override, then a shell pragma, then $SHELL,
// then /bin/bash), and
// the directory the .hone file lives in.
func CreateConfig(pragmas []ast.PragmaNode, filename, cwd, overrideShell string) Config {
	shell := overrideShell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/bash"
	}

	env := map[string]string{
		"PATH": envOrDefault("PATH", "/usr/bin:/bin"),
		"HOME": envOrDefault("HOME", "/"),
	}

	timeoutMs := int64(30000)

	timeoutPattern := regexp.MustCompile(`^(\d+(?:\.\d+)?)(ms|s)$`)

	for _, pragma := range pragmas {
		switch pragma.Type {
		case ast.PragmaShell:
			if overrideShell == "" {
				shell = pragma.Value
			}
		case ast.PragmaEnv:
			if pragma.Key != "" {
				env[pragma.Key] = pragma.Value
			}
		case ast.PragmaTimeout:
			if m := timeoutPattern.FindStringSubmatch(pragma.Value); m != nil {
				if value, err := strconv.ParseFloat(m[1], 64); err == nil {
					if m[2] == "s" {
						timeoutMs = int64(value * 1000.0)
					} else {
						timeoutMs = int64(value)
					}
				}
			}
		}
	}

	return Config{Shell: shell, Env: env, TimeoutMs: timeoutMs, Cwd: cwd, Filename: filename}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
