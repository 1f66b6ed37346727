package shellsession

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hone-lang/hone/internal/ast"
)

func requireShell(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("bash")
	if err != nil {
		path, err = exec.LookPath("sh")
	}
	if err != nil {
		t.Skip("no POSIX shell available on this host")
	}
	return path
}

func TestGetShellFlags(t *testing.T) {
	assert.Equal(t, []string{"--norc", "--noprofile"}, getShellFlags("/usr/bin/bash"))
	assert.Equal(t, []string{"--no-rcs"}, getShellFlags("/bin/zsh"))
	assert.Nil(t, getShellFlags("/bin/sh"))
}

func TestIsShellSupported(t *testing.T) {
	assert.True(t, IsShellSupported("/bin/bash"))
	assert.True(t, IsShellSupported("/usr/bin/zsh"))
	assert.True(t, IsShellSupported("sh"))
	assert.False(t, IsShellSupported("/usr/bin/fish"))
}

func TestCreateConfigDefaults(t *testing.T) {
	t.Setenv("SHELL", "")
	cfg := CreateConfig(nil, "test.hone", "/tmp", "")
	assert.Equal(t, "/bin/bash", cfg.Shell)
	assert.Equal(t, int64(30000), cfg.TimeoutMs)
}

func TestCreateConfigCLIOverrideWinsOverPragma(t *testing.T) {
	pragmas := []ast.PragmaNode{{Type: ast.PragmaShell, Value: "/bin/zsh"}}
	cfg := CreateConfig(pragmas, "test.hone", "/tmp", "/bin/bash")
	assert.Equal(t, "/bin/bash", cfg.Shell)
}

func TestCreateConfigPragmaTimeout(t *testing.T) {
	pragmas := []ast.PragmaNode{{Type: ast.PragmaTimeout, Value: "2.5s"}}
	cfg := CreateConfig(pragmas, "test.hone", "/tmp", "")
	assert.Equal(t, int64(2500), cfg.TimeoutMs)
}

func TestCreateConfigEnvPragma(t *testing.T) {
	pragmas := []ast.PragmaNode{{Type: ast.PragmaEnv, Key: "GREETING", Value: "hi"}}
	cfg := CreateConfig(pragmas, "test.hone", "/tmp", "")
	assert.Equal(t, "hi", cfg.Env["GREETING"])
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "hello", stripANSI("\x1b[32mhello\x1b[0m"))
	assert.Equal(t, "plain text", stripANSI("plain text"))
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	shell := requireShell(t)
	cwd := t.TempDir()
	cfg := Config{Shell: shell, Env: map[string]string{}, TimeoutMs: 5000, Cwd: cwd, Filename: "test.hone"}
	s := New(cfg)
	s.SetCurrentTest("integration")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	require.NoError(t, s.Start(ctx))
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestSessionRunCapturesStdoutAndExitCode(t *testing.T) {
	s := newTestSession(t)

	result, err := s.Run("echo hello", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Stdout)
	assert.Equal(t, int32(0), result.ExitCode)
	assert.NotEmpty(t, result.RunID)
}

func TestSessionRunCapturesNonZeroExit(t *testing.T) {
	s := newTestSession(t)

	result, err := s.Run("exit 7", "")
	require.NoError(t, err)
	assert.Equal(t, int32(7), result.ExitCode)
}

func TestSessionEnvPersistsAcrossRuns(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.SetEnvVars([]ast.EnvNode{{Key: "GREETING", Value: "hi there"}}))

	result, err := s.Run("echo $GREETING", "")
	require.NoError(t, err)
	assert.Equal(t, "hi there", result.Stdout)
}

func TestSessionCwdPersistsAcrossRuns(t *testing.T) {
	s := newTestSession(t)

	sub := s.config.Cwd
	require.NoError(t, os.MkdirAll(sub+"/child", 0o755))

	_, err := s.Run("cd child", "")
	require.NoError(t, err)

	cwd, err := s.GetCwd()
	require.NoError(t, err)
	assert.Contains(t, cwd, "child")
}

func TestSessionStopIsIdempotent(t *testing.T) {
	s := newTestSession(t)
	assert.NoError(t, s.Stop())
	assert.NoError(t, s.Stop())
}
