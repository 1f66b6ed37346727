package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Shell != "" || cfg.Verbose {
		t.Errorf("expected zero-value config, got %+v", cfg)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	content := "shell: /bin/zsh\nverbose: true\ninclude:\n  - tests/**/*.hone\n"
	if err := os.WriteFile(filepath.Join(dir, ".hone.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Shell != "/bin/zsh" {
		t.Errorf("expected shell /bin/zsh, got %q", cfg.Shell)
	}
	if !cfg.Verbose {
		t.Errorf("expected verbose true")
	}
	if len(cfg.Include) != 1 || cfg.Include[0] != "tests/**/*.hone" {
		t.Errorf("unexpected include list: %v", cfg.Include)
	}
}

func TestMergeShellPrefersCLI(t *testing.T) {
	cfg := &Config{Shell: "/bin/zsh"}
	if got := cfg.MergeShell("/bin/bash"); got != "/bin/bash" {
		t.Errorf("expected CLI override to win, got %q", got)
	}
	if got := cfg.MergeShell(""); got != "/bin/zsh" {
		t.Errorf("expected config fallback, got %q", got)
	}
}

func TestMergePatternsPrefersCLIArgs(t *testing.T) {
	cfg := &Config{Include: []string{"tests/**/*.hone"}}
	got := cfg.MergePatterns([]string{"scratch.hone"})
	if len(got) != 1 || got[0] != "scratch.hone" {
		t.Errorf("expected CLI args to win, got %v", got)
	}
}

func TestMergePatternsFallsBackToConfigInclude(t *testing.T) {
	cfg := &Config{Include: []string{"tests/**/*.hone"}}
	got := cfg.MergePatterns(nil)
	if len(got) != 1 || got[0] != "tests/**/*.hone" {
		t.Errorf("expected config include to carry through, got %v", got)
	}
}

func TestMergePatternsDefaultsWhenNothingSet(t *testing.T) {
	cfg := &Config{}
	got := cfg.MergePatterns(nil)
	if len(got) != 1 || got[0] != "**/*.hone" {
		t.Errorf("expected default pattern, got %v", got)
	}
}

func TestMergeVerboseIsEitherOr(t *testing.T) {
	cfg := &Config{Verbose: true}
	if !cfg.MergeVerbose(false) {
		t.Errorf("expected config verbose to carry through")
	}
	cfg2 := &Config{}
	if !cfg2.MergeVerbose(true) {
		t.Errorf("expected CLI verbose to carry through")
	}
}
