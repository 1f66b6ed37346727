// Package discovery resolves CLI glob patterns and directory arguments into
// a concrete, sorted list of .hone test files.
package discovery

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Resolve expands one pattern (a direct file, a directory, or a glob) into
// the .hone files it names, relative to cwd.
func Resolve(pattern, cwd string) ([]string, error) {
	resolved := pattern
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(cwd, pattern)
	}

	if info, err := os.Stat(resolved); err == nil {
		if info.Mode().IsRegular() && filepath.Ext(pattern) == ".hone" {
			return []string{resolved}, nil
		}
		if info.IsDir() {
			return globDir(resolved)
		}
	}

	return globPattern(resolved)
}

func globDir(dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.hone")
	if err != nil {
		return nil, err
	}
	results := make([]string, 0, len(matches))
	for _, m := range matches {
		full := filepath.Join(dir, m)
		if info, err := os.Stat(full); err == nil && info.Mode().IsRegular() {
			results = append(results, full)
		}
	}
	return results, nil
}

func globPattern(pattern string) ([]string, error) {
	base, rel := doublestar.SplitPattern(pattern)
	matches, err := doublestar.Glob(os.DirFS(base), rel)
	if err != nil {
		return nil, err
	}
	results := make([]string, 0, len(matches))
	for _, m := range matches {
		full := filepath.Join(base, m)
		if filepath.Ext(full) != ".hone" {
			continue
		}
		if info, err := os.Stat(full); err == nil && info.Mode().IsRegular() {
			results = append(results, full)
		}
	}
	return results, nil
}

// ResolveAll expands every pattern and returns the deduplicated, sorted
// union of matched files.
func ResolveAll(patterns []string, cwd string) ([]string, error) {
	seen := map[string]bool{}
	var all []string

	for _, pattern := range patterns {
		files, err := Resolve(pattern, cwd)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if !seen[f] {
				seen[f] = true
				all = append(all, f)
			}
		}
	}

	sort.Strings(all)
	return all, nil
}

// ReadFile reads a .hone file's contents, normalizing CRLF to LF so the
// parser never has to reason about line-ending style.
func ReadFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return normalizeLineEndings(string(content)), nil
}

func normalizeLineEndings(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
