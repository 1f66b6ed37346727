// Package config loads project-wide defaults for hone from a YAML file,
// so a repo doesn't have to repeat `--shell` or `--verbose` on every
// invocation. CLI flags always take precedence over the file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// candidateFiles is checked in order; the first one present wins.
var candidateFiles = []string{".hone.yaml", ".hone.yml", "hone.yaml", "hone.yml"}

// Config is the subset of project settings a .hone.yaml file may declare.
type Config struct {
	Shell   string   `yaml:"shell,omitempty"`
	Verbose bool     `yaml:"verbose,omitempty"`
	Include []string `yaml:"include,omitempty"`
}

func defaultConfig() *Config {
	return &Config{}
}

// Load reads the first matching config file in dir, or returns a zero
// Config if none exists. A present-but-invalid file is an error.
func Load(dir string) (*Config, error) {
	cfg := defaultConfig()

	for _, name := range candidateFiles {
		path := dir + string(os.PathSeparator) + name
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return cfg, nil
	}

	return cfg, nil
}

// MergeShell returns the CLI-provided shell override if non-empty,
// otherwise the config file's shell setting.
func (c *Config) MergeShell(cliShell string) string {
	if cliShell != "" {
		return cliShell
	}
	return c.Shell
}

// MergeVerbose returns true if either the CLI flag or the config file
// requested verbose output.
func (c *Config) MergeVerbose(cliVerbose bool) bool {
	return cliVerbose || c.Verbose
}

// MergePatterns returns the glob patterns to run: CLI-provided positional
// arguments win outright, otherwise the config file's include list,
// otherwise every .hone file under the working directory.
func (c *Config) MergePatterns(cliPatterns []string) []string {
	if len(cliPatterns) > 0 {
		return cliPatterns
	}
	if len(c.Include) > 0 {
		return c.Include
	}
	return []string{"**/*.hone"}
}
