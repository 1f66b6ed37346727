// Package redact scrubs secret-looking values out of captured command
// output and failure reports before they reach a terminal, a log file, or
// a JSON artifact. A value becomes a secret by being named in a `#!env:`
// or `ENV` pragma whose key matches a common credential pattern.
package redact

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// secretKeyPattern flags env keys that conventionally hold credentials,
// so a test author doesn't have to mark every token/password explicitly.
var secretKeyPattern = regexp.MustCompile(`(?i)(token|secret|password|passwd|api[_-]?key|credential)`)

// Generator produces deterministic placeholders for secret values using a
// per-run keyed hash, so the same secret always scrubs to the same
// placeholder within a run but can't be correlated across separate runs
// (each run picks a fresh random key).
type Generator struct {
	mu  sync.Mutex
	key []byte
}

// NewGenerator creates a Generator seeded with a random 32-byte key.
func NewGenerator() (*Generator, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate redaction key: %w", err)
	}
	return &Generator{key: key}, nil
}

// Generate returns the placeholder for secret, in the form
// <REDACTED:hash>.
func (g *Generator) Generate(secret []byte) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	hash, err := blake2b.New256(g.key)
	if err != nil {
		panic(fmt.Sprintf("blake2b.New256 failed: %v", err))
	}
	hash.Write(secret)
	digest := hash.Sum(nil)

	encoded := base64.RawURLEncoding.EncodeToString(digest[:8])
	return fmt.Sprintf("<REDACTED:%s>", encoded)
}

// IsLikelySecretKey reports whether an ENV/pragma key name looks like it
// holds a credential.
func IsLikelySecretKey(key string) bool {
	return secretKeyPattern.MatchString(key)
}

// Scrubber replaces a fixed set of secret values with stable placeholders
// across any text it's given — RunResult output, failure diagnostics, or
// a JSON report.
type Scrubber struct {
	gen          *Generator
	replacements map[string]string // secret value -> placeholder, longest-value-first order tracked separately
	ordered      []string          // secret values, longest first, so a short secret can't shadow a longer one that contains it
}

// NewScrubber creates an empty Scrubber with a fresh random key.
func NewScrubber() (*Scrubber, error) {
	gen, err := NewGenerator()
	if err != nil {
		return nil, err
	}
	return &Scrubber{gen: gen, replacements: map[string]string{}}, nil
}

// Track registers value as a secret to scrub, if it's non-trivial (empty
// or single-character values are never redacted — they'd make ordinary
// output unreadable and rarely identify anything sensitive).
func (s *Scrubber) Track(value string) {
	if len(value) < 2 {
		return
	}
	if _, exists := s.replacements[value]; exists {
		return
	}
	s.replacements[value] = s.gen.Generate([]byte(value))
	s.ordered = insertByDescendingLength(s.ordered, value)
}

func insertByDescendingLength(ordered []string, value string) []string {
	i := 0
	for i < len(ordered) && len(ordered[i]) >= len(value) {
		i++
	}
	ordered = append(ordered, "")
	copy(ordered[i+1:], ordered[i:])
	ordered[i] = value
	return ordered
}

// Scrub replaces every tracked secret value in text with its placeholder.
func (s *Scrubber) Scrub(text string) string {
	if len(s.ordered) == 0 {
		return text
	}
	for _, secret := range s.ordered {
		text = strings.ReplaceAll(text, secret, s.replacements[secret])
	}
	return text
}
