package redact

import (
	"strings"
	"testing"
)

func TestGeneratorFormat(t *testing.T) {
	gen, err := NewGenerator()
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	placeholder := gen.Generate([]byte("MY_SECRET_TOKEN"))
	if !strings.HasPrefix(placeholder, "<REDACTED:") || !strings.HasSuffix(placeholder, ">") {
		t.Errorf("placeholder should have form <REDACTED:hash>, got: %q", placeholder)
	}
}

func TestGeneratorDeterminism(t *testing.T) {
	gen, _ := NewGenerator()

	secret := []byte("TEST_SECRET")
	ph1 := gen.Generate(secret)
	ph2 := gen.Generate(secret)
	if ph1 != ph2 {
		t.Errorf("non-deterministic placeholders within one generator: %q vs %q", ph1, ph2)
	}
}

func TestIsLikelySecretKey(t *testing.T) {
	cases := map[string]bool{
		"API_KEY":      true,
		"AUTH_TOKEN":   true,
		"DB_PASSWORD":  true,
		"GREETING":     false,
		"OUTPUT_DIR":   false,
		"secret_value": true,
	}
	for key, want := range cases {
		if got := IsLikelySecretKey(key); got != want {
			t.Errorf("IsLikelySecretKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestScrubberReplacesTrackedValues(t *testing.T) {
	s, err := NewScrubber()
	if err != nil {
		t.Fatalf("failed to create scrubber: %v", err)
	}

	s.Track("sk-abc123xyz")
	scrubbed := s.Scrub("Authorization: Bearer sk-abc123xyz")

	if strings.Contains(scrubbed, "sk-abc123xyz") {
		t.Errorf("secret leaked into scrubbed output: %q", scrubbed)
	}
	if !strings.Contains(scrubbed, "<REDACTED:") {
		t.Errorf("expected a redaction placeholder in output, got: %q", scrubbed)
	}
}

func TestScrubberIgnoresTrivialValues(t *testing.T) {
	s, _ := NewScrubber()
	s.Track("")
	s.Track("x")

	text := "value is x and stays readable"
	if got := s.Scrub(text); got != text {
		t.Errorf("expected trivial values to be left untouched, got: %q", got)
	}
}

func TestScrubberPrefersLongestMatch(t *testing.T) {
	s, _ := NewScrubber()
	s.Track("ab")
	s.Track("abcdef")

	scrubbed := s.Scrub("value: abcdef")
	if strings.Contains(scrubbed, "abcdef") {
		t.Errorf("longer secret should have been scrubbed whole, got: %q", scrubbed)
	}
	// The longer secret's placeholder must not itself contain the shorter
	// secret's literal text for this assertion to be meaningful; verify no
	// fragment of "abcdef" other than via its own placeholder remains.
	if strings.Contains(scrubbed, "ab") && !strings.Contains(scrubbed, "<REDACTED:") {
		t.Errorf("expected placeholder text, got: %q", scrubbed)
	}
}
