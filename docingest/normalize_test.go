package docingest

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \n\t  \n ", ""},
		{"mixed noise", "Hello    world\r\n\n\nThis   is   a   test.", "Hello world\n\nThis is a test."},
		{"windows line endings", "a\r\nb\r\nc", "a\nb\nc"},
		{"old mac line endings", "a\rb\rc", "a\nb\nc"},
		{"control characters stripped", "a\x00b\x07c\x1bd", "abcd"},
		{"c1 control block stripped", "abc", "abc"},
		{"tab runs collapse", "a\t\t\tb \t c", "a b c"},
		{"paragraph breaks kept", "one\n\ntwo", "one\n\ntwo"},
		{"excess blank lines collapse", "one\n\n\n\n\ntwo", "one\n\ntwo"},
		{"surrounding whitespace trimmed", "  padded  ", "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"Hello    world\r\n\n\nThis   is   a   test.",
		"a\x00\x01\x02b\r\rc\t\t\td\n\n\n\n",
		"  \t leading and trailing \n\n\n ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeInvariants(t *testing.T) {
	// A deliberately filthy input exercising every rule at once.
	in := "\r\n\x07Page  1\r\r\n\nbody\ttext\x1b here\n\n\n\n\nend\t\t "
	out := Normalize(in)

	if strings.Contains(out, "\r") {
		t.Error("output contains carriage return")
	}
	if strings.Contains(out, "\n\n\n") {
		t.Error("output contains a run of 3+ newlines")
	}
	if strings.Contains(out, "  ") || strings.Contains(out, "\t\t") || strings.Contains(out, " \t") || strings.Contains(out, "\t ") {
		t.Errorf("output contains a space/tab run: %q", out)
	}
	if out != strings.TrimSpace(out) {
		t.Error("output has leading or trailing whitespace")
	}
	for _, r := range out {
		if isControlGarbage(r) {
			t.Errorf("output contains control character %U", r)
		}
	}
}
