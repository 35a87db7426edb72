package docingest

import (
	"strings"
	"testing"
)

func TestRemoveRepeatedLines(t *testing.T) {
	tests := []struct {
		name          string
		lines         []string
		maxLineLength int
		minFrequency  int
		want          []string
	}{
		{
			name: "headers removed, content kept",
			lines: []string{
				"Page 1",
				"This is actual content.",
				"More content here.",
				"Page 1",
				"Footer text",
				"Page 1",
			},
			maxLineLength: 100,
			minFrequency:  3,
			want: []string{
				"This is actual content.",
				"More content here.",
				"Footer text",
			},
		},
		{
			name: "below frequency threshold retained",
			lines: []string{
				"Page 1", "Page 1", "content", "more content", "even more",
			},
			maxLineLength: 100,
			minFrequency:  3,
			want: []string{
				"Page 1", "Page 1", "content", "more content", "even more",
			},
		},
		{
			name: "long repeated line retained",
			lines: []string{
				strings.Repeat("x", 120),
				"a", "b",
				strings.Repeat("x", 120),
				"c",
				strings.Repeat("x", 120),
			},
			maxLineLength: 100,
			minFrequency:  3,
			want: []string{
				strings.Repeat("x", 120),
				"a", "b",
				strings.Repeat("x", 120),
				"c",
				strings.Repeat("x", 120),
			},
		},
		{
			name: "whitespace-only lines are ordinary short lines",
			lines: []string{
				"  ", "content one", "  ", "content two", "  ",
			},
			maxLineLength: 100,
			minFrequency:  3,
			want: []string{
				"content one", "content two",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := strings.Join(tt.lines, "\n")
			want := strings.Join(tt.want, "\n")
			if got := RemoveRepeatedLines(in, tt.maxLineLength, tt.minFrequency); got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestRemoveRepeatedLinesGuard(t *testing.T) {
	// Fewer than 5 lines: returned unchanged, even when every line repeats.
	in := "Page 1\nPage 1\nPage 1\nPage 1"
	if got := RemoveRepeatedLines(in, 100, 3); got != in {
		t.Errorf("short document modified: got %q", got)
	}
}

func TestRemoveRepeatedLinesAllNoise(t *testing.T) {
	// Every distinct line repeats >= 3 times and is short: result is empty,
	// and that is a legitimate outcome for the caller to handle.
	in := strings.Join([]string{"a", "b", "a", "b", "a", "b"}, "\n")
	if got := RemoveRepeatedLines(in, 100, 3); got != "" {
		t.Errorf("expected empty result for all-noise document, got %q", got)
	}
}

func TestRemoveRepeatedLinesPreservesOrder(t *testing.T) {
	in := strings.Join([]string{"z", "noise", "y", "noise", "x", "noise", "w"}, "\n")
	got := RemoveRepeatedLines(in, 100, 3)
	if got != "z\ny\nx\nw" {
		t.Errorf("surviving lines reordered: got %q", got)
	}
}
