package docingest

import (
	"strings"
	"unicode/utf8"
)

// minLinesForFiltering is the guard below which repeated-line removal is a
// no-op: with fewer lines there is not enough signal to tell structural
// noise from content.
const minLinesForFiltering = 5

// RemoveRepeatedLines removes header/footer noise from normalized text.
// A line is removed when it occurs at least minFrequency times in the
// document AND its trimmed length is at most maxLineLength runes. Matching
// is exact on the untrimmed line text, which is why input must already be
// normalized. Surviving lines keep their original order.
//
// A document whose every line is classified as noise comes back empty —
// callers should treat that as a legitimate outcome and may retry with a
// stricter maxLineLength or minFrequency if it is unexpected.
func RemoveRepeatedLines(text string, maxLineLength, minFrequency int) string {
	lines := strings.Split(text, "\n")
	if len(lines) < minLinesForFiltering {
		return text
	}

	freq := make(map[string]int, len(lines))
	for _, line := range lines {
		freq[line]++
	}

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if freq[line] >= minFrequency && utf8.RuneCountInString(strings.TrimSpace(line)) <= maxLineLength {
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}
