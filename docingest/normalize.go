package docingest

import (
	"regexp"
	"strings"
)

var (
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
	newlineRunRe = regexp.MustCompile(`\n{3,}`)
)

// Normalize canonicalizes raw extraction output. It is a total function:
// any input (including empty) yields a valid result, and the result is a
// fixed point of Normalize itself.
//
// Steps, in order:
//  1. unify line endings (\r\n and lone \r become \n)
//  2. strip control characters other than \n and \t (ASCII block, DEL, C1 block)
//  3. collapse runs of space/tab to a single space
//  4. collapse runs of 3+ newlines to exactly 2 (paragraph break)
//  5. trim leading/trailing whitespace
//
// Steps 2–3 run before 4 so control-character removal cannot create new
// newline runs after they have been collapsed.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = stripControl(s)
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = newlineRunRe.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// stripControl removes control characters except newline and tab.
func stripControl(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if isControlGarbage(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isControlGarbage(r rune) bool {
	if r == '\n' || r == '\t' {
		return false
	}
	// ASCII control block, DEL, and the C1 control block.
	return r < 0x20 || (r >= 0x7F && r <= 0x9F)
}
