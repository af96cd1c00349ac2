package document

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Clean normalizes raw extracted text: drops NUL bytes, collapses whitespace
// runs to single spaces, and trims the result.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// CleanPreserveLines collapses horizontal whitespace but keeps line breaks,
// so heading-aware splitters can still see document structure.
func CleanPreserveLines(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")

	// Collapse runs of 3+ blank lines down to one blank line.
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}
