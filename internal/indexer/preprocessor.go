package indexer

import (
	"strings"
	"unicode"
)

// Preprocess normalizes extracted text: trims it, collapses runs of horizontal
// whitespace to one space, and collapses runs of line breaks to one newline.
// Line breaks are kept so section headings stay on their own line.
func Preprocess(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace, pendingNewline := false, false
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r':
			pendingNewline = true
		case unicode.IsSpace(r):
			pendingSpace = true
		default:
			if pendingNewline {
				b.WriteByte('\n')
			} else if pendingSpace {
				b.WriteByte(' ')
			}
			pendingSpace, pendingNewline = false, false
			b.WriteRune(r)
		}
	}
	return b.String()
}
