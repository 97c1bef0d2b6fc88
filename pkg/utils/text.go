// Package utils provides shared utilities for text, math, retries, and logging.
package utils

import "unicode/utf8"

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return TruncateRunes(s, maxLen) + "..."
}

// TruncateRunes returns at most maxRunes runes of s without any suffix, never
// splitting a multi-byte character. If maxRunes is 0 or negative, returns s unchanged.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}
