// Package guard provides the command and file validation engine.
// This file implements log sanitization for untrusted command text.
package guard

import "strings"

// truncationMarker is appended when sanitization shortens the input.
const truncationMarker = "... [truncated]"

// SanitizeForLog strips control characters from s and truncates it to
// DefaultSanitizeLength characters for safe inclusion in logs and messages.
func SanitizeForLog(s string) string {
	return SanitizeForLogN(s, DefaultSanitizeLength)
}

// SanitizeForLogN strips all control characters (C0 range, DEL, and the C1
// range) from s, then truncates the result to maxLength characters,
// appending a truncation marker if anything was cut. Pure function, no side
// effects. Commands are attacker-influenced text; without this a crafted
// command could inject ANSI escapes or fake log lines into terminal output.
func SanitizeForLogN(s string, maxLength int) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f) {
			return -1
		}
		return r
	}, s)

	if maxLength <= 0 {
		maxLength = DefaultSanitizeLength
	}

	runes := []rune(cleaned)
	if len(runes) <= maxLength {
		return cleaned
	}
	return string(runes[:maxLength]) + truncationMarker
}
