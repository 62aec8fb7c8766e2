// Package slug derives URL-safe identifiers from human-entered titles.
package slug

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Matches any run of characters outside [a-z0-9].
var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize converts a title to its slug form.
// "Intro to Go" -> "intro-to-go".
// "C++ / Rust" -> "c-rust".
// " Hello " -> "-hello-".
//
// Leading and trailing hyphens are kept and non-ASCII letters are not
// transliterated, so "Café" becomes "caf-". The result is stable under
// repeated application.
func Normalize(title string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(title), "-")
}

// CleanTitle trims surrounding whitespace and composes the title to NFC so
// that visually identical titles compare equal.
func CleanTitle(title string) string {
	return strings.TrimSpace(norm.NFC.String(title))
}
