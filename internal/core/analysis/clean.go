package analysis

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanExtractedText collapses whitespace runs (including blank lines) into a
// single space and trims the result. Classification and field patterns assume
// single-spaced text. The function is idempotent.
func CleanExtractedText(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
