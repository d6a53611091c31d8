package ingest

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	lineBreaks     = strings.NewReplacer("\r", "", "\n", "")
	whitespaceRuns = regexp.MustCompile(`\s+`)
	nonToken       = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// Sanitize normalizes an arbitrary spreadsheet column name into a canonical
// snake_case token: trim, drop CR/LF, collapse whitespace runs to a single
// underscore, strip everything outside [A-Za-z0-9_], lower-case. Total and
// idempotent; empty input yields an empty token.
func Sanitize(header string) string {
	s := strings.TrimSpace(header)
	s = lineBreaks.Replace(s)
	s = whitespaceRuns.ReplaceAllString(s, "_")
	s = nonToken.ReplaceAllString(s, "")
	return strings.ToLower(s)
}

// CleanValue turns a cell value into a trimmed string, or nil for anything
// null-like: nil input, empty after trimming, or the literal "null" in any
// casing.
func CleanValue(value any) *string {
	if value == nil {
		return nil
	}
	s := strings.TrimSpace(fmt.Sprint(value))
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}
