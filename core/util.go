package core

import (
	"regexp"
	"strings"
)

var nonWordRegex = regexp.MustCompile(`[^a-z0-9]+`)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// SnakeCase lowers `s` and joins its alphanumeric runs with underscores: "Email Address " -> "email_address".
func SnakeCase(s string) string {
	s = nonWordRegex.ReplaceAllString(CleanString(s, true), "_")
	return strings.Trim(s, "_")
}
