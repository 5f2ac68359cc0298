package utils

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every run of non-alphanumerics into a dash.
func Slugify(s string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}
