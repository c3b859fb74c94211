package utils

import (
	"regexp"
	"strings"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Slugify generates a URL-friendly slug from a title.
// Titles without any ASCII letters or digits (e.g. Devanagari) keep their
// characters and only have whitespace runs replaced by hyphens.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	slug := strings.Trim(nonSlugChars.ReplaceAllString(s, "-"), "-")
	if slug != "" {
		return slug
	}
	slug = strings.Trim(whitespace.ReplaceAllString(s, "-"), "-")
	if slug == "" {
		slug = "poem"
	}
	return slug
}
