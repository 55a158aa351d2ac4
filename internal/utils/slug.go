package utils

import (
	"regexp"
	"strings"
)

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9]+`)
	slugDashes   = regexp.MustCompile(`-{2,}`)
	hexColorExpr = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// Slugify turns a board name into a URL-safe slug.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugInvalid.ReplaceAllString(slug, "-")
	slug = slugDashes.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// ValidHexColor reports whether s is a #RRGGBB color string.
func ValidHexColor(s string) bool {
	return hexColorExpr.MatchString(s)
}
