package common

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrEmptySlug = errors.New("slug cannot be empty")
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify produces a filesystem/URL safe token from input, falling back to
// fallback when input reduces to nothing. Export filenames are built from
// slugified plan titles.
func Slugify(input, fallback string) (string, error) {
	slug := slugify(input)
	if slug == "" {
		slug = slugify(fallback)
	}
	if slug == "" {
		return "", ErrEmptySlug
	}
	return slug, nil
}

func slugify(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	slug := nonSlugChars.ReplaceAllString(lower, "-")
	return strings.Trim(slug, "-")
}
