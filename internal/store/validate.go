package store

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrTitleRequired is returned when a bookmark title is empty after trimming.
	ErrTitleRequired = errors.New("title is required")

	// ErrURLRequired is returned when a bookmark URL is empty after trimming.
	ErrURLRequired = errors.New("url is required")

	schemeRe = regexp.MustCompile(`(?i)^https?://`)
)

// NormalizeURL trims raw and prefixes https:// when no http(s) scheme is
// present, so "react.dev" becomes "https://react.dev".
func NormalizeURL(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" {
		return url
	}
	if !schemeRe.MatchString(url) {
		url = "https://" + url
	}
	return url
}

// ValidateBookmark trims and normalizes the user-supplied title and url,
// returning the cleaned values or a sentinel error when either is empty.
func ValidateBookmark(title, url string) (string, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", ErrTitleRequired
	}
	url = NormalizeURL(url)
	if url == "" {
		return "", "", ErrURLRequired
	}
	return title, url, nil
}
