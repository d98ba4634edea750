package errors

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ValidatePageID validates a page identifier.
// Page ids are positive; 0 is reserved by the wiki for "no page".
func ValidatePageID(id int64) error {
	if id <= 0 {
		return New(ErrCodeInvalidPageID, "page id must be positive, got %d", id)
	}
	return nil
}

// ParsePageID parses and validates a page identifier from its decimal form.
func ParsePageID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, New(ErrCodeInvalidPageID, "page id is required")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, Wrap(ErrCodeInvalidPageID, err, "page id %q is not an integer", s)
	}
	if err := ValidatePageID(id); err != nil {
		return 0, err
	}
	return id, nil
}

// ParseLimit parses an author limit. An empty string means 0 (unlimited).
// Negative values are accepted and mean unlimited as well.
func ParseLimit(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, Wrap(ErrCodeInvalidLimit, err, "limit %q is not an integer", s)
	}
	return n, nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// colorRegex matches hex colors (#abc, #aabbcc) and plain CSS color names.
var colorRegex = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-zA-Z]{3,20})$`)

// ValidateColor validates a highlight color passed on a query string.
// Colors end up inside HTML attributes and URLs, so only hex and named colors are allowed.
func ValidateColor(color string) error {
	if !colorRegex.MatchString(color) {
		return New(ErrCodeInvalidInput, "invalid color: %q", color)
	}
	return nil
}

// ValidateSelector validates a highlight selector (a label or an xref selector).
// It rejects control characters and overly long values.
func ValidateSelector(selector string) error {
	if selector == "" {
		return New(ErrCodeInvalidInput, "selector cannot be empty")
	}
	if len(selector) > 256 {
		return New(ErrCodeInvalidInput, "selector too long (max 256 characters)")
	}
	for _, r := range selector {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "selector contains invalid control characters")
		}
	}
	return nil
}
