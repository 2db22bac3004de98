// utils/valid.go
package utils

import (
	"errors"
	"html"
	"regexp"
	"strings"
	"unicode"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var scriptRegex = regexp.MustCompile(`<script[^>]*>.*?</script>`)

// SanitizeInput sanitizes free-text user input (names, review comments)
// to prevent XSS and injection attacks
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	input = html.EscapeString(input)

	// Remove control characters
	input = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)

	return scriptRegex.ReplaceAllString(input, "")
}

// SanitizeEmail normalizes an email address to its canonical lowercase form
// and validates it. Emails are unique keys in the users collection, so the
// same address must always normalize identically.
func SanitizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return "", errors.New("invalid email format")
	}
	return email, nil
}
