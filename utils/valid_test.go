package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "Juan dela Cruz", SanitizeInput("  Juan dela Cruz  "))
	assert.Equal(t, "great car", SanitizeInput("great\x00 car\x1b"))
	sanitized := SanitizeInput(`<script>alert(1)</script>nice ride`)
	assert.NotContains(t, sanitized, "<script>")
	assert.Contains(t, sanitized, "nice ride")
	assert.Equal(t, "&lt;b&gt;bold&lt;/b&gt;", SanitizeInput("<b>bold</b>"))
	assert.Equal(t, "", SanitizeInput("   "))
}

func TestSanitizeEmail(t *testing.T) {
	t.Run("normalizes case and whitespace", func(t *testing.T) {
		email, err := SanitizeEmail("  Renter@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, "renter@example.com", email)
	})

	t.Run("rejects malformed addresses", func(t *testing.T) {
		for _, input := range []string{
			"",
			"not-an-email",
			"@example.com",
			"user@",
			"user@host",
			"user name@example.com",
		} {
			_, err := SanitizeEmail(input)
			assert.Error(t, err, input)
		}
	})
}
