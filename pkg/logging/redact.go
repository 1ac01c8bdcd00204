package logging

import (
	"fmt"
	"strings"
)

// TokenPreviewLength is the number of leading characters of a secret that may
// appear in output.
const TokenPreviewLength = 8

// MinPreviewSource is the shortest secret that gets a prefix preview. Shorter
// values would give most of the secret away.
const MinPreviewSource = 20

// RedactToken returns a short prefix of a secret suitable for logs and
// console output. Values shorter than MinPreviewSource are fully masked.
func RedactToken(token string) string {
	if len(token) < MinPreviewSource {
		return strings.Repeat("*", len(token))
	}
	return token[:TokenPreviewLength] + "..."
}

// RedactLength describes a secret by its length only.
func RedactLength(token string) string {
	return fmt.Sprintf("<redacted, %d chars>", len(token))
}
