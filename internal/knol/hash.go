package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize cleans a piece of card content for comparison. It trims
// whitespace, lowercases, normalizes line endings and full-width spaces.
func Normalize(part string) string {
	p := strings.ToLower(part)
	p = strings.ReplaceAll(p, "\r\n", "\n")
	p = strings.ReplaceAll(p, "　", " ")
	return strings.TrimSpace(p)
}

// Key returns the SHA-256 hex digest of the normalized word. Two entries
// with the same key are the same word in the learner's list.
func Key(word string) string {
	sum := sha256.Sum256([]byte(Normalize(word)))
	return fmt.Sprintf("%x", sum)
}
