package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	multiSpaceRegex = regexp.MustCompile(`\s+`)
	nonAlnumRegex   = regexp.MustCompile(`[^a-z0-9\s]`)
)

// Fingerprint is a stable 32-char id over normalized parts. Used where rows
// have no natural key (game files, official assignments).
func Fingerprint(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, p := range parts {
		normalized[i] = NormalizeKey(p)
	}
	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:16])
}

// ContentHash is the full sha256 of text, for change detection.
func ContentHash(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// NormalizeKey lowercases, strips punctuation and collapses whitespace.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnumRegex.ReplaceAllString(s, " ")
	s = multiSpaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
