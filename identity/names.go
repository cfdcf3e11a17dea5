package identity

import (
	"sort"
	"strings"
	"unicode"
)

// TitleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest, so "o'neal-SMITH" becomes "O'Neal-Smith".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// OfficialName cleans one referee name from a livestats officials string.
func OfficialName(s string) string {
	s = multiSpaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
	return TitleCase(s)
}

// SplitOfficials splits "A, B, C" into cleaned names, dropping blanks.
func SplitOfficials(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if name := OfficialName(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// PartnershipKey is the order-independent signature of a crew pairing.
func PartnershipKey(a, b string) string {
	names := []string{a, b}
	sort.Strings(names)
	return names[0] + " & " + names[1]
}

// Slug lowercases and hyphenates s for use in URLs and file names.
func Slug(s string) string {
	s = NormalizeKey(s)
	return strings.ReplaceAll(s, " ", "-")
}
