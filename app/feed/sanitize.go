package feed

import (
	"strings"
	"unicode"
)

// SanitizeFilename maps an episode identifier to the filename component
// git-annex importfeed produces for ${itemid}: dots and dashes are kept,
// whitespace, punctuation, symbols and control characters become
// underscores, everything else is unchanged.
func SanitizeFilename(name string) string {
	if name == "" {
		return name
	}
	return strings.Map(sanitizeRune, name)
}

func sanitizeRune(r rune) rune {
	if r == '.' || r == '-' {
		return r
	}
	if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsControl(r) {
		return '_'
	}
	return r
}
