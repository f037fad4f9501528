package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// TitleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest, so hyphenated and apostrophe names keep their caps.
func TitleCase(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				result.WriteRune(unicode.ToLower(r))
			} else {
				result.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		result.WriteRune(r)
		prevLetter = false
	}

	return result.String()
}
