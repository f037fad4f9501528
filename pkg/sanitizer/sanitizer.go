package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var reBlankLines = regexp.MustCompile(`\n{3,}`)

func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func SanitizeClientName(input string) string {
	p := Pipeline{
		dropControl,
		TrimAndNormalize,
		TitleCase,
	}
	return p.Apply(input)
}

func SanitizeEmail(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		strings.ToLower,
	}
	return p.Apply(input)
}

// SanitizeNotes returns nil when nothing but whitespace is left.
func SanitizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	p := Pipeline{
		func(s string) string { return strings.ReplaceAll(s, "\r\n", "\n") },
		dropControl,
		func(s string) string { return reBlankLines.ReplaceAllString(s, "\n\n") },
		strings.TrimSpace,
	}
	cleaned := p.Apply(*notes)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func SanitizeZone(input string) string {
	return strings.TrimSpace(input)
}
