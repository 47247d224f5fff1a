package config

import (
	"strings"
	"unicode"
)

// SplitQuotedFields is like strings.Fields but ignores spaces inside areas
// surrounded by the specified quote character. Inside a quoted area a
// backslash escapes the following character, use it to write the quote
// character itself: 'it\'s'.
func SplitQuotedFields(in string, quote rune) []string {
	r := []string{}
	var (
		buf     strings.Builder
		started bool
		quoted  bool
		escaped bool
	)

	for _, ch := range in {
		switch {
		case escaped:
			buf.WriteRune(ch)
			escaped = false
		case quoted && ch == '\\':
			escaped = true
		case ch == quote:
			quoted = !quoted
			started = true
		case quoted:
			buf.WriteRune(ch)
		case unicode.IsSpace(ch):
			if started {
				r = append(r, buf.String())
				buf.Reset()
				started = false
			}
		default:
			buf.WriteRune(ch)
			started = true
		}
	}

	if started {
		r = append(r, buf.String())
	}

	return r
}
