package util

import "strings"

// SanitizeText strips NUL and other control characters left behind by PDF
// text extraction so the result can be placed in a prompt.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	r := make([]rune, 0, len(s))
	for _, ch := range s {
		if ch == '\n' || ch == '\r' || ch == '\t' {
			r = append(r, ch)
			continue
		}
		if ch < 0x20 || ch == 0x7f || ch == '\ufeff' {
			continue
		}
		r = append(r, ch)
	}
	return strings.TrimSpace(string(r))
}
