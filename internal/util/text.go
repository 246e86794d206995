package util

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeUTF8 returns b as text, dropping a leading BOM and replacing invalid
// sequences with U+FFFD.
func DecodeUTF8(b []byte) string {
	b = bytes.TrimPrefix(b, utf8BOM)
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// TruncateRunes cuts s to at most max runes. It reports whether anything was cut.
func TruncateRunes(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	i := 0
	for pos := range s {
		if i == max {
			return s[:pos], true
		}
		i++
	}
	return s, false
}
