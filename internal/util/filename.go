package util

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeFilename recovers a UTF-8 filename from clients that sent UTF-8 bytes
// which were then read as Latin-1. Raw bytes that are not UTF-8 at all are
// treated as Latin-1. Anything else is returned unchanged.
func DecodeFilename(raw string) string {
	if raw == "" {
		return raw
	}
	if !utf8.ValidString(raw) {
		decoded, err := charmap.ISO8859_1.NewDecoder().String(raw)
		if err != nil {
			return raw
		}
		return decoded
	}
	if !looksLatin1(raw) {
		return raw
	}
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(raw))
	if err != nil || !utf8.Valid(b) {
		return raw
	}
	return string(b)
}

// looksLatin1 is true when every rune fits in one Latin-1 byte and at least
// one of them is outside ASCII.
func looksLatin1(s string) bool {
	high := false
	for _, r := range s {
		if r > 0xFF {
			return false
		}
		if r >= 0x80 {
			high = true
		}
	}
	return high
}

// ContentDisposition builds an inline disposition with an ASCII fallback name
// and an RFC 5987 UTF-8 name.
func ContentDisposition(disposition, filename string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(filename), "+", "%20")
	return disposition + `; filename="` + asciiFallback(filename) + `"; filename*=UTF-8''` + encoded
}

func asciiFallback(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('_')
		case r < 0x20 || r > 0x7E:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
