package amf

import (
	"strings"
	"unicode/utf8"
)

// decodeModifiedUTF8 converts wire string bytes to a Go string. Valid
// UTF-8 passes through untouched. Flash players emit Java-style modified
// UTF-8: NUL as the two-byte form 0xC0 0x80 and supplementary characters
// as surrogate pairs in three-byte form (CESU-8); both are folded back to
// standard UTF-8. Anything else decodes as U+FFFD.
func decodeModifiedUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == 0xc0 && i+1 < len(b) && b[i+1] == 0x80:
			sb.WriteByte(0)
			i += 2
		case c == 0xed && i+5 < len(b) &&
			b[i+1] >= 0xa0 && b[i+1] <= 0xaf &&
			b[i+2] >= 0x80 && b[i+2] <= 0xbf &&
			b[i+3] == 0xed &&
			b[i+4] >= 0xb0 && b[i+4] <= 0xbf &&
			b[i+5] >= 0x80 && b[i+5] <= 0xbf:
			hi := rune(b[i+1]&0x0f)<<6 | rune(b[i+2]&0x3f)
			lo := rune(b[i+4]&0x0f)<<6 | rune(b[i+5]&0x3f)
			sb.WriteRune(0x10000 + hi<<10 + lo)
			i += 6
		default:
			r, size := utf8.DecodeRune(b[i:])
			sb.WriteRune(r)
			i += size
		}
	}
	return sb.String()
}
