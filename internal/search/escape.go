package search

import (
	"strconv"
	"strings"
)

// escapeDigits gives the base and digit count of the numeric escapes.
var escapeDigits = map[byte]struct{ base, width int }{
	'b': {2, 8},
	'd': {10, 3},
	'o': {8, 3},
	'x': {16, 2},
	'u': {16, 4},
}

// Unescape expands the escapes of extended mode: \\ \0 \n \r \t, \bNNNNNNNN
// (binary), \dNNN (decimal), \oNNN (octal) and \xXX (hexadecimal) for a
// byte, and \uXXXX for a character written as UTF-8. Anything else after a
// backslash is kept as it is, backslash included.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		next := s[i+1]
		switch next {
		case '\\':
			b.WriteByte('\\')
		case '0':
			b.WriteByte(0)
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			d, ok := escapeDigits[next]
			if !ok || i+2+d.width > len(s) {
				b.WriteByte(c)
				continue
			}
			bits := 8
			if next == 'u' {
				bits = 32
			}
			n, err := strconv.ParseUint(s[i+2:i+2+d.width], d.base, bits)
			if err != nil || (next == 'd' || next == 'o') && n > 255 {
				b.WriteByte(c)
				continue
			}
			if next == 'u' {
				b.WriteRune(rune(n))
			} else {
				b.WriteByte(byte(n))
			}
			i += d.width
		}
		i++
	}
	return b.String()
}
