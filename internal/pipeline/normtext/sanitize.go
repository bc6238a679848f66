package normtext

import (
	"strings"
	"unicode/utf8"
)

// Sanitize removes bytes/runes that should never reach downstream matching
// or storage: NUL, ASCII controls other than \n \r \t, DEL, C1 controls
// (U+0080..U+009F), and invalid UTF-8 bytes. Returns s unchanged when
// nothing needs cleaning
func Sanitize(s string) string {
	if s == "" {
		return s
	}

	n := len(s)
	i := 0

	for i < n {
		b := s[i]
		if b < 0x20 {
			if b == '\n' || b == '\r' || b == '\t' {
				i++
				continue
			}
			break
		}
		if b == 0x7F {
			break
		}
		if b < 0x80 {
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			break
		}
		if r >= 0x80 && r <= 0x9F {
			break
		}
		i += size
	}
	if i == n {
		return s
	}

	var b strings.Builder
	b.Grow(n)
	b.WriteString(s[:i])

	for i < n {
		c := s[i]
		if c < 0x20 {
			if c == '\n' || c == '\r' || c == '\t' {
				b.WriteByte(c)
			}
			i++
			continue
		}
		if c == 0x7F {
			i++
			continue
		}
		if c < 0x80 {
			b.WriteByte(c)
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		if r >= 0x80 && r <= 0x9F {
			i += size
			continue
		}
		b.WriteString(s[i : i+size])
		i += size
	}

	return b.String()
}
