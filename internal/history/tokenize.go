// SPDX-License-Identifier: MPL-2.0

package history

import (
	"strings"
	"unicode"
)

// Split tokenizes a recorded command tail with the replay grammar: unescaped
// whitespace separates tokens; a matching pair of single or double quotes
// groups its content into the current token verbatim, consuming the quote
// characters; a backslash outside quotes escapes the next rune. A $'...'
// segment decodes ANSI-C escapes, which is how the write side quotes
// arguments containing control characters. The grammar is deliberately
// independent of any host shell so replay is deterministic.
func Split(s string) []string {
	var (
		tokens  []string
		cur     strings.Builder
		quote   rune
		escaped bool
		started bool
		ansi    bool
	)

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
			started = true
		case ansi:
			if r == '\'' {
				ansi = false
				continue
			}
			if r == '\\' && i+1 < len(runes) {
				var n int
				r, n = decodeANSIEscape(runes[i+1:])
				i += n
			}
			cur.WriteRune(r)
		case r == '$' && i+1 < len(runes) && runes[i+1] == '\'':
			ansi = true
			started = true
			i++
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\\':
			escaped = true
			started = true
		case r == '\'' || r == '"':
			quote = r
			started = true
		case unicode.IsSpace(r):
			if started {
				tokens = append(tokens, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}

	if escaped {
		// Trailing backslash escapes nothing; keep it literally.
		cur.WriteRune('\\')
	}
	if started {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// decodeANSIEscape decodes one backslash escape inside a $'...' segment.
// rest starts at the rune after the backslash; the return values are the
// decoded rune and how many input runes were consumed. An unrecognized
// escape yields its rune literally.
func decodeANSIEscape(rest []rune) (rune, int) {
	switch r := rest[0]; r {
	case 'a':
		return '\a', 1
	case 'b':
		return '\b', 1
	case 'e', 'E':
		return 0x1b, 1
	case 'f':
		return '\f', 1
	case 'n':
		return '\n', 1
	case 'r':
		return '\r', 1
	case 't':
		return '\t', 1
	case 'v':
		return '\v', 1
	case '\\', '\'', '"':
		return r, 1
	case 'x':
		if v, n := hexVal(rest[1:], 2); n > 0 {
			return rune(v), 1 + n
		}
		return 'x', 1
	case 'u':
		if v, n := hexVal(rest[1:], 4); n > 0 {
			return rune(v), 1 + n
		}
		return 'u', 1
	case 'U':
		if v, n := hexVal(rest[1:], 8); n > 0 {
			return rune(v), 1 + n
		}
		return 'U', 1
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v, n := octVal(rest, 3)
		return rune(v), n
	default:
		return r, 1
	}
}

// hexVal reads up to max hex digits, returning the value and digit count.
func hexVal(rs []rune, max int) (v, n int) {
	for n < len(rs) && n < max {
		r := rs[n]
		switch {
		case r >= '0' && r <= '9':
			v = v*16 + int(r-'0')
		case r >= 'a' && r <= 'f':
			v = v*16 + int(r-'a'+10)
		case r >= 'A' && r <= 'F':
			v = v*16 + int(r-'A'+10)
		default:
			return v, n
		}
		n++
	}
	return v, n
}

// octVal reads up to max octal digits, returning the value and digit count.
func octVal(rs []rune, max int) (v, n int) {
	for n < len(rs) && n < max && rs[n] >= '0' && rs[n] <= '7' {
		v = v*8 + int(rs[n]-'0')
		n++
	}
	return v, n
}
