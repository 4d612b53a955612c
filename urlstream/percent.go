package urlstream

import (
	"strings"

	"golang.org/x/text/encoding"
)

// EncodeSet is a percent-encode set: a predicate over bytes that must be
// %HH-encoded in a given URL context, per §4.4.1.
type EncodeSet func(b byte) bool

func isC0(b byte) bool { return b <= 0x1f || b > 0x7e }

// C0EncodeSet encodes the C0 controls and anything above ASCII.
func C0EncodeSet(b byte) bool { return isC0(b) }

// FragmentEncodeSet = C0 ∪ {SP " < > `}.
func FragmentEncodeSet(b byte) bool {
	return isC0(b) || b == ' ' || b == '"' || b == '<' || b == '>' || b == '`'
}

// QueryEncodeSet = C0 ∪ {SP " # < >}.
func QueryEncodeSet(b byte) bool {
	return isC0(b) || b == ' ' || b == '"' || b == '#' || b == '<' || b == '>'
}

// SpecialQueryEncodeSet = Query ∪ {'}.
func SpecialQueryEncodeSet(b byte) bool {
	return QueryEncodeSet(b) || b == '\''
}

// PathEncodeSet = Query ∪ {? ` { }}.
func PathEncodeSet(b byte) bool {
	return QueryEncodeSet(b) || b == '?' || b == '`' || b == '{' || b == '}'
}

// UserinfoEncodeSet = Path ∪ {/ : ; = @ [ \ ] ^ |}.
func UserinfoEncodeSet(b byte) bool {
	if PathEncodeSet(b) {
		return true
	}
	switch b {
	case '/', ':', ';', '=', '@', '[', '\\', ']', '^', '|':
		return true
	}
	return false
}

// ComponentEncodeSet = Userinfo ∪ {$ % & + ,}.
func ComponentEncodeSet(b byte) bool {
	if UserinfoEncodeSet(b) {
		return true
	}
	switch b {
	case '$', '%', '&', '+', ',':
		return true
	}
	return false
}

// FormURLEncodedEncodeSet = Component ∪ {! ' ( ) ~}.
func FormURLEncodedEncodeSet(b byte) bool {
	if ComponentEncodeSet(b) {
		return true
	}
	switch b {
	case '!', '\'', '(', ')', '~':
		return true
	}
	return false
}

const hexDigits = "0123456789ABCDEF"

// PercentEncode encodes every byte of s matched by set as %HH.
func PercentEncode(s string, set EncodeSet) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if set(b) {
			sb.WriteByte('%')
			sb.WriteByte(hexDigits[b>>4])
			sb.WriteByte(hexDigits[b&0xf])
		} else {
			sb.WriteByte(b)
		}
	}
	return sb.String()
}

// PercentEncodeAfterEncoding transcodes s through enc first (identity for
// UTF-8/nil), then percent-encodes using set; an unencodable code point
// is emitted as the percent-encoded form of its numeric character
// reference, per §4.4.1 "percent-encode after encoding".
func PercentEncodeAfterEncoding(enc encoding.Encoding, s string, set EncodeSet) string {
	if enc == nil {
		return PercentEncode(s, set)
	}
	transcoded, err := enc.NewEncoder().String(s)
	if err != nil {
		var sb strings.Builder
		for _, r := range s {
			encOne, e := enc.NewEncoder().String(string(r))
			if e != nil {
				sb.WriteString(PercentEncode(charRefEscape(r), func(b byte) bool {
					return set(b) || b == '&' || b == '#' || b == ';'
				}))
				continue
			}
			sb.WriteString(PercentEncode(encOne, set))
		}
		return sb.String()
	}
	return PercentEncode(transcoded, set)
}

func charRefEscape(r rune) string {
	return "&#" + itoa(int(r)) + ";"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// PercentDecode reverses PercentEncode: %HH sequences become the literal
// byte, anything else passes through unchanged.
func PercentDecode(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHexDigit(s[i+1]) && isHexDigit(s[i+2]) {
			sb.WriteByte(hexVal(s[i+1])<<4 | hexVal(s[i+2]))
			i += 2
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	default:
		return b - 'A' + 10
	}
}
