package xmltoken

import (
	"unicode/utf8"
)

// decodeText validates p as UTF-8 and resolves XML entities and character
// references, per §4.2 "UTF-8 handling" and "Entities". Invalid UTF-8
// sequences inside text/attribute values are replaced with U+FFFD rather
// than rejected; callers that need the stricter names/delimiters rule call
// validateStrict instead.
//
// Go's unicode/utf8.DecodeRune already implements a validating UTF-8
// decoder equivalent to the Hoehrmann DFA (it returns utf8.RuneError with
// size 1 on any ill-formed sequence, including lone surrogate halves,
// overlong encodings and truncated multi-byte sequences); no third-party
// decoder in the example corpus does anything a hand-rolled DFA table
// would improve on, so this layer is built directly on the standard
// library rather than reimplementing Hoehrmann's tables.
func decodeText(p []byte) ([]byte, error) {
	out := make([]byte, 0, len(p))
	i := 0
	for i < len(p) {
		if p[i] == '&' {
			decoded, n, err := decodeEntity(p[i:])
			if err != nil {
				return nil, err
			}
			out = append(out, decoded...)
			i += n
			continue
		}

		r, size := utf8.DecodeRune(p[i:])
		if r == utf8.RuneError && size <= 1 {
			out = append(out, "�"...)
			i++
			continue
		}
		out = append(out, p[i:i+size]...)
		i += size
	}
	return out, nil
}

// validateStrict rejects any ill-formed UTF-8 byte, for use on names, the
// XML declaration, and delimiters where §4.2 requires a Fatal rather than
// a replacement character.
func validateStrict(p []byte) bool {
	i := 0
	for i < len(p) {
		r, size := utf8.DecodeRune(p[i:])
		if r == utf8.RuneError && size <= 1 {
			return false
		}
		if r >= 0xD800 && r <= 0xDFFF {
			return false // lone surrogate half
		}
		i += size
	}
	return true
}

// decodeEntity decodes one entity or character reference starting at
// p[0] == '&', returning its UTF-8 expansion and the number of bytes of p
// it consumed. Only the five predefined XML entities and numeric
// character references are recognized; anything else is fatal, per §4.2
// "Entities": no external-entity expansion, ever.
func decodeEntity(p []byte) ([]byte, int, error) {
	semi := -1
	for i := 1; i < len(p) && i < 32; i++ {
		if p[i] == ';' {
			semi = i
			break
		}
	}
	if semi < 0 {
		return nil, 0, InvalidXml("unterminated-entity", nil)
	}
	name := string(p[1:semi])

	switch name {
	case "lt":
		return []byte("<"), semi + 1, nil
	case "gt":
		return []byte(">"), semi + 1, nil
	case "amp":
		return []byte("&"), semi + 1, nil
	case "quot":
		return []byte("\""), semi + 1, nil
	case "apos":
		return []byte("'"), semi + 1, nil
	}

	if len(name) > 1 && name[0] == '#' {
		var cp int64
		var err error
		if len(name) > 2 && (name[1] == 'x' || name[1] == 'X') {
			cp, err = parseRadix(name[2:], 16)
		} else {
			cp, err = parseRadix(name[1:], 10)
		}
		if err != nil {
			return nil, 0, InvalidXml("bad-char-ref", err)
		}
		if cp < 0 || cp > 0x10FFFF || (cp >= 0xD800 && cp <= 0xDFFF) {
			return nil, 0, InvalidXml("char-ref-out-of-range", nil)
		}
		var buf [4]byte
		n := utf8.EncodeRune(buf[:], rune(cp))
		return buf[:n], semi + 1, nil
	}

	return nil, 0, XmlUnsupported("external-entity-reference: &" + name + ";")
}

func parseRadix(s string, base int) (int64, error) {
	if s == "" {
		return 0, InvalidXml("empty-char-ref", nil)
	}
	var v int64
	for _, c := range s {
		var d int64
		switch {
		case c >= '0' && c <= '9':
			d = int64(c - '0')
		case base == 16 && c >= 'a' && c <= 'f':
			d = int64(c-'a') + 10
		case base == 16 && c >= 'A' && c <= 'F':
			d = int64(c-'A') + 10
		default:
			return 0, InvalidXml("bad-digit", nil)
		}
		v = v*int64(base) + d
	}
	return v, nil
}
