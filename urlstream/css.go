package urlstream

import "strings"

// CSSURLToken is one url(...) reference found by FindCSSURLs, with the
// byte range of its argument (inside the quotes, if quoted) for
// replacement.
type CSSURLToken struct {
	Start, End int // span of the raw argument text, for replacement
	Raw        string
	Quote      byte // 0, '\'' or '"'
	IsDataURI  bool
}

// FindCSSURLs is a minimal CSS tokenizer recognizing `url(...)` /
// `url("...")` / `url('...')` forms, per §4.4.4. It does not tokenize
// the rest of CSS; it scans for the literal "url(" sequence outside of
// any already-matched token.
func FindCSSURLs(css string) []CSSURLToken {
	var out []CSSURLToken
	i := 0
	lower := strings.ToLower(css)
	for {
		idx := strings.Index(lower[i:], "url(")
		if idx < 0 {
			break
		}
		start := i + idx + len("url(")
		i = start

		for i < len(css) && isCSSSpace(css[i]) {
			i++
		}
		if i >= len(css) {
			break
		}

		var quote byte
		argStart := i
		if css[i] == '\'' || css[i] == '"' {
			quote = css[i]
			i++
			argStart = i
			end := strings.IndexByte(css[i:], quote)
			if end < 0 {
				break
			}
			i += end
			arg := css[argStart:i]
			i++ // skip closing quote
			closeParen := strings.IndexByte(css[i:], ')')
			if closeParen >= 0 {
				i += closeParen + 1
			}
			out = append(out, CSSURLToken{
				Start: argStart, End: argStart + len(arg), Raw: arg, Quote: quote,
				IsDataURI: strings.HasPrefix(strings.ToLower(strings.TrimSpace(arg)), "data:"),
			})
			continue
		}

		end := strings.IndexByte(css[i:], ')')
		if end < 0 {
			break
		}
		arg := strings.TrimRightFunc(css[argStart:i+end], isCSSSpaceRune)
		out = append(out, CSSURLToken{
			Start: argStart, End: argStart + len(arg), Raw: arg,
			IsDataURI: strings.HasPrefix(strings.ToLower(strings.TrimSpace(arg)), "data:"),
		})
		i += end + 1
	}
	return out
}

func isCSSSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

func isCSSSpaceRune(r rune) bool {
	return isCSSSpace(byte(r))
}
