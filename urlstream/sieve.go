package urlstream

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Candidate is one URL-like substring found by SieveText, before WHATWG
// re-parsing.
type Candidate struct {
	Start, End int
	Raw        string
	Parsed     *URL
}

var urlSchemes = []string{"https://", "http://"}

// SieveText implements §4.4.3's two-stage in-text URL detector: a
// permissive tokenizer over scheme+host or bare-host-with-dotted-TLD
// substrings, each re-parsed under the WHATWG parser and rejected unless
// it is http(s), credential-free, and its apparent TLD is a registered
// public suffix.
func SieveText(text string, base *URL) []Candidate {
	var out []Candidate
	i := 0
	for i < len(text) {
		start, end, ok := nextToken(text, i)
		if !ok {
			break
		}
		raw := text[start:end]
		raw, end = trimTrailingPunctuation(raw, start, end)

		if cand, ok := tryCandidate(raw, start, end, base); ok {
			out = append(out, cand)
			i = end
			continue
		}
		i = start + 1
	}
	return out
}

// nextToken finds the next whitespace-delimited run starting at or after
// from; it does not filter the run, tryCandidate decides whether it is
// URL-like.
func nextToken(text string, from int) (start, end int, ok bool) {
	for from < len(text) && isSpace(text[from]) {
		from++
	}
	if from >= len(text) {
		return 0, 0, false
	}
	start = from
	end = from
	for end < len(text) && !isSpace(text[end]) {
		end++
	}
	return start, end, true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// trimTrailingPunctuation strips trailing '.', ',', ';', '!' and '?' and
// any unbalanced trailing ')' (parentheses are kept when the candidate also opened
// one), per §4.4.3's tie-breaking rules for prose punctuation.
func trimTrailingPunctuation(raw string, start, end int) (string, int) {
	for len(raw) > 0 {
		last := raw[len(raw)-1]
		if last == '.' || last == ',' || last == ';' || last == '!' || last == '?' {
			raw = raw[:len(raw)-1]
			end--
			continue
		}
		if last == ')' && strings.Count(raw, "(") < strings.Count(raw, ")") {
			raw = raw[:len(raw)-1]
			end--
			continue
		}
		break
	}
	return raw, end
}

func tryCandidate(raw string, start, end int, base *URL) (Candidate, bool) {
	hasScheme := false
	for _, s := range urlSchemes {
		if strings.HasPrefix(raw, s) {
			hasScheme = true
			break
		}
	}

	host := raw
	if hasScheme {
		rest := raw
		for _, s := range urlSchemes {
			if strings.HasPrefix(raw, s) {
				rest = raw[len(s):]
				break
			}
		}
		host, _, _ = strings.Cut(rest, "/")
		host, _, _ = strings.Cut(host, "?")
		host, _, _ = strings.Cut(host, "#")
	} else {
		if !strings.Contains(raw, ".") {
			return Candidate{}, false
		}
		host, _, _ = strings.Cut(raw, "/")
	}

	if !isAcceptableHost(host) {
		return Candidate{}, false
	}

	toParse := raw
	if !hasScheme {
		toParse = "https://" + raw
	}

	u, err := Parse(toParse, nil)
	if err != nil {
		return Candidate{}, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Candidate{}, false
	}
	if u.includesCredentials() {
		return Candidate{}, false
	}

	return Candidate{Start: start, End: end, Raw: raw, Parsed: u}, true
}

// isAcceptableHost reports whether host has a dot and its apparent TLD
// is a recognized public suffix (rejecting "it" and similar bare prose
// words that happen to precede a "." mid-sentence elsewhere in text).
func isAcceptableHost(host string) bool {
	if host == "" || !strings.Contains(host, ".") {
		return false
	}
	_, icann := publicsuffix.PublicSuffix(strings.ToLower(host))
	return icann
}
