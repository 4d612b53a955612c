package urlstream

import (
	"strconv"
	"strings"

	"github.com/wxrmigrate/wxrcore"
	"golang.org/x/net/idna"
)

var forbiddenHostRunes = " #/:<>?@[\\]^|%"

// idnaProfile implements §4.4.2's flags exactly: non-transitional
// processing, hyphens not checked (WordPress content routinely carries
// underscored or legacy labels), joiners and the bidi rule checked.
var idnaProfile = idna.New(
	idna.MapForLookup(),
	idna.StrictDomainName(false),
	idna.Transitional(false),
	idna.CheckHyphens(false),
	idna.CheckJoiners(true),
	idna.BidiRule(),
)

// parseHost implements §4.4.1's host-parsing algorithm: bracketed IPv6,
// otherwise percent-decode, IDNA ToASCII, then an IPv4 special-case
// check on the result.
func parseHost(s string, isSpecial bool) (Host, error) {
	if s == "" {
		return Host{Kind: HostNull}, nil
	}
	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return Host{}, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIPv6, Detail: "missing closing bracket"}
		}
		v6, err := parseIPv6(s[1 : len(s)-1])
		if err != nil {
			return Host{}, err
		}
		return Host{Kind: HostIPv6, IPv6: v6}, nil
	}

	if !isSpecial {
		if containsForbiddenOpaqueHostRune(s) {
			return Host{}, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlOpaque, Detail: "forbidden host code point"}
		}
		return Host{Kind: HostOpaque, Opaque: PercentEncode(s, func(b byte) bool {
			return isC0(b) || strings.IndexByte("\"#<>?`{}", b) >= 0
		})}, nil
	}

	decoded := PercentDecode(s)
	ascii, err := idnaProfile.ToASCII(decoded)
	if err != nil {
		return Host{}, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIDNA, Detail: err.Error()}
	}
	if strings.ContainsAny(ascii, forbiddenHostRunes) {
		return Host{}, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlHost, Detail: "forbidden host code point"}
	}

	if looksLikeIPv4(ascii) {
		v4, err := parseIPv4(ascii)
		if err != nil {
			return Host{}, err
		}
		return Host{Kind: HostIPv4, IPv4: v4}, nil
	}

	return Host{Kind: HostDomain, Opaque: ascii}, nil
}

func containsForbiddenOpaqueHostRune(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] <= 0x1f || s[i] == 0x7f {
			return true
		}
		switch s[i] {
		case ' ', '#', '/', ':', '<', '>', '?', '@', '[', '\\', ']', '^', '|':
			return true
		}
	}
	return false
}

// looksLikeIPv4 implements the "ends in a number" check: the last
// dot-separated label is entirely decimal, octal (0-prefixed) or hex
// (0x-prefixed), or empty following a trailing dot with a numeric
// predecessor.
func looksLikeIPv4(host string) bool {
	parts := strings.Split(host, ".")
	if len(parts) == 0 {
		return false
	}
	last := parts[len(parts)-1]
	if last == "" && len(parts) > 1 {
		last = parts[len(parts)-2]
	}
	if last == "" {
		return false
	}
	if strings.Trim(last, "0123456789") == "" {
		return true
	}
	if len(last) >= 2 && (last[:2] == "0x" || last[:2] == "0X") {
		return strings.Trim(last[2:], "0123456789abcdefABCDEF") == ""
	}
	return false
}

// parseIPv4 implements §4.4.1: 1-4 dot-separated parts, each decimal,
// octal (0-prefixed) or hex (0x-prefixed); overflow fails; the last part
// absorbs the high-order bytes of whatever parts remain.
func parseIPv4(s string) (uint32, error) {
	parts := strings.Split(strings.TrimSuffix(s, "."), ".")
	if len(parts) == 0 || len(parts) > 4 {
		return 0, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIPv4, Detail: "wrong part count"}
	}

	nums := make([]uint64, len(parts))
	for i, p := range parts {
		if p == "" {
			return 0, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIPv4, Detail: "empty part"}
		}
		n, err := parseIPv4Part(p)
		if err != nil {
			return 0, err
		}
		nums[i] = n
	}

	for i := 0; i < len(nums)-1; i++ {
		if nums[i] > 255 {
			return 0, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIPv4, Detail: "part overflow"}
		}
	}
	last := nums[len(nums)-1]
	maxLast := uint64(1) << (8 * uint(5-len(nums)))
	if last >= maxLast {
		return 0, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIPv4, Detail: "overflow"}
	}

	var result uint64
	for i := 0; i < len(nums)-1; i++ {
		result |= nums[i] << (8 * uint(3-i))
	}
	result |= last
	return uint32(result), nil
}

func parseIPv4Part(p string) (uint64, error) {
	base := 10
	switch {
	case strings.HasPrefix(p, "0x") || strings.HasPrefix(p, "0X"):
		base = 16
		p = p[2:]
	case len(p) > 1 && p[0] == '0':
		base = 8
		p = p[1:]
	}
	if p == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(p, base, 64)
	if err != nil {
		return 0, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIPv4, Detail: "bad digit"}
	}
	return n, nil
}

func formatIPv6(pieces [8]uint16) string {
	// Find the longest run of zero pieces to compress with "::".
	bestStart, bestLen := -1, 0
	curStart, curLen := -1, 0
	for i, p := range pieces {
		if p == 0 {
			if curStart < 0 {
				curStart = i
			}
			curLen++
		} else {
			if curLen > bestLen {
				bestStart, bestLen = curStart, curLen
			}
			curStart, curLen = -1, 0
		}
	}
	if curLen > bestLen {
		bestStart, bestLen = curStart, curLen
	}
	if bestLen < 2 {
		bestStart = -1
	}

	var sb strings.Builder
	for i := 0; i < 8; {
		if i == bestStart {
			sb.WriteString("::")
			i += bestLen
			continue
		}
		if i != 0 && i != bestStart+bestLen {
			sb.WriteByte(':')
		}
		sb.WriteString(strconv.FormatUint(uint64(pieces[i]), 16))
		i++
	}
	return sb.String()
}

// parseIPv6 implements the 8-piece, "::"-compressible, trailing-IPv4
// variant of §4.4.1.
func parseIPv6(s string) ([8]uint16, error) {
	var pieces [8]uint16
	idx := 0
	compressIdx := -1

	i := 0
	if strings.HasPrefix(s, "::") {
		i = 2
		compressIdx = 0
	} else if strings.HasPrefix(s, ":") {
		return pieces, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIPv6, Detail: "leading colon"}
	}

	for i < len(s) {
		if idx == 8 {
			return pieces, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIPv6, Detail: "too many pieces"}
		}
		if s[i] == ':' {
			if compressIdx >= 0 {
				return pieces, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIPv6, Detail: "multiple compressions"}
			}
			i++
			compressIdx = idx
			continue
		}

		start := i
		for i < len(s) && s[i] != ':' && s[i] != '.' {
			i++
		}
		segment := s[start:i]

		if i < len(s) && s[i] == '.' {
			// Remaining piece is a trailing embedded IPv4 address.
			if idx > 6 {
				return pieces, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIPv6, Detail: "ipv4 piece too late"}
			}
			v4, err := parseIPv4(s[start:])
			if err != nil {
				return pieces, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIPv6, Detail: "bad embedded ipv4"}
			}
			pieces[idx] = uint16(v4 >> 16)
			pieces[idx+1] = uint16(v4 & 0xffff)
			idx += 2
			i = len(s)
			break
		}

		if len(segment) == 0 || len(segment) > 4 {
			return pieces, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIPv6, Detail: "bad piece"}
		}
		v, err := strconv.ParseUint(segment, 16, 32)
		if err != nil {
			return pieces, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIPv6, Detail: "bad hex piece"}
		}
		pieces[idx] = uint16(v)
		idx++

		if i < len(s) && s[i] == ':' {
			i++
			if i == len(s) {
				return pieces, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIPv6, Detail: "trailing colon"}
			}
		}
	}

	if compressIdx >= 0 {
		shift := 8 - idx
		if shift > 0 {
			copy(pieces[compressIdx+shift:], pieces[compressIdx:idx])
			for j := compressIdx; j < compressIdx+shift; j++ {
				pieces[j] = 0
			}
		}
	} else if idx != 8 {
		return pieces, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlIPv6, Detail: "too few pieces"}
	}

	return pieces, nil
}
