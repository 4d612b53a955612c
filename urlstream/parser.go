package urlstream

import (
	"strconv"
	"strings"

	"github.com/wxrmigrate/wxrcore"
)

// Parse implements the WHATWG URL parser of §4.4.1 against an optional
// base URL. Input is first stripped of leading/trailing C0 controls and
// space, and interior tab/LF/CR, per spec.
func Parse(raw string, base *URL) (*URL, error) {
	raw = stripC0AndSpace(raw)
	raw = removeTabsAndNewlines(raw)

	scheme, rest, hasScheme := splitScheme(raw)

	if hasScheme {
		return parseWithScheme(scheme, rest, base)
	}

	if base == nil {
		return nil, &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlScheme, Detail: "relative reference without a base"}
	}
	return parseRelative(raw, base)
}

func stripC0AndSpace(s string) string {
	isC0OrSpace := func(b byte) bool { return b <= 0x20 }
	i, j := 0, len(s)
	for i < j && isC0OrSpace(s[i]) {
		i++
	}
	for j > i && isC0OrSpace(s[j-1]) {
		j--
	}
	return s[i:j]
}

func removeTabsAndNewlines(s string) string {
	if !strings.ContainsAny(s, "\t\n\r") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\t' || s[i] == '\n' || s[i] == '\r' {
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func isSchemeStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isSchemeChar(b byte) bool {
	return isSchemeStart(b) || (b >= '0' && b <= '9') || b == '+' || b == '-' || b == '.'
}

// splitScheme reports whether raw begins with "scheme:" and, if so,
// returns the lowercased scheme and the remainder after the colon.
func splitScheme(raw string) (scheme, rest string, ok bool) {
	if raw == "" || !isSchemeStart(raw[0]) {
		return "", "", false
	}
	i := 1
	for i < len(raw) && isSchemeChar(raw[i]) {
		i++
	}
	if i >= len(raw) || raw[i] != ':' {
		return "", "", false
	}
	return strings.ToLower(raw[:i]), raw[i+1:], true
}

func parseWithScheme(scheme, rest string, base *URL) (*URL, error) {
	u := &URL{Scheme: scheme}

	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		authority, pathPart := splitAuthorityFromPath(rest)
		if err := parseAuthority(u, authority); err != nil {
			return nil, err
		}
		return finishPathQueryFragment(u, pathPart)
	}

	if !u.isSpecial() {
		// Opaque-path scheme: mailto:, tel:, data:, etc.
		pathAndRest := rest
		queryIdx := strings.IndexByte(pathAndRest, '?')
		fragIdx := strings.IndexByte(pathAndRest, '#')
		pathEnd := len(pathAndRest)
		if queryIdx >= 0 && queryIdx < pathEnd {
			pathEnd = queryIdx
		}
		if fragIdx >= 0 && fragIdx < pathEnd {
			pathEnd = fragIdx
		}
		u.Path = Path{Kind: PathOpaque, Opaque: pathAndRest[:pathEnd]}
		return finishQueryFragment(u, pathAndRest[pathEnd:])
	}

	// Special scheme without "//" (e.g. a relative-looking http: URL):
	// treat the rest as authority + path (WHATWG's special-scheme
	// authority-slashes leniency).
	authority, pathPart := splitAuthorityFromPath(rest)
	if err := parseAuthority(u, authority); err != nil {
		return nil, err
	}
	return finishPathQueryFragment(u, pathPart)
}

func splitAuthorityFromPath(s string) (authority, pathPart string) {
	idx := strings.IndexAny(s, "/?#")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx:]
}

func parseAuthority(u *URL, authority string) error {
	userinfo := ""
	hostport := authority
	if at := strings.LastIndexByte(authority, '@'); at >= 0 {
		userinfo = authority[:at]
		hostport = authority[at+1:]
	}
	if userinfo != "" {
		if colon := strings.IndexByte(userinfo, ':'); colon >= 0 {
			u.Username = PercentDecode(userinfo[:colon])
			u.Password = PercentDecode(userinfo[colon+1:])
		} else {
			u.Username = PercentDecode(userinfo)
		}
	}

	hostStr := hostport
	portStr := ""
	if strings.HasPrefix(hostport, "[") {
		end := strings.IndexByte(hostport, ']')
		if end < 0 {
			return &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlHost, Detail: "unterminated ipv6 literal"}
		}
		hostStr = hostport[:end+1]
		if end+1 < len(hostport) && hostport[end+1] == ':' {
			portStr = hostport[end+2:]
		}
	} else if colon := strings.LastIndexByte(hostport, ':'); colon >= 0 {
		hostStr = hostport[:colon]
		portStr = hostport[colon+1:]
	}

	if hostStr == "" && u.isSpecial() {
		return &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlHost, Detail: "empty host in special scheme"}
	}

	host, err := parseHost(hostStr, u.isSpecial())
	if err != nil {
		return err
	}
	u.Host = host

	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 0 || port > 65535 {
			return &wxrcore.InvalidUrl{Kind: wxrcore.InvalidUrlPort, Detail: "port out of range"}
		}
		if port != u.defaultPort() {
			u.Port = &port
		}
	}
	return nil
}

func finishPathQueryFragment(u *URL, s string) (*URL, error) {
	pathEnd := len(s)
	queryIdx := strings.IndexByte(s, '?')
	fragIdx := strings.IndexByte(s, '#')
	if queryIdx >= 0 && queryIdx < pathEnd {
		pathEnd = queryIdx
	}
	if fragIdx >= 0 && fragIdx < pathEnd {
		pathEnd = fragIdx
	}

	rawPath := s[:pathEnd]
	segments := shortenPath(splitPathSegments(rawPath), u.Scheme == "file")
	u.Path = Path{Kind: PathList, Segments: segments}

	return finishQueryFragment(u, s[pathEnd:])
}

func finishQueryFragment(u *URL, s string) (*URL, error) {
	if s == "" {
		return u, nil
	}
	if s[0] == '?' {
		rest := s[1:]
		fragIdx := strings.IndexByte(rest, '#')
		q := rest
		frag := ""
		hasFrag := false
		if fragIdx >= 0 {
			q = rest[:fragIdx]
			frag = rest[fragIdx+1:]
			hasFrag = true
		}
		set := SpecialQueryEncodeSet
		if !u.isSpecial() {
			set = QueryEncodeSet
		}
		encoded := PercentEncode(q, set)
		u.Query = &encoded
		if hasFrag {
			f := PercentEncode(frag, FragmentEncodeSet)
			u.Fragment = &f
		}
		return u, nil
	}
	// s[0] == '#'
	f := PercentEncode(s[1:], FragmentEncodeSet)
	u.Fragment = &f
	return u, nil
}

func splitPathSegments(p string) []string {
	if p == "" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, seg := range parts {
		parts[i] = PercentEncode(seg, PathEncodeSet)
	}
	return parts
}

// shortenPath applies "." / ".." segment shortening, preserving a
// Windows drive-letter first segment for file: URLs rather than
// shortening it away.
func shortenPath(segs []string, isFile bool) []string {
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		switch s {
		case ".":
			continue
		case "..":
			if len(out) > 0 && !(isFile && len(out) == 1 && isWindowsDriveLetter(out[0])) {
				out = out[:len(out)-1]
			}
		default:
			if isFile && len(out) == 0 && isWindowsDriveLetterPipe(s) {
				s = s[:1] + ":" + s[2:]
			}
			out = append(out, s)
		}
	}
	return out
}

func isWindowsDriveLetter(s string) bool {
	return len(s) == 2 && isSchemeStart(s[0]) && s[1] == ':'
}

func isWindowsDriveLetterPipe(s string) bool {
	return len(s) >= 2 && isSchemeStart(s[0]) && (s[1] == '|' || s[1] == ':')
}

// parseRelative resolves raw against base, per the Relative/RelativeSlash
// states: no scheme means inherit the base's scheme and, depending on
// what raw contains, its authority and/or path.
func parseRelative(raw string, base *URL) (*URL, error) {
	u := &URL{Scheme: base.Scheme, NonAbsolute: true}

	if strings.HasPrefix(raw, "//") {
		authority, pathPart := splitAuthorityFromPath(raw[2:])
		if err := parseAuthority(u, authority); err != nil {
			return nil, err
		}
		return finishPathQueryFragment(u, pathPart)
	}

	u.Host = base.Host
	u.Port = base.Port
	u.Username = base.Username
	u.Password = base.Password

	if raw == "" {
		u.Path = base.Path
		u.Query = base.Query
		return u, nil
	}

	if raw[0] == '?' || raw[0] == '#' {
		u.Path = base.Path
		return finishQueryFragment(u, raw)
	}

	if raw[0] == '/' {
		return finishPathQueryFragment(u, raw)
	}

	// Relative path: merge with base's path, dropping its last segment.
	merged := mergeRelativePath(base.Path, raw)
	return finishPathQueryFragment(u, merged)
}

func mergeRelativePath(basePath Path, raw string) string {
	var prefix string
	if basePath.Kind == PathList && len(basePath.Segments) > 0 {
		prefix = "/" + strings.Join(basePath.Segments[:len(basePath.Segments)-1], "/")
		if prefix == "/" {
			prefix = ""
		}
	}
	return prefix + "/" + raw
}
