package urlstream

import "strings"

// Serialize renders u per §4.4.1's serialization algorithm: scheme, then
// (if a host is present) "//" + userinfo + host + port, then path, query
// and fragment. A null host with a non-opaque path whose first segment
// is empty and which has more than one segment gets "/." prepended to
// disambiguate it from an authority-bearing form.
func (u *URL) Serialize() string {
	var sb strings.Builder
	sb.WriteString(u.Scheme)
	sb.WriteByte(':')

	hasAuthority := u.Host.Kind != HostNull || u.Username != "" || u.Password != "" || u.Port != nil
	if hasAuthority || (u.isSpecial() && u.Scheme != "file") {
		sb.WriteString("//")
		if u.Username != "" || u.Password != "" {
			sb.WriteString(PercentEncode(u.Username, UserinfoEncodeSet))
			if u.Password != "" {
				sb.WriteByte(':')
				sb.WriteString(PercentEncode(u.Password, UserinfoEncodeSet))
			}
			sb.WriteByte('@')
		}
		sb.WriteString(u.Host.String())
		if u.Port != nil {
			sb.WriteByte(':')
			sb.WriteString(itoa(*u.Port))
		}
	}

	sb.WriteString(u.serializePath(!hasAuthority && !(u.isSpecial() && u.Scheme != "file")))

	if u.Query != nil {
		sb.WriteByte('?')
		sb.WriteString(*u.Query)
	}
	if u.Fragment != nil {
		sb.WriteByte('#')
		sb.WriteString(*u.Fragment)
	}
	return sb.String()
}

func (u *URL) serializePath(nullHost bool) string {
	if u.Path.Kind == PathOpaque {
		return u.Path.Opaque
	}
	segs := u.Path.Segments
	if nullHost && len(segs) > 1 && segs[0] == "" {
		return "/." + "/" + strings.Join(segs[1:], "/")
	}
	if len(segs) == 0 {
		return ""
	}
	return "/" + strings.Join(segs, "/")
}

// String implements fmt.Stringer via Serialize.
func (u *URL) String() string { return u.Serialize() }
