// Package urlstream implements L4: a WHATWG URL parser (scheme, host,
// IPv4/IPv6, IDNA/Punycode via golang.org/x/net/idna), a percent-encode
// set table, an ordered query list, an in-text URL sieve grounded on
// golang.org/x/net/publicsuffix, a minimal CSS url() finder, and base-URL
// replacement preserving percent-encoding and relative/absolute style.
package urlstream

import "fmt"

// Scheme special-port table, per §3 "Scheme".
var specialSchemePorts = map[string]int{
	"ftp":   21,
	"file":  -1, // no default port; file is special but has none
	"http":  80,
	"https": 443,
	"ws":    80,
	"wss":   443,
}

func isSpecialScheme(scheme string) bool {
	_, ok := specialSchemePorts[scheme]
	return ok
}

// HostKind discriminates the Host variant.
type HostKind int

const (
	HostNull HostKind = iota
	HostOpaque
	HostDomain
	HostIPv4
	HostIPv6
)

// Host is the host variant of §3's URL record.
type Host struct {
	Kind   HostKind
	Opaque string    // HostOpaque, HostDomain (ASCII, possibly xn--)
	IPv4   uint32    // HostIPv4
	IPv6   [8]uint16 // HostIPv6
}

func (h Host) String() string {
	switch h.Kind {
	case HostNull:
		return ""
	case HostOpaque, HostDomain:
		return h.Opaque
	case HostIPv4:
		return formatIPv4(h.IPv4)
	case HostIPv6:
		return "[" + formatIPv6(h.IPv6) + "]"
	}
	return ""
}

// PathKind discriminates the Path variant.
type PathKind int

const (
	PathOpaque PathKind = iota
	PathList
)

// Path is the path variant of §3's URL record.
type Path struct {
	Kind    PathKind
	Opaque  string
	Segments []string
}

// URL is the parsed-URL record of §3.
type URL struct {
	Scheme   string
	Username string
	Password string
	Host     Host
	Port     *int // nullable, 0..65535
	Path     Path
	Query    *string // nullable
	Fragment *string // nullable

	// NonAbsolute is set when the URL was resolved from a relative
	// reference against a base URL. The sieve and base replacement do
	// not consult it.
	NonAbsolute bool
}

func (u *URL) isSpecial() bool {
	return isSpecialScheme(u.Scheme)
}

func (u *URL) defaultPort() int {
	p, ok := specialSchemePorts[u.Scheme]
	if !ok {
		return -1
	}
	return p
}

func (u *URL) hasOpaquePath() bool {
	return u.Path.Kind == PathOpaque
}

func (u *URL) includesCredentials() bool {
	return u.Username != "" || u.Password != ""
}

func formatIPv4(v uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", (v>>24)&0xff, (v>>16)&0xff, (v>>8)&0xff, v&0xff)
}
