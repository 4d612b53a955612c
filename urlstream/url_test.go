package urlstream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSerializeIdempotent(t *testing.T) {
	u, err := Parse("https://example.com/a/b?q=1#frag", nil)
	require.NoError(t, err)

	serialized := u.Serialize()
	require.Equal(t, "https://example.com/a/b?q=1#frag", serialized)

	reparsed, err := Parse(serialized, nil)
	require.NoError(t, err)
	require.Equal(t, u.Serialize(), reparsed.Serialize())
}

func TestReplaceBaseURLPreservesDoubleEscape(t *testing.T) {
	raw := "https://example.com/~jappleseed/1997.10.1/%2561-reasons-to-migrate-data/"
	url, err := Parse(raw, nil)
	require.NoError(t, err)

	oldBase, err := Parse("https://example.com/~jappleseed/", nil)
	require.NoError(t, err)
	newBase, err := Parse("https://newsite.com/users/jappleseed/", nil)
	require.NoError(t, err)

	result, err := ReplaceBaseURL(raw, url, oldBase, newBase)
	require.NoError(t, err)
	require.Equal(t, "https://newsite.com/users/jappleseed/1997.10.1/%2561-reasons-to-migrate-data/", result)
}

func TestIDNHost(t *testing.T) {
	u, err := Parse("https://xn--ka-2ia6b.pl/path", nil)
	require.NoError(t, err)
	require.Equal(t, HostDomain, u.Host.Kind)
	require.Equal(t, "xn--ka-2ia6b.pl", u.Host.Opaque)
}

func TestPercentEncodeRoundtrip(t *testing.T) {
	s := "hello world/?#"
	encoded := PercentEncode(s, QueryEncodeSet)
	decoded := PercentDecode(encoded)
	require.Equal(t, s, decoded)
}

func TestQueryListRoundtrip(t *testing.T) {
	q := ParseQueryList("a=1&b=2&a=3")
	require.Len(t, q.Pairs, 3)

	again := ParseQueryList(q.String())
	require.Equal(t, q.Pairs, again.Pairs)
}

func TestSieveFindsHostsNotProseWords(t *testing.T) {
	text := "Visit myblog.com and w.org, but it won't help."
	cands := SieveText(text, nil)

	var hosts []string
	for _, c := range cands {
		hosts = append(hosts, c.Parsed.Host.Opaque)
	}
	require.Contains(t, hosts, "myblog.com")
	require.Contains(t, hosts, "w.org")
	require.NotContains(t, hosts, "it")
}

func TestFindCSSURLs(t *testing.T) {
	css := `background: url(http://old/a.png); border-image: url("http://old/b.png");`
	toks := FindCSSURLs(css)
	require.Len(t, toks, 2)
	require.Equal(t, "http://old/a.png", toks[0].Raw)
	require.Equal(t, "http://old/b.png", toks[1].Raw)
	require.False(t, toks[0].IsDataURI)
}

func TestIPv4AndIPv6Hosts(t *testing.T) {
	u, err := Parse("http://192.168.0.1:8080/", nil)
	require.NoError(t, err)
	require.Equal(t, HostIPv4, u.Host.Kind)
	require.Equal(t, "192.168.0.1", u.Host.String())

	u6, err := Parse("http://[::1]/", nil)
	require.NoError(t, err)
	require.Equal(t, HostIPv6, u6.Host.Kind)
}
