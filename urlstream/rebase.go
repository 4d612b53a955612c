package urlstream

import "strings"

// dirSegments returns a path's segments with a trailing empty segment
// (the artifact of a trailing "/") dropped, so that "/a/" and "/a"
// compare as the same directory prefix.
func dirSegments(p Path) []string {
	if p.Kind != PathList {
		return nil
	}
	segs := p.Segments
	if n := len(segs); n > 0 && segs[n-1] == "" {
		return segs[:n-1]
	}
	return segs
}

// IsChildURLOf reports whether url's path starts with oldBase's
// directory prefix, segment-for-segment, and the two share scheme and
// host.
func IsChildURLOf(url, oldBase *URL) bool {
	if url.Scheme != oldBase.Scheme || url.Host.String() != oldBase.Host.String() {
		return false
	}
	if url.Path.Kind != PathList || oldBase.Path.Kind != PathList {
		return false
	}
	dir := dirSegments(oldBase.Path)
	if len(dir) > len(url.Path.Segments) {
		return false
	}
	for i, s := range dir {
		if url.Path.Segments[i] != s {
			return false
		}
	}
	return true
}

// ReplaceBaseURL implements §4.4.5: given the raw token that produced
// url (so relative style can be preserved), replace oldBase's directory
// prefix of its path with newBase's, leaving the matched prefix
// untouched and re-attaching the unmatched suffix verbatim (preserving
// percent-encoded segments, including doubly-escaped ones, exactly as
// they appeared, and the input's own trailing-slash style).
func ReplaceBaseURL(rawToken string, url, oldBase, newBase *URL) (string, error) {
	if !IsChildURLOf(url, oldBase) {
		return "", errNotAChild
	}

	oldDir := dirSegments(oldBase.Path)
	newDir := dirSegments(newBase.Path)
	suffix := url.Path.Segments[len(oldDir):]

	result := &URL{
		Scheme:   newBase.Scheme,
		Username: url.Username,
		Password: url.Password,
		Host:     newBase.Host,
		Port:     newBase.Port,
		Query:    url.Query,
		Fragment: url.Fragment,
	}
	result.Path = Path{Kind: PathList, Segments: append(append([]string{}, newDir...), suffix...)}

	// Re-parse the raw token without a base to see whether it was
	// originally absolute; if not, emit the replacement in relative form
	// against newBase.
	if _, err := Parse(rawToken, nil); err != nil {
		return relativeSerialize(result, newBase), nil
	}
	return result.Serialize(), nil
}

func relativeSerialize(u, base *URL) string {
	path := "/" + strings.Join(u.Path.Segments, "/")
	if u.Query != nil {
		path += "?" + *u.Query
	}
	if u.Fragment != nil {
		path += "#" + *u.Fragment
	}
	return strings.TrimPrefix(path, pathPrefixOf(base))
}

func pathPrefixOf(base *URL) string {
	dir := dirSegments(base.Path)
	if len(dir) == 0 {
		return "/"
	}
	return "/" + strings.Join(dir, "/") + "/"
}

type childURLError struct{ msg string }

func (e *childURLError) Error() string { return e.msg }

var errNotAChild = &childURLError{msg: "urlstream: url is not a child of old base"}
