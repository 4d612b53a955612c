// Package xmltoken implements L2: an incremental, namespace-aware XML
// token producer that suspends cleanly on incomplete input and exposes
// byte offsets, bookmarks, and breadcrumbs for every token. It is not a
// general XML 1.0 parser: DTDs, external entities, and processing
// instructions other than the XML declaration are rejected as
// xmltoken.XmlUnsupported rather than parsed.
package xmltoken

import "fmt"

// Name is a namespace-resolved XML name: a (namespace URI, local name)
// pair. Matching is always by pair, never by prefix.
type Name struct {
	URI   string
	Local string
}

// String renders the Clark-notation canonical serialization: "{URI}local",
// or just "local" when URI is empty.
func (n Name) String() string {
	if n.URI == "" {
		return n.Local
	}
	return fmt.Sprintf("{%s}%s", n.URI, n.Local)
}

// Attr is one resolved attribute: its name, decoded value, and the byte
// span of the whole "name=value" production in the source.
type Attr struct {
	Name       Name
	Value      string
	Start, End int
}

// Kind discriminates the Token variants of §3.
type Kind int

const (
	KindElementOpen Kind = iota
	KindElementClose
	KindText
	KindCData
	KindComment
	KindXMLDecl
	KindDoctype
)

func (k Kind) String() string {
	switch k {
	case KindElementOpen:
		return "ElementOpen"
	case KindElementClose:
		return "ElementClose"
	case KindText:
		return "Text"
	case KindCData:
		return "CData"
	case KindComment:
		return "Comment"
	case KindXMLDecl:
		return "XMLDecl"
	case KindDoctype:
		return "Doctype"
	}
	return "Unknown"
}

// Token is one produced XML token, with the observables §4.2 requires:
// starting byte offset, length, depth, and breadcrumbs.
type Token struct {
	Kind Kind

	// Element-Open / Element-Close
	Name         Name
	Attrs        []Attr
	SelfClosing  bool

	// Text / CData / Comment: decoded text. Text and CData sections are
	// separate tokens; wxr.Reader concatenates adjacent ones.
	Text []byte

	// Doctype: opaque raw bytes between "<!DOCTYPE" and the closing ">".
	Raw []byte

	StartOffset int
	Length      int
	Depth       int
	Breadcrumbs []Name
}

// MatchesBreadcrumbs reports whether the token's breadcrumb path matches
// pattern, where each pattern segment is either a literal local name
// (namespace-unaware, matched against Name.Local) or "*" for a wildcard.
func (t Token) MatchesBreadcrumbs(pattern []string) bool {
	if len(pattern) != len(t.Breadcrumbs) {
		return false
	}
	for i, seg := range pattern {
		if seg == "*" {
			continue
		}
		if t.Breadcrumbs[i].Local != seg {
			return false
		}
	}
	return true
}
