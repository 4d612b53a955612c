// Package markup implements L5: a streaming HTML tag scanner wrapping
// golang.org/x/net/html.Tokenizer, a WordPress block-comment parser layered
// on top of it, block-attribute tree traversal, and a URL rewriter composed
// over both the tag and block layers plus bare text.
package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// TokenKind discriminates the token shapes §4.5 names.
type TokenKind int

const (
	KindTagOpen TokenKind = iota
	KindTagClose
	KindText
	KindComment
)

// Attr is one tag attribute, in source order.
type Attr struct {
	Name, Value string
}

// Token is one markup token, carrying the raw byte span it occupies in the
// original document so staged edits can reference it.
type Token struct {
	Kind  TokenKind
	Start int // byte offset of the token's first byte
	End   int // byte offset one past the token's last byte

	TagName    string
	Attrs      []Attr
	SelfClosed bool

	Text string // KindText, KindComment: decoded/raw payload
}

// Scanner tokenizes a complete, in-memory HTML document, tracking each
// token's absolute byte offset. Unlike L1/L2, L5 runs over the already
// fully-accumulated text of a single entity field (e.g. post_content): it
// does not suspend for more input.
type Scanner struct {
	z      *html.Tokenizer
	offset int
	doc    string
}

// NewScanner creates a Scanner over doc.
func NewScanner(doc string) *Scanner {
	return &Scanner{z: html.NewTokenizer(strings.NewReader(doc)), doc: doc}
}

// Next returns the next token, or io.EOF (via html's tokenizer contract,
// surfaced as (nil, nil) here) when the document is exhausted.
func (s *Scanner) Next() (*Token, error) {
	tt := s.z.Next()
	if tt == html.ErrorToken {
		if err := s.z.Err(); err != nil && err.Error() != "EOF" {
			return nil, err
		}
		return nil, nil
	}

	raw := s.z.Raw()
	start := s.offset
	end := start + len(raw)
	s.offset = end

	switch tt {
	case html.TextToken:
		return &Token{Kind: KindText, Start: start, End: end, Text: string(s.z.Text())}, nil
	case html.CommentToken:
		name, _ := s.z.TagName()
		_ = name
		return &Token{Kind: KindComment, Start: start, End: end, Text: commentText(raw)}, nil
	case html.DoctypeToken:
		return s.Next()
	case html.StartTagToken, html.SelfClosingTagToken:
		tok := s.z.Token()
		return &Token{
			Kind:       KindTagOpen,
			Start:      start,
			End:        end,
			TagName:    strings.ToUpper(tok.Data),
			Attrs:      convertAttrs(tok.Attr),
			SelfClosed: tt == html.SelfClosingTagToken,
		}, nil
	case html.EndTagToken:
		tok := s.z.Token()
		return &Token{Kind: KindTagClose, Start: start, End: end, TagName: strings.ToUpper(tok.Data)}, nil
	}
	return s.Next()
}

func convertAttrs(attrs []html.Attribute) []Attr {
	out := make([]Attr, len(attrs))
	for i, a := range attrs {
		out[i] = Attr{Name: strings.ToUpper(a.Key), Value: a.Val}
	}
	return out
}

// commentText strips the leading "<!--" and trailing "-->" from a raw
// comment token, since html.Tokenizer's Raw() includes the delimiters but
// its Token().Data form is only reliably available via Token() itself.
func commentText(raw []byte) string {
	s := string(raw)
	s = strings.TrimPrefix(s, "<!--")
	s = strings.TrimSuffix(s, "-->")
	return s
}
