package markup

import (
	"regexp"
	"strings"

	wxrcore "github.com/wxrmigrate/wxrcore"
)

var blockNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+`)

// Block is a parsed WordPress block delimiter comment: `<!-- wp:name {json} -->`,
// `<!-- /wp:name -->`, or the self-closing `<!-- wp:name {json} /-->`.
type Block struct {
	Name         string
	Closer       bool
	SelfClosing  bool
	Attributes   *AttrNode // nil if the delimiter carried no JSON payload
	Suspicious   bool      // malformed JSON: downgraded to a plain comment
	CommentStart int
	CommentEnd   int
}

// parseBlockDelimiter attempts to parse an HTML comment's payload as a
// block delimiter, per §4.5. ok is false when the text has no "wp:"/"/wp:"
// prefix at all (an ordinary comment, not a downgrade).
func parseBlockDelimiter(text string) (blk Block, ok bool) {
	t := strings.TrimSpace(text)

	closer := false
	if strings.HasPrefix(t, "/") {
		closer = true
		t = t[1:]
	}
	if !strings.HasPrefix(t, "wp:") {
		return Block{}, false
	}
	t = t[len("wp:"):]

	name := blockNamePattern.FindString(t)
	if name == "" {
		return Block{}, false
	}
	t = strings.TrimSpace(t[len(name):])

	blk = Block{Name: name, Closer: closer}

	if t == "" {
		return blk, true
	}

	if t == "/" {
		blk.SelfClosing = true
		return blk, true
	}

	selfClosing := false
	if strings.HasSuffix(t, "/") {
		candidate := strings.TrimSpace(t[:len(t)-1])
		if strings.HasSuffix(candidate, "}") {
			selfClosing = true
			t = candidate
		}
	}

	attrs, err := parseAttrTree(t)
	if err != nil {
		blk.Suspicious = true
		return blk, true
	}
	blk.Attributes = attrs
	blk.SelfClosing = selfClosing
	return blk, true
}

// serialize renders the delimiter back to its HTML comment form, honoring
// whatever attribute edits were made through the tree's Path accessors.
func (b Block) serialize() string {
	var buf strings.Builder
	buf.WriteString("<!-- ")
	if b.Closer {
		buf.WriteString("/")
	}
	buf.WriteString("wp:")
	buf.WriteString(b.Name)
	if b.Attributes != nil {
		buf.WriteString(" ")
		b.Attributes.encode(&buf)
	}
	if b.SelfClosing {
		buf.WriteString(" /")
	}
	buf.WriteString(" -->")
	return buf.String()
}

// Stack tracks the open-block nesting §4.5's state machine describes:
// Idle (empty) and Inside-Block(depth>=1).
type Stack struct {
	open []string
}

// Depth returns the current block nesting depth.
func (s *Stack) Depth() int { return len(s.open) }

// Push records an opener. Self-closing blocks never touch the stack.
func (s *Stack) Push(name string) { s.open = append(s.open, name) }

// Pop matches a closer against the top of the stack; it returns a
// MismatchedCloser error (a FatalError) if the names don't agree or the
// stack is empty, per §4.5: "otherwise record a mismatched-closer error
// and stop advancing."
func (s *Stack) Pop(name string) error {
	if len(s.open) == 0 {
		return &wxrcore.FatalError{Component: "markup", Reason: "mismatched-closer: no open block for /wp:" + name}
	}
	top := s.open[len(s.open)-1]
	if top != name {
		return &wxrcore.FatalError{Component: "markup", Reason: "mismatched-closer: expected /wp:" + top + ", got /wp:" + name}
	}
	s.open = s.open[:len(s.open)-1]
	return nil
}
