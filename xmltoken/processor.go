package xmltoken

import (
	"bytes"
	"io"

	"github.com/wxrmigrate/wxrcore"
	"github.com/wxrmigrate/wxrcore/bytestream"
)

// maxTagWindow bounds how far Processor will keep doubling its search
// window looking for a tag/comment/CDATA terminator before giving up with
// a Fatal error. A real WXR document never has a multi-hundred-megabyte
// comment; a document that does is almost certainly corrupt or hostile.
const maxTagWindow = 64 * 1024 * 1024

// elem is one entry on the open-element stack.
type elem struct {
	name Name
}

// Processor is an incremental, namespace-aware XML token producer reading
// from a bytestream.Source, per §4.2. A single call to Next never blocks
// on more input than the Source already has buffered or can supply
// without suspending; when the next token cannot yet be determined it
// returns wxrcore.ErrNeedMoreInput without having consumed any bytes, so
// callers streaming from a network source can feed more data and retry.
type Processor struct {
	src   *bytestream.Source
	ns    *nsStack
	stack []elem

	sawRoot  bool
	rootDone bool
}

// NewProcessor wraps src.
func NewProcessor(src *bytestream.Source) *Processor {
	return &Processor{src: src, ns: newNsStack()}
}

// ErrEndOfDocument is returned by Next once the root element has closed
// and only whitespace or comments remain (or the stream ends).
var ErrEndOfDocument = io.EOF

// Next produces the next token, or an error: wxrcore.ErrNeedMoreInput
// (transient, no bytes consumed, retry later), ErrEndOfDocument (the
// document is exhausted), or a *wxrcore.FatalError.
func (p *Processor) Next() (*Token, error) {
	for {
		if p.rootDone {
			return p.scanTrailer()
		}

		if err := p.src.Pull(1, bytestream.NoMoreThan); err != nil {
			return nil, &wxrcore.FatalError{Component: "xmltoken", Reason: "io", Err: err}
		}
		peek := p.src.Peek(1)
		if len(peek) == 0 {
			if p.src.ReachedEndOfData() {
				if p.sawRoot {
					return nil, ErrEndOfDocument
				}
				return nil, wxrcore.InvalidXml("empty-document", nil)
			}
			return nil, wxrcore.ErrNeedMoreInput
		}

		if peek[0] != '<' {
			return p.scanText()
		}

		return p.scanMarkup()
	}
}

// scanTrailer consumes whitespace and comments after the root element has
// closed, per the XML "Misc*" production, until end of data.
func (p *Processor) scanTrailer() (*Token, error) {
	for {
		if err := p.src.Pull(1, bytestream.NoMoreThan); err != nil {
			return nil, &wxrcore.FatalError{Component: "xmltoken", Reason: "io", Err: err}
		}
		b := p.src.Peek(1)
		if len(b) == 0 {
			if p.src.ReachedEndOfData() {
				return nil, ErrEndOfDocument
			}
			return nil, wxrcore.ErrNeedMoreInput
		}
		if isXmlSpace(b[0]) {
			p.src.Consume(1)
			continue
		}
		if b[0] != '<' {
			return nil, wxrcore.InvalidXml("trailing-content-after-root", nil)
		}
		return p.scanMarkup()
	}
}

// scanMarkup dispatches on the bytes immediately following the buffered
// '<' at the cursor: comment, CDATA, doctype, processing instruction,
// closing tag, or opening tag.
func (p *Processor) scanMarkup() (*Token, error) {
	window, err := p.peekWindow(16)
	if err != nil {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(window, []byte("<!--")):
		return p.scanComment()
	case bytes.HasPrefix(window, []byte("<![CDATA[")):
		return p.scanCData()
	case bytes.HasPrefix(window, []byte("<!DOCTYPE")):
		return p.scanDoctype()
	case bytes.HasPrefix(window, []byte("<?xml")) && p.src.Tell() == 0:
		return p.scanXMLDecl()
	case bytes.HasPrefix(window, []byte("<?")):
		return nil, wxrcore.XmlUnsupported("processing-instruction")
	case bytes.HasPrefix(window, []byte("<!")):
		return nil, wxrcore.XmlUnsupported("internal-subset-or-markup-declaration")
	case len(window) >= 2 && window[1] == '/':
		return p.scanElementClose()
	default:
		return p.scanElementOpen()
	}
}

// peekWindow returns up to n bytes at the cursor, pulling more if
// available and not yet buffered. A shorter window is returned when the
// stream is known to end there, or when it already holds enough bytes to
// tell the markup kind apart (two bytes, or nine after "<!" or "<?");
// otherwise it returns wxrcore.ErrNeedMoreInput.
func (p *Processor) peekWindow(n int) ([]byte, error) {
	if err := p.src.Pull(n, bytestream.NoMoreThan); err != nil {
		return nil, &wxrcore.FatalError{Component: "xmltoken", Reason: "io", Err: err}
	}
	w := p.src.Peek(n)
	need := 2
	if len(w) >= 2 && (w[1] == '!' || w[1] == '?') {
		need = 9
	}
	atEnd := p.src.Length() >= 0 && p.src.Tell()+int64(len(w)) >= p.src.Length()
	if len(w) < n && len(w) < need && !atEnd && !p.src.ReachedEndOfData() {
		return nil, wxrcore.ErrNeedMoreInput
	}
	return w, nil
}

// findTerminator grows the Source's pulled window until term is found at
// or after byte offset `after`, or the stream ends. It never consumes
// bytes itself.
func (p *Processor) findTerminator(after int, term []byte) (int, error) {
	size := after + len(term) + 256
	for {
		if err := p.src.Pull(size, bytestream.NoMoreThan); err != nil {
			return 0, &wxrcore.FatalError{Component: "xmltoken", Reason: "io", Err: err}
		}
		buf := p.src.Peek(size)
		if idx := bytes.Index(buf[min(after, len(buf)):], term); idx >= 0 {
			return min(after, len(buf)) + idx, nil
		}
		atEnd := p.src.Length() >= 0 && p.src.Tell()+int64(len(buf)) >= p.src.Length()
		if p.src.ReachedEndOfData() || (len(buf) < size && atEnd) {
			return -1, io.EOF
		}
		if len(buf) < size {
			// Source has given us everything it currently has and isn't
			// finished: suspend rather than spin.
			return -1, nil
		}
		size *= 2
		if size > maxTagWindow {
			return -1, io.ErrShortBuffer
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (p *Processor) scanComment() (*Token, error) {
	idx, err := p.findTerminator(4, []byte("-->"))
	if err == io.EOF {
		return nil, wxrcore.InvalidXml("unterminated-comment", nil)
	}
	if err == io.ErrShortBuffer {
		return nil, wxrcore.XmlUnsupported("comment-too-long")
	}
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, wxrcore.ErrNeedMoreInput
	}

	start := int(p.src.Tell())
	body := append([]byte(nil), p.src.Peek(idx)[4:]...)
	end := idx + 3
	tok := &Token{
		Kind:        KindComment,
		Text:        body,
		StartOffset: start,
		Length:      end,
		Depth:       len(p.stack),
		Breadcrumbs: p.breadcrumbs(),
	}
	p.src.Consume(end)
	return tok, nil
}

func (p *Processor) scanCData() (*Token, error) {
	idx, err := p.findTerminator(9, []byte("]]>"))
	if err == io.EOF {
		return nil, wxrcore.InvalidXml("unterminated-cdata", nil)
	}
	if err == io.ErrShortBuffer {
		return nil, wxrcore.XmlUnsupported("cdata-too-long")
	}
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, wxrcore.ErrNeedMoreInput
	}

	start := int(p.src.Tell())
	body := append([]byte(nil), p.src.Peek(idx)[9:]...)
	end := idx + 3
	tok := &Token{
		Kind:        KindCData,
		Text:        body,
		StartOffset: start,
		Length:      end,
		Depth:       len(p.stack),
		Breadcrumbs: p.breadcrumbs(),
	}
	p.src.Consume(end)
	return tok, nil
}

func (p *Processor) scanDoctype() (*Token, error) {
	// A DOCTYPE may carry an internal subset in [ ... ] before the closing
	// '>'; scan for the first '>' not preceded by an unmatched '['.
	size := 256
	for {
		if err := p.src.Pull(size, bytestream.NoMoreThan); err != nil {
			return nil, &wxrcore.FatalError{Component: "xmltoken", Reason: "io", Err: err}
		}
		buf := p.src.Peek(size)
		if end, ok := scanDoctypeEnd(buf); ok {
			start := int(p.src.Tell())
			raw := append([]byte(nil), buf[9:end]...)
			tok := &Token{
				Kind:        KindDoctype,
				Raw:         raw,
				StartOffset: start,
				Length:      end + 1,
				Depth:       0,
				Breadcrumbs: nil,
			}
			p.src.Consume(end + 1)
			return tok, nil
		}
		if p.src.ReachedEndOfData() {
			return nil, wxrcore.InvalidXml("unterminated-doctype", nil)
		}
		if len(buf) < size {
			return nil, wxrcore.ErrNeedMoreInput
		}
		size *= 2
		if size > maxTagWindow {
			return nil, wxrcore.XmlUnsupported("doctype-too-long")
		}
	}
}

// scanDoctypeEnd finds the index of the '>' that closes a DOCTYPE
// declaration beginning at buf[0], tracking bracket depth for an internal
// subset. ok is false if buf does not contain the terminator yet.
func scanDoctypeEnd(buf []byte) (int, bool) {
	depth := 0
	for i := 9; i < len(buf); i++ {
		switch buf[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '>':
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func (p *Processor) scanXMLDecl() (*Token, error) {
	idx, err := p.findTerminator(5, []byte("?>"))
	if err == io.EOF {
		return nil, wxrcore.InvalidXml("unterminated-xml-declaration", nil)
	}
	if err == io.ErrShortBuffer {
		return nil, wxrcore.XmlUnsupported("xml-declaration-too-long")
	}
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, wxrcore.ErrNeedMoreInput
	}

	start := int(p.src.Tell())
	raw := append([]byte(nil), p.src.Peek(idx)[5:]...)
	end := idx + 2
	tok := &Token{
		Kind:        KindXMLDecl,
		Raw:         raw,
		StartOffset: start,
		Length:      end,
	}
	p.src.Consume(end)
	return tok, nil
}

// scanElementOpen parses "<name attr="val" ...>" or its self-closing
// form, resolving namespaces against a freshly pushed nsStack frame.
func (p *Processor) scanElementOpen() (*Token, error) {
	idx, err := p.findTerminator(1, []byte(">"))
	if err == io.EOF {
		return nil, wxrcore.InvalidXml("unterminated-start-tag", nil)
	}
	if err == io.ErrShortBuffer {
		return nil, wxrcore.XmlUnsupported("start-tag-too-long")
	}
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, wxrcore.ErrNeedMoreInput
	}

	start := int(p.src.Tell())
	raw := p.src.Peek(idx + 1)
	selfClosing := idx > 0 && raw[idx-1] == '/'
	body := raw[1:idx]
	if selfClosing {
		body = body[:len(body)-1]
	}

	nameRaw, rawAttrs, err := parseStartTagBody(body, start+1)
	if err != nil {
		return nil, err
	}

	p.ns.push(rawAttrs)
	prefix, local := splitPrefix(nameRaw)
	name := p.ns.resolve(prefix, local, false)

	attrs := make([]Attr, 0, len(rawAttrs))
	seen := make(map[Name]bool, len(rawAttrs))
	for _, a := range rawAttrs {
		if a.prefix == "" && a.local == "xmlns" {
			continue
		}
		if a.prefix == "xmlns" {
			continue
		}
		aName := p.ns.resolve(a.prefix, a.local, true)
		if seen[aName] {
			return nil, wxrcore.InvalidXml("duplicate-attribute: "+aName.String(), nil)
		}
		seen[aName] = true
		val, err := decodeText([]byte(a.value))
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, Attr{Name: aName, Value: string(val), Start: a.start, End: a.end})
	}

	breadcrumbs := p.breadcrumbs()
	breadcrumbs = append(breadcrumbs, name)

	tok := &Token{
		Kind:        KindElementOpen,
		Name:        name,
		Attrs:       attrs,
		SelfClosing: selfClosing,
		StartOffset: start,
		Length:      idx + 1,
		Depth:       len(p.stack),
		Breadcrumbs: breadcrumbs,
	}

	if selfClosing {
		p.ns.pop()
	} else {
		p.stack = append(p.stack, elem{name: name})
		if len(p.stack) == 1 {
			p.sawRoot = true
		}
	}

	p.src.Consume(idx + 1)
	return tok, nil
}

func (p *Processor) scanElementClose() (*Token, error) {
	idx, err := p.findTerminator(2, []byte(">"))
	if err == io.EOF {
		return nil, wxrcore.InvalidXml("unterminated-end-tag", nil)
	}
	if err == io.ErrShortBuffer {
		return nil, wxrcore.XmlUnsupported("end-tag-too-long")
	}
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, wxrcore.ErrNeedMoreInput
	}

	start := int(p.src.Tell())
	raw := p.src.Peek(idx + 1)
	nameRaw := bytes.TrimSpace(raw[2:idx])

	if len(p.stack) == 0 {
		return nil, wxrcore.InvalidXml("unmatched-closing-tag: </"+string(nameRaw)+">", nil)
	}

	prefix, local := splitPrefix(string(nameRaw))
	name := p.ns.resolve(prefix, local, false)
	top := p.stack[len(p.stack)-1]
	if top.name != name {
		return nil, wxrcore.InvalidXml("mismatched-closing-tag: expected </"+top.name.String()+"> got </"+name.String()+">", nil)
	}

	breadcrumbs := p.breadcrumbs()
	tok := &Token{
		Kind:        KindElementClose,
		Name:        name,
		StartOffset: start,
		Length:      idx + 1,
		Depth:       len(p.stack) - 1,
		Breadcrumbs: breadcrumbs,
	}

	p.stack = p.stack[:len(p.stack)-1]
	p.ns.pop()
	p.src.Consume(idx + 1)

	if len(p.stack) == 0 {
		p.rootDone = true
	}
	return tok, nil
}

// scanText consumes a run of character data up to the next '<', merging
// entity-decoded content across the run (CDATA sections that immediately
// follow are not merged in this pass; wxr.Reader merges adjacent
// Text/CData tokens at the entity-accumulation layer instead).
func (p *Processor) scanText() (*Token, error) {
	idx, err := p.findTerminator(0, []byte("<"))
	if err == io.EOF {
		idx = -2 // sentinel: text runs to true end of document
	} else if err == io.ErrShortBuffer {
		return nil, wxrcore.XmlUnsupported("text-run-too-long")
	} else if err != nil {
		return nil, err
	}
	if idx == -1 {
		return nil, wxrcore.ErrNeedMoreInput
	}

	start := int(p.src.Tell())
	var raw []byte
	if idx == -2 {
		raw = p.src.Peek(1 << 30)
	} else {
		raw = p.src.Peek(idx)
	}
	if len(raw) == 0 {
		return nil, wxrcore.InvalidXml("unexpected-end-of-document", nil)
	}

	decoded, derr := decodeText(raw)
	if derr != nil {
		return nil, derr
	}

	tok := &Token{
		Kind:        KindText,
		Text:        decoded,
		StartOffset: start,
		Length:      len(raw),
		Depth:       len(p.stack),
		Breadcrumbs: p.breadcrumbs(),
	}
	p.src.Consume(len(raw))
	return tok, nil
}

func (p *Processor) breadcrumbs() []Name {
	out := make([]Name, len(p.stack))
	for i, e := range p.stack {
		out[i] = e.name
	}
	return out
}

func isXmlSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func splitPrefix(qname string) (prefix, local string) {
	if i := bytes.IndexByte([]byte(qname), ':'); i >= 0 {
		return qname[:i], qname[i+1:]
	}
	return "", qname
}

// parseStartTagBody splits "name attr1=\"v1\" attr2='v2'" (the bytes
// strictly between '<'/'</' and the closing '>' or '/>') into the
// element name and its raw, unresolved attributes. base is the absolute
// offset of body[0], used to compute each attribute's byte span.
func parseStartTagBody(body []byte, base int) (string, []rawAttr, error) {
	i := 0
	n := len(body)

	skipSpace := func() {
		for i < n && isXmlSpace(body[i]) {
			i++
		}
	}
	readName := func() string {
		start := i
		for i < n && !isXmlSpace(body[i]) && body[i] != '=' && body[i] != '/' {
			i++
		}
		return string(body[start:i])
	}

	name := readName()
	if name == "" {
		return "", nil, wxrcore.InvalidXml("empty-element-name", nil)
	}
	if !validateStrict([]byte(name)) {
		return "", nil, wxrcore.InvalidXml("invalid-utf8-in-name", nil)
	}

	var attrs []rawAttr
	for {
		skipSpace()
		if i >= n {
			break
		}
		attrStart := base + i
		aname := readName()
		if aname == "" {
			break
		}
		if !validateStrict([]byte(aname)) {
			return "", nil, wxrcore.InvalidXml("invalid-utf8-in-name", nil)
		}
		skipSpace()
		if i >= n || body[i] != '=' {
			return "", nil, wxrcore.InvalidXml("malformed-attribute: "+aname, nil)
		}
		i++
		skipSpace()
		if i >= n || (body[i] != '"' && body[i] != '\'') {
			return "", nil, wxrcore.InvalidXml("unquoted-attribute-value: "+aname, nil)
		}
		quote := body[i]
		i++
		valStart := i
		for i < n && body[i] != quote {
			i++
		}
		if i >= n {
			return "", nil, wxrcore.InvalidXml("unterminated-attribute-value: "+aname, nil)
		}
		val := string(body[valStart:i])
		i++
		attrEnd := base + i

		aprefix, alocal := splitPrefix(aname)
		attrs = append(attrs, rawAttr{prefix: aprefix, local: alocal, value: val, start: attrStart, end: attrEnd})
	}

	return name, attrs, nil
}
