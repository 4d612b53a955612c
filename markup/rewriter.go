package markup

import (
	"html"
	"regexp"

	wxrcore "github.com/wxrmigrate/wxrcore"
	"github.com/wxrmigrate/wxrcore/urlstream"
)

// URLSite discriminates where a URLRef was found.
type URLSite int

const (
	SiteTagAttr URLSite = iota
	SiteBlockLeaf
	SiteText
)

// URLRef is one URL occurrence found by Rewriter.Scan: a tag attribute, a
// string leaf of a block's attribute tree, or a sieve match in text.
type URLRef struct {
	Site URLSite

	// Start, End bound the raw URL text's byte span in the original
	// document. Unset (0, 0) for SiteBlockLeaf, which is rewritten by
	// replacing its whole owning block delimiter instead.
	Start, End int

	TagName  string // SiteTagAttr
	AttrName string // SiteTagAttr

	Block *Block // SiteBlockLeaf
	Leaf  Path   // SiteBlockLeaf

	Raw    string
	Parsed *urlstream.URL
}

// Rewriter composes a Processor with the URL subsystem, per §4.5's "URL
// rewriter": it scans a document once, collecting every tag-attribute,
// block-attribute, and in-text URL occurrence, then lets the caller
// rewrite any subset of them before producing the updated document.
type Rewriter struct {
	doc  string
	base *urlstream.URL
	proc *Processor

	edits       EditSet
	dirtyBlocks []*Block
	refs        []URLRef
}

// NewRewriter creates a Rewriter over a complete document, resolving
// relative URLs against base (which may be nil).
func NewRewriter(doc string, base *urlstream.URL) *Rewriter {
	return &Rewriter{doc: doc, base: base, proc: NewProcessor(doc)}
}

// Warnings returns the recoverable notes recorded while scanning (e.g.
// suspicious-delimiter downgrades).
func (rw *Rewriter) Warnings() []Warning { return rw.proc.Warnings }

// Scan walks the whole document, collecting every URL occurrence. It must
// be called once, before any Set/ReplaceBaseURL call.
func (rw *Rewriter) Scan() ([]URLRef, error) {
	for {
		ev, err := rw.proc.Next()
		if err != nil {
			return rw.refs, err
		}
		if ev == nil {
			return rw.refs, nil
		}
		rw.observe(ev)
	}
}

func (rw *Rewriter) observe(ev *Event) {
	switch ev.Kind {
	case EventTagOpen:
		rw.observeTag(ev)
	case EventBlockOpener, EventBlockSelfClosing:
		rw.observeBlock(ev)
	case EventText:
		rw.observeText(ev)
	}
}

func (rw *Rewriter) observeTag(ev *Event) {
	for _, attrName := range urlAttributesFor(ev.Tag.TagName) {
		value, ok := findAttr(ev.Tag.Attrs, attrName)
		if !ok || value == "" {
			continue
		}
		start, end, ok := locateAttrValueSpan(rw.doc, ev.Start, ev.End, attrName, value)
		if !ok {
			continue
		}
		parsed, err := urlstream.Parse(value, rw.base)
		if err != nil {
			continue
		}
		rw.refs = append(rw.refs, URLRef{
			Site: SiteTagAttr, Start: start, End: end,
			TagName: ev.Tag.TagName, AttrName: attrName,
			Raw: value, Parsed: parsed,
		})
	}
}

func (rw *Rewriter) observeBlock(ev *Event) {
	if ev.Block.Attributes == nil {
		return
	}
	for _, leaf := range Flatten(ev.Block.Attributes) {
		if !leaf.IsLeaf() {
			continue
		}
		sv := leaf.StringValue()
		if sv == "" {
			continue
		}
		// Block attribute string leaves parse without a base URL, per
		// §4.5, to avoid matching arbitrary relative-looking words.
		parsed, err := urlstream.Parse(sv, nil)
		if err != nil {
			continue
		}
		rw.refs = append(rw.refs, URLRef{
			Site: SiteBlockLeaf, Block: ev.Block, Leaf: leaf,
			Raw: sv, Parsed: parsed,
		})
	}
}

func (rw *Rewriter) observeText(ev *Event) {
	for _, c := range urlstream.SieveText(ev.Text, rw.base) {
		rw.refs = append(rw.refs, URLRef{
			Site: SiteText, Start: ev.Start + c.Start, End: ev.Start + c.End,
			Raw: c.Raw, Parsed: c.Parsed,
		})
	}
}

func findAttr(attrs []Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// locateAttrValueSpan finds the byte span of attrName's quoted value
// within doc[tagStart:tagEnd], matching by decoded value since the raw tag
// text may still carry HTML character references the tokenizer already
// decoded into value.
func locateAttrValueSpan(doc string, tagStart, tagEnd int, attrName, value string) (start, end int, ok bool) {
	tagText := doc[tagStart:tagEnd]
	pattern := `(?i)` + regexp.QuoteMeta(attrName) + `\s*=\s*(?:"([^"]*)"|'([^']*)')`
	re := regexp.MustCompile(pattern)
	for _, m := range re.FindAllStringSubmatchIndex(tagText, -1) {
		var lo, hi int
		if m[2] >= 0 {
			lo, hi = m[2], m[3]
		} else if m[4] >= 0 {
			lo, hi = m[4], m[5]
		} else {
			continue
		}
		if html.UnescapeString(tagText[lo:hi]) == value {
			return tagStart + lo, tagStart + hi, true
		}
	}
	return 0, 0, false
}

// SetURL stages a rewrite of ref's URL to newRaw: a byte-range edit for a
// tag attribute or text occurrence, or an in-place leaf edit (marking the
// owning block delimiter dirty for whole-comment re-encoding) for a block
// attribute.
func (rw *Rewriter) SetURL(ref *URLRef, newRaw string) {
	switch ref.Site {
	case SiteTagAttr, SiteText:
		rw.edits.Stage(ref.Start, ref.End, newRaw)
	case SiteBlockLeaf:
		ref.Leaf.SetStringValue(newRaw)
		rw.markBlockDirty(ref.Block)
	}
}

func (rw *Rewriter) markBlockDirty(b *Block) {
	for _, existing := range rw.dirtyBlocks {
		if existing == b {
			return
		}
	}
	rw.dirtyBlocks = append(rw.dirtyBlocks, b)
}

// ReplaceBaseURL rewrites every collected URLRef that is a child of
// oldBase to the corresponding child of newBase, per §4.4.5, preserving
// relative style for URLs that weren't absolutely parseable on their own.
func (rw *Rewriter) ReplaceBaseURL(oldBase, newBase *urlstream.URL) {
	for i := range rw.refs {
		ref := &rw.refs[i]
		if ref.Parsed == nil || !urlstream.IsChildURLOf(ref.Parsed, oldBase) {
			continue
		}
		newRaw, err := urlstream.ReplaceBaseURL(ref.Raw, ref.Parsed, oldBase, newBase)
		if err != nil {
			continue
		}
		rw.SetURL(ref, newRaw)
	}
}

func (rw *Rewriter) finalizeBlocks() {
	for _, b := range rw.dirtyBlocks {
		if b.Attributes != nil && anyDirty(b.Attributes) {
			rw.edits.Stage(b.CommentStart, b.CommentEnd, b.serialize())
		}
	}
	rw.dirtyBlocks = nil
}

// GetUpdatedHTML applies every staged edit, in ascending byte-offset
// order, and fails on the first overlap.
func (rw *Rewriter) GetUpdatedHTML() (string, error) {
	rw.finalizeBlocks()
	return rw.edits.Apply(rw.doc)
}

// Conflicts reports every overlapping staged edit without stopping at the
// first, the SUPPLEMENTED multi-error reporting mode.
func (rw *Rewriter) Conflicts() []*wxrcore.ConflictingEdit {
	rw.finalizeBlocks()
	return rw.edits.Conflicts()
}
