package wxr

import (
	"io"

	"github.com/wxrmigrate/wxrcore"
	"github.com/wxrmigrate/wxrcore/bytestream"
	"github.com/wxrmigrate/wxrcore/xmltoken"
)

// Stats is a running snapshot of a Reader's progress, for progress
// reporting during a large ingest.
type Stats struct {
	EntitiesByType map[Type]int
	BytesConsumed  int64
	ParseErrors    int
}

// Reader accumulates xmltoken tokens into typed WXR entities, per §4.3.
// It holds at most one entity's worth of state in progress at a time —
// it is not a tree walker — which is what makes the "fields after a
// nested entity interrupt are dropped" behavior fall out naturally
// rather than needing a special case.
type Reader struct {
	proc *xmltoken.Processor

	entityTag      *entityRoot
	entityName     xmltoken.Name
	entityData     map[string]string
	entityTerms    []TermRef
	entityBookmark xmltoken.Cursor

	currentField   string
	fieldIsCategory bool
	textBuffer     []byte

	pendingSiteOption     string
	pendingSiteOptionText []byte

	lastOpenerAttrs []xmltoken.Attr

	lastPostID    *string
	lastCommentID *string

	wxrVersionSeen bool
	wxrVersionOK   bool

	pending []*Entity
	stats   Stats
}

// New starts a fresh Reader at the beginning of src.
func New(src *bytestream.Source) *Reader {
	return &Reader{
		proc: xmltoken.NewProcessor(src),
		stats: Stats{
			EntitiesByType: make(map[Type]int),
		},
	}
}

// Create restores a Reader from a previously captured reentrancy cursor,
// per §4.3 "Resumability". An empty cursorStr is equivalent to New.
func Create(src *bytestream.Source, cursorStr string) (*Reader, error) {
	if cursorStr == "" {
		return New(src), nil
	}

	c, err := DecodeCursor(cursorStr)
	if err != nil {
		return nil, err
	}

	proc, err := xmltoken.Resume(src, c.Xml)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		proc:          proc,
		lastPostID:    c.LastPostID,
		lastCommentID: c.LastCommentID,
		stats:         Stats{EntitiesByType: make(map[Type]int)},
	}
	// The cursor was taken just after an entity's or site option's opening
	// tag, so the top of the restored element stack names what is in progress.
	if n := len(c.Xml.Stack); n > 0 {
		top := xmltoken.Name{URI: c.Xml.Stack[n-1].URI, Local: c.Xml.Stack[n-1].Local}
		if root, ok := matchEntityRoot(top); ok {
			r.entityTag, r.entityName, r.entityData = &root, top, make(map[string]string)
			r.entityBookmark = c.Xml
		} else if opt, ok := siteOptionName(top); ok && n == 3 {
			r.pendingSiteOption = opt
			r.entityBookmark = c.Xml
		}
	}
	return r, nil
}

// ErrEndOfStream is returned by Next once the document is fully consumed
// and the wxr_version gate has been checked.
var ErrEndOfStream = io.EOF

// Next returns the next entity, wxrcore.ErrNeedMoreInput if the
// underlying byte source is momentarily exhausted, ErrEndOfStream at the
// clean end of the document, or a fatal error.
func (r *Reader) Next() (*Entity, error) {
	for len(r.pending) == 0 {
		tok, err := r.proc.Next()
		if err == xmltoken.ErrEndOfDocument {
			return nil, r.finish()
		}
		if err == wxrcore.ErrNeedMoreInput {
			return nil, err
		}
		if err != nil {
			r.stats.ParseErrors++
			return nil, err
		}
		r.step(tok)
	}

	e := r.pending[0]
	r.pending = r.pending[1:]
	return e, nil
}

// Stats returns a snapshot of the reader's progress so far.
func (r *Reader) Stats() Stats {
	s := r.stats
	s.BytesConsumed = r.proc.Bookmark().ByteOffset
	cp := make(map[Type]int, len(s.EntitiesByType))
	for k, v := range s.EntitiesByType {
		cp[k] = v
	}
	s.EntitiesByType = cp
	return s
}

// GetReentrancyCursor serializes the reader's position: the L2 cursor and
// byte offset taken just after the opening tag of the entity (or site
// option) currently or most recently in progress, and
// last_post_id/last_comment_id.
func (r *Reader) GetReentrancyCursor() (string, error) {
	c := Cursor{
		Xml:           r.entityBookmark,
		Upstream:      r.entityBookmark.ByteOffset,
		LastPostID:    r.lastPostID,
		LastCommentID: r.lastCommentID,
	}
	return c.Encode()
}

func (r *Reader) finish() error {
	if !r.wxrVersionSeen {
		return wxrcore.WxrMissingVersion
	}
	if !r.wxrVersionOK {
		return wxrcore.WxrMissingVersion
	}
	return ErrEndOfStream
}

// step folds one xmltoken.Token into the reader's accumulation state,
// per §4.3's algorithm.
func (r *Reader) step(tok *xmltoken.Token) {
	switch tok.Kind {
	case xmltoken.KindElementOpen:
		r.handleOpen(tok)
	case xmltoken.KindText, xmltoken.KindCData:
		r.handleText(tok)
	case xmltoken.KindElementClose:
		r.handleClose(tok)
	}
}

func (r *Reader) insideChannel(tok *xmltoken.Token) bool {
	return len(tok.Breadcrumbs) >= 2 && tok.Breadcrumbs[0].Local == "rss" && tok.Breadcrumbs[1].Local == "channel"
}

func (r *Reader) handleOpen(tok *xmltoken.Token) {
	if !r.insideChannel(tok) {
		return
	}
	r.lastOpenerAttrs = tok.Attrs

	if root, ok := matchEntityRoot(tok.Name); ok {
		if r.entityTag != nil {
			r.emitCurrent()
		}
		r.entityTag = &root
		r.entityName = tok.Name
		r.entityData = make(map[string]string)
		r.entityTerms = nil
		r.entityBookmark = r.proc.Bookmark()

		if tok.SelfClosing {
			r.emitCurrent()
			r.entityTag = nil
		}
		return
	}

	if r.entityTag != nil {
		if canonical, ok := r.entityTag.fields.lookup(tok.Name); ok {
			r.currentField = canonical
			r.fieldIsCategory = false
			r.textBuffer = nil
			if tok.SelfClosing {
				r.entityData[canonical] = ""
				r.currentField = ""
			}
			return
		}
		if r.entityTag.typ == TypePost && isPlain(tok.Name, "category") {
			r.currentField = "__category__"
			r.fieldIsCategory = true
			r.textBuffer = nil
			if tok.SelfClosing {
				r.currentField = ""
			}
			return
		}
		return
	}

	if opt, ok := siteOptionName(tok.Name); ok && len(tok.Breadcrumbs) == 3 {
		r.pendingSiteOption = opt
		r.pendingSiteOptionText = nil
		r.entityBookmark = r.proc.Bookmark()
		if tok.SelfClosing {
			r.emitSiteOption()
		}
	}
}

func (r *Reader) handleText(tok *xmltoken.Token) {
	if r.entityTag != nil && r.currentField != "" {
		r.textBuffer = append(r.textBuffer, tok.Text...)
		return
	}
	if r.entityTag == nil && r.pendingSiteOption != "" {
		r.pendingSiteOptionText = append(r.pendingSiteOptionText, tok.Text...)
	}
}

func (r *Reader) handleClose(tok *xmltoken.Token) {
	if r.entityTag != nil && tok.Name == r.entityName {
		r.emitCurrent()
		r.entityTag = nil
		return
	}

	if r.entityTag != nil && r.currentField != "" {
		if r.fieldIsCategory {
			r.closeCategoryField()
		} else {
			r.entityData[r.currentField] = string(r.textBuffer)
		}
		r.currentField = ""
		r.textBuffer = nil
		return
	}

	if r.entityTag == nil && r.pendingSiteOption != "" {
		r.emitSiteOption()
	}
}

func (r *Reader) closeCategoryField() {
	var domain, nicename string
	var haveDomain, haveNicename bool
	for _, a := range r.lastOpenerAttrs {
		if a.Name.URI != "" {
			continue
		}
		switch a.Name.Local {
		case "domain":
			domain, haveDomain = a.Value, true
		case "nicename":
			nicename, haveNicename = a.Value, true
		}
	}
	if haveDomain && haveNicename {
		r.entityTerms = append(r.entityTerms, TermRef{
			Taxonomy:    domain,
			Slug:        nicename,
			Description: string(r.textBuffer),
		})
	}
}

// emitCurrent applies the emit-hook stamping rules and queues the
// in-progress entity for delivery, whether or not it closed cleanly.
func (r *Reader) emitCurrent() {
	if r.entityTag == nil {
		return
	}
	e := newEntity(r.entityTag.typ)
	for k, v := range r.entityData {
		e.Fields[k] = v
	}
	e.Terms = r.entityTerms

	switch r.entityTag.typ {
	case TypePost:
		if id, ok := e.Fields["post_id"]; ok {
			r.lastPostID = &id
		}
	case TypeComment:
		if id, ok := e.Fields["comment_id"]; ok {
			r.lastCommentID = &id
		}
		if r.lastPostID != nil {
			e.Fields["post_id"] = *r.lastPostID
		}
	case TypePostMeta:
		if r.lastPostID != nil {
			e.Fields["post_id"] = *r.lastPostID
		}
	case TypeCommentMeta:
		if r.lastCommentID != nil {
			e.Fields["comment_id"] = *r.lastCommentID
		}
		if r.lastPostID != nil {
			e.Fields["post_id"] = *r.lastPostID
		}
	case TypeTag:
		e.Fields["taxonomy"] = "post_tag"
	case TypeCategory:
		e.Fields["taxonomy"] = "category"
	}

	r.pending = append(r.pending, e)
	r.stats.EntitiesByType[e.Type]++
}

func (r *Reader) emitSiteOption() {
	e := newEntity(TypeSiteOption)
	e.Fields["option_name"] = r.pendingSiteOption
	e.Fields["option_value"] = string(r.pendingSiteOptionText)

	if r.pendingSiteOption == "wxr_version" {
		r.wxrVersionSeen = true
		r.wxrVersionOK = wxrVersionPattern.MatchString(e.Fields["option_value"])
	}

	r.pending = append(r.pending, e)
	r.stats.EntitiesByType[e.Type]++

	r.pendingSiteOption = ""
	r.pendingSiteOptionText = nil
}
