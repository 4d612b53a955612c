package xmltoken

import (
	"encoding/base64"
	"encoding/json"

	"github.com/wxrmigrate/wxrcore"
	"github.com/wxrmigrate/wxrcore/bytestream"
)

// Cursor is the serializable snapshot of a Processor's position: the
// underlying byte offset plus everything needed to reconstruct namespace
// bindings and the open-element stack without re-scanning from the start
// of the document, per §4.2 "Bookmark / resume".
type Cursor struct {
	ByteOffset  int64       `json:"byte_offset"`
	Stack       []cursorElem `json:"stack"`
	NsFrames    [][2]string  `json:"ns_frames,omitempty"` // flattened (prefix, uri) pairs per frame, frame-delimited by a NUL ("\x00") prefix/uri sentinel
	SawRoot     bool        `json:"saw_root"`
	RootDone    bool        `json:"root_done"`
}

type cursorElem struct {
	URI   string `json:"uri"`
	Local string `json:"local"`
}

// Bookmark captures the Processor's current position as a Cursor.
func (p *Processor) Bookmark() Cursor {
	c := Cursor{
		ByteOffset: p.src.Tell(),
		SawRoot:    p.sawRoot,
		RootDone:   p.rootDone,
	}
	for _, e := range p.stack {
		c.Stack = append(c.Stack, cursorElem{URI: e.name.URI, Local: e.name.Local})
	}
	for _, frame := range p.ns.frames {
		for k, v := range frame.bindings {
			c.NsFrames = append(c.NsFrames, [2]string{k, v})
		}
		c.NsFrames = append(c.NsFrames, [2]string{"\x00", "\x00"}) // frame separator
	}
	return c
}

// Resume seeks src to cursor's byte offset and reconstructs namespace and
// element-stack state, returning a Processor ready to continue tokenizing
// from exactly where Bookmark left off. The caller is responsible for
// ensuring src wraps the same underlying document.
func Resume(src *bytestream.Source, cursor Cursor) (*Processor, error) {
	if err := src.Seek(cursor.ByteOffset); err != nil {
		return nil, &wxrcore.FatalError{Component: "xmltoken", Reason: "resume-seek", Err: err}
	}

	p := &Processor{src: src, ns: &nsStack{}, sawRoot: cursor.SawRoot, rootDone: cursor.RootDone}
	for _, e := range cursor.Stack {
		p.stack = append(p.stack, elem{name: Name{URI: e.URI, Local: e.Local}})
	}

	var frame nsFrame
	frame.bindings = map[string]string{}
	for _, kv := range cursor.NsFrames {
		if kv[0] == "\x00" && kv[1] == "\x00" {
			p.ns.frames = append(p.ns.frames, frame)
			frame = nsFrame{bindings: map[string]string{}}
			continue
		}
		frame.bindings[kv[0]] = kv[1]
	}
	if len(p.ns.frames) == 0 {
		p.ns = newNsStack()
	}
	return p, nil
}

// Encode renders a Cursor as the opaque, reentrancy-cursor string form:
// base64-of-JSON, matching the wxr package's outer reentrancy cursor
// encoding so the two layers compose without a second encoding scheme.
func (c Cursor) Encode() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", &wxrcore.FatalError{Component: "xmltoken", Reason: "cursor-encode", Err: err}
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeCursor parses a string produced by Cursor.Encode.
func DecodeCursor(s string) (Cursor, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, &wxrcore.FatalError{Component: "xmltoken", Reason: "cursor-decode", Err: err}
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, &wxrcore.FatalError{Component: "xmltoken", Reason: "cursor-decode", Err: err}
	}
	return c, nil
}
