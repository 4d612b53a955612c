package markup

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// AttrKind discriminates an AttrNode's JSON value shape.
type AttrKind int

const (
	AttrObject AttrKind = iota
	AttrArray
	AttrString
	AttrNumber
	AttrBool
	AttrNull
)

// AttrNode is one node of a block's attribute tree, preserving the key
// order the original JSON object used (encoding/json's map decoding does
// not, so the tree is built by walking json.Decoder's token stream
// directly rather than decoding into map[string]interface{}).
type AttrNode struct {
	Kind AttrKind
	Key  string // property name in the parent object, or "" at the root/in an array

	StringValue string
	NumberValue json.Number
	BoolValue   bool

	Children []*AttrNode // AttrObject, AttrArray: in source order
	dirty    bool
}

// parseAttrTree parses a JSON object (the block's full attribute payload)
// into an ordered AttrNode tree rooted at AttrObject.
func parseAttrTree(raw string) (*AttrNode, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	root, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if root.Kind != AttrObject {
		return nil, fmt.Errorf("markup: block attributes must be a JSON object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("markup: trailing data after block attributes")
	}
	return root, nil
}

func decodeValue(dec *json.Decoder) (*AttrNode, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeValueFromToken(dec, tok)
}

func decodeValueFromToken(dec *json.Decoder, tok json.Token) (*AttrNode, error) {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			node := &AttrNode{Kind: AttrObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("markup: expected object key")
				}
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				child.Key = key
				node.Children = append(node.Children, child)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return node, nil
		case '[':
			node := &AttrNode{Kind: AttrArray}
			for dec.More() {
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				node.Children = append(node.Children, child)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return node, nil
		}
	case string:
		return &AttrNode{Kind: AttrString, StringValue: v}, nil
	case json.Number:
		return &AttrNode{Kind: AttrNumber, NumberValue: v}, nil
	case bool:
		return &AttrNode{Kind: AttrBool, BoolValue: v}, nil
	case nil:
		return &AttrNode{Kind: AttrNull}, nil
	}
	return nil, fmt.Errorf("markup: unexpected JSON token %v", tok)
}

// Path is one entry of the depth-first flattening §4.5 calls
// "next_block_attribute": a dot/bracket path like "media.0.src".
type Path struct {
	node *AttrNode
	key  string // the fully-qualified dotted/bracketed path
}

// Flatten walks the tree depth-first, parents before children, as
// next_block_attribute() iterates.
func Flatten(root *AttrNode) []Path {
	var out []Path
	var walk func(n *AttrNode, prefix string)
	walk = func(n *AttrNode, prefix string) {
		if prefix != "" {
			out = append(out, Path{node: n, key: prefix})
		}
		switch n.Kind {
		case AttrObject:
			for _, c := range n.Children {
				childPrefix := c.Key
				if prefix != "" {
					childPrefix = prefix + "." + c.Key
				}
				walk(c, childPrefix)
			}
		case AttrArray:
			for i, c := range n.Children {
				childPrefix := fmt.Sprintf("%s.%d", prefix, i)
				if prefix == "" {
					childPrefix = strconv.Itoa(i)
				}
				walk(c, childPrefix)
			}
		}
	}
	walk(root, "")
	return out
}

// Key returns the path's dotted/bracketed key.
func (p Path) Key() string { return p.key }

// IsLeaf reports whether the path names a scalar (string/number/bool/null)
// rather than an object or array.
func (p Path) IsLeaf() bool {
	return p.node.Kind != AttrObject && p.node.Kind != AttrArray
}

// StringValue returns the leaf's string value, or "" if it is not a string.
func (p Path) StringValue() string {
	if p.node.Kind != AttrString {
		return ""
	}
	return p.node.StringValue
}

// SetStringValue overwrites a string leaf's value and marks it (and the
// tree) dirty for re-encoding at serialization time.
func (p Path) SetStringValue(v string) {
	if p.node.Kind != AttrString {
		return
	}
	p.node.StringValue = v
	p.node.dirty = true
}

// encode re-serializes the tree to JSON with WordPress's HEX_TAG|HEX_AMP
// escaping: '<', '>' and '&' inside string values are emitted as JSON
// unicode escapes (hex 003c, 003e and 0026 after a backslash-u), never as
// the literal characters, so the payload can sit inside an HTML comment without
// being mistaken for markup.
func (n *AttrNode) encode(buf *strings.Builder) {
	switch n.Kind {
	case AttrObject:
		buf.WriteByte('{')
		for i, c := range n.Children {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeJSONString(buf, c.Key)
			buf.WriteByte(':')
			c.encode(buf)
		}
		buf.WriteByte('}')
	case AttrArray:
		buf.WriteByte('[')
		for i, c := range n.Children {
			if i > 0 {
				buf.WriteByte(',')
			}
			c.encode(buf)
		}
		buf.WriteByte(']')
	case AttrString:
		encodeJSONString(buf, n.StringValue)
	case AttrNumber:
		buf.WriteString(n.NumberValue.String())
	case AttrBool:
		if n.BoolValue {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case AttrNull:
		buf.WriteString("null")
	}
}

// hexEscape renders r as a \u00XX JSON escape sequence.
func hexEscape(r rune) string {
	return fmt.Sprintf("\\u%04x", r)
}

func encodeJSONString(buf *strings.Builder, s string) {
	raw, _ := json.Marshal(s)
	escaped := string(raw)
	lt, gt, amp := hexEscape('<'), hexEscape('>'), hexEscape('&')
	escaped = strings.ReplaceAll(escaped, "<", lt)
	escaped = strings.ReplaceAll(escaped, ">", gt)
	escaped = strings.ReplaceAll(escaped, "&", amp)
	buf.WriteString(escaped)
}

// anyDirty reports whether n or any descendant was modified since parse.
func anyDirty(n *AttrNode) bool {
	if n.dirty {
		return true
	}
	for _, c := range n.Children {
		if anyDirty(c) {
			return true
		}
	}
	return false
}
