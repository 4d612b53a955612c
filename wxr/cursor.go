package wxr

import (
	"encoding/base64"
	"encoding/json"

	"github.com/wxrmigrate/wxrcore"
	"github.com/wxrmigrate/wxrcore/xmltoken"
)

// Cursor is the reentrancy cursor shape named in §6: the L2 cursor, the
// upstream byte offset just after the opening tag of the entity in
// progress, and the
// two stamping ids a resumed Reader needs to keep emitting correct
// post_id/comment_id on its first few entities.
type Cursor struct {
	Xml           xmltoken.Cursor `json:"xml"`
	Upstream      int64           `json:"upstream"`
	LastPostID    *string         `json:"last_post_id,omitempty"`
	LastCommentID *string         `json:"last_comment_id,omitempty"`
}

// Encode renders the cursor as an opaque base64-of-JSON string.
func (c Cursor) Encode() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", &wxrcore.FatalError{Component: "wxr", Reason: "cursor-encode", Err: err}
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeCursor parses a string produced by Cursor.Encode.
func DecodeCursor(s string) (Cursor, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, &wxrcore.FatalError{Component: "wxr", Reason: "cursor-decode", Err: err}
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, &wxrcore.FatalError{Component: "wxr", Reason: "cursor-decode", Err: err}
	}
	return c, nil
}
