package xmltoken

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wxrmigrate/wxrcore"
	"github.com/wxrmigrate/wxrcore/bytestream"
)

func newTestProcessor(t *testing.T, doc string) *Processor {
	t.Helper()
	src := bytestream.New(bytestream.NewMemorySource([]byte(doc)), bytestream.MinForgetWindow)
	return NewProcessor(src)
}

func TestProcessorBasicElements(t *testing.T) {
	p := newTestProcessor(t, `<rss><channel><title>hello &amp; world</title></channel></rss>`)

	tok, err := p.Next()
	require.NoError(t, err)
	require.Equal(t, KindElementOpen, tok.Kind)
	require.Equal(t, "rss", tok.Name.Local)

	tok, err = p.Next()
	require.NoError(t, err)
	require.Equal(t, "channel", tok.Name.Local)
	require.Equal(t, 1, tok.Depth)

	tok, err = p.Next()
	require.NoError(t, err)
	require.Equal(t, "title", tok.Name.Local)

	tok, err = p.Next()
	require.NoError(t, err)
	require.Equal(t, KindText, tok.Kind)
	require.Equal(t, "hello & world", string(tok.Text))

	tok, err = p.Next()
	require.NoError(t, err)
	require.Equal(t, KindElementClose, tok.Kind)
	require.Equal(t, "title", tok.Name.Local)

	tok, err = p.Next()
	require.NoError(t, err)
	require.Equal(t, "channel", tok.Name.Local)

	tok, err = p.Next()
	require.NoError(t, err)
	require.Equal(t, "rss", tok.Name.Local)

	_, err = p.Next()
	require.Equal(t, ErrEndOfDocument, err)
}

func TestProcessorNamespacesAndAttributes(t *testing.T) {
	doc := `<rss xmlns:wp="http://wordpress.org/export/1.2/"><wp:post_id>7</wp:post_id></rss>`
	p := newTestProcessor(t, doc)

	tok, err := p.Next()
	require.NoError(t, err)
	require.Equal(t, "rss", tok.Name.Local)

	tok, err = p.Next()
	require.NoError(t, err)
	require.Equal(t, "post_id", tok.Name.Local)
	require.Equal(t, "http://wordpress.org/export/1.2/", tok.Name.URI)
	require.Equal(t, []Name{{Local: "rss"}, {URI: "http://wordpress.org/export/1.2/", Local: "post_id"}}, tok.Breadcrumbs)
}

func TestProcessorSelfClosingElement(t *testing.T) {
	p := newTestProcessor(t, `<root><empty attr="1"/></root>`)

	_, err := p.Next()
	require.NoError(t, err)

	tok, err := p.Next()
	require.NoError(t, err)
	require.Equal(t, "empty", tok.Name.Local)
	require.True(t, tok.SelfClosing)
	require.Len(t, tok.Attrs, 1)
	require.Equal(t, "1", tok.Attrs[0].Value)
}

func TestProcessorMismatchedCloseIsFatal(t *testing.T) {
	p := newTestProcessor(t, `<a><b></a></b>`)

	_, err := p.Next()
	require.NoError(t, err)
	_, err = p.Next()
	require.NoError(t, err)
	_, err = p.Next()
	require.Error(t, err)
}

func TestProcessorNeedsMoreInputOnStreamingSource(t *testing.T) {
	as := bytestream.NewAppendSource()
	src := bytestream.New(as, bytestream.MinForgetWindow)
	p := NewProcessor(src)

	as.Append([]byte(`<root><chi`))
	_, err := p.Next()
	require.NoError(t, err)
	_, err = p.Next()
	require.ErrorIs(t, err, wxrcore.ErrNeedMoreInput)

	as.Append([]byte(`ld>ok</child></root>`))
	as.MarkFinished()

	tok, err := p.Next()
	require.NoError(t, err)
	require.Equal(t, "child", tok.Name.Local)
}

func TestProcessorBookmarkResume(t *testing.T) {
	doc := `<rss xmlns:wp="http://wordpress.org/export/1.2/"><wp:post><wp:post_id>1</wp:post_id></wp:post></rss>`
	p := newTestProcessor(t, doc)

	_, err := p.Next() // rss
	require.NoError(t, err)
	_, err = p.Next() // wp:post
	require.NoError(t, err)

	bookmark := p.Bookmark()
	encoded, err := bookmark.Encode()
	require.NoError(t, err)

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)

	src2 := bytestream.New(bytestream.NewMemorySource([]byte(doc)), bytestream.MinForgetWindow)
	p2, err := Resume(src2, decoded)
	require.NoError(t, err)

	tok, err := p2.Next()
	require.NoError(t, err)
	require.Equal(t, "post_id", tok.Name.Local)
	require.Equal(t, "http://wordpress.org/export/1.2/", tok.Name.URI)
}
