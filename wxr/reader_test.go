package wxr

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wxrmigrate/wxrcore/bytestream"
)

func newTestReader(t *testing.T, doc string) *Reader {
	t.Helper()
	src := bytestream.New(bytestream.NewMemorySource([]byte(doc)), bytestream.MinForgetWindow)
	return New(src)
}

func drain(t *testing.T, r *Reader) []*Entity {
	t.Helper()
	var out []*Entity
	for {
		e, err := r.Next()
		if err == ErrEndOfStream {
			return out
		}
		require.NoError(t, err)
		out = append(out, e)
	}
}

func TestReaderMinimalWXR(t *testing.T) {
	doc := `<?xml version="1.0"?><rss xmlns:wp="http://wordpress.org/export/1.2/"><channel><wp:wxr_version>1.2</wp:wxr_version><title>Blog</title><item><title>Hello</title><wp:post_id>1</wp:post_id></item></channel></rss>`
	r := newTestReader(t, doc)
	entities := drain(t, r)

	require.Len(t, entities, 3)

	require.Equal(t, TypeSiteOption, entities[0].Type)
	require.Equal(t, "wxr_version", entities[0].Fields["option_name"])
	require.Equal(t, "1.2", entities[0].Fields["option_value"])

	require.Equal(t, TypeSiteOption, entities[1].Type)
	require.Equal(t, "blogname", entities[1].Fields["option_name"])
	require.Equal(t, "Blog", entities[1].Fields["option_value"])

	require.Equal(t, TypePost, entities[2].Type)
	require.Equal(t, "Hello", entities[2].Fields["post_title"])
	require.Equal(t, "1", entities[2].Fields["post_id"])
}

func TestReaderCommentStamping(t *testing.T) {
	doc := `<rss xmlns:wp="http://wordpress.org/export/1.2/"><channel>` +
		`<wp:wxr_version>1.2</wp:wxr_version>` +
		`<item><wp:post_id>42</wp:post_id>` +
		`<wp:comment><wp:comment_id>10</wp:comment_id></wp:comment>` +
		`<wp:comment><wp:comment_id>11</wp:comment_id>` +
		`<wp:commentmeta><wp:meta_key>spam</wp:meta_key></wp:commentmeta>` +
		`</wp:comment></item>` +
		`</channel></rss>`

	r := newTestReader(t, doc)
	entities := drain(t, r)

	var post, c10, c11, cmeta *Entity
	for _, e := range entities {
		switch e.Type {
		case TypePost:
			post = e
		case TypeComment:
			if e.Fields["comment_id"] == "10" {
				c10 = e
			} else if e.Fields["comment_id"] == "11" {
				c11 = e
			}
		case TypeCommentMeta:
			cmeta = e
		}
	}

	require.NotNil(t, post)
	require.Equal(t, "42", post.Fields["post_id"])

	require.NotNil(t, c10)
	require.Equal(t, "42", c10.Fields["post_id"])

	require.NotNil(t, c11)
	require.Equal(t, "42", c11.Fields["post_id"])

	require.NotNil(t, cmeta)
	require.Equal(t, "11", cmeta.Fields["comment_id"])
	require.Equal(t, "42", cmeta.Fields["post_id"])
	require.Equal(t, "spam", cmeta.Fields["meta_key"])
}

func TestReaderCategoryTermsRule(t *testing.T) {
	doc := `<rss xmlns:wp="http://wordpress.org/export/1.2/"><channel>` +
		`<wp:wxr_version>1.2</wp:wxr_version>` +
		`<item><wp:post_id>1</wp:post_id>` +
		`<category domain="category" nicename="news">News</category>` +
		`</item></channel></rss>`

	r := newTestReader(t, doc)
	entities := drain(t, r)

	var post *Entity
	for _, e := range entities {
		if e.Type == TypePost {
			post = e
		}
	}
	require.NotNil(t, post)
	require.Len(t, post.Terms, 1)
	require.Equal(t, "category", post.Terms[0].Taxonomy)
	require.Equal(t, "news", post.Terms[0].Slug)
	require.Equal(t, "News", post.Terms[0].Description)
}

func TestReaderMissingWxrVersionFails(t *testing.T) {
	doc := `<rss><channel><item><title>Hello</title></item></channel></rss>`
	r := newTestReader(t, doc)

	var lastErr error
	for {
		_, err := r.Next()
		if err != nil {
			lastErr = err
			break
		}
	}
	require.Error(t, lastErr)
	require.NotEqual(t, ErrEndOfStream, lastErr)
}
