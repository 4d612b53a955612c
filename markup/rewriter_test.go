package markup

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wxrmigrate/wxrcore/urlstream"
)

func TestBlockAttributeRewrite(t *testing.T) {
	doc := `<!-- wp:image {"src":"http://old/a.jpg","width":100} --><figure><img src="http://old/a.jpg"></figure><!-- /wp:image -->`

	rw := NewRewriter(doc, nil)
	refs, err := rw.Scan()
	require.NoError(t, err)

	oldBase, err := urlstream.Parse("http://old/", nil)
	require.NoError(t, err)
	newBase, err := urlstream.Parse("https://new/", nil)
	require.NoError(t, err)

	require.NotEmpty(t, refs)
	rw.ReplaceBaseURL(oldBase, newBase)

	updated, err := rw.GetUpdatedHTML()
	require.NoError(t, err)
	require.Equal(t,
		`<!-- wp:image {"src":"https://new/a.jpg","width":100} --><figure><img src="https://new/a.jpg"></figure><!-- /wp:image -->`,
		updated)
}

func TestBlockStackMismatchedCloser(t *testing.T) {
	doc := `<!-- wp:group --><!-- /wp:columns -->`
	proc := NewProcessor(doc)

	var lastErr error
	for {
		_, err := proc.Next()
		if err != nil {
			lastErr = err
			break
		}
	}
	require.Error(t, lastErr)
	require.Contains(t, lastErr.Error(), "mismatched-closer")
}

func TestBlockDepthTracksNesting(t *testing.T) {
	doc := `<!-- wp:group --><!-- wp:paragraph --><!-- /wp:paragraph --><!-- /wp:group -->`
	proc := NewProcessor(doc)

	var depths []int
	for {
		ev, err := proc.Next()
		require.NoError(t, err)
		if ev == nil {
			break
		}
		depths = append(depths, proc.Depth())
	}
	require.Equal(t, []int{1, 2, 1, 0}, depths)
}

func TestSuspiciousDelimiterDowngradesToComment(t *testing.T) {
	doc := `<!-- wp:image {not json} -->`
	proc := NewProcessor(doc)

	ev, err := proc.Next()
	require.NoError(t, err)
	require.NotNil(t, ev)
	require.Equal(t, EventComment, ev.Kind)
	require.Len(t, proc.Warnings, 1)
	require.Equal(t, "suspicious-delimiter", proc.Warnings[0].Reason)
}

func TestTagAttributeURLRewrite(t *testing.T) {
	doc := `<a href="http://old.example/path">link</a>`
	rw := NewRewriter(doc, nil)
	refs, err := rw.Scan()
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "A", refs[0].TagName)
	require.Equal(t, "HREF", refs[0].AttrName)

	rw.SetURL(&refs[0], "https://new.example/path")
	updated, err := rw.GetUpdatedHTML()
	require.NoError(t, err)
	require.Equal(t, `<a href="https://new.example/path">link</a>`, updated)
}

func TestConflictingEditsReportedNotFatal(t *testing.T) {
	doc := `<a href="http://old.example/a">one</a>`
	rw := NewRewriter(doc, nil)
	_, err := rw.Scan()
	require.NoError(t, err)

	rw.edits.Stage(0, 10, "AAAA")
	rw.edits.Stage(5, 15, "BBBB")

	conflicts := rw.Conflicts()
	require.Len(t, conflicts, 1)

	_, err = rw.GetUpdatedHTML()
	require.Error(t, err)
}
