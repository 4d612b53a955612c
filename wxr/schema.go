package wxr

import (
	"regexp"

	"github.com/wxrmigrate/wxrcore/xmltoken"
)

// wxrVersionPattern is the version-gate §6 requires: after EOF,
// wxr_version must match \d+\.\d+ or the parse fails.
var wxrVersionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// The six WXR wp: namespace variants in the wild. Different exporters
// (and different WordPress versions) have shipped http and https forms
// of 1.0, 1.1 and 1.2; all are accepted as equivalent.
var wpNamespaces = map[string]bool{
	"http://wordpress.org/export/1.0/":  true,
	"https://wordpress.org/export/1.0/": true,
	"http://wordpress.org/export/1.1/":  true,
	"https://wordpress.org/export/1.1/": true,
	"http://wordpress.org/export/1.2/":  true,
	"https://wordpress.org/export/1.2/": true,
}

const (
	dcNamespace      = "http://purl.org/dc/elements/1.1/"
	contentNamespace = "http://purl.org/rss/1.0/modules/content/"
)

func isWp(n xmltoken.Name, local string) bool {
	return n.Local == local && wpNamespaces[n.URI]
}

func isDc(n xmltoken.Name, local string) bool {
	return n.Local == local && n.URI == dcNamespace
}

func isContent(n xmltoken.Name, local string) bool {
	return n.Local == local && n.URI == contentNamespace
}

func isPlain(n xmltoken.Name, local string) bool {
	return n.Local == local && n.URI == ""
}

// fieldTable lists the known fields of an entity; its lookup method
// reports whether a name is one of them and returns its canonical field
// name. Several raw names map to the same
// canonical field: §9's Open Question on divergent schemas (slug vs
// category_nicename, meta_key/meta_value vs key/value, ...) is resolved
// by accepting every variant on input and only ever emitting the
// canonical name.
type fieldTable []struct {
	match     func(xmltoken.Name) bool
	canonical string
}

func field(local, canonical string) struct {
	match     func(xmltoken.Name) bool
	canonical string
} {
	return struct {
		match     func(xmltoken.Name) bool
		canonical string
	}{match: func(n xmltoken.Name) bool { return isWp(n, local) }, canonical: canonical}
}

func plainField(local, canonical string) struct {
	match     func(xmltoken.Name) bool
	canonical string
} {
	return struct {
		match     func(xmltoken.Name) bool
		canonical string
	}{match: func(n xmltoken.Name) bool { return isPlain(n, local) }, canonical: canonical}
}

func (t fieldTable) lookup(n xmltoken.Name) (string, bool) {
	for _, f := range t {
		if f.match(n) {
			return f.canonical, true
		}
	}
	return "", false
}

var postFields = fieldTable{
	plainField("title", "post_title"),
	plainField("link", "link"),
	plainField("guid", "guid"),
	plainField("pubDate", "post_published_at"),
	field("post_id", "post_id"),
	field("status", "post_status"),
	field("post_status", "post_status"),
	field("post_date", "post_date"),
	field("post_date_gmt", "post_date_gmt"),
	field("post_modified", "post_modified"),
	field("post_modified_gmt", "post_modified_gmt"),
	field("comment_status", "comment_status"),
	field("ping_status", "ping_status"),
	field("post_name", "post_name"),
	field("post_parent", "post_parent"),
	field("menu_order", "menu_order"),
	field("post_type", "post_type"),
	field("post_password", "post_password"),
	field("is_sticky", "is_sticky"),
	field("attachment_url", "attachment_url"),
	{match: func(n xmltoken.Name) bool { return isDc(n, "creator") }, canonical: "post_author"},
	{match: func(n xmltoken.Name) bool { return isContent(n, "encoded") }, canonical: "post_content"},
	{match: func(n xmltoken.Name) bool { return isWp(n, "excerpt") }, canonical: "post_excerpt"},
}

var commentFields = fieldTable{
	field("comment_id", "comment_id"),
	field("comment_author", "comment_author"),
	field("comment_author_email", "comment_author_email"),
	field("comment_author_url", "comment_author_url"),
	field("comment_author_IP", "comment_author_IP"),
	field("comment_author_ip", "comment_author_IP"),
	field("comment_date", "comment_date"),
	field("comment_date_gmt", "comment_date_gmt"),
	field("comment_content", "comment_content"),
	field("comment_approved", "comment_approved"),
	field("comment_type", "comment_type"),
	field("comment_parent", "comment_parent"),
	field("comment_user_id", "comment_user_id"),
}

var metaFields = fieldTable{
	field("meta_key", "meta_key"),
	field("meta_value", "meta_value"),
	field("key", "meta_key"),
	field("value", "meta_value"),
}

var userFields = fieldTable{
	field("author_id", "ID"),
	field("author_login", "user_login"),
	field("author_email", "user_email"),
	field("author_display_name", "display_name"),
	field("author_first_name", "first_name"),
	field("author_last_name", "last_name"),
}

// termFields covers wp:category, wp:tag and the newer generic wp:term,
// all of which carry the same family of fields under different legacy
// names.
var termFields = fieldTable{
	field("term_id", "term_id"),
	field("term_taxonomy", "taxonomy"),
	field("term_slug", "slug"),
	field("category_nicename", "slug"),
	field("tag_slug", "slug"),
	field("term_parent", "parent"),
	field("category_parent", "parent"),
	field("term_name", "name"),
	field("cat_name", "name"),
	field("tag_name", "name"),
	field("term_description", "description"),
	field("category_description", "description"),
	field("tag_description", "description"),
}

// entityRoot describes a known entity root element: what local name (in
// the wp namespace unless plain) opens it, its Type, and the field table
// to use while accumulating it. No breadcrumb depth is recorded.
type entityRoot struct {
	match  func(xmltoken.Name) bool
	typ    Type
	fields fieldTable
}

// entityRoots is deliberately flat (no parent/depth check): §4.3's
// algorithm triggers on *any* opener of a known entity root while
// another is in progress, which is what produces the documented
// "fields after a nested entity are dropped" non-goal for e.g. a
// wp:comment opening mid-item.
var entityRoots = []entityRoot{
	{match: func(n xmltoken.Name) bool { return isPlain(n, "item") }, typ: TypePost, fields: postFields},
	{match: func(n xmltoken.Name) bool { return isWp(n, "comment") }, typ: TypeComment, fields: commentFields},
	{match: func(n xmltoken.Name) bool { return isWp(n, "commentmeta") }, typ: TypeCommentMeta, fields: metaFields},
	{match: func(n xmltoken.Name) bool { return isWp(n, "postmeta") }, typ: TypePostMeta, fields: metaFields},
	{match: func(n xmltoken.Name) bool { return isWp(n, "author") }, typ: TypeUser, fields: userFields},
	{match: func(n xmltoken.Name) bool { return isWp(n, "category") }, typ: TypeCategory, fields: termFields},
	{match: func(n xmltoken.Name) bool { return isWp(n, "tag") }, typ: TypeTag, fields: termFields},
	{match: func(n xmltoken.Name) bool { return isWp(n, "term") }, typ: TypeTerm, fields: termFields},
}

func matchEntityRoot(n xmltoken.Name) (entityRoot, bool) {
	for _, r := range entityRoots {
		if r.match(n) {
			return r, true
		}
	}
	return entityRoot{}, false
}

// knownSiteOptions maps a channel-level element's local name to the
// canonical site_option option_name, applied only when the breadcrumb
// path is exactly [rss, channel, *].
var knownSiteOptions = map[string]string{
	"title":          "blogname",
	"language":       "language",
	"base_site_url":  "siteurl",
	"base_blog_url":  "home",
	"wxr_version":    "wxr_version",
	"generator":      "generator",
}

func siteOptionName(n xmltoken.Name) (string, bool) {
	if n.URI == "" {
		if opt, ok := knownSiteOptions[n.Local]; ok {
			return opt, true
		}
		return "", false
	}
	if wpNamespaces[n.URI] {
		if opt, ok := knownSiteOptions[n.Local]; ok {
			return opt, true
		}
	}
	return "", false
}
