package markup

// urlAttributes is the exhaustive per-tag URL-valued attribute table of §6.
// IMG's srcset is deliberately excluded (it carries a comma-separated list
// of URL/descriptor pairs, not a single URL, and needs its own splitter).
var urlAttributes = map[string][]string{
	"A":          {"HREF"},
	"AREA":       {"HREF"},
	"BASE":       {"HREF"},
	"LINK":       {"HREF"},
	"APPLET":     {"CODEBASE", "ARCHIVE"},
	"AUDIO":      {"SRC"},
	"EMBED":      {"SRC"},
	"SOURCE":     {"SRC"},
	"TRACK":      {"SRC"},
	"SCRIPT":     {"SRC"},
	"BLOCKQUOTE": {"CITE"},
	"DEL":        {"CITE"},
	"INS":        {"CITE"},
	"Q":          {"CITE"},
	"BODY":       {"BACKGROUND"},
	"BUTTON":     {"FORMACTION"},
	"COMMAND":    {"ICON"},
	"FORM":       {"ACTION"},
	"FRAME":      {"LONGDESC", "SRC"},
	"IFRAME":     {"LONGDESC", "SRC"},
	"HEAD":       {"PROFILE"},
	"HTML":       {"MANIFEST"},
	"IMAGE":      {"HREF"},
	"IMG":        {"LONGDESC", "SRC", "USEMAP", "LOWSRC", "HIGHSRC"},
	"INPUT":      {"SRC", "USEMAP", "FORMACTION"},
	"OBJECT":     {"CLASSID", "CODEBASE", "DATA", "USEMAP"},
	"VIDEO":      {"POSTER", "SRC"},
}

// urlAttributesFor returns the URL-valued attribute names for tag, or nil.
func urlAttributesFor(tag string) []string {
	return urlAttributes[tag]
}
