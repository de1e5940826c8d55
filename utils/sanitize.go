package utils

import "github.com/microcosm-cc/bluemonday"

// richText accepts what the note editor produces and nothing else.
var richText = newRichTextPolicy()

func newRichTextPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "em", "u", "s", "a", "ul", "ol", "li",
		"h1", "h2", "h3", "blockquote", "code", "pre", "hr", "span")
	p.AllowAttrs("href", "target", "rel").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	return p
}

// SanitizeHTML strips a note body down to the editor's allow-list before it
// is handed to the browser.
func SanitizeHTML(s string) string {
	return richText.Sanitize(s)
}
