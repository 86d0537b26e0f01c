package sanitize

import "github.com/microcosm-cc/bluemonday"

// Policy filters assistant-authored HTML before it reaches a rendering
// surface. Allow-list only: the enumerated tags survive, href is restricted
// to http(s)/relative URLs, and fully qualified links are forced to carry
// rel="noopener".
type Policy struct {
	policy *bluemonday.Policy
}

func NewPolicy() *Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "hr",
		"strong", "em", "b", "i", "u", "s",
		"code", "pre", "blockquote",
		"ul", "ol", "li",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"span", "div",
		"table", "thead", "tbody", "tr", "th", "td",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.AllowRelativeURLs(true)
	p.RequireNoFollowOnLinks(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return &Policy{policy: p}
}

// Clean strips everything outside the allow-list.
func (p *Policy) Clean(html string) string {
	return p.policy.Sanitize(html)
}
