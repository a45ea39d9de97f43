package storefront

import "strings"

// PageType identifies which sub-tree of a Template Document a storefront page renders.
type PageType string

const (
	PageHome    PageType = "home"
	PageAbout   PageType = "about"
	PageContact PageType = "contact"
)

// PageTypes lists the page types that carry an inline-editing schema, in route order.
var PageTypes = []PageType{PageHome, PageAbout, PageContact}

var pageSlugs = map[string]PageType{
	"":           PageHome,
	"home":       PageHome,
	"about":      PageAbout,
	"about-us":   PageAbout,
	"contact":    PageContact,
	"contact-us": PageContact,
}

// Supported reports whether the page type is one the bridge can edit.
func (p PageType) Supported() bool {
	switch p {
	case PageHome, PageAbout, PageContact:
		return true
	}
	return false
}

// ComponentKey returns the key of the page's sub-tree under "components".
func (p PageType) ComponentKey() string {
	return string(p) + "_page"
}

// PageTypeFromSlug maps the last route segment to a page type.
func PageTypeFromSlug(slug string) (PageType, bool) {
	slug = strings.ToLower(strings.Trim(strings.TrimSpace(slug), "/"))
	p, ok := pageSlugs[slug]
	return p, ok
}
