package preview

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"

	"finitefield.org/storefront/internal/dom"
	"finitefield.org/storefront/internal/storefront"
)

// ScriptPath serves the relay script injected into every preview page.
const ScriptPath = "/assets/inline-bridge.js"

// PagePath returns the route of a vendor page.
func PagePath(vendorID string, page storefront.PageType) string {
	return "/stores/" + url.PathEscape(vendorID) + "/" + string(page)
}

// BridgePath returns the relay WebSocket route of a vendor page.
func BridgePath(vendorID string, page storefront.PageType) string {
	return PagePath(vendorID, page) + "/bridge"
}

// Renderer turns a document snapshot into a stamped server-side DOM.
type Renderer struct {
	theme *Theme
}

// NewRenderer returns a renderer for theme.
func NewRenderer(theme *Theme) *Renderer {
	return &Renderer{theme: theme}
}

// Document renders page at the snapshot's revision. Rendering the same snapshot twice
// yields identical node ids, which is what lets the relay address elements the browser
// received from an earlier page load.
func (r *Renderer) Document(snap storefront.Snapshot, page storefront.PageType, pageURL *url.URL) (*dom.Document, error) {
	var buf bytes.Buffer
	if err := r.theme.Render(&buf, newPageView(snap, page, r.theme.policy)); err != nil {
		return nil, err
	}
	return dom.Parse(&buf, pageURL)
}

// pageURL rebuilds the absolute URL the browser used for the page, for resolving
// relative image sources.
func pageURL(r *http.Request, vendorID string, page storefront.PageType) *url.URL {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return &url.URL{Scheme: scheme, Host: r.Host, Path: PagePath(vendorID, page)}
}
