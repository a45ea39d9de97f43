// Package dom holds a server-side copy of a rendered storefront page. Elements are
// stamped with stable ids so a browser-side relay can name them, and every mutation
// made through this package is recorded as an Op for the relay to replay.
package dom

import (
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"finitefield.org/storefront/internal/inline"
)

// AttrNodeID carries the id stamped on every element.
const AttrNodeID = "data-node-id"

// Document is a parsed page plus its focus, listeners and pending ops.
// It is not safe for concurrent use; one goroutine owns a Document.
type Document struct {
	root    *html.Node
	query   *goquery.Document
	pageURL *url.URL

	elements map[*html.Node]*Element
	byID     map[string]*Element
	focused  *Element
	selected *Element

	capture    map[inline.EventType][]*listener
	page       map[inline.EventType][]*listener
	listenerID int

	ops []Op
}

type listener struct {
	id int
	fn inline.Listener
}

// Parse reads rendered HTML and stamps node ids in document order, so parsing the
// same markup twice yields the same ids.
func Parse(r io.Reader, pageURL *url.URL) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	d := &Document{
		root:     root,
		query:    goquery.NewDocumentFromNode(root),
		pageURL:  pageURL,
		elements: make(map[*html.Node]*Element),
		byID:     make(map[string]*Element),
		capture:  make(map[inline.EventType][]*listener),
		page:     make(map[inline.EventType][]*listener),
	}
	seq := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			seq++
			el := &Element{doc: d, node: n, id: "n" + strconv.Itoa(seq)}
			setAttr(n, AttrNodeID, el.id)
			d.elements[n] = el
			d.byID[el.id] = el
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return d, nil
}

// PageURL returns the URL the page was rendered for.
func (d *Document) PageURL() *url.URL { return d.pageURL }

// Render writes the document, node ids included.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// ElementByID looks up an element by its stamped node id.
func (d *Document) ElementByID(id string) (*Element, bool) {
	el, ok := d.byID[id]
	return el, ok
}

// Find returns the elements matching a CSS selector in document order.
func (d *Document) Find(selector string) []*Element {
	var out []*Element
	d.query.Find(selector).Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			if el := d.wrap(n); el != nil {
				out = append(out, el)
			}
		}
	})
	return out
}

// Focused returns the element holding focus, if any.
func (d *Document) Focused() *Element { return d.focused }

// Selected returns the element whose contents are selected, if any.
func (d *Document) Selected() *Element { return d.selected }

// DrainOps returns and clears the mutations recorded since the last call.
func (d *Document) DrainOps() []Op {
	ops := d.ops
	d.ops = nil
	return ops
}

func (d *Document) record(op Op) {
	d.ops = append(d.ops, op)
}

func (d *Document) wrap(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	if el, ok := d.elements[n]; ok {
		return el
	}
	// Nodes created after parsing get no relay id.
	el := &Element{doc: d, node: n}
	d.elements[n] = el
	return el
}
