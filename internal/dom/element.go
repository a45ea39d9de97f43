package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"finitefield.org/storefront/internal/inline"
)

// Element wraps one element node of a Document.
type Element struct {
	doc  *Document
	node *html.Node
	id   string
}

var (
	_ inline.Element  = (*Element)(nil)
	_ inline.Editable = (*Element)(nil)
)

// ID returns the stamped node id, or "" for elements created after parsing.
func (e *Element) ID() string { return e.id }

func (e *Element) TagName() string { return strings.ToLower(e.node.Data) }

func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (e *Element) ParentElement() inline.Element {
	for p := e.node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return e.doc.wrap(p)
		}
	}
	return nil
}

func (e *Element) TextContent() string {
	return goquery.NewDocumentFromNode(e.node).Text()
}

// SetTextContent replaces all children with a single text node and records the change.
func (e *Element) SetTextContent(text string) {
	e.replaceText(text)
	e.doc.record(Op{Kind: OpSetText, Target: e.id, Value: text})
}

// SyncText mirrors text the browser already shows, without recording an op.
func (e *Element) SyncText(text string) {
	e.replaceText(text)
}

func (e *Element) replaceText(text string) {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	if text != "" {
		e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

func (e *Element) SetAttr(name, value string) {
	setAttr(e.node, name, value)
	e.doc.record(Op{Kind: OpSetAttr, Target: e.id, Name: name, Value: value})
}

func (e *Element) RemoveAttr(name string) {
	attrs := e.node.Attr[:0]
	removed := false
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			removed = true
			continue
		}
		attrs = append(attrs, a)
	}
	e.node.Attr = attrs
	if removed {
		e.doc.record(Op{Kind: OpRemoveAttr, Target: e.id, Name: name})
	}
}

func (e *Element) Focus() {
	e.doc.focused = e
	e.doc.record(Op{Kind: OpFocus, Target: e.id})
}

func (e *Element) SelectContents() {
	e.doc.selected = e
	e.doc.record(Op{Kind: OpSelectAll, Target: e.id})
}

func (e *Element) Contains(other inline.Element) bool {
	o, ok := other.(*Element)
	if !ok || o == nil || o.doc != e.doc {
		return false
	}
	for n := o.node; n != nil; n = n.Parent {
		if n == e.node {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}
