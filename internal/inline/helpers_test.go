package inline_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/storefront/internal/dom"
	"finitefield.org/storefront/internal/inline"
	"finitefield.org/storefront/internal/storefront"
)

const homeDocument = `
components:
  home_page:
    header_text: Welcome to our store
    header_subtext: "   "
    header_button_text: Learn More
    hero_image: https://cdn.example.com/img/Hero.JPG?w=1200
    featured_heading: Featured
    features:
      - title: Fast shipping
        description: Orders leave within a day
        icon_image: /assets/truck.svg
      - title: Learn More
        description: ""
      - not-an-object
    promo:
      title: Summer sale
      text: Everything must go
    newsletter: broken
`

func loadDocument(t *testing.T, raw string) storefront.Document {
	t.Helper()
	doc, err := storefront.DecodeDocument([]byte(raw))
	require.NoError(t, err)
	return doc
}

func parsePage(t *testing.T, body string) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader("<!doctype html><html><body>"+body+"</body></html>"), nil)
	require.NoError(t, err)
	return doc
}

func first(t *testing.T, doc *dom.Document, selector string) *dom.Element {
	t.Helper()
	found := doc.Find(selector)
	require.NotEmpty(t, found, "selector %q matched nothing", selector)
	return found[0]
}

type notification struct {
	kind    inline.NotifyKind
	payload inline.Payload
}

type recorder struct {
	notes []notification
}

func (r *recorder) Notify(kind inline.NotifyKind, p inline.Payload) {
	r.notes = append(r.notes, notification{kind: kind, payload: p})
}

type posted struct {
	origin  string
	message any
}

type postbox struct {
	messages []posted
	err      error
}

func (p *postbox) PostMessage(origin string, message any) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, posted{origin: origin, message: message})
	return nil
}

func (p *postbox) updates() []inline.InlineUpdateMessage {
	var out []inline.InlineUpdateMessage
	for _, m := range p.messages {
		if u, ok := m.message.(inline.InlineUpdateMessage); ok {
			out = append(out, u)
		}
	}
	return out
}

func (p *postbox) selections() []inline.EditorSelectMessage {
	var out []inline.EditorSelectMessage
	for _, m := range p.messages {
		if s, ok := m.message.(inline.EditorSelectMessage); ok {
			out = append(out, s)
		}
	}
	return out
}

func editingCount(doc *dom.Document) int {
	return len(doc.Find("[" + inline.AttrEditing + "]"))
}
