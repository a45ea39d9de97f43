package inline

import (
	"net/url"
	"sort"
	"strings"
	"unicode/utf16"

	"go.uber.org/zap"

	"finitefield.org/storefront/internal/storefront"
)

// textTags is the fallback selector set for elements that carry editable text.
var textTags = map[string]struct{}{
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"p": {}, "span": {}, "a": {}, "button": {}, "li": {}, "label": {},
	"strong": {}, "em": {},
}

// Selection is what a click resolved to.
type Selection struct {
	// Host is the element the edit session should take over.
	Host        Element
	Path        []string
	SectionID   string
	ComponentID string
	IsImage     bool
}

// HasPath reports whether the selection addresses a template field.
func (s Selection) HasPath() bool { return len(s.Path) > 0 }

// Resolver maps clicked elements to candidates of one page.
type Resolver struct {
	page       storefront.PageType
	candidates []Candidate
	byKey      map[string]int
	base       *url.URL
	logger     *zap.Logger
}

// NewResolver indexes candidates for lookup. base resolves relative image sources and
// may be nil.
func NewResolver(page storefront.PageType, candidates []Candidate, base *url.URL, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	byKey := make(map[string]int, len(candidates))
	for i, c := range candidates {
		if _, dup := byKey[c.Key()]; !dup {
			byKey[c.Key()] = i
		}
	}
	return &Resolver{page: page, candidates: candidates, byKey: byKey, base: base, logger: logger}
}

// Resolve returns the selection for target. ok is false when neither a path nor a
// section could be resolved and the click should be left alone.
func (r *Resolver) Resolve(target Element) (Selection, bool) {
	if target == nil {
		return Selection{}, false
	}

	sectionEl, explicitSection := closestWithAttr(target, AttrSection)
	explicitSection = strings.TrimSpace(explicitSection)
	_, explicitComponent := closestWithAttr(target, AttrComponent)
	explicitComponent = strings.TrimSpace(explicitComponent)

	var (
		sel     Selection
		matched *Candidate
		via     string
	)

	if host, raw := closestWithAttr(target, AttrPath); host != nil {
		if path := ParsePath(raw); path != nil {
			sel.Host, sel.Path = host, path
			if i, ok := r.byKey[strings.Join(path, ".")]; ok {
				matched = &r.candidates[i]
			}
			sel.IsImage = host.TagName() == "img" || (matched != nil && matched.Kind == KindImage)
			via = "explicit"
		}
	}

	if !sel.HasPath() {
		if img := closest(target, isTag("img")); img != nil {
			src, _ := img.Attr("src")
			if c := r.matchImage(src, explicitSection); c != nil {
				sel.Host, sel.Path, sel.IsImage = img, c.Path, true
				matched, via = c, "image"
			}
		}
	}

	if !sel.HasPath() {
		if host := closest(target, isTextTag); host != nil {
			sel.Host = host
			if c := r.matchText(host.TextContent(), explicitSection); c != nil {
				sel.Host, sel.Path = widen(host, c), c.Path
				matched, via = c, "text"
			}
		}
	}

	switch {
	case explicitSection != "":
		sel.SectionID = explicitSection
	case matched != nil && matched.SectionID != "":
		sel.SectionID = matched.SectionID
	case sel.HasPath():
		sel.SectionID = SectionForPath(r.page, sel.Path)
	}

	switch {
	case explicitComponent != "":
		sel.ComponentID = explicitComponent
	case sel.HasPath():
		sel.ComponentID = strings.Join(sel.Path, ".")
	}

	if !sel.HasPath() && sel.SectionID == "" {
		return Selection{}, false
	}
	if !sel.HasPath() {
		sel.Host = sectionEl
	}
	r.logger.Debug("selection resolved",
		zap.String("via", via),
		zap.Strings("path", sel.Path),
		zap.String("section_id", sel.SectionID),
		zap.Bool("image", sel.IsImage),
	)
	return sel, true
}

// pool returns the candidates of kind, scoped to section when any candidate carries it.
func (r *Resolver) pool(kind Kind, section string) []*Candidate {
	var all, scoped []*Candidate
	for i := range r.candidates {
		c := &r.candidates[i]
		if c.Kind != kind {
			continue
		}
		all = append(all, c)
		if section != "" && c.SectionID == section {
			scoped = append(scoped, c)
		}
	}
	if len(scoped) > 0 {
		return scoped
	}
	return all
}

func (r *Resolver) matchImage(src, section string) *Candidate {
	want := NormalizeURL(src, r.base)
	if want == "" {
		return nil
	}
	for _, c := range r.pool(KindImage, section) {
		if NormalizeURL(c.Value, r.base) == want {
			return c
		}
	}
	return nil
}

func (r *Resolver) matchText(raw, section string) *Candidate {
	want := NormalizeText(raw)
	if want == "" {
		return nil
	}
	pool := r.pool(KindText, section)

	var exact, partial []*Candidate
	for _, c := range pool {
		got := NormalizeText(c.Value)
		switch {
		case got == want:
			exact = append(exact, c)
		case strings.Contains(want, got) || strings.Contains(got, want):
			partial = append(partial, c)
		}
	}
	if len(exact) > 0 {
		return longest(exact)
	}
	if len(partial) > 0 {
		return longest(partial)
	}
	return nil
}

// widen moves the edit host from a fragment of the matched text, such as an <em>
// inside a heading, to the nearest ancestor that renders the whole value.
func widen(host Element, c *Candidate) Element {
	want := NormalizeText(c.Value)
	if NormalizeText(host.TextContent()) == want {
		return host
	}
	for cur := host.ParentElement(); cur != nil; cur = cur.ParentElement() {
		if NormalizeText(cur.TextContent()) == want {
			return cur
		}
		if _, ok := cur.Attr(AttrSection); ok {
			break
		}
	}
	return host
}

// longest picks the candidate with the longest raw value; ties keep candidate order.
// Length is counted in UTF-16 code units, as browsers measure strings.
func longest(cs []*Candidate) *Candidate {
	sort.SliceStable(cs, func(i, j int) bool {
		return textLength(cs[i].Value) > textLength(cs[j].Value)
	})
	return cs[0]
}

func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func isTag(name string) func(Element) bool {
	return func(e Element) bool { return e.TagName() == name }
}

func isTextTag(e Element) bool {
	_, ok := textTags[e.TagName()]
	return ok
}
