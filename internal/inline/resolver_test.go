package inline_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/storefront/internal/inline"
	"finitefield.org/storefront/internal/storefront"
)

func newResolver(t *testing.T, raw string, page storefront.PageType) *inline.Resolver {
	t.Helper()
	doc := loadDocument(t, raw)
	base, err := url.Parse("https://shop.example.com/stores/acme/")
	require.NoError(t, err)
	return inline.NewResolver(page, inline.BuildCandidates(doc, page), base, nil)
}

func TestResolveExactTextMatch(t *testing.T) {
	r := newResolver(t, homeDocument, storefront.PageHome)
	page := parsePage(t, `<div><h1>  Welcome to
		our   Store</h1></div>`)

	sel, ok := r.Resolve(first(t, page, "h1"))
	require.True(t, ok)
	require.Equal(t, []string{"components", "home_page", "header_text"}, sel.Path)
	require.Equal(t, "hero", sel.SectionID)
	require.Equal(t, "components.home_page.header_text", sel.ComponentID)
	require.False(t, sel.IsImage)
	require.Equal(t, "h1", sel.Host.TagName())
}

func TestResolveNestedEmphasisHostsWholeHeading(t *testing.T) {
	r := newResolver(t, homeDocument, storefront.PageHome)
	page := parsePage(t, `<section data-template-section="hero"><h1>Welcome to our <em>store</em></h1></section>`)

	sel, ok := r.Resolve(first(t, page, "em"))
	require.True(t, ok)
	require.Equal(t, "h1", sel.Host.TagName(), "the element rendering the whole value hosts the edit")
	require.Equal(t, []string{"components", "home_page", "header_text"}, sel.Path, "falls back to the substring pass")
}

func TestResolvePartialTextKeepsClickedHost(t *testing.T) {
	r := newResolver(t, homeDocument, storefront.PageHome)
	page := parsePage(t, `<section data-template-section="promo"><p>Summer sale - 20% off</p></section>`)

	sel, ok := r.Resolve(first(t, page, "p"))
	require.True(t, ok)
	require.Equal(t, "p", sel.Host.TagName(), "no ancestor renders exactly the matched value")
	require.Equal(t, "components.home_page.promo.title", sel.ComponentID)
}

func TestResolveExplicitPathWins(t *testing.T) {
	r := newResolver(t, homeDocument, storefront.PageHome)
	page := parsePage(t, `<div data-template-path="components.home_page.promo.text" data-template-component="promo-card">
		<h2>Welcome to our store</h2></div>`)

	sel, ok := r.Resolve(first(t, page, "h2"))
	require.True(t, ok)
	require.Equal(t, []string{"components", "home_page", "promo", "text"}, sel.Path)
	require.Equal(t, "div", sel.Host.TagName())
	require.Equal(t, "promo", sel.SectionID)
	require.Equal(t, "promo-card", sel.ComponentID)
}

func TestResolveExplicitPathWithoutCandidateUsesHeuristicSection(t *testing.T) {
	r := newResolver(t, homeDocument, storefront.PageHome)
	page := parsePage(t, `<p data-template-path="components.home_page.testimonials.3.quote">Great</p>`)

	sel, ok := r.Resolve(first(t, page, "p"))
	require.True(t, ok)
	require.Equal(t, "testimonials", sel.SectionID)
}

func TestResolveImageMatch(t *testing.T) {
	r := newResolver(t, homeDocument, storefront.PageHome)
	page := parsePage(t, `<a href="/shop"><img src="https://CDN.example.com/img/hero.jpg?w=640"></a>
		<img id="icon" src="/assets/truck.svg"><img id="other" src="/assets/none.svg">`)

	sel, ok := r.Resolve(first(t, page, "a img"))
	require.True(t, ok)
	require.True(t, sel.IsImage)
	require.Equal(t, []string{"components", "home_page", "hero_image"}, sel.Path)
	require.Equal(t, "img", sel.Host.TagName())
	require.Equal(t, "hero", sel.SectionID)

	sel, ok = r.Resolve(first(t, page, "#icon"))
	require.True(t, ok)
	require.Equal(t, []string{"components", "home_page", "features", "0", "icon_image"}, sel.Path)

	_, ok = r.Resolve(first(t, page, "#other"))
	require.False(t, ok, "unmatched image outside any section is an ordinary click")
}

func TestResolveTieBreakPrefersLongestRawValue(t *testing.T) {
	raw := `
components:
  home_page:
    header_button_text: "Learn More"
    features:
      - title: "  Learn   more  "
`
	r := newResolver(t, raw, storefront.PageHome)
	page := parsePage(t, `<button>Learn More</button>`)

	for i := 0; i < 3; i++ {
		sel, ok := r.Resolve(first(t, page, "button"))
		require.True(t, ok)
		require.Equal(t, []string{"components", "home_page", "features", "0", "title"}, sel.Path)
		require.Equal(t, "features", sel.SectionID)
	}
}

func TestResolveTieBreakCountsUTF16Units(t *testing.T) {
	// "😀😀" is two runes but four UTF-16 units, so it outranks "abc".
	raw := `
components:
  home_page:
    header_text: "abc"
    header_subtext: "😀😀"
`
	r := newResolver(t, raw, storefront.PageHome)
	page := parsePage(t, `<p>abc 😀😀</p>`)

	sel, ok := r.Resolve(first(t, page, "p"))
	require.True(t, ok)
	require.Equal(t, []string{"components", "home_page", "header_subtext"}, sel.Path)
}

func TestResolveIdenticalValuesKeepCandidateOrder(t *testing.T) {
	r := newResolver(t, homeDocument, storefront.PageHome)
	page := parsePage(t, `<a>Learn More</a>`)

	sel, ok := r.Resolve(first(t, page, "a"))
	require.True(t, ok)
	require.Equal(t, []string{"components", "home_page", "header_button_text"}, sel.Path)
}

func TestResolveSubstringMatch(t *testing.T) {
	r := newResolver(t, homeDocument, storefront.PageHome)
	page := parsePage(t, `<p id="longer">Summer sale - 20% off</p><span id="shorter">Orders leave</span>`)

	sel, ok := r.Resolve(first(t, page, "#longer"))
	require.True(t, ok)
	require.Equal(t, "components.home_page.promo.title", sel.ComponentID)

	sel, ok = r.Resolve(first(t, page, "#shorter"))
	require.True(t, ok)
	require.Equal(t, "components.home_page.features.0.description", sel.ComponentID)
}

func TestResolveScopesToExplicitSection(t *testing.T) {
	r := newResolver(t, homeDocument, storefront.PageHome)
	page := parsePage(t, `<section data-template-section="features"><a>Learn More</a></section>
		<section data-template-section="banner"><a>Learn More</a></section>`)

	anchors := page.Find("a")
	sel, ok := r.Resolve(anchors[0])
	require.True(t, ok)
	require.Equal(t, []string{"components", "home_page", "features", "1", "title"}, sel.Path)
	require.Equal(t, "features", sel.SectionID)

	sel, ok = r.Resolve(anchors[1])
	require.True(t, ok)
	require.Equal(t, []string{"components", "home_page", "header_button_text"}, sel.Path, "unknown section label falls back to the whole pool")
	require.Equal(t, "banner", sel.SectionID)
}

func TestResolveSectionOnly(t *testing.T) {
	r := newResolver(t, homeDocument, storefront.PageHome)
	page := parsePage(t, `<section data-template-section="story" data-template-component="story-block"><p>Nothing matches this</p></section>`)

	sel, ok := r.Resolve(first(t, page, "p"))
	require.True(t, ok)
	require.False(t, sel.HasPath())
	require.Equal(t, "story", sel.SectionID)
	require.Equal(t, "story-block", sel.ComponentID)
	require.Equal(t, "section", sel.Host.TagName())
}

func TestResolveNothing(t *testing.T) {
	r := newResolver(t, homeDocument, storefront.PageHome)
	page := parsePage(t, `<div><p>Unrelated copy</p><p>   </p></div>`)

	for _, el := range page.Find("p") {
		_, ok := r.Resolve(el)
		require.False(t, ok)
	}
	_, ok := r.Resolve(first(t, page, "div"))
	require.False(t, ok)
	_, ok = r.Resolve(nil)
	require.False(t, ok)
}

func TestSectionForPath(t *testing.T) {
	require.Equal(t, "story", inline.SectionForPath(storefront.PageAbout, []string{"components", "about_page", "our_story_text"}))
	require.Equal(t, "faq", inline.SectionForPath(storefront.PageContact, []string{"components", "contact_page", "faqs", "0", "answer"}))
	require.Equal(t, "", inline.SectionForPath(storefront.PageAbout, []string{"components", "about_page", "footer"}))
	require.Equal(t, "", inline.SectionForPath(storefront.PageType("blog"), []string{"story"}))
}
