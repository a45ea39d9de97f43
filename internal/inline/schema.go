package inline

import "finitefield.org/storefront/internal/storefront"

// Kind distinguishes text leaves from image URL leaves.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// field declares one candidate leaf relative to components.<page>_page. When each is
// set, path addresses a list and each item is visited with the nested fields.
type field struct {
	path    []string
	kind    Kind
	section string
	each    []field
}

func text(section string, path ...string) field {
	return field{path: path, kind: KindText, section: section}
}

func image(section string, path ...string) field {
	return field{path: path, kind: KindImage, section: section}
}

func list(section string, path string, each ...field) field {
	for i := range each {
		each[i].section = section
	}
	return field{path: []string{path}, section: section, each: each}
}

// sectionRule maps a path segment keyword to a section id.
type sectionRule struct {
	keyword string
	section string
}

type pageSchema struct {
	fields   []field
	sections []sectionRule
}

var schemas = map[storefront.PageType]pageSchema{
	storefront.PageHome: {
		fields: []field{
			text("hero", "header_text"),
			text("hero", "header_subtext"),
			text("hero", "header_button_text"),
			image("hero", "hero_image"),
			text("featured", "featured_heading"),
			text("featured", "featured_subheading"),
			list("features", "features",
				text("", "title"),
				text("", "description"),
				image("", "icon_image"),
			),
			text("promo", "promo", "title"),
			text("promo", "promo", "text"),
			text("promo", "promo", "button_text"),
			image("promo", "promo", "image"),
			list("testimonials", "testimonials",
				text("", "quote"),
				text("", "author"),
				image("", "avatar"),
			),
			text("newsletter", "newsletter", "heading"),
			text("newsletter", "newsletter", "subheading"),
			text("newsletter", "newsletter", "button_text"),
		},
		sections: []sectionRule{
			{"header", "hero"},
			{"hero", "hero"},
			{"featured", "featured"},
			{"feature", "features"},
			{"promo", "promo"},
			{"testimonial", "testimonials"},
			{"newsletter", "newsletter"},
		},
	},
	storefront.PageAbout: {
		fields: []field{
			text("hero", "hero", "title"),
			text("hero", "hero", "subtitle"),
			image("hero", "hero", "background_image"),
			text("story", "story", "heading"),
			text("story", "story", "text"),
			image("story", "story", "image"),
			text("mission", "mission", "heading"),
			text("mission", "mission", "text"),
			list("values", "values",
				text("", "title"),
				text("", "description"),
				image("", "icon_image"),
			),
			list("team", "team",
				text("", "name"),
				text("", "role"),
				text("", "bio"),
				image("", "photo"),
			),
			list("stats", "stats",
				text("", "label"),
				text("", "value"),
			),
		},
		sections: []sectionRule{
			{"hero", "hero"},
			{"story", "story"},
			{"mission", "mission"},
			{"value", "values"},
			{"team", "team"},
			{"stat", "stats"},
		},
	},
	storefront.PageContact: {
		fields: []field{
			text("hero", "hero", "title"),
			text("hero", "hero", "subtitle"),
			image("hero", "hero", "background_image"),
			text("details", "details", "heading"),
			text("details", "details", "address"),
			text("details", "details", "phone"),
			text("details", "details", "email"),
			text("details", "details", "hours"),
			text("form", "form", "heading"),
			text("form", "form", "subheading"),
			text("form", "form", "submit_text"),
			list("faq", "faqs",
				text("", "question"),
				text("", "answer"),
			),
			image("map", "map_image"),
		},
		sections: []sectionRule{
			{"hero", "hero"},
			{"detail", "details"},
			{"address", "details"},
			{"phone", "details"},
			{"email", "details"},
			{"hours", "details"},
			{"form", "form"},
			{"faq", "faq"},
			{"map", "map"},
		},
	},
}
