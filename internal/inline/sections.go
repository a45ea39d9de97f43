package inline

import (
	"strings"

	"finitefield.org/storefront/internal/storefront"
)

// SectionForPath derives a section id from path segments using the page's keyword
// rules. The first rule matching any segment wins; no match yields "".
func SectionForPath(page storefront.PageType, path []string) string {
	schema, ok := schemas[page]
	if !ok {
		return ""
	}
	for _, rule := range schema.sections {
		for _, seg := range path {
			if strings.Contains(strings.ToLower(seg), rule.keyword) {
				return rule.section
			}
		}
	}
	return ""
}

// ParsePath splits a dot-delimited path attribute, dropping empty segments.
func ParsePath(raw string) []string {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
