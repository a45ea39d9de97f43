package inline

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeText trims, collapses internal whitespace runs to one space and lower-cases.
func NormalizeText(s string) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	if collapsed == "" {
		return ""
	}
	// cases.Caser keeps state, so one per call.
	return cases.Lower(language.Und).String(collapsed)
}

// NormalizeURL resolves raw against base and keeps only scheme, host and path,
// lower-cased. Query strings and fragments are dropped.
func NormalizeURL(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			raw = raw[:i]
		}
		return strings.ToLower(raw)
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	var b strings.Builder
	if u.Host != "" {
		if u.Scheme != "" {
			b.WriteString(u.Scheme)
			b.WriteString(":")
		}
		b.WriteString("//")
		b.WriteString(u.Host)
	}
	b.WriteString(u.EscapedPath())
	return strings.ToLower(b.String())
}
