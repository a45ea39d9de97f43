package preview

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/microcosm-cc/bluemonday"

	"finitefield.org/storefront/internal/storefront"
)

//go:embed theme/*.tmpl
var themeFS embed.FS

// Theme is the default storefront theme, one template set per page type.
type Theme struct {
	pages  map[storefront.PageType]*template.Template
	policy *bluemonday.Policy
}

// NewTheme parses the embedded theme.
func NewTheme() (*Theme, error) {
	t := &Theme{
		pages:  make(map[storefront.PageType]*template.Template, len(storefront.PageTypes)),
		policy: newRichTextPolicy(),
	}
	for _, page := range storefront.PageTypes {
		tmpl, err := template.New("_root").ParseFS(themeFS, "theme/base.tmpl", "theme/"+string(page)+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("preview: parse %s theme: %w", page, err)
		}
		t.pages[page] = tmpl
	}
	return t, nil
}

// Render executes the page's layout for view.
func (t *Theme) Render(w io.Writer, view *PageView) error {
	tmpl, ok := t.pages[view.Page]
	if !ok {
		return fmt.Errorf("%w: %s", storefront.ErrUnsupportedPage, view.Page)
	}
	if err := tmpl.ExecuteTemplate(w, "base", view); err != nil {
		return fmt.Errorf("preview: render %s: %w", view.Page, err)
	}
	return nil
}

// newRichTextPolicy sanitizes vendor-supplied announcement markup.
func newRichTextPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("p", "span", "strong", "em")
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}
