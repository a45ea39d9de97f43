package preview

import (
	"encoding/json"
	"html/template"
	"math"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"finitefield.org/storefront/internal/storefront"
)

// announcementKey holds page-level rich text. It is rendered sanitized and is not
// inline-editable.
const announcementKey = "announcement_html"

// Fields exposes one object of a template document to the theme. Keys are
// dot-separated and relative to the object.
type Fields struct {
	node   map[string]any
	prefix []string
}

// Text returns the leaf as display text, or "" when absent or not a scalar.
func (f Fields) Text(key string) string {
	switch v := f.lookup(key).(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

// Image returns the leaf as a trimmed URL string.
func (f Fields) Image(key string) string {
	s, _ := f.lookup(key).(string)
	return strings.TrimSpace(s)
}

// Path returns the absolute dot path of key; an empty key names the object itself.
func (f Fields) Path(key string) string {
	parts := append([]string(nil), f.prefix...)
	if key != "" {
		parts = append(parts, strings.Split(key, ".")...)
	}
	return strings.Join(parts, ".")
}

// Items returns the object elements of a list. Non-object elements are skipped but
// keep their index in the path of later items.
func (f Fields) Items(key string) []Fields {
	list, ok := f.lookup(key).([]any)
	if !ok {
		return nil
	}
	base := append(append([]string(nil), f.prefix...), strings.Split(key, ".")...)
	out := make([]Fields, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		prefix := append(append([]string(nil), base...), strconv.Itoa(i))
		out = append(out, Fields{node: obj, prefix: prefix})
	}
	return out
}

func (f Fields) lookup(key string) any {
	var cur any = f.node
	for _, seg := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		if cur, ok = m[seg]; !ok {
			return nil
		}
	}
	return cur
}

// PageView is the data handed to the theme for one page render.
type PageView struct {
	Fields

	VendorID  string
	Page      storefront.PageType
	StoreName string
	Title     string
	Revision  uint64

	HomeURL    string
	AboutURL   string
	ContactURL string
	BridgeURL  string
	ScriptURL  string

	Announcement template.HTML
}

func newPageView(snap storefront.Snapshot, page storefront.PageType, policy *bluemonday.Policy) *PageView {
	node, _ := snap.Document.Page(page)
	fields := Fields{node: node, prefix: []string{"components", page.ComponentKey()}}

	name := storeName(snap)
	view := &PageView{
		Fields:     fields,
		VendorID:   snap.VendorID,
		Page:       page,
		StoreName:  name,
		Title:      pageTitle(name, page),
		Revision:   snap.Revision,
		HomeURL:    PagePath(snap.VendorID, storefront.PageHome),
		AboutURL:   PagePath(snap.VendorID, storefront.PageAbout),
		ContactURL: PagePath(snap.VendorID, storefront.PageContact),
		BridgeURL:  BridgePath(snap.VendorID, page),
		ScriptURL:  ScriptPath,
	}
	if raw := fields.Text(announcementKey); strings.TrimSpace(raw) != "" && policy != nil {
		// Output of the UGC policy is safe to embed as markup.
		view.Announcement = template.HTML(policy.Sanitize(raw))
	}
	return view
}

// storeName prefers the document's store.name and falls back to a title-cased vendor id.
func storeName(snap storefront.Snapshot) string {
	if v, ok := snap.Document.Lookup([]string{"store", "name"}); ok {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	words := strings.FieldsFunc(snap.VendorID, func(r rune) bool { return r == '-' || r == '_' })
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

func pageTitle(name string, page storefront.PageType) string {
	if page == storefront.PageHome {
		return name
	}
	return cases.Title(language.Und).String(string(page)) + " | " + name
}
