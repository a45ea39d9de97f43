package inline

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"finitefield.org/storefront/internal/storefront"
)

// Candidate is one editable leaf of a template document.
type Candidate struct {
	Path      []string
	SectionID string
	Kind      Kind
	Value     string
}

// Key returns the dot-joined path.
func (c Candidate) Key() string {
	return strings.Join(c.Path, ".")
}

// BuildCandidates walks the page schema over doc and returns every populated text and
// image leaf, in schema declaration order with list items in document order.
// Unsupported page types and absent or malformed leaves yield nothing.
func BuildCandidates(doc storefront.Document, page storefront.PageType) []Candidate {
	schema, ok := schemas[page]
	if !ok || doc == nil {
		return nil
	}
	root, ok := doc.Page(page)
	if !ok {
		return nil
	}
	prefix := []string{"components", page.ComponentKey()}

	var out []Candidate
	for _, f := range schema.fields {
		out = appendField(out, root, prefix, f)
	}
	return out
}

func appendField(out []Candidate, node map[string]any, prefix []string, f field) []Candidate {
	value, ok := lookup(node, f.path)
	if !ok {
		return out
	}
	path := joinPath(prefix, f.path)

	if f.each != nil {
		items, ok := value.([]any)
		if !ok {
			return out
		}
		for i, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			itemPath := joinPath(path, []string{strconv.Itoa(i)})
			for _, sub := range f.each {
				out = appendField(out, obj, itemPath, sub)
			}
		}
		return out
	}

	leaf, ok := leafValue(value, f.kind)
	if !ok {
		return out
	}
	return append(out, Candidate{
		Path:      path,
		SectionID: f.section,
		Kind:      f.kind,
		Value:     leaf,
	})
}

func lookup(node map[string]any, path []string) (any, bool) {
	var cur any = node
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// leafValue accepts non-blank strings and, for text fields, finite numbers.
func leafValue(v any, kind Kind) (string, bool) {
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) == "" {
			return "", false
		}
		return val, true
	}
	if kind == KindImage {
		return "", false
	}
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return "", false
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case json.Number:
		f, err := val.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return "", false
		}
		return val.String(), true
	}
	return "", false
}

func joinPath(prefix, rest []string) []string {
	out := make([]string, 0, len(prefix)+len(rest))
	out = append(out, prefix...)
	return append(out, rest...)
}
