package storefront

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Document is a vendor's weakly-typed template JSON. Page sub-trees live under
// components.<page>_page and any leaf may be missing.
type Document map[string]any

// Lookup walks path through nested objects and arrays. Array segments are decimal indexes.
// Any mismatch along the way is reported as absence.
func (d Document) Lookup(path []string) (any, bool) {
	var cur any = map[string]any(d)
	for _, seg := range path {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Page returns the page's sub-tree, if present and well-formed.
func (d Document) Page(p PageType) (map[string]any, bool) {
	v, ok := d.Lookup([]string{"components", p.ComponentKey()})
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Clone deep-copies the document through its JSON form, normalising any
// map[any]any produced by decoders into map[string]any.
func (d Document) Clone() (Document, error) {
	normalized, err := normalizeValue(map[string]any(d))
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("storefront: encode document: %w", err)
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("storefront: decode document: %w", err)
	}
	return out, nil
}

func normalizeValue(v any) (any, error) {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			n, err := normalizeValue(child)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("storefront: non-string key %v", k)
			}
			n, err := normalizeValue(child)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(node))
		for i, child := range node {
			n, err := normalizeValue(child)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return v, nil
	}
}
