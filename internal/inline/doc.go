// Package inline implements the storefront's inline template editing bridge.
//
// A vendor storefront rendered inside the editor's iframe does not have to carry
// explicit data bindings. The bridge builds a flat index of editable fields from the
// vendor's template document, maps a clicked element back to one of those fields
// (explicit data-template-path markers first, fuzzy text or image URL matching
// second), runs a single contenteditable edit session at a time and reports changes
// to the parent editor frame with deterministic path addressing.
//
// Everything here runs synchronously on the caller's goroutine. Callers must
// serialise event delivery the way a browser event loop does.
package inline
