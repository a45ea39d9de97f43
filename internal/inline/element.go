package inline

// DOM contract shared with the storefront themes.
const (
	AttrPath      = "data-template-path"
	AttrSection   = "data-template-section"
	AttrComponent = "data-template-component"

	AttrContentEditable = "contenteditable"
	AttrEditing         = "data-inline-editing"
)

// Element is the read-only view of a DOM element the resolver needs.
type Element interface {
	// TagName returns the lower-case tag name.
	TagName() string
	Attr(name string) (string, bool)
	// ParentElement returns nil at the document root.
	ParentElement() Element
	TextContent() string
}

// Editable is an element the edit session can take over.
type Editable interface {
	Element
	SetTextContent(text string)
	SetAttr(name, value string)
	RemoveAttr(name string)
	Focus()
	// SelectContents selects the element's full text content.
	SelectContents()
	// Contains reports whether other is the element itself or one of its descendants.
	Contains(other Element) bool
}

func closest(el Element, match func(Element) bool) Element {
	for cur := el; cur != nil; cur = cur.ParentElement() {
		if match(cur) {
			return cur
		}
	}
	return nil
}

func closestWithAttr(el Element, name string) (Element, string) {
	var value string
	found := closest(el, func(e Element) bool {
		v, ok := e.Attr(name)
		if !ok {
			return false
		}
		value = v
		return true
	})
	return found, value
}
