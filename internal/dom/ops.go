package dom

// OpKind names a DOM mutation the relay must replay in the browser.
type OpKind string

const (
	OpSetAttr    OpKind = "set-attr"
	OpRemoveAttr OpKind = "remove-attr"
	OpSetText    OpKind = "set-text"
	OpFocus      OpKind = "focus"
	OpSelectAll  OpKind = "select-all"
)

// Op is one recorded mutation, addressed by node id.
type Op struct {
	Kind   OpKind `json:"op"`
	Target string `json:"target"`
	Name   string `json:"name,omitempty"`
	Value  string `json:"value,omitempty"`
}
