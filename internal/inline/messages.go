package inline

// Message types exchanged with the parent editor frame.
const (
	TypeInlineUpdate = "template-inline-update"
	TypeEditorSelect = "template-editor-select"
	// TypeTemplateSync is sent by the parent editor to push a new template document.
	TypeTemplateSync = "template-sync"
)

// InlineUpdateMessage reports the new value of one template field.
type InlineUpdateMessage struct {
	Type     string   `json:"type"`
	Path     []string `json:"path"`
	Value    string   `json:"value"`
	VendorID string   `json:"vendorId"`
}

// EditorSelectMessage tells the parent which section was clicked.
type EditorSelectMessage struct {
	Type        string `json:"type"`
	SectionID   string `json:"sectionId"`
	ComponentID string `json:"componentId,omitempty"`
	VendorID    string `json:"vendorId"`
}

// NotifyKind selects the outbound message shape.
type NotifyKind string

const (
	NotifyInlineUpdate NotifyKind = "inline-update"
	NotifyEditorSelect NotifyKind = "editor-select"
)

// Payload carries the fields of either notification kind.
type Payload struct {
	Path        []string
	Value       string
	SectionID   string
	ComponentID string
}

// Notifier receives bridge notifications.
type Notifier interface {
	Notify(kind NotifyKind, payload Payload)
}
