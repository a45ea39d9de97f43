package inline

// EventType names the DOM events the bridge listens to.
type EventType string

const (
	EventClick   EventType = "click"
	EventInput   EventType = "input"
	EventKeyDown EventType = "keydown"
	EventFocusIn EventType = "focusin"
)

// Event is one DOM event as seen by a listener.
type Event struct {
	Type     EventType
	Target   Element
	Key      string
	ShiftKey bool

	defaultPrevented   bool
	propagationStopped bool
}

// PreventDefault cancels the browser's default action, such as following a link.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// StopPropagation keeps the event from reaching the page's own listeners.
func (e *Event) StopPropagation() { e.propagationStopped = true }

func (e *Event) DefaultPrevented() bool   { return e.defaultPrevented }
func (e *Event) PropagationStopped() bool { return e.propagationStopped }

// Listener handles one event.
type Listener func(*Event)

// EventSource delivers events in dispatch order. Capture listeners must run before
// any listener the page itself registered for the same event.
type EventSource interface {
	AddCaptureListener(t EventType, l Listener) (remove func())
}
