package dom

import "finitefield.org/storefront/internal/inline"

// AddCaptureListener registers l to run before every page listener of the same type.
func (d *Document) AddCaptureListener(t inline.EventType, l inline.Listener) func() {
	return d.add(d.capture, t, l)
}

// AddPageListener registers a listener standing in for the page's own handlers.
// Page listeners are skipped once a capture listener stops propagation.
func (d *Document) AddPageListener(t inline.EventType, l inline.Listener) func() {
	return d.add(d.page, t, l)
}

func (d *Document) add(set map[inline.EventType][]*listener, t inline.EventType, l inline.Listener) func() {
	d.listenerID++
	entry := &listener{id: d.listenerID, fn: l}
	set[t] = append(set[t], entry)
	return func() {
		list := set[t]
		for i, cur := range list {
			if cur.id == entry.id {
				set[t] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// ListenerCount returns how many capture listeners are registered for t.
func (d *Document) ListenerCount(t inline.EventType) int {
	return len(d.capture[t])
}

// Dispatch delivers e to capture listeners, then to page listeners unless propagation
// was stopped. A focusin event moves focus to its target first. It reports whether the
// default action was prevented.
func (d *Document) Dispatch(e *inline.Event) bool {
	if e.Type == inline.EventFocusIn {
		if el, ok := e.Target.(*Element); ok {
			d.focused = el
		}
	}
	for _, l := range snapshot(d.capture[e.Type]) {
		l.fn(e)
	}
	if !e.PropagationStopped() {
		for _, l := range snapshot(d.page[e.Type]) {
			l.fn(e)
			if e.PropagationStopped() {
				break
			}
		}
	}
	return e.DefaultPrevented()
}

func snapshot(list []*listener) []*listener {
	return append([]*listener(nil), list...)
}
