package inline

import (
	"strings"

	"go.uber.org/zap"
)

// Session is the single-slot edit session. The zero value is not usable; use NewSession.
type Session struct {
	notifier Notifier
	logger   *zap.Logger
	started  func()

	active   Editable
	path     []string
	original string
	lastSent string
}

// NewSession returns an idle session reporting updates to notifier.
func NewSession(notifier Notifier, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{notifier: notifier, logger: logger}
}

// Editing reports whether a node is currently being edited.
func (s *Session) Editing() bool { return s.active != nil }

// Active returns the node and path being edited.
func (s *Session) Active() (Editable, []string, bool) {
	if s.active == nil {
		return nil, nil, false
	}
	return s.active, append([]string(nil), s.path...), true
}

// Contains reports whether el is inside the node being edited.
func (s *Session) Contains(el Element) bool {
	return s.active != nil && el != nil && s.active.Contains(el)
}

// Start makes node editable for path. Any other active session is committed first;
// starting on the node already being edited does nothing.
func (s *Session) Start(node Editable, path []string) {
	if node == nil || len(path) == 0 {
		return
	}
	if s.active != nil {
		if s.active == node {
			return
		}
		s.Commit()
	}

	s.active = node
	s.path = append([]string(nil), path...)
	s.original = node.TextContent()
	s.lastSent = strings.TrimSpace(s.original)

	node.SetAttr(AttrContentEditable, "true")
	node.SetAttr(AttrEditing, "true")
	node.Focus()
	node.SelectContents()

	if s.started != nil {
		s.started()
	}
	s.logger.Debug("edit session started", zap.Strings("path", s.path))
}

// OnInput streams the current text to the parent whenever it differs from what was
// last reported.
func (s *Session) OnInput() {
	if s.active == nil {
		return
	}
	current := strings.TrimSpace(s.active.TextContent())
	if current == s.lastSent {
		return
	}
	s.send(current)
}

// Commit reports any change not yet streamed and returns to idle.
func (s *Session) Commit() {
	if s.active == nil {
		return
	}
	final := strings.TrimSpace(s.active.TextContent())
	if final != strings.TrimSpace(s.original) && final != s.lastSent {
		s.send(final)
	}
	s.logger.Debug("edit session committed", zap.Strings("path", s.path))
	s.Clear()
}

// Revert restores the original text exactly and returns to idle without reporting.
func (s *Session) Revert() {
	if s.active == nil {
		return
	}
	s.active.SetTextContent(s.original)
	s.logger.Debug("edit session reverted", zap.Strings("path", s.path))
	s.Clear()
}

// Clear drops editing markers and session state without committing.
func (s *Session) Clear() {
	if s.active == nil {
		return
	}
	s.active.RemoveAttr(AttrContentEditable)
	s.active.RemoveAttr(AttrEditing)
	s.active = nil
	s.path = nil
	s.original = ""
	s.lastSent = ""
}

func (s *Session) send(value string) {
	s.lastSent = value
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(NotifyInlineUpdate, Payload{
		Path:  append([]string(nil), s.path...),
		Value: value,
	})
}
