package inline

import (
	"net/url"
	"strings"

	"go.uber.org/zap"

	"finitefield.org/storefront/internal/platform/observability"
	"finitefield.org/storefront/internal/storefront"
)

// AnyOrigin is the allow-list entry that disables origin checks.
const AnyOrigin = "*"

// Poster delivers a message to the parent frame, like window.parent.postMessage.
type Poster interface {
	PostMessage(targetOrigin string, message any) error
}

// PosterFunc adapts a function to Poster.
type PosterFunc func(targetOrigin string, message any) error

// PostMessage calls f.
func (f PosterFunc) PostMessage(targetOrigin string, message any) error {
	return f(targetOrigin, message)
}

// Embedding describes where the storefront page is running.
type Embedding struct {
	// Framed is true when the page runs inside a frame whose parent is not itself.
	Framed bool
	// ParentOrigin is the origin of the embedding frame as seen by the page.
	ParentOrigin string
	VendorID     string
	Page         storefront.PageType
}

// Bridge is the outbound transport to the parent editor frame.
type Bridge struct {
	poster       Poster
	vendorID     string
	targetOrigin string
	active       bool
	logger       *zap.Logger
	metrics      *observability.BridgeMetrics
}

// NewBridge decides once whether the bridge is active. It is inactive when the page is
// not framed, the page type is unsupported, or the parent origin is not allow-listed.
func NewBridge(poster Poster, embed Embedding, allowed []string, logger *zap.Logger, metrics *observability.BridgeMetrics) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bridge{poster: poster, vendorID: embed.VendorID, logger: logger, metrics: metrics}

	switch {
	case !embed.Framed:
		logger.Debug("bridge inactive: page is not framed")
	case !embed.Page.Supported():
		logger.Debug("bridge inactive: unsupported page", zap.String("page", string(embed.Page)))
	case poster == nil:
		logger.Debug("bridge inactive: no poster")
	default:
		origin, ok := matchOrigin(embed.ParentOrigin, allowed)
		if !ok {
			logger.Warn("bridge inactive: parent origin not allowed",
				zap.String("parent_origin", observability.SanitizeOrigin(embed.ParentOrigin)))
			break
		}
		b.targetOrigin = origin
		b.active = true
	}
	return b
}

// Active reports whether notifications are delivered.
func (b *Bridge) Active() bool { return b != nil && b.active }

// TargetOrigin returns the origin messages are addressed to.
func (b *Bridge) TargetOrigin() string { return b.targetOrigin }

// AcceptsOrigin reports whether an inbound message from origin may be trusted.
func (b *Bridge) AcceptsOrigin(origin string) bool {
	if !b.Active() {
		return false
	}
	if b.targetOrigin == AnyOrigin {
		return true
	}
	return normalizeOrigin(origin) == b.targetOrigin
}

// Notify sends one message to the parent. Inactive bridges drop it silently.
func (b *Bridge) Notify(kind NotifyKind, p Payload) {
	if b == nil {
		return
	}
	if !b.active {
		b.metrics.Dropped(b.vendorID)
		return
	}

	var msg any
	switch kind {
	case NotifyInlineUpdate:
		if len(p.Path) == 0 {
			return
		}
		msg = InlineUpdateMessage{Type: TypeInlineUpdate, Path: p.Path, Value: p.Value, VendorID: b.vendorID}
	case NotifyEditorSelect:
		if p.SectionID == "" {
			return
		}
		msg = EditorSelectMessage{Type: TypeEditorSelect, SectionID: p.SectionID, ComponentID: p.ComponentID, VendorID: b.vendorID}
	default:
		return
	}

	if err := b.poster.PostMessage(b.targetOrigin, msg); err != nil {
		b.metrics.Dropped(b.vendorID)
		b.logger.Warn("post message failed", zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	switch kind {
	case NotifyInlineUpdate:
		b.metrics.InlineUpdate(b.vendorID)
		b.logger.Info("inline update sent", zap.Strings("path", p.Path))
	case NotifyEditorSelect:
		b.metrics.Selection(b.vendorID)
	}
}

func matchOrigin(parent string, allowed []string) (string, bool) {
	parent = normalizeOrigin(parent)
	for _, a := range allowed {
		a = normalizeOrigin(a)
		if a == AnyOrigin {
			return AnyOrigin, true
		}
		if parent != "" && a == parent {
			return parent, true
		}
	}
	return "", false
}

// normalizeOrigin reduces a URL or origin string to lower-case scheme://host[:port].
func normalizeOrigin(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == AnyOrigin {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}
