package inline

import (
	"net/url"

	"go.uber.org/zap"

	"finitefield.org/storefront/internal/platform/observability"
	"finitefield.org/storefront/internal/storefront"
)

// DocumentSource returns the current template document and its revision.
type DocumentSource func() (storefront.Document, uint64)

// Options tune a Controller.
type Options struct {
	// AllowedOrigins is the parent origin allow-list handed to the Bridge.
	AllowedOrigins []string
	// CommitOnUnmount commits an active session on unmount instead of dropping it.
	CommitOnUnmount bool
	// PageURL resolves relative image sources.
	PageURL *url.URL
	Logger  *zap.Logger
	Metrics *observability.BridgeMetrics
}

// Controller ties the resolver, the edit session and the parent bridge to an event source.
type Controller struct {
	embed   Embedding
	docs    DocumentSource
	opts    Options
	logger  *zap.Logger
	bridge  *Bridge
	session *Session

	resolver *Resolver
	revision uint64
	indexed  bool
}

// NewController builds a controller for one mounted page.
func NewController(embed Embedding, docs DocumentSource, poster Poster, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("vendor_id", embed.VendorID), zap.String("page", string(embed.Page)))

	bridge := NewBridge(poster, embed, opts.AllowedOrigins, logger, opts.Metrics)
	session := NewSession(bridge, logger)
	session.started = func() { opts.Metrics.SessionStarted(embed.VendorID) }

	return &Controller{
		embed:   embed,
		docs:    docs,
		opts:    opts,
		logger:  logger,
		bridge:  bridge,
		session: session,
	}
}

// Bridge exposes the controller's parent bridge.
func (c *Controller) Bridge() *Bridge { return c.bridge }

// Session exposes the controller's edit session.
func (c *Controller) Session() *Session { return c.session }

// Mount registers capture listeners on src when the bridge is active and returns the
// matching unmount function. An inactive controller registers nothing.
func (c *Controller) Mount(src EventSource) (unmount func()) {
	if !c.bridge.Active() || src == nil {
		return func() {}
	}
	removers := []func(){
		src.AddCaptureListener(EventClick, c.onClick),
		src.AddCaptureListener(EventInput, c.onInput),
		src.AddCaptureListener(EventKeyDown, c.onKeyDown),
		src.AddCaptureListener(EventFocusIn, c.onFocusIn),
	}
	c.logger.Debug("inline bridge mounted")

	var done bool
	return func() {
		if done {
			return
		}
		done = true
		for _, remove := range removers {
			remove()
		}
		if c.opts.CommitOnUnmount {
			c.session.Commit()
		} else {
			c.session.Clear()
		}
		c.logger.Debug("inline bridge unmounted")
	}
}

// Candidates returns the index for the current document revision.
func (c *Controller) Candidates() []Candidate {
	return c.currentResolver().candidates
}

func (c *Controller) currentResolver() *Resolver {
	var (
		doc storefront.Document
		rev uint64
	)
	if c.docs != nil {
		doc, rev = c.docs()
	}
	if !c.indexed || rev != c.revision {
		candidates := BuildCandidates(doc, c.embed.Page)
		c.resolver = NewResolver(c.embed.Page, candidates, c.opts.PageURL, c.logger)
		c.revision = rev
		c.indexed = true
		c.logger.Debug("candidate index rebuilt", zap.Uint64("revision", rev), zap.Int("candidates", len(candidates)))
	}
	return c.resolver
}

func (c *Controller) onClick(e *Event) {
	if e.Target == nil || c.session.Contains(e.Target) {
		return
	}
	sel, ok := c.currentResolver().Resolve(e.Target)
	if !ok {
		return
	}
	if sel.SectionID != "" {
		c.bridge.Notify(NotifyEditorSelect, Payload{SectionID: sel.SectionID, ComponentID: sel.ComponentID})
	}
	if !sel.HasPath() {
		return
	}

	e.PreventDefault()
	e.StopPropagation()
	if sel.IsImage {
		return
	}
	node, ok := sel.Host.(Editable)
	if !ok {
		return
	}
	c.session.Start(node, sel.Path)
}

func (c *Controller) onInput(e *Event) {
	if c.session.Contains(e.Target) {
		c.session.OnInput()
	}
}

func (c *Controller) onKeyDown(e *Event) {
	if !c.session.Editing() {
		return
	}
	switch e.Key {
	case "Escape":
		e.PreventDefault()
		c.session.Revert()
	case "Enter":
		if e.ShiftKey {
			return
		}
		e.PreventDefault()
		c.session.Commit()
	}
}

func (c *Controller) onFocusIn(e *Event) {
	if c.session.Editing() && !c.session.Contains(e.Target) {
		c.session.Commit()
	}
}
