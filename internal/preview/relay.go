package preview

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"finitefield.org/storefront/internal/dom"
	"finitefield.org/storefront/internal/inline"
	"finitefield.org/storefront/internal/platform/httpx"
	"finitefield.org/storefront/internal/platform/observability"
	"finitefield.org/storefront/internal/platform/requestctx"
	"finitefield.org/storefront/internal/storefront"
)

var errStaleRevision = errors.New("preview: page revision is stale")

func (h *Handler) serveBridge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, page, herr := h.target(r)
	if herr != nil {
		httpx.WriteError(ctx, w, *herr)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied.
		requestctx.Logger(ctx).Warn("relay upgrade failed", zap.Error(err))
		return
	}

	connID := h.opts.NewConnectionID()
	ctx = requestctx.WithConnectionID(ctx, connID)
	logger := observability.ConnectionLogger(requestctx.Logger(ctx), connID, snap.VendorID, string(page))

	s := &relaySession{
		handler:  h,
		conn:     newConn(ws, h.opts.MaxFrameBytes, h.opts.PingInterval),
		connID:   connID,
		vendorID: snap.VendorID,
		page:     page,
		pageURL:  pageURL(r, snap.VendorID, page),
		logger:   logger,
		outbox:   &outbox{},
	}
	err = s.run(ctx)
	var closeErr *websocket.CloseError
	switch {
	case err == nil:
	case errors.As(err, &closeErr):
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
			logger.Warn("relay closed unexpectedly", zap.Error(err))
		}
	default:
		logger.Warn("relay failed", zap.Error(err))
	}
	s.conn.close(websocket.CloseNormalClosure, "")
}

// relaySession is one relay connection. Every field is owned by the read loop.
type relaySession struct {
	handler  *Handler
	conn     *conn
	connID   string
	vendorID string
	page     storefront.PageType
	pageURL  *url.URL
	logger   *zap.Logger
	rev      uint64

	doc        *dom.Document
	controller *inline.Controller
	outbox     *outbox
	unmount    func()
}

func (s *relaySession) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.conn.keepAlive(ctx, s.handler.opts.PingInterval, s.logger)

	hello, err := s.readHello()
	if err != nil {
		return err
	}
	if err := s.mount(hello); err != nil {
		if errors.Is(err, errStaleRevision) {
			return nil
		}
		return err
	}
	defer s.teardown()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		kind, raw, err := s.conn.read()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) || raw == nil {
				return err
			}
			s.logger.Debug("relay frame rejected", zap.Error(err))
			if err := s.conn.write(errorFrame{Type: frameError, Code: "invalid_frame", Message: "frame could not be decoded"}); err != nil {
				return err
			}
			continue
		}

		switch kind {
		case frameEvent:
			if rev := s.handler.store.Revision(s.vendorID); rev != s.rev {
				// Another connection synced the template; this page no longer matches it.
				s.logger.Info("relay revision superseded", zap.Uint64("client_rev", s.rev), zap.Uint64("rev", rev))
				return s.conn.write(reloadFrame{Type: frameReload, Rev: rev})
			}
			err = s.handleEvent(raw)
		case frameParent:
			var done bool
			done, err = s.handleParent(raw)
			if err == nil && done {
				return nil
			}
		case frameHello:
			s.logger.Debug("duplicate hello ignored")
		}
		if err != nil {
			return err
		}
	}
}

func (s *relaySession) readHello() (helloFrame, error) {
	kind, raw, err := s.conn.read()
	if err != nil {
		return helloFrame{}, err
	}
	if kind != frameHello {
		return helloFrame{}, errors.New("preview: relay must start with hello")
	}
	var hello helloFrame
	if err := decodeFrame(raw, &hello); err != nil {
		return helloFrame{}, err
	}
	return hello, nil
}

// mount renders the page at the revision the browser holds and wires a controller to it.
// A browser holding an older revision is told to reload instead.
func (s *relaySession) mount(hello helloFrame) error {
	store := s.handler.store
	snap, err := store.Get(s.vendorID)
	if err != nil {
		return err
	}
	if hello.Rev != snap.Revision {
		s.logger.Info("relay revision stale", zap.Uint64("client_rev", hello.Rev), zap.Uint64("rev", snap.Revision))
		if err := s.conn.write(reloadFrame{Type: frameReload, Rev: snap.Revision}); err != nil {
			return err
		}
		return errStaleRevision
	}

	doc, err := s.handler.renderer.Document(snap, s.page, s.pageURL)
	if err != nil {
		return err
	}
	s.doc = doc
	s.rev = snap.Revision

	embed := inline.Embedding{
		Framed:       hello.Embedded,
		ParentOrigin: hello.ParentOrigin,
		VendorID:     s.vendorID,
		Page:         s.page,
	}
	docs := func() (storefront.Document, uint64) {
		cur, err := store.Get(s.vendorID)
		if err != nil {
			return nil, 0
		}
		return cur.Document, cur.Revision
	}
	s.controller = inline.NewController(embed, docs, s.outbox, inline.Options{
		AllowedOrigins:  s.handler.opts.AllowedOrigins,
		CommitOnUnmount: s.handler.opts.CommitOnUnmount,
		PageURL:         doc.PageURL(),
		Logger:          s.logger,
		Metrics:         s.handler.opts.Metrics,
	})
	s.unmount = s.controller.Mount(doc)

	active := s.controller.Bridge().Active()
	s.logger.Info("relay mounted", zap.Bool("active", active),
		zap.String("parent_origin", observability.SanitizeOrigin(hello.ParentOrigin)))
	return s.conn.write(readyFrame{Type: frameReady, Active: active, ConnectionID: s.connID, Rev: snap.Revision})
}

func (s *relaySession) handleEvent(raw []byte) error {
	var ev eventFrame
	if err := decodeFrame(raw, &ev); err != nil {
		s.logger.Debug("event frame rejected", zap.Error(err))
		var seq struct {
			Seq uint64 `json:"seq"`
		}
		_ = json.Unmarshal(raw, &seq)
		return s.conn.write(resultFrame{Type: frameResult, Seq: seq.Seq})
	}

	prevented := false
	if el, ok := s.doc.ElementByID(ev.Target); ok {
		if ev.Text != nil {
			el.SyncText(*ev.Text)
		}
		prevented = s.doc.Dispatch(&inline.Event{
			Type:     inline.EventType(ev.Kind),
			Target:   el,
			Key:      ev.Key,
			ShiftKey: ev.ShiftKey,
		})
	} else {
		s.logger.Debug("event target unknown", zap.String("target", observability.SanitizeNodeID(ev.Target)))
	}

	if err := s.flush(); err != nil {
		return err
	}
	return s.conn.write(resultFrame{Type: frameResult, Seq: ev.Seq, Prevented: prevented})
}

// handleParent applies a message the parent editor posted into the frame. It reports
// done when the page must reload.
func (s *relaySession) handleParent(raw []byte) (bool, error) {
	var pf parentFrame
	if err := decodeFrame(raw, &pf); err != nil {
		s.logger.Debug("parent frame rejected", zap.Error(err))
		return false, nil
	}
	if !s.controller.Bridge().AcceptsOrigin(pf.Origin) {
		s.logger.Warn("parent message from disallowed origin dropped",
			zap.String("origin", observability.SanitizeOrigin(pf.Origin)))
		return false, nil
	}

	var msg templateSync
	if err := decodeFrame(pf.Data, &msg); err != nil {
		s.logger.Debug("parent message ignored", zap.Error(err))
		return false, nil
	}
	if msg.VendorID != "" && msg.VendorID != s.vendorID {
		s.logger.Warn("template sync for another vendor dropped", zap.String("target_vendor_id", msg.VendorID))
		return false, nil
	}

	if err := s.handler.opts.SyncSigner.Verify(s.vendorID, msg.Token); err != nil {
		s.logger.Warn("template sync refused", zap.Error(err))
		return false, s.conn.write(errorFrame{Type: frameError, Code: "sync_refused", Message: "template sync is not authorised"})
	}

	rev, err := s.handler.store.Put(s.vendorID, msg.Document)
	if err != nil {
		s.logger.Warn("template sync rejected", zap.Error(err))
		return false, nil
	}
	s.logger.Info("template synced", zap.Uint64("rev", rev))

	s.teardown()
	if err := s.flush(); err != nil {
		return false, err
	}
	return true, s.conn.write(reloadFrame{Type: frameReload, Rev: rev})
}

// flush writes pending DOM ops, then pending parent messages.
func (s *relaySession) flush() error {
	if ops := s.doc.DrainOps(); len(ops) > 0 {
		if err := s.conn.write(opsFrame{Type: frameOps, Ops: ops}); err != nil {
			return err
		}
	}
	for _, p := range s.outbox.drain() {
		if err := s.conn.write(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *relaySession) teardown() {
	if s.unmount != nil {
		s.unmount()
	}
}

// outbox queues outbound parent messages until the current event is handled.
type outbox struct {
	frames []postFrame
}

func (o *outbox) PostMessage(targetOrigin string, message any) error {
	o.frames = append(o.frames, postFrame{Type: framePost, TargetOrigin: targetOrigin, Message: message})
	return nil
}

func (o *outbox) drain() []postFrame {
	frames := o.frames
	o.frames = nil
	return frames
}
