// Package preview serves rendered storefront pages and the WebSocket relay that runs the
// inline editing bridge against a server-side copy of each page.
package preview

import (
	_ "embed"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"finitefield.org/storefront/internal/platform/httpx"
	"finitefield.org/storefront/internal/platform/observability"
	"finitefield.org/storefront/internal/platform/requestctx"
	"finitefield.org/storefront/internal/storefront"
)

//go:embed assets/inline-bridge.js
var bridgeScript []byte

// Options configures a Handler.
type Options struct {
	// AllowedOrigins is the parent editor allow-list. A "*" entry disables the check.
	AllowedOrigins  []string
	CommitOnUnmount bool
	PingInterval    time.Duration
	MaxFrameBytes   int64
	Metrics         *observability.BridgeMetrics
	// SyncSigner verifies template-sync credentials. Nil refuses every sync.
	SyncSigner      *SyncSigner
	// NewConnectionID overrides relay connection ids. Defaults to ULIDs.
	NewConnectionID func() string
}

// Handler serves preview pages, the template JSON and the relay socket.
type Handler struct {
	store    *storefront.Store
	renderer *Renderer
	opts     Options
	upgrader websocket.Upgrader
}

// NewHandler builds a handler over store using the embedded theme.
func NewHandler(store *storefront.Store, opts Options) (*Handler, error) {
	if store == nil {
		return nil, errors.New("preview: store is required")
	}
	theme, err := NewTheme()
	if err != nil {
		return nil, err
	}
	if opts.NewConnectionID == nil {
		opts.NewConnectionID = func() string { return ulid.Make().String() }
	}
	return &Handler{
		store:    store,
		renderer: NewRenderer(theme),
		opts:     opts,
		// The relay is opened by the preview page itself, so the default same-origin check applies.
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
	}, nil
}

// Routes registers the preview routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get(ScriptPath, h.serveScript)
	r.Route("/stores/{vendorID}", func(r chi.Router) {
		r.Get("/", h.servePage)
		r.Get("/template", h.serveTemplate)
		r.Get("/{page}", h.servePage)
		r.Get("/{page}/bridge", h.serveBridge)
	})
}

func (h *Handler) serveScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(bridgeScript)
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, page, herr := h.target(r)
	if herr != nil {
		httpx.WriteError(ctx, w, *herr)
		return
	}
	doc, err := h.renderer.Document(snap, page, pageURL(r, snap.VendorID, page))
	if err != nil {
		requestctx.Logger(ctx).Error("render page failed", zap.String("vendor_id", snap.VendorID), zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("render_failed", "page could not be rendered", http.StatusInternalServerError))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Storefront-Revision", strconv.FormatUint(snap.Revision, 10))
	if err := doc.Render(w); err != nil {
		requestctx.Logger(ctx).Warn("write page failed", zap.Error(err))
	}
}

func (h *Handler) serveTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, herr := h.snapshot(chi.URLParam(r, "vendorID"))
	if herr != nil {
		httpx.WriteError(ctx, w, *herr)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"vendorId": snap.VendorID,
		"revision": snap.Revision,
		"document": snap.Document,
	})
}

// target resolves the vendor snapshot and page type named by the route.
func (h *Handler) target(r *http.Request) (storefront.Snapshot, storefront.PageType, *httpx.Error) {
	snap, herr := h.snapshot(chi.URLParam(r, "vendorID"))
	if herr != nil {
		return storefront.Snapshot{}, "", herr
	}
	page, ok := storefront.PageTypeFromSlug(chi.URLParam(r, "page"))
	if !ok {
		e := httpx.NewError("unsupported_page", storefront.ErrUnsupportedPage.Error(), http.StatusNotFound)
		return storefront.Snapshot{}, "", &e
	}
	return snap, page, nil
}

func (h *Handler) snapshot(vendorID string) (storefront.Snapshot, *httpx.Error) {
	if err := storefront.ValidateVendorID(vendorID); err != nil {
		e := httpx.NewError("invalid_vendor_id", "vendor id is invalid", http.StatusBadRequest)
		return storefront.Snapshot{}, &e
	}
	snap, err := h.store.Get(vendorID)
	if err != nil {
		e := httpx.NewError("vendor_not_found", "vendor not found", http.StatusNotFound)
		return storefront.Snapshot{}, &e
	}
	return snap, nil
}
