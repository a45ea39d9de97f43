package preview_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"finitefield.org/storefront/internal/preview"
	"finitefield.org/storefront/internal/storefront"
)

const (
	editorOrigin = "https://editor.example.com"
	syncSecret   = "relay-test-sync-secret"
)

func syncToken(t *testing.T, vendorID string) string {
	t.Helper()
	token, err := preview.NewSyncSigner(syncSecret, time.Hour).Issue(vendorID)
	require.NoError(t, err)
	return token
}

func newStore(t *testing.T) *storefront.Store {
	t.Helper()
	store := storefront.NewStore()
	n, err := storefront.LoadDir(context.Background(), store, "testdata", nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	return store
}

func newServer(t *testing.T, store *storefront.Store, opts preview.Options) *httptest.Server {
	t.Helper()
	if opts.AllowedOrigins == nil {
		opts.AllowedOrigins = []string{editorOrigin}
	}
	if opts.NewConnectionID == nil {
		opts.NewConnectionID = func() string { return "conn-1" }
	}
	if opts.SyncSigner == nil {
		opts.SyncSigner = preview.NewSyncSigner(syncSecret, time.Hour)
	}
	h, err := preview.NewHandler(store, opts)
	require.NoError(t, err)
	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func getPage(t *testing.T, srv *httptest.Server, path string) (*http.Response, *goquery.Document) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return resp, doc
}

func nodeID(t *testing.T, doc *goquery.Document, selector string) string {
	t.Helper()
	id, ok := doc.Find(selector).First().Attr("data-node-id")
	require.True(t, ok, "no node id on %q", selector)
	return id
}

type frame map[string]any

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	c, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, c.WriteJSON(v))
}

func next(t *testing.T, c *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f frame
	require.NoError(t, c.ReadJSON(&f))
	return f
}

// untilResult collects frames up to and including the next result frame.
func untilResult(t *testing.T, c *websocket.Conn) []frame {
	t.Helper()
	var out []frame
	for {
		f := next(t, c)
		out = append(out, f)
		if f["type"] == "result" {
			return out
		}
	}
}

func ofType(frames []frame, typ string) []frame {
	var out []frame
	for _, f := range frames {
		if f["type"] == typ {
			out = append(out, f)
		}
	}
	return out
}

func messages(frames []frame, typ string) []map[string]any {
	var out []map[string]any
	for _, f := range ofType(frames, "post") {
		msg, _ := f["message"].(map[string]any)
		if msg["type"] == typ {
			out = append(out, msg)
		}
	}
	return out
}
