package preview_test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"finitefield.org/storefront/internal/preview"
)

func TestPageRendersThemeWithNodeIDs(t *testing.T) {
	srv := newServer(t, newStore(t), preview.Options{})

	resp, doc := getPage(t, srv, "/stores/acme/home")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "1", resp.Header.Get("X-Storefront-Revision"))

	require.Equal(t, "Acme Goods", doc.Find("title").Text())
	require.Equal(t, "Welcome to our store", doc.Find("h1").Text())
	require.Equal(t, "/img/hero.jpg", doc.Find("img.hero__image").AttrOr("src", ""))
	require.Equal(t, "components.home_page.features.0.title", doc.Find(".feature h3").First().AttrOr("data-template-path", ""))
	require.Equal(t, "components.home_page.features.1", doc.Find(".feature").Eq(1).AttrOr("data-template-component", ""))
	require.Equal(t, 2, doc.Find(".feature").Length())

	ids := map[string]bool{}
	doc.Find("[data-node-id]").Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("data-node-id", "")
		require.False(t, ids[id], "duplicate node id %s", id)
		ids[id] = true
	})
	require.Equal(t, doc.Find("*").Length(), len(ids), "every element is stamped")

	script := doc.Find("script[data-bridge-url]")
	require.Equal(t, preview.ScriptPath, script.AttrOr("src", ""))
	require.Equal(t, "/stores/acme/home/bridge", script.AttrOr("data-bridge-url", ""))
	require.Equal(t, "1", script.AttrOr("data-revision", ""))
}

func TestPageNodeIDsAreStableAcrossRenders(t *testing.T) {
	srv := newServer(t, newStore(t), preview.Options{})
	_, first := getPage(t, srv, "/stores/acme/home")
	_, second := getPage(t, srv, "/stores/acme/home")
	require.Equal(t, nodeID(t, first, "h1"), nodeID(t, second, "h1"))
	require.Equal(t, nodeID(t, first, ".newsletter button"), nodeID(t, second, ".newsletter button"))
}

func TestPageSanitizesAnnouncement(t *testing.T) {
	srv := newServer(t, newStore(t), preview.Options{})
	_, doc := getPage(t, srv, "/stores/acme/")

	aside := doc.Find("aside.announcement")
	require.Equal(t, 1, aside.Length())
	require.Zero(t, aside.Find("script").Length())
	require.Contains(t, aside.Text(), "Free returns")
	rel := aside.Find("a").AttrOr("rel", "")
	require.Contains(t, rel, "nofollow")
}

func TestPageSlugsAndNumbers(t *testing.T) {
	srv := newServer(t, newStore(t), preview.Options{})

	_, about := getPage(t, srv, "/stores/acme/about-us")
	require.Equal(t, "About | Acme Goods", about.Find("title").Text())
	require.Equal(t, "1200", strings.TrimSpace(about.Find(".stats dd").Text()))

	_, contact := getPage(t, srv, "/stores/acme/contact")
	require.Equal(t, "mailto:hello@acme.example", contact.Find(".details a").AttrOr("href", ""))
}

func TestPageErrors(t *testing.T) {
	srv := newServer(t, newStore(t), preview.Options{})
	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/stores/unknown/home", http.StatusNotFound, "vendor_not_found"},
		{"/stores/Bad%20Id/home", http.StatusBadRequest, "invalid_vendor_id"},
		{"/stores/acme/checkout", http.StatusNotFound, "unsupported_page"},
		{"/stores/acme/checkout/bridge", http.StatusNotFound, "unsupported_page"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tc.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tc.status, resp.StatusCode)
			var body struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.Equal(t, tc.code, body.Error)
		})
	}
}

func TestTemplateJSON(t *testing.T) {
	srv := newServer(t, newStore(t), preview.Options{})
	resp, err := http.Get(srv.URL + "/stores/acme/template")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		VendorID string         `json:"vendorId"`
		Revision uint64         `json:"revision"`
		Document map[string]any `json:"document"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "acme", body.VendorID)
	require.EqualValues(t, 1, body.Revision)
	require.Contains(t, body.Document, "components")
}

func TestScriptIsServed(t *testing.T) {
	srv := newServer(t, newStore(t), preview.Options{})
	resp, err := http.Get(srv.URL + preview.ScriptPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Contains(t, resp.Header.Get("Content-Type"), "javascript")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(raw), "data-node-id")
	require.Contains(t, string(raw), `ws.addEventListener("close", shutdown)`)
	require.Contains(t, string(raw), `ws.addEventListener("error", shutdown)`)
}
