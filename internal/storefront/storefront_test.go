package storefront

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const homeYAML = `
components:
  home_page:
    header_text: Welcome to our store
    stats:
      - label: Orders shipped
        value: 1200
`

func TestDocumentLookup(t *testing.T) {
	doc, err := DecodeDocument([]byte(homeYAML))
	require.NoError(t, err)

	v, ok := doc.Lookup([]string{"components", "home_page", "header_text"})
	require.True(t, ok)
	require.Equal(t, "Welcome to our store", v)

	v, ok = doc.Lookup([]string{"components", "home_page", "stats", "0", "value"})
	require.True(t, ok)
	require.EqualValues(t, 1200, v)

	_, ok = doc.Lookup([]string{"components", "home_page", "stats", "3", "value"})
	require.False(t, ok, "out of range index is absence")
	_, ok = doc.Lookup([]string{"components", "home_page", "header_text", "nested"})
	require.False(t, ok, "descending into a leaf is absence")

	page, ok := doc.Page(PageHome)
	require.True(t, ok)
	require.Contains(t, page, "header_text")
	_, ok = doc.Page(PageAbout)
	require.False(t, ok)
}

func TestPageTypeFromSlug(t *testing.T) {
	cases := map[string]PageType{
		"":           PageHome,
		"home":       PageHome,
		"About-Us":   PageAbout,
		"/contact/":  PageContact,
		"contact-us": PageContact,
	}
	for slug, want := range cases {
		got, ok := PageTypeFromSlug(slug)
		require.True(t, ok, slug)
		require.Equal(t, want, got, slug)
		require.True(t, got.Supported())
	}
	_, ok := PageTypeFromSlug("checkout")
	require.False(t, ok)
	require.False(t, PageType("checkout").Supported())
	require.Equal(t, "about_page", PageAbout.ComponentKey())
}

func TestStorePutBumpsRevisionAndCopies(t *testing.T) {
	store := NewStore()
	doc := Document{"components": map[string]any{"home_page": map[string]any{"header_text": "Hi"}}}

	rev, err := store.Put("acme", doc)
	require.NoError(t, err)
	require.EqualValues(t, 1, rev)

	doc["components"].(map[string]any)["home_page"].(map[string]any)["header_text"] = "mutated"

	snap, err := store.Get("acme")
	require.NoError(t, err)
	require.EqualValues(t, 1, snap.Revision)
	v, _ := snap.Document.Lookup([]string{"components", "home_page", "header_text"})
	require.Equal(t, "Hi", v, "store must not alias caller maps")

	rev, err = store.Put("acme", doc)
	require.NoError(t, err)
	require.EqualValues(t, 2, rev)
	require.EqualValues(t, 2, store.Revision("acme"))
	require.Equal(t, []string{"acme"}, store.Vendors())
}

func TestStoreErrors(t *testing.T) {
	store := NewStore()
	_, err := store.Get("missing")
	require.True(t, errors.Is(err, ErrVendorNotFound))

	for _, id := range []string{"", "Acme", "../etc", "acme store"} {
		_, err := store.Put(id, Document{})
		require.ErrorIs(t, err, ErrInvalidVendorID, id)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.yaml"), []byte(homeYAML), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blue-bottle.json"), []byte(`{"components":{"about_page":{"hero":{"title":"Our story"}}}}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o600))

	store := NewStore()
	n, err := LoadDir(context.Background(), store, dir, nil)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []string{"acme", "blue-bottle"}, store.Vendors())

	snap, err := store.Get("blue-bottle")
	require.NoError(t, err)
	v, ok := snap.Document.Lookup([]string{"components", "about_page", "hero", "title"})
	require.True(t, ok)
	require.Equal(t, "Our story", v)
}

func TestLoadDirMissingIsNotAnError(t *testing.T) {
	n, err := LoadDir(context.Background(), NewStore(), filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, err)
	require.Zero(t, n)
}
