package inline_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/storefront/internal/inline"
	"finitefield.org/storefront/internal/storefront"
)

func framedHome() inline.Embedding {
	return inline.Embedding{
		Framed:       true,
		ParentOrigin: "https://Editor.example.com",
		VendorID:     "acme",
		Page:         storefront.PageHome,
	}
}

func TestBridgeActivation(t *testing.T) {
	allowed := []string{"https://editor.example.com"}
	box := &postbox{}

	require.True(t, inline.NewBridge(box, framedHome(), allowed, nil, nil).Active())

	notFramed := framedHome()
	notFramed.Framed = false
	require.False(t, inline.NewBridge(box, notFramed, allowed, nil, nil).Active())

	unsupported := framedHome()
	unsupported.Page = storefront.PageType("checkout")
	require.False(t, inline.NewBridge(box, unsupported, allowed, nil, nil).Active())

	foreign := framedHome()
	foreign.ParentOrigin = "https://evil.example.net"
	require.False(t, inline.NewBridge(box, foreign, allowed, nil, nil).Active())

	require.False(t, inline.NewBridge(box, framedHome(), nil, nil, nil).Active(), "an empty allow-list never activates")
	require.False(t, inline.NewBridge(nil, framedHome(), allowed, nil, nil).Active())
}

func TestBridgeMessageShapes(t *testing.T) {
	box := &postbox{}
	b := inline.NewBridge(box, framedHome(), []string{"https://editor.example.com/"}, nil, nil)

	b.Notify(inline.NotifyInlineUpdate, inline.Payload{Path: headerPath, Value: "Welcome to our shop"})
	b.Notify(inline.NotifyEditorSelect, inline.Payload{SectionID: "hero"})
	b.Notify(inline.NotifyEditorSelect, inline.Payload{})
	b.Notify(inline.NotifyInlineUpdate, inline.Payload{Value: "no path"})

	require.Len(t, box.messages, 2)
	for _, m := range box.messages {
		require.Equal(t, "https://editor.example.com", m.origin)
	}

	raw, err := json.Marshal(box.messages[0].message)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"template-inline-update","path":["components","home_page","header_text"],"value":"Welcome to our shop","vendorId":"acme"}`, string(raw))

	raw, err = json.Marshal(box.messages[1].message)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"template-editor-select","sectionId":"hero","vendorId":"acme"}`, string(raw))
}

func TestBridgeWildcardOrigin(t *testing.T) {
	box := &postbox{}
	embed := framedHome()
	embed.ParentOrigin = ""
	b := inline.NewBridge(box, embed, []string{inline.AnyOrigin}, nil, nil)

	require.True(t, b.Active())
	require.Equal(t, "*", b.TargetOrigin())
	require.True(t, b.AcceptsOrigin("https://anything.example"))

	b.Notify(inline.NotifyEditorSelect, inline.Payload{SectionID: "hero", ComponentID: "hero-banner"})
	require.Equal(t, "*", box.messages[0].origin)
	require.Equal(t, "hero-banner", box.selections()[0].ComponentID)
}

func TestBridgeAcceptsOnlyParentOrigin(t *testing.T) {
	b := inline.NewBridge(&postbox{}, framedHome(), []string{"https://editor.example.com"}, nil, nil)
	require.True(t, b.AcceptsOrigin("https://editor.example.com"))
	require.True(t, b.AcceptsOrigin("https://EDITOR.example.com/path"))
	require.False(t, b.AcceptsOrigin("https://editor.example.com:8443"))
	require.False(t, b.AcceptsOrigin("null"))

	var inactive *inline.Bridge
	require.False(t, inactive.AcceptsOrigin("https://editor.example.com"))
	inactive.Notify(inline.NotifyEditorSelect, inline.Payload{SectionID: "hero"})
}

func TestBridgeSwallowsPostErrors(t *testing.T) {
	box := &postbox{err: errors.New("closed")}
	b := inline.NewBridge(box, framedHome(), []string{"https://editor.example.com"}, nil, nil)
	require.NotPanics(t, func() {
		b.Notify(inline.NotifyInlineUpdate, inline.Payload{Path: headerPath, Value: "x"})
	})
	require.Empty(t, box.messages)
}
