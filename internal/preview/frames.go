package preview

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"finitefield.org/storefront/internal/dom"
	"finitefield.org/storefront/internal/storefront"
)

// Frame types on the relay socket.
const (
	frameHello  = "hello"
	frameEvent  = "event"
	frameParent = "parent"

	frameReady  = "ready"
	frameResult = "result"
	frameOps    = "ops"
	framePost   = "post"
	frameReload = "reload"
	frameError  = "error"
)

var frameValidator = validator.New(validator.WithRequiredStructEnabled())

type envelope struct {
	Type string `json:"type" validate:"required,oneof=hello event parent"`
}

// helloFrame opens a relay session. Rev is the revision the page was rendered at.
type helloFrame struct {
	Embedded     bool   `json:"embedded"`
	ParentOrigin string `json:"parentOrigin" validate:"max=256"`
	Rev          uint64 `json:"rev"`
}

// eventFrame is one captured DOM event. Text carries the target's current text for
// input events so the server copy follows what the user typed.
type eventFrame struct {
	Seq      uint64  `json:"seq" validate:"required"`
	Kind     string  `json:"kind" validate:"required,oneof=click input keydown focusin"`
	Target   string  `json:"target" validate:"required,max=32"`
	Key      string  `json:"key" validate:"max=32"`
	ShiftKey bool    `json:"shiftKey"`
	Text     *string `json:"text" validate:"omitempty,max=65536"`
}

// parentFrame forwards a message the parent editor posted into the frame.
type parentFrame struct {
	Origin string          `json:"origin" validate:"required,max=256"`
	Data   json.RawMessage `json:"data" validate:"required"`
}

// templateSync is the parent's message replacing the vendor document. Token is the
// vendor-bound credential issued by a SyncSigner.
type templateSync struct {
	Type     string              `json:"type" validate:"required,eq=template-sync"`
	VendorID string              `json:"vendorId"`
	Token    string              `json:"token" validate:"max=256"`
	Document storefront.Document `json:"document" validate:"required"`
}

type readyFrame struct {
	Type         string `json:"type"`
	Active       bool   `json:"active"`
	ConnectionID string `json:"connectionId"`
	Rev          uint64 `json:"rev"`
}

type resultFrame struct {
	Type      string `json:"type"`
	Seq       uint64 `json:"seq"`
	Prevented bool   `json:"prevented"`
}

type opsFrame struct {
	Type string   `json:"type"`
	Ops  []dom.Op `json:"ops"`
}

type postFrame struct {
	Type         string `json:"type"`
	TargetOrigin string `json:"targetOrigin"`
	Message      any    `json:"message"`
}

type reloadFrame struct {
	Type string `json:"type"`
	Rev  uint64 `json:"rev"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decodeFrame unmarshals raw into dst and validates it.
func decodeFrame(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("preview: decode frame: %w", err)
	}
	if err := frameValidator.Struct(dst); err != nil {
		return fmt.Errorf("preview: invalid frame: %w", err)
	}
	return nil
}
