package observability

import (
	"strings"
	"unicode"
)

// Rune limits for client-controlled values written to logs.
const (
	routeLimit  = 180
	methodLimit = 10
	originLimit = 120
	nodeIDLimit = 32
)

// clean drops control characters other than tab and keeps at most limit runes.
func clean(value string, limit int) string {
	var b strings.Builder
	kept := 0
	for _, r := range value {
		if kept == limit {
			break
		}
		if unicode.IsControl(r) && r != '\t' {
			continue
		}
		b.WriteRune(r)
		kept++
	}
	return b.String()
}

// SanitizeRoute cleans a request path or route pattern. Empty routes log as "/".
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return clean(route, routeLimit)
}

// SanitizeMethod cleans an HTTP method.
func SanitizeMethod(method string) string {
	return clean(method, methodLimit)
}

// SanitizeOrigin cleans an origin reported by an embedding frame or a parent message.
func SanitizeOrigin(origin string) string {
	return clean(origin, originLimit)
}

// SanitizeNodeID cleans an event target id sent by the browser shim.
func SanitizeNodeID(id string) string {
	return clean(id, nodeIDLimit)
}
