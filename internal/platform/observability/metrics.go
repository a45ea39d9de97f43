package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const bridgeMeterName = "finitefield.org/storefront/inline"

// BridgeMetrics records inline-editing activity. A zero value is safe to use and records nothing.
type BridgeMetrics struct {
	updates    metric.Int64Counter
	selections metric.Int64Counter
	sessions   metric.Int64Counter
	dropped    metric.Int64Counter
}

// NewBridgeMetrics registers the inline-editing counters on the provided meter provider.
// A nil provider falls back to the global one.
func NewBridgeMetrics(provider metric.MeterProvider) (*BridgeMetrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(bridgeMeterName)

	updates, err := meter.Int64Counter("storefront.inline.updates",
		metric.WithDescription("Inline text updates reported to the parent editor"))
	if err != nil {
		return nil, err
	}
	selections, err := meter.Int64Counter("storefront.inline.selections",
		metric.WithDescription("Section selections reported to the parent editor"))
	if err != nil {
		return nil, err
	}
	sessions, err := meter.Int64Counter("storefront.inline.sessions",
		metric.WithDescription("Edit sessions started"))
	if err != nil {
		return nil, err
	}
	dropped, err := meter.Int64Counter("storefront.inline.dropped",
		metric.WithDescription("Outbound messages dropped by the parent bridge"))
	if err != nil {
		return nil, err
	}
	return &BridgeMetrics{updates: updates, selections: selections, sessions: sessions, dropped: dropped}, nil
}

func (m *BridgeMetrics) add(counter metric.Int64Counter, vendorID string) {
	if m == nil || counter == nil {
		return
	}
	counter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("vendor_id", vendorID)))
}

// InlineUpdate counts one template-inline-update message.
func (m *BridgeMetrics) InlineUpdate(vendorID string) {
	if m != nil {
		m.add(m.updates, vendorID)
	}
}

// Selection counts one template-editor-select message.
func (m *BridgeMetrics) Selection(vendorID string) {
	if m != nil {
		m.add(m.selections, vendorID)
	}
}

// SessionStarted counts one edit session.
func (m *BridgeMetrics) SessionStarted(vendorID string) {
	if m != nil {
		m.add(m.sessions, vendorID)
	}
}

// Dropped counts one message the bridge refused to deliver.
func (m *BridgeMetrics) Dropped(vendorID string) {
	if m != nil {
		m.add(m.dropped, vendorID)
	}
}
