package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the relay's instruments. A nil *Metrics is valid and records
// nothing, which keeps tests free of exporter setup.
type Metrics struct {
	messagesRelayed  metric.Int64Counter
	repliesGenerated metric.Int64Counter
	repliesFailed    metric.Int64Counter
	clientsConnected metric.Int64UpDownCounter
}

// NewMetrics creates the relay instruments on the global meter provider
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("ai-dev-platform/relay")

	messagesRelayed, err := meter.Int64Counter("relay.messages.broadcast",
		metric.WithDescription("Chat messages broadcast to all connected clients"))
	if err != nil {
		return nil, err
	}

	repliesGenerated, err := meter.Int64Counter("relay.replies.generated",
		metric.WithDescription("Assistant replies generated successfully"))
	if err != nil {
		return nil, err
	}

	repliesFailed, err := meter.Int64Counter("relay.replies.failed",
		metric.WithDescription("Assistant reply generations that failed"))
	if err != nil {
		return nil, err
	}

	clientsConnected, err := meter.Int64UpDownCounter("relay.clients.connected",
		metric.WithDescription("Currently connected websocket clients"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		messagesRelayed:  messagesRelayed,
		repliesGenerated: repliesGenerated,
		repliesFailed:    repliesFailed,
		clientsConnected: clientsConnected,
	}, nil
}

// MessageRelayed records one broadcast message
func (m *Metrics) MessageRelayed(ctx context.Context) {
	if m == nil {
		return
	}
	m.messagesRelayed.Add(ctx, 1)
}

// ReplyGenerated records one successful assistant reply
func (m *Metrics) ReplyGenerated(ctx context.Context) {
	if m == nil {
		return
	}
	m.repliesGenerated.Add(ctx, 1)
}

// ReplyFailed records one failed assistant reply
func (m *Metrics) ReplyFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.repliesFailed.Add(ctx, 1)
}

// ClientConnected records a websocket client connecting (+1) or leaving (-1)
func (m *Metrics) ClientConnected(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.clientsConnected.Add(ctx, delta)
}
