package eventbus

import (
	"context"
	"log/slog"
)

// InProcessEventBus is the Publisher the outbox relays to when no broker is
// configured, and alongside the broker otherwise. It decodes each envelope
// and dispatches it synchronously to the consumers of this process.
type InProcessEventBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
}

// NewInProcessEventBus creates a bus that delivers through registry.
func NewInProcessEventBus(registry *ConsumerRegistry, logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{registry: registry, logger: logger}
}

// RegisterConsumer subscribes consumer to its routing keys.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish reports success once the envelope is handed over. Decode and
// consumer failures are logged, never returned to the outbox.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := DecodeEvent(payload, routingKey)
	if err != nil {
		b.logger.ErrorContext(ctx, "dropping undecodable event",
			"routing_key", routingKey,
			"error", err,
		)
		return nil
	}

	_ = b.registry.Dispatch(ctx, event)
	return nil
}

// Close has nothing to release.
func (b *InProcessEventBus) Close() error {
	return nil
}
