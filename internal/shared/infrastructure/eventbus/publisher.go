package eventbus

import (
	"context"
	"errors"
	"log/slog"
)

// Publisher defines the interface for publishing events to a message broker.
type Publisher interface {
	// Publish sends an encoded event envelope under the given routing key.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close releases the broker connection.
	Close() error
}

// NoopPublisher drops every message. Used when no broker is configured and
// no in-process consumer needs the events.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that does nothing.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

// Publish logs the message but doesn't actually publish.
func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.logger.DebugContext(ctx, "noop publish",
		"routing_key", routingKey,
		"size", len(payload),
	)
	return nil
}

// Close is a no-op.
func (p *NoopPublisher) Close() error {
	return nil
}

// FanoutPublisher publishes every message to each wrapped publisher in turn.
// Every publisher is attempted; failures are joined.
type FanoutPublisher struct {
	publishers []Publisher
}

// NewFanoutPublisher creates a publisher that forwards to all of publishers.
func NewFanoutPublisher(publishers ...Publisher) *FanoutPublisher {
	return &FanoutPublisher{publishers: publishers}
}

// Publish forwards the message to every publisher.
func (p *FanoutPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	var errs []error
	for _, pub := range p.publishers {
		if err := pub.Publish(ctx, routingKey, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every wrapped publisher.
func (p *FanoutPublisher) Close() error {
	var errs []error
	for _, pub := range p.publishers {
		if err := pub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
