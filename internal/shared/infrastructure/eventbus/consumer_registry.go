package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/quadra/pkg/observability"
)

// Dispatch outcomes, recorded as the status tag of quadra.events.consumed.
const (
	dispatchHandled = "handled"
	dispatchFailed  = "failed"
	dispatchIgnored = "ignored"
)

// ConsumerRegistry routes task events to the consumers subscribed to their
// routing key. The in-process bus and the RabbitMQ consumer both deliver
// through it.
type ConsumerRegistry struct {
	mu        sync.RWMutex
	consumers map[string][]EventConsumer
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewConsumerRegistry creates an empty registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{
		consumers: make(map[string][]EventConsumer),
		logger:    logger,
		metrics:   observability.NoopMetrics{},
	}
}

// WithMetrics counts every dispatched event on m.
func (r *ConsumerRegistry) WithMetrics(m observability.Metrics) *ConsumerRegistry {
	r.metrics = m
	return r
}

// Register subscribes consumer to each of its routing keys.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range consumer.EventTypes() {
		r.consumers[key] = append(r.consumers[key], consumer)
		r.logger.Debug("consumer subscribed", "routing_key", key, "consumer", fmt.Sprintf("%T", consumer))
	}
}

// Consumers returns the consumers subscribed to routingKey.
func (r *ConsumerRegistry) Consumers(routingKey string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]EventConsumer(nil), r.consumers[routingKey]...)
}

// RoutingKeys returns every subscribed routing key in order. The RabbitMQ
// consumer binds its queue to exactly these.
func (r *ConsumerRegistry) RoutingKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.consumers))
	for key := range r.consumers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Dispatch hands event to every consumer of its routing key. Consumers run
// under the event's correlation id and all of them run even when one
// fails; their errors are joined.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	ctx = eventContext(ctx, event)
	consumers := r.Consumers(event.RoutingKey)
	if len(consumers) == 0 {
		r.record(event, dispatchIgnored)
		r.logger.DebugContext(ctx, "no consumers for event", "routing_key", event.RoutingKey)
		return nil
	}

	start := time.Now()
	var errs []error
	for _, consumer := range consumers {
		if err := consumer.Handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", consumer, err))
		}
	}
	err := errors.Join(errs...)

	if err != nil {
		r.record(event, dispatchFailed)
		r.logger.ErrorContext(ctx, "event dispatch failed",
			"routing_key", event.RoutingKey,
			"task_id", event.AggregateID,
			observability.DurationKey, time.Since(start).Milliseconds(),
			observability.ErrorKey, err,
		)
		return err
	}

	r.record(event, dispatchHandled)
	r.logger.DebugContext(ctx, "event dispatched",
		"routing_key", event.RoutingKey,
		"task_id", event.AggregateID,
		"consumers", len(consumers),
		observability.DurationKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (r *ConsumerRegistry) record(event *ConsumedEvent, outcome string) {
	r.metrics.Counter(observability.MetricEventsConsumed, 1,
		observability.T("routing_key", event.RoutingKey),
		observability.T(observability.StatusKey, outcome),
	)
}

// eventContext scopes ctx to one event: the event id becomes the request
// id and the command's correlation id carries over. Events without one keep
// the correlation id already on ctx.
func eventContext(ctx context.Context, event *ConsumedEvent) context.Context {
	correlationID := event.Metadata.CorrelationID
	if correlationID == "" {
		correlationID = observability.CorrelationIDFromContext(ctx)
	}
	return observability.NewRequestContext(ctx, event.EventID.String(), correlationID)
}
