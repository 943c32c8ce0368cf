package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/quadra/internal/shared/domain"
	"github.com/google/uuid"
)

// EventConsumer handles specific event types.
type EventConsumer interface {
	// EventTypes returns the routing keys this consumer handles,
	// e.g. ["matrix.task.created", "matrix.task.deleted"].
	EventTypes() []string

	// Handle processes the event.
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent is the envelope that travels over the bus.
type ConsumedEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   int64           `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      EventMetadata   `json:"metadata"`
}

// EventMetadata carries tracing ids alongside the event.
type EventMetadata struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	CausationID   string `json:"causation_id,omitempty"`
}

// EncodeEvent wraps a domain event in its bus envelope.
func EncodeEvent(event domain.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event.RoutingKey(), err)
	}

	md := event.Metadata()
	envelope := ConsumedEvent{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
	}
	if md.CorrelationID != uuid.Nil {
		envelope.Metadata.CorrelationID = md.CorrelationID.String()
	}
	if md.CausationID != uuid.Nil {
		envelope.Metadata.CausationID = md.CausationID.String()
	}

	return json.Marshal(envelope)
}

// DecodeEvent parses an envelope. A missing routing key falls back to the
// one the transport delivered it under.
func DecodeEvent(body []byte, routingKey string) (*ConsumedEvent, error) {
	event := &ConsumedEvent{}
	if err := json.Unmarshal(body, event); err != nil {
		return nil, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}
	return event, nil
}

// Consumer defines the interface for consuming events from a message broker.
type Consumer interface {
	// Start begins consuming messages. This is a blocking call.
	Start(ctx context.Context) error

	// RegisterConsumer registers an event consumer.
	RegisterConsumer(consumer EventConsumer)

	// Close closes the consumer connection.
	Close() error
}
