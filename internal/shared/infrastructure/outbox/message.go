package outbox

import (
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/quadra/internal/shared/domain"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// Message is a domain event waiting in the outbox to be relayed.
type Message struct {
	ID               int64
	EventID          uuid.UUID
	AggregateType    string
	AggregateID      int64
	EventType        string
	RoutingKey       string
	Payload          json.RawMessage
	Metadata         json.RawMessage
	CreatedAt        time.Time
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage creates an outbox message from a domain event. The payload is
// the full bus envelope, so the relay can publish it as-is.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	payload, err := eventbus.EncodeEvent(event)
	if err != nil {
		return nil, err
	}

	metadata, err := json.Marshal(event.Metadata())
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		EventType:     event.RoutingKey(),
		RoutingKey:    event.RoutingKey(),
		Payload:       payload,
		Metadata:      metadata,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

// NewMessages converts a batch of domain events.
func NewMessages(events []domain.DomainEvent) ([]*Message, error) {
	msgs := make([]*Message, 0, len(events))
	for _, event := range events {
		msg, err := NewMessage(event)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// IsPublished returns true if the message has been published.
func (m *Message) IsPublished() bool {
	return m.PublishedAt != nil
}

// IsDead returns true if the message has been dead-lettered.
func (m *Message) IsDead() bool {
	return m.DeadLetteredAt != nil
}

// IsDue reports whether an unpublished, live message may be attempted at now.
func (m *Message) IsDue(now time.Time) bool {
	if m.IsPublished() || m.IsDead() {
		return false
	}
	return m.NextRetryAt == nil || !m.NextRetryAt.After(now)
}

// CanRetry returns true if the message can be retried.
func (m *Message) CanRetry(maxRetries int) bool {
	return m.RetryCount < maxRetries
}
