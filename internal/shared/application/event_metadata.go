package application

import (
	"github.com/felixgeelhaar/quadra/internal/shared/domain"
	"github.com/google/uuid"
)

type metadataSetter interface {
	SetMetadata(metadata domain.EventMetadata)
}

// NewEventMetadata creates command-scoped metadata for domain events.
// A correlation id that is empty or not a UUID is replaced by a fresh one.
func NewEventMetadata(correlationID string) domain.EventMetadata {
	corrID, err := uuid.Parse(correlationID)
	if err != nil {
		corrID = uuid.New()
	}
	return domain.EventMetadata{
		CorrelationID: corrID,
		CausationID:   uuid.New(),
	}
}

// ApplyEventMetadata sets metadata on all events that support it.
func ApplyEventMetadata(events []domain.DomainEvent, metadata domain.EventMetadata) {
	for _, event := range events {
		if setter, ok := event.(metadataSetter); ok {
			setter.SetMetadata(metadata)
		}
	}
}
