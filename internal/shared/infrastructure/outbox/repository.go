package outbox

import (
	"context"
	"time"
)

// Repository defines the interface for outbox persistence.
// Timestamps come from the caller so every backend agrees on "now".
type Repository interface {
	// SaveBatch stores messages within the caller's unit of work.
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished returns live, unpublished messages due at now, oldest first.
	GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error)

	// MarkPublished marks a message as successfully published.
	MarkPublished(ctx context.Context, id int64, at time.Time) error

	// MarkFailed records a publish failure and schedules the next attempt.
	MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error

	// MarkDead moves a message to the dead letter state.
	MarkDead(ctx context.Context, id int64, reason string, at time.Time) error

	// DeleteOld removes messages published before the cutoff.
	DeleteOld(ctx context.Context, publishedBefore time.Time) (int64, error)
}
