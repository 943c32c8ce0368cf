package outbox

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository keeps the outbox in process memory. It pairs with the
// in-memory task store.
type InMemoryRepository struct {
	mu       sync.Mutex
	messages []*Message
	nextID   int64
}

// NewInMemoryRepository creates a new in-memory outbox repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1}
}

func (r *InMemoryRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, msg := range msgs {
		msg.ID = r.nextID
		r.nextID++
		stored := *msg
		r.messages = append(r.messages, &stored)
	}
	return nil
}

func (r *InMemoryRepository) GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*Message
	for _, msg := range r.messages {
		if len(result) >= limit {
			break
		}
		if msg.IsDue(now) {
			copied := *msg
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *InMemoryRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	return r.update(id, func(msg *Message) {
		msg.PublishedAt = &at
		msg.DeadLetteredAt = nil
	})
}

func (r *InMemoryRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	return r.update(id, func(msg *Message) {
		msg.RetryCount++
		msg.LastError = &errMsg
		msg.NextRetryAt = &nextRetryAt
	})
}

func (r *InMemoryRepository) MarkDead(ctx context.Context, id int64, reason string, at time.Time) error {
	return r.update(id, func(msg *Message) {
		msg.DeadLetteredAt = &at
		msg.DeadLetterReason = &reason
	})
}

func (r *InMemoryRepository) DeleteOld(ctx context.Context, publishedBefore time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.messages[:0]
	var deleted int64
	for _, msg := range r.messages {
		if msg.PublishedAt != nil && msg.PublishedAt.Before(publishedBefore) {
			deleted++
			continue
		}
		kept = append(kept, msg)
	}
	r.messages = kept
	return deleted, nil
}

// Len returns the number of stored messages.
func (r *InMemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

// Messages returns copies of every stored message in insertion order.
func (r *InMemoryRepository) Messages() []*Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Message, 0, len(r.messages))
	for _, msg := range r.messages {
		copied := *msg
		out = append(out, &copied)
	}
	return out
}

func (r *InMemoryRepository) update(id int64, fn func(*Message)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, msg := range r.messages {
		if msg.ID == id {
			fn(msg)
			return nil
		}
	}
	return nil
}
