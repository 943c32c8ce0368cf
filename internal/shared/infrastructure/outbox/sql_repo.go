package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const selectColumns = `id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
       payload, metadata, created_at, published_at, next_retry_at, retry_count,
       last_error, dead_lettered_at, dead_letter_reason`

// SQLRepository implements Repository on a SQLite or PostgreSQL connection.
type SQLRepository struct {
	conn database.Connection
}

// NewSQLRepository creates a new SQL outbox repository.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn}
}

func (r *SQLRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLRepository) ts(t time.Time) any {
	return database.TimeArg(r.conn.Driver(), t)
}

// SaveBatch inserts the messages using the transaction in ctx when present.
func (r *SQLRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	exec := r.exec(ctx)
	for _, msg := range msgs {
		metadata := string(msg.Metadata)
		if metadata == "" {
			metadata = "{}"
		}
		err := exec.QueryRow(ctx, `
			INSERT INTO outbox (event_id, aggregate_type, aggregate_id, event_type, routing_key, payload, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			msg.EventID.String(),
			msg.AggregateType,
			msg.AggregateID,
			msg.EventType,
			msg.RoutingKey,
			string(msg.Payload),
			metadata,
			r.ts(msg.CreatedAt),
		).Scan(&msg.ID)
		if err != nil {
			return fmt.Errorf("insert outbox message %s: %w", msg.EventID, err)
		}
	}
	return nil
}

func (r *SQLRepository) GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error) {
	rows, err := r.exec(ctx).Query(ctx, `
		SELECT `+selectColumns+`
		FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY id
		LIMIT ?`, r.ts(now), limit)
	if err != nil {
		return nil, fmt.Errorf("query unpublished outbox messages: %w", err)
	}

	return database.CollectRows(rows, scanMessage)
}

func (r *SQLRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	_, err := r.exec(ctx).Exec(ctx,
		`UPDATE outbox SET published_at = ?, dead_lettered_at = NULL WHERE id = ?`,
		r.ts(at), id)
	return err
}

func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.exec(ctx).Exec(ctx, `
		UPDATE outbox
		SET retry_count = retry_count + 1,
		    last_error = ?,
		    next_retry_at = ?
		WHERE id = ?`, errMsg, r.ts(nextRetryAt), id)
	return err
}

func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string, at time.Time) error {
	_, err := r.exec(ctx).Exec(ctx, `
		UPDATE outbox
		SET dead_lettered_at = ?,
		    dead_letter_reason = ?
		WHERE id = ?`, r.ts(at), reason, id)
	return err
}

func (r *SQLRepository) DeleteOld(ctx context.Context, publishedBefore time.Time) (int64, error) {
	result, err := r.exec(ctx).Exec(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`,
		r.ts(publishedBefore))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanMessage(rows database.Rows) (*Message, error) {
	var (
		msg                         Message
		eventID, payload, metadata  string
		createdAt, publishedAt      database.NullTime
		nextRetryAt, deadLetteredAt database.NullTime
		lastError, deadLetterReason sql.NullString
	)
	err := rows.Scan(
		&msg.ID,
		&eventID,
		&msg.AggregateType,
		&msg.AggregateID,
		&msg.EventType,
		&msg.RoutingKey,
		&payload,
		&metadata,
		&createdAt,
		&publishedAt,
		&nextRetryAt,
		&msg.RetryCount,
		&lastError,
		&deadLetteredAt,
		&deadLetterReason,
	)
	if err != nil {
		return nil, err
	}

	if msg.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, fmt.Errorf("outbox message %d: %w", msg.ID, err)
	}
	msg.Payload = []byte(payload)
	msg.Metadata = []byte(metadata)
	msg.CreatedAt = createdAt.Time
	msg.PublishedAt = publishedAt.Ptr()
	msg.NextRetryAt = nextRetryAt.Ptr()
	msg.DeadLetteredAt = deadLetteredAt.Ptr()
	msg.LastError = nullStringPtr(lastError)
	msg.DeadLetterReason = nullStringPtr(deadLetterReason)

	return &msg, nil
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
