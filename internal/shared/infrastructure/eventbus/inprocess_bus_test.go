package eventbus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/quadra/internal/shared/domain"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/quadra/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleEvent struct {
	domain.BaseEvent
	Title string `json:"title"`
}

func newSampleEvent(id int64, routingKey string) *sampleEvent {
	e := &sampleEvent{
		BaseEvent: domain.NewBaseEvent(id, "Task", routingKey, time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)),
		Title:     "Plan sprint",
	}
	e.SetMetadata(domain.EventMetadata{CorrelationID: uuid.New(), CausationID: uuid.New()})
	return e
}

func TestEncodeDecodeEvent(t *testing.T) {
	event := newSampleEvent(12, "matrix.task.created")

	body, err := eventbus.EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := eventbus.DecodeEvent(body, "")
	require.NoError(t, err)

	assert.Equal(t, event.EventID(), decoded.EventID)
	assert.Equal(t, int64(12), decoded.AggregateID)
	assert.Equal(t, "Task", decoded.AggregateType)
	assert.Equal(t, "matrix.task.created", decoded.RoutingKey)
	assert.True(t, event.OccurredAt().Equal(decoded.OccurredAt))
	assert.JSONEq(t, `{"title":"Plan sprint"}`, string(decoded.Payload))
	assert.Equal(t, event.Metadata().CorrelationID.String(), decoded.Metadata.CorrelationID)
}

func TestDecodeEvent_RoutingKeyFallback(t *testing.T) {
	decoded, err := eventbus.DecodeEvent([]byte(`{"aggregate_id":1}`), "matrix.task.deleted")
	require.NoError(t, err)
	assert.Equal(t, "matrix.task.deleted", decoded.RoutingKey)

	_, err = eventbus.DecodeEvent([]byte(`not json`), "x")
	assert.Error(t, err)
}

func newBus(metrics observability.Metrics) *eventbus.InProcessEventBus {
	return eventbus.NewInProcessEventBus(eventbus.NewConsumerRegistry(discardLogger()).WithMetrics(metrics), discardLogger())
}

func TestInProcessEventBus_Publish(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	bus := newBus(metrics)
	consumer := &mockConsumer{eventTypes: []string{"matrix.task.created"}}
	bus.RegisterConsumer(consumer)

	event := newSampleEvent(1, "matrix.task.created")
	body, err := eventbus.EncodeEvent(event)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), event.RoutingKey(), body))

	require.Len(t, consumer.events, 1)
	assert.Equal(t, event.EventID(), consumer.events[0].EventID)
	assert.Equal(t, event.Metadata().CorrelationID.String(), consumer.correlations[0])
	assert.Equal(t, int64(1), metrics.Snapshot().Counter(observability.MetricEventsConsumed,
		observability.T("routing_key", "matrix.task.created"),
		observability.T(observability.StatusKey, "handled"),
	))
}

func TestInProcessEventBus_SwallowsFailures(t *testing.T) {
	bus := newBus(observability.NoopMetrics{})
	consumer := &mockConsumer{eventTypes: []string{"matrix.task.updated"}, err: errors.New("boom")}
	bus.RegisterConsumer(consumer)

	body, err := eventbus.EncodeEvent(newSampleEvent(2, "matrix.task.updated"))
	require.NoError(t, err)

	assert.NoError(t, bus.Publish(context.Background(), "matrix.task.updated", body))
	assert.NoError(t, bus.Publish(context.Background(), "matrix.task.updated", []byte("garbage")))
	assert.Len(t, consumer.events, 1)
	assert.NoError(t, bus.Close())
}
