package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

type invalidationConsumer struct {
	err   error
	calls int
}

func (c *invalidationConsumer) EventTypes() []string {
	return []string{"matrix.task.created"}
}

func (c *invalidationConsumer) Handle(context.Context, *ConsumedEvent) error {
	c.calls++
	return c.err
}

func TestRabbitMQConsumer_Deliver(t *testing.T) {
	created := []byte(`{"event_id":"7d3c2f1e-8a4b-4c5d-9e6f-0a1b2c3d4e5f","aggregate_id":4,"routing_key":"matrix.task.created","payload":{}}`)

	tests := []struct {
		name        string
		body        []byte
		redelivered bool
		consumerErr error
		want        deliveryOutcome
		wantCalls   int
	}{
		{name: "handled event is acked", body: created, want: outcomeAck, wantCalls: 1},
		{name: "undecodable body is dropped", body: []byte("{"), want: outcomeDrop},
		{name: "first failure is requeued", body: created, consumerErr: errors.New("redis down"), want: outcomeRequeue, wantCalls: 1},
		{name: "failed redelivery is dropped", body: created, redelivered: true, consumerErr: errors.New("redis down"), want: outcomeDrop, wantCalls: 1},
		{name: "redelivery that succeeds is acked", body: created, redelivered: true, want: outcomeAck, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := slog.New(slog.DiscardHandler)
			consumer := &invalidationConsumer{err: tt.consumerErr}
			registry := NewConsumerRegistry(logger)
			registry.Register(consumer)
			c := &RabbitMQConsumer{registry: registry, logger: logger}

			got := c.deliver(context.Background(), amqp.Delivery{
				RoutingKey:  "matrix.task.created",
				Body:        tt.body,
				Redelivered: tt.redelivered,
			})

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, consumer.calls)
		})
	}
}
