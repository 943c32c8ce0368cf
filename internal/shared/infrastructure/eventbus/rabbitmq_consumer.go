package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultConsumerQueueName is the durable queue the worker consumes from.
const DefaultConsumerQueueName = "quadra.worker"

// ErrDeliveriesClosed is returned by Start when the broker closes the
// delivery channel, usually because the connection dropped.
var ErrDeliveriesClosed = errors.New("rabbitmq delivery channel closed")

// RabbitMQConsumerConfig configures the RabbitMQ consumer.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	Exchange  string
	// Prefetch bounds unacknowledged deliveries. Defaults to 1.
	Prefetch int
	Logger   *slog.Logger
}

// RabbitMQConsumer delivers task events from the broker to the consumers of
// a registry. The queue is bound to the registry's routing keys when Start
// runs.
type RabbitMQConsumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	exchange string
	prefetch int
	registry *ConsumerRegistry
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	closed  chan struct{}
}

// NewRabbitMQConsumer dials the broker and declares the exchange and the
// durable queue.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.QueueName == "" {
		cfg.QueueName = DefaultConsumerQueueName
	}
	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareExchange(ch, cfg.Exchange); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}
	if _, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.QueueName, err)
	}

	cfg.Logger.Info("RabbitMQ consumer connected",
		"queue", cfg.QueueName,
		"exchange", cfg.Exchange,
	)

	return &RabbitMQConsumer{
		conn:     conn,
		channel:  ch,
		queue:    cfg.QueueName,
		exchange: cfg.Exchange,
		prefetch: cfg.Prefetch,
		registry: registry,
		logger:   cfg.Logger,
		closed:   make(chan struct{}),
	}, nil
}

// RegisterConsumer subscribes consumer. Register before Start so its
// routing keys are bound.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)
}

// Start binds the queue and consumes until ctx ends, Close is called or the
// broker goes away.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	keys := c.registry.RoutingKeys()
	for _, key := range keys {
		if err := c.channel.QueueBind(c.queue, key, c.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind %s to %s: %w", c.queue, key, err)
		}
	}
	if err := c.channel.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("consuming task events",
		"queue", c.queue,
		"routing_keys", keys,
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.settle(d, c.deliver(ctx, d))
		}
	}
}

// deliveryOutcome says how a delivery is settled with the broker.
type deliveryOutcome int

const (
	outcomeAck deliveryOutcome = iota
	outcomeRequeue
	outcomeDrop
)

// deliver dispatches one delivery. Undecodable bodies are dropped. A failed
// dispatch is requeued once; a redelivery that fails again is dropped, so a
// persistently failing consumer cannot loop on the same event.
func (c *RabbitMQConsumer) deliver(ctx context.Context, d amqp.Delivery) deliveryOutcome {
	event, err := DecodeEvent(d.Body, d.RoutingKey)
	if err != nil {
		c.logger.ErrorContext(ctx, "dropping undecodable event",
			"routing_key", d.RoutingKey,
			"error", err,
		)
		return outcomeDrop
	}

	if err := c.registry.Dispatch(ctx, event); err != nil {
		if d.Redelivered {
			c.logger.ErrorContext(ctx, "dropping event after redelivery failed",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
			)
			return outcomeDrop
		}
		return outcomeRequeue
	}
	return outcomeAck
}

func (c *RabbitMQConsumer) settle(d amqp.Delivery, outcome deliveryOutcome) {
	var err error
	switch outcome {
	case outcomeAck:
		err = d.Ack(false)
	case outcomeRequeue:
		err = d.Nack(false, true)
	case outcomeDrop:
		err = d.Reject(false)
	}
	if err != nil {
		c.logger.Error("failed to settle delivery",
			"routing_key", d.RoutingKey,
			"delivery_tag", d.DeliveryTag,
			"error", err,
		)
	}
}

// Close stops Start and closes the connection.
func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}
	c.running = false

	if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		c.logger.Warn("error closing channel", "error", err)
	}
	if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}

	c.logger.Info("RabbitMQ consumer closed")
	return nil
}
