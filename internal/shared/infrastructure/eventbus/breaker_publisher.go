package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrPublisherUnavailable is returned while the breaker is open.
var ErrPublisherUnavailable = errors.New("publisher unavailable: circuit open")

// BreakerConfig configures the circuit breaker around a publisher.
type BreakerConfig struct {
	// MaxRequests is the number of trial publishes allowed while half-open.
	MaxRequests uint32
	// Interval is the cyclic period of the closed state for clearing counts.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that trips the breaker.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns a sensible default configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerPublisher stops hammering a failing broker. Once the breaker opens,
// Publish fails fast and the outbox schedules a retry.
type BreakerPublisher struct {
	next    Publisher
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// NewBreakerPublisher wraps next with a circuit breaker.
func NewBreakerPublisher(name string, next Publisher, cfg BreakerConfig, logger *slog.Logger) *BreakerPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("publisher circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BreakerPublisher{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		logger:  logger,
	}
}

// Publish forwards to the wrapped publisher unless the breaker is open.
func (p *BreakerPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.next.Publish(ctx, routingKey, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrPublisherUnavailable
	}
	return err
}

// State reports the breaker state, e.g. "closed" or "open".
func (p *BreakerPublisher) State() string {
	return p.breaker.State().String()
}

// Close closes the wrapped publisher.
func (p *BreakerPublisher) Close() error {
	return p.next.Close()
}
