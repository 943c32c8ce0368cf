package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/quadra/internal/shared/domain"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/quadra/pkg/observability"
)

// Metric names emitted by the processor.
const (
	MetricPublished = "quadra.outbox.published"
	MetricFailed    = "quadra.outbox.failed"
	MetricDead      = "quadra.outbox.dead"
	MetricLag       = "quadra.outbox.lag_seconds"
	MetricDeleted   = "quadra.outbox.deleted"
)

// ProcessorConfig holds configuration for the outbox processor.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	// Retention is how long published messages are kept. Zero disables cleanup.
	Retention       time.Duration
	CleanupInterval time.Duration
}

// DefaultProcessorConfig returns sensible defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		Retention:        7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// Processor polls the outbox and relays messages to the publisher.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics
	now       func() time.Time

	wg       sync.WaitGroup
	stopChan chan struct{}
	running  bool
	mu       sync.Mutex

	statsMu sync.Mutex
	stats   Stats
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

// WithMetrics records relay counters on m.
func WithMetrics(m observability.Metrics) ProcessorOption {
	return func(p *Processor) { p.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

// NewProcessor creates a new outbox processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultProcessorConfig().BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultProcessorConfig().PollInterval
	}
	p := &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
		metrics:   observability.NoopMetrics{},
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins the polling loop in a goroutine.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopChan = make(chan struct{})
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(ctx)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
		"retention", p.config.Retention,
	)

	return nil
}

// Stop gracefully stops the processor and waits for the loop to exit.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("outbox processor stopped")
}

// IsRunning returns true if the processor is running.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	var cleanup <-chan time.Time
	if p.config.Retention > 0 && p.config.CleanupInterval > 0 {
		cleanupTicker := time.NewTicker(p.config.CleanupInterval)
		defer cleanupTicker.Stop()
		cleanup = cleanupTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error("failed to process outbox batch", "error", err)
			}
		case <-cleanup:
			if _, err := p.Cleanup(ctx); err != nil {
				p.logger.Error("failed to clean up outbox", "error", err)
			}
		}
	}
}

func (p *Processor) processBatch(ctx context.Context) error {
	now := p.now()
	messages, err := p.repo.GetUnpublished(ctx, now, p.config.BatchSize)
	if err != nil {
		p.recordError(err)
		return err
	}

	p.recordProcessed(messages, now)

	for _, msg := range messages {
		if err := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload); err != nil {
			p.handleFailure(ctx, msg, err)
			continue
		}

		if err := p.repo.MarkPublished(ctx, msg.ID, p.now()); err != nil {
			p.logger.Error("failed to mark message as published",
				"id", msg.ID,
				"event_id", msg.EventID,
				"error", err,
			)
			continue
		}
		p.recordPublished(msg)
	}

	return nil
}

func (p *Processor) handleFailure(ctx context.Context, msg *Message, err error) {
	md := messageMetadata(msg)
	p.logger.Warn("failed to publish message",
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		"retry_count", msg.RetryCount,
		observability.CorrelationIDKey, md.CorrelationID.String(),
		"error", err,
	)

	errStr := err.Error()
	if p.shouldDeadLetter(msg) {
		p.recordDead(msg, err)
		if markErr := p.repo.MarkDead(ctx, msg.ID, errStr, p.now()); markErr != nil {
			p.logger.Error("failed to mark message as dead-lettered",
				"id", msg.ID,
				"error", markErr,
			)
		}
		return
	}

	p.recordFailed(msg, err)
	nextRetryAt := p.now().Add(p.retryBackoff(msg.RetryCount + 1))
	if markErr := p.repo.MarkFailed(ctx, msg.ID, errStr, nextRetryAt); markErr != nil {
		p.logger.Error("failed to mark message as failed",
			"id", msg.ID,
			"error", markErr,
		)
	}
}

func (p *Processor) shouldDeadLetter(msg *Message) bool {
	if p.config.MaxRetries <= 0 {
		return true
	}
	return msg.RetryCount+1 >= p.config.MaxRetries
}

// retryBackoff doubles from the base for each attempt, capped at the max.
func (p *Processor) retryBackoff(attempt int) time.Duration {
	base := p.config.RetryBackoffBase
	if base <= 0 {
		base = time.Second
	}
	limit := p.config.RetryBackoffMax
	if limit <= 0 {
		limit = time.Minute
	}

	backoff := base
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff >= limit {
			return limit
		}
	}
	return min(backoff, limit)
}

func messageMetadata(msg *Message) domain.EventMetadata {
	var metadata domain.EventMetadata
	if len(msg.Metadata) > 0 {
		_ = json.Unmarshal(msg.Metadata, &metadata)
	}
	return metadata
}

// ProcessOnce processes a single batch synchronously.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	return p.processBatch(ctx)
}

// Cleanup deletes published messages older than the retention period.
func (p *Processor) Cleanup(ctx context.Context) (int64, error) {
	if p.config.Retention <= 0 {
		return 0, nil
	}
	deleted, err := p.repo.DeleteOld(ctx, p.now().Add(-p.config.Retention))
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		p.metrics.Counter(MetricDeleted, deleted)
		p.logger.Info("outbox cleanup", "deleted", deleted)
	}
	return deleted, nil
}

// HealthCheck reports the relay. It is degraded while stopped or when the
// oldest pending message seen by the last poll waited longer than maxLag.
func (p *Processor) HealthCheck(maxLag time.Duration) observability.HealthChecker {
	return func(context.Context) observability.HealthCheckResult {
		s := p.Stats()
		result := observability.HealthCheckResult{
			Status:  observability.HealthStatusHealthy,
			Message: "outbox relay running",
			Details: map[string]any{
				"published":   s.PublishedCount,
				"failed":      s.FailedCount,
				"dead":        s.DeadCount,
				"lag_seconds": s.LagSeconds,
			},
		}
		if s.LastError != "" {
			result.Details["last_error"] = s.LastError
		}

		switch {
		case !s.IsRunning:
			result.Status = observability.HealthStatusDegraded
			result.Message = "outbox relay stopped"
		case maxLag > 0 && s.LagSeconds > maxLag.Seconds():
			result.Status = observability.HealthStatusDegraded
			result.Message = "outbox backlog exceeds " + maxLag.String()
		}
		return result
	}
}

// Stats is a snapshot of processor activity.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

// Stats returns current processor statistics.
func (p *Processor) Stats() Stats {
	running := p.IsRunning()

	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	s := p.stats
	s.IsRunning = running
	return s
}

func (p *Processor) recordPublished(msg *Message) {
	p.metrics.Counter(MetricPublished, 1, observability.T("routing_key", msg.RoutingKey))

	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats.PublishedCount++
}

func (p *Processor) recordFailed(msg *Message, err error) {
	p.metrics.Counter(MetricFailed, 1, observability.T("routing_key", msg.RoutingKey))

	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats.FailedCount++
	p.setLastError(err)
}

func (p *Processor) recordDead(msg *Message, err error) {
	p.metrics.Counter(MetricDead, 1, observability.T("routing_key", msg.RoutingKey))

	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats.DeadCount++
	p.setLastError(err)
}

func (p *Processor) recordError(err error) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.setLastError(err)
}

// setLastError must be called with statsMu held.
func (p *Processor) setLastError(err error) {
	now := p.now()
	p.stats.LastError = err.Error()
	p.stats.LastErrorAt = &now
}

func (p *Processor) recordProcessed(messages []*Message, now time.Time) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	p.stats.LastProcessedAt = &now
	if len(messages) == 0 {
		p.stats.LagSeconds = 0
		p.stats.OldestMessageAt = nil
		p.metrics.Gauge(MetricLag, 0)
		return
	}

	oldest := messages[0].CreatedAt
	for _, msg := range messages[1:] {
		if msg.CreatedAt.Before(oldest) {
			oldest = msg.CreatedAt
		}
	}
	p.stats.OldestMessageAt = &oldest
	p.stats.LagSeconds = now.Sub(oldest).Seconds()
	p.metrics.Gauge(MetricLag, p.stats.LagSeconds)
}
