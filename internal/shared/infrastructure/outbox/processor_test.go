package outbox_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/quadra/internal/shared/domain"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/quadra/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mu          sync.Mutex
	published   []string
	shouldFail  bool
	failForKeys map[string]bool
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{failForKeys: make(map[string]bool)}
}

func (p *mockPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shouldFail || p.failForKeys[routingKey] {
		return errors.New("publish failed")
	}
	p.published = append(p.published, routingKey)
	return nil
}

func (p *mockPublisher) Close() error { return nil }

func (p *mockPublisher) PublishedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type taskEvent struct {
	domain.BaseEvent
}

func seed(t *testing.T, repo *outbox.InMemoryRepository, at time.Time, routingKeys ...string) {
	t.Helper()
	events := make([]domain.DomainEvent, 0, len(routingKeys))
	for i, key := range routingKeys {
		events = append(events, taskEvent{BaseEvent: domain.NewBaseEvent(int64(i+1), "Task", key, at)})
	}
	msgs, err := outbox.NewMessages(events)
	require.NoError(t, err)
	require.NoError(t, repo.SaveBatch(context.Background(), msgs))
}

func newTestProcessor(repo outbox.Repository, pub *mockPublisher, cfg outbox.ProcessorConfig, clock *fakeClock, metrics observability.Metrics) *outbox.Processor {
	return outbox.NewProcessor(repo, pub, cfg, slog.New(slog.DiscardHandler),
		outbox.WithClock(clock.Now),
		outbox.WithMetrics(metrics),
	)
}

func TestProcessor_ProcessOnce_Publishes(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	repo := outbox.NewInMemoryRepository()
	pub := newMockPublisher()
	metrics := observability.NewInMemoryMetrics()
	seed(t, repo, clock.Now().Add(-2*time.Second), "matrix.task.created", "matrix.task.updated")

	p := newTestProcessor(repo, pub, outbox.DefaultProcessorConfig(), clock, metrics)
	require.NoError(t, p.ProcessOnce(context.Background()))

	assert.Equal(t, 2, pub.PublishedCount())
	for _, msg := range repo.Messages() {
		assert.True(t, msg.IsPublished())
	}

	stats := p.Stats()
	assert.Equal(t, uint64(2), stats.PublishedCount)
	assert.InDelta(t, 2.0, stats.LagSeconds, 0.001)
	assert.Equal(t, int64(1), metrics.Snapshot().Counter(outbox.MetricPublished, observability.T("routing_key", "matrix.task.created")))
	assert.Equal(t, int64(1), metrics.Snapshot().Counter(outbox.MetricPublished, observability.T("routing_key", "matrix.task.updated")))
}

func TestProcessor_ProcessOnce_FailureSchedulesRetry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	repo := outbox.NewInMemoryRepository()
	pub := newMockPublisher()
	pub.failForKeys["matrix.task.deleted"] = true
	metrics := observability.NewInMemoryMetrics()
	seed(t, repo, clock.Now(), "matrix.task.created", "matrix.task.deleted")

	cfg := outbox.DefaultProcessorConfig()
	cfg.RetryBackoffBase = 10 * time.Second
	p := newTestProcessor(repo, pub, cfg, clock, metrics)
	require.NoError(t, p.ProcessOnce(context.Background()))

	msgs := repo.Messages()
	assert.True(t, msgs[0].IsPublished())
	failed := msgs[1]
	assert.False(t, failed.IsPublished())
	assert.False(t, failed.IsDead())
	assert.Equal(t, 1, failed.RetryCount)
	require.NotNil(t, failed.NextRetryAt)
	assert.True(t, failed.NextRetryAt.Equal(clock.Now().Add(10*time.Second)))

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.FailedCount)
	assert.Equal(t, "publish failed", stats.LastError)
	assert.Equal(t, int64(1), metrics.Snapshot().Counter(outbox.MetricFailed, observability.T("routing_key", "matrix.task.deleted")))

	// Not due yet.
	require.NoError(t, p.ProcessOnce(context.Background()))
	assert.Equal(t, 1, repo.Messages()[1].RetryCount)

	clock.Advance(10 * time.Second)
	delete(pub.failForKeys, "matrix.task.deleted")
	require.NoError(t, p.ProcessOnce(context.Background()))
	assert.True(t, repo.Messages()[1].IsPublished())
}

func TestProcessor_DeadLettersAfterMaxRetries(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	repo := outbox.NewInMemoryRepository()
	pub := newMockPublisher()
	pub.shouldFail = true
	metrics := observability.NewInMemoryMetrics()
	seed(t, repo, clock.Now(), "matrix.task.completed")

	cfg := outbox.DefaultProcessorConfig()
	cfg.MaxRetries = 2
	cfg.RetryBackoffBase = time.Second
	p := newTestProcessor(repo, pub, cfg, clock, metrics)

	require.NoError(t, p.ProcessOnce(context.Background()))
	clock.Advance(time.Minute)
	require.NoError(t, p.ProcessOnce(context.Background()))

	msg := repo.Messages()[0]
	assert.True(t, msg.IsDead())
	require.NotNil(t, msg.DeadLetterReason)
	assert.Equal(t, "publish failed", *msg.DeadLetterReason)
	assert.Equal(t, uint64(1), p.Stats().DeadCount)
	assert.Equal(t, int64(1), metrics.Snapshot().Counter(outbox.MetricDead, observability.T("routing_key", "matrix.task.completed")))

	clock.Advance(time.Hour)
	require.NoError(t, p.ProcessOnce(context.Background()))
	assert.Equal(t, 0, pub.PublishedCount())
}

func TestProcessor_Cleanup(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	repo := outbox.NewInMemoryRepository()
	pub := newMockPublisher()
	metrics := observability.NewInMemoryMetrics()
	seed(t, repo, clock.Now(), "matrix.task.created", "matrix.task.updated")

	cfg := outbox.DefaultProcessorConfig()
	cfg.Retention = 24 * time.Hour
	p := newTestProcessor(repo, pub, cfg, clock, metrics)
	require.NoError(t, p.ProcessOnce(context.Background()))

	deleted, err := p.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)

	clock.Advance(25 * time.Hour)
	deleted, err = p.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Zero(t, repo.Len())
	assert.Equal(t, int64(2), metrics.Snapshot().Counter(outbox.MetricDeleted))
}

func TestProcessor_CleanupDisabled(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	cfg := outbox.DefaultProcessorConfig()
	cfg.Retention = 0
	p := newTestProcessor(outbox.NewInMemoryRepository(), newMockPublisher(), cfg, clock, observability.NoopMetrics{})

	deleted, err := p.Cleanup(context.Background())

	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestProcessor_StartStop(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	pub := newMockPublisher()
	seed(t, repo, time.Now(), "matrix.task.created")

	cfg := outbox.DefaultProcessorConfig()
	cfg.PollInterval = 5 * time.Millisecond
	p := outbox.NewProcessor(repo, pub, cfg, slog.New(slog.DiscardHandler))

	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.IsRunning())
	require.NoError(t, p.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return pub.PublishedCount() == 1
	}, time.Second, 5*time.Millisecond)

	p.Stop()
	assert.False(t, p.IsRunning())
	p.Stop()
}

func TestProcessor_StopsOnContextCancel(t *testing.T) {
	cfg := outbox.DefaultProcessorConfig()
	cfg.PollInterval = 5 * time.Millisecond
	p := outbox.NewProcessor(outbox.NewInMemoryRepository(), newMockPublisher(), cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx))
	cancel()

	p.Stop()
	assert.False(t, p.IsRunning())
}

func TestProcessor_HealthCheck(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	repo := outbox.NewInMemoryRepository()
	pub := newMockPublisher()
	pub.shouldFail = true
	seed(t, repo, clock.Now().Add(-10*time.Minute), "matrix.task.created")

	cfg := outbox.DefaultProcessorConfig()
	cfg.PollInterval = time.Hour
	p := newTestProcessor(repo, pub, cfg, clock, observability.NoopMetrics{})
	check := p.HealthCheck(5 * time.Minute)

	stopped := check(context.Background())
	assert.Equal(t, observability.HealthStatusDegraded, stopped.Status)
	assert.Equal(t, "outbox relay stopped", stopped.Message)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, p.Start(ctx))
	defer p.Stop()

	require.NoError(t, p.ProcessOnce(context.Background()))
	backlog := check(context.Background())
	assert.Equal(t, observability.HealthStatusDegraded, backlog.Status)
	assert.Contains(t, backlog.Message, "backlog")
	assert.Equal(t, uint64(1), backlog.Details["failed"])
	assert.Equal(t, "publish failed", backlog.Details["last_error"])

	pub.mu.Lock()
	pub.shouldFail = false
	pub.mu.Unlock()
	clock.Advance(time.Minute)
	require.NoError(t, p.ProcessOnce(context.Background()))
	require.NoError(t, p.ProcessOnce(context.Background()))

	healthy := check(context.Background())
	assert.Equal(t, observability.HealthStatusHealthy, healthy.Status)
	assert.Equal(t, uint64(1), healthy.Details["published"])
	assert.Zero(t, healthy.Details["lag_seconds"])
}
