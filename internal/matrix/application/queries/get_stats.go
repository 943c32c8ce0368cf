package queries

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/quadra/internal/matrix/domain/report"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/felixgeelhaar/quadra/pkg/observability"
)

// StatsCache stores the last computed statistics.
type StatsCache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context) (stats report.Stats, ok bool, err error)
	Set(ctx context.Context, stats report.Stats) error
	Invalidate(ctx context.Context) error
}

// GetStatsQuery requests matrix statistics.
type GetStatsQuery struct{}

// GetStatsHandler handles the GetStatsQuery.
type GetStatsHandler struct {
	taskRepo task.Repository
	cache    StatsCache
	logger   *slog.Logger
	metrics  observability.Metrics
}

// NewGetStatsHandler creates a new GetStatsHandler. cache may be nil.
func NewGetStatsHandler(taskRepo task.Repository, cache StatsCache, logger *slog.Logger) *GetStatsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetStatsHandler{taskRepo: taskRepo, cache: cache, logger: logger, metrics: observability.NoopMetrics{}}
}

// WithMetrics counts cache hits and misses on m.
func (h *GetStatsHandler) WithMetrics(m observability.Metrics) *GetStatsHandler {
	h.metrics = m
	return h
}

// Handle executes the GetStatsQuery. Cache failures fall back to the store.
func (h *GetStatsHandler) Handle(ctx context.Context, _ GetStatsQuery) (report.Stats, error) {
	if h.cache != nil {
		stats, ok, err := h.cache.Get(ctx)
		if err != nil {
			h.logger.WarnContext(ctx, "stats cache read failed", "error", err)
		} else if ok {
			h.metrics.Counter(observability.MetricStatsCacheHits, 1)
			return stats, nil
		}
		h.metrics.Counter(observability.MetricStatsCacheMisses, 1)
	}

	tasks, err := h.taskRepo.FindAll(ctx)
	if err != nil {
		return report.Stats{}, err
	}
	stats := report.Summarize(tasks)

	if h.cache != nil {
		if err := h.cache.Set(ctx, stats); err != nil {
			h.logger.WarnContext(ctx, "stats cache write failed", "error", err)
		}
	}

	return stats, nil
}
