package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthStatus is the state of one dependency or of the whole process.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// severity orders statuses so the worst one wins.
func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusUnhealthy:
		return 2
	case HealthStatusDegraded:
		return 1
	default:
		return 0
	}
}

// HealthCheckResult is the outcome of one check.
type HealthCheckResult struct {
	Status    HealthStatus   `json:"status"`
	Message   string         `json:"message,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthChecker inspects one dependency.
type HealthChecker func(ctx context.Context) HealthCheckResult

// HealthRegistry runs the checks registered by the container: the task
// store, the outbox relay and the optional broker and cache.
type HealthRegistry struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checkers: make(map[string]HealthChecker)}
}

// Register adds or replaces the check for name.
func (r *HealthRegistry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Check runs every check concurrently.
func (r *HealthRegistry) Check(ctx context.Context) map[string]HealthCheckResult {
	r.mu.RLock()
	checkers := make(map[string]HealthChecker, len(r.checkers))
	for name, checker := range r.checkers {
		checkers[name] = checker
	}
	r.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]HealthCheckResult, len(checkers))
	)
	for name, checker := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			result := checker(ctx)
			result.Duration = time.Since(start)
			result.Timestamp = time.Now()

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()

	return results
}

// OverallHealth is the aggregated report served on the readiness endpoints.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// GetOverallHealth runs every check. The overall status is the worst one
// reported; an empty registry is healthy.
func (r *HealthRegistry) GetOverallHealth(ctx context.Context) OverallHealth {
	checks := r.Check(ctx)

	status := HealthStatusHealthy
	for _, result := range checks {
		if result.Status.severity() > status.severity() {
			status = result.Status
		}
	}

	return OverallHealth{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
	}
}

// Handler serves the overall health as JSON. Unhealthy answers 503.
func (r *HealthRegistry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		health := r.GetOverallHealth(req.Context())

		w.Header().Set("Content-Type", "application/json")
		if health.Status == HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(health)
	})
}

// TaskStoreHealthChecker reports the task store. Without it no operation
// can succeed, so a failed ping is unhealthy.
func TaskStoreHealthChecker(driver string, ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		details := map[string]any{"driver": driver}
		if err := ping(ctx); err != nil {
			return HealthCheckResult{
				Status:  HealthStatusUnhealthy,
				Message: "task store unreachable: " + err.Error(),
				Details: details,
			}
		}
		return HealthCheckResult{
			Status:  HealthStatusHealthy,
			Message: "task store reachable",
			Details: details,
		}
	}
}

// DependencyHealthChecker reports an optional dependency such as the
// broker or the Redis stats cache. Quadra keeps serving without them, so
// a failed ping is only degraded.
func DependencyHealthChecker(name string, ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{
				Status:  HealthStatusDegraded,
				Message: name + " unavailable: " + err.Error(),
			}
		}
		return HealthCheckResult{
			Status:  HealthStatusHealthy,
			Message: name + " reachable",
		}
	}
}
