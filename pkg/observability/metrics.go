package observability

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metric names shared across the quadra processes. The outbox relay
// declares its own quadra.outbox.* names next to the processor.
const (
	MetricOperationTotal    = "quadra.operation.total"
	MetricOperationDuration = "quadra.operation.duration"
	MetricOperationErrors   = "quadra.operation.errors"

	MetricTasksCreated   = "quadra.tasks.created"
	MetricTasksUpdated   = "quadra.tasks.updated"
	MetricTasksCompleted = "quadra.tasks.completed"
	MetricTasksDeleted   = "quadra.tasks.deleted"

	MetricHTTPRequests = "quadra.http.requests"
	MetricHTTPDuration = "quadra.http.duration"
	MetricHTTPErrors   = "quadra.http.errors"

	MetricStatsCacheHits   = "quadra.stats_cache.hits"
	MetricStatsCacheMisses = "quadra.stats_cache.misses"

	MetricEventsConsumed = "quadra.events.consumed"
)

// Metrics records counters, gauges and timings.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag labels a metric series.
type Tag struct {
	Key   string
	Value string
}

// T creates a Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)         {}
func (NoopMetrics) Gauge(string, float64, ...Tag)         {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// Summary aggregates the timings of one series in milliseconds.
type Summary struct {
	Count int64   `json:"count"`
	SumMs float64 `json:"sum_ms"`
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
}

func (s Summary) observe(ms float64) Summary {
	if s.Count == 0 || ms < s.MinMs {
		s.MinMs = ms
	}
	if ms > s.MaxMs {
		s.MaxMs = ms
	}
	s.Count++
	s.SumMs += ms
	return s
}

// InMemoryMetrics keeps every series in process. Each process exposes its
// own through MetricsHandler.
type InMemoryMetrics struct {
	mu        sync.Mutex
	counters  map[string]int64
	gauges    map[string]float64
	summaries map[string]Summary
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters:  make(map[string]int64),
		gauges:    make(map[string]float64),
		summaries: make(map[string]Summary),
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[seriesKey(name, tags)] += value
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[seriesKey(name, tags)] = value
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	ms := float64(duration) / float64(time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()
	key := seriesKey(name, tags)
	m.summaries[key] = m.summaries[key].observe(ms)
}

// Snapshot is a point-in-time copy of every series, keyed by
// name{tag=value,...}.
type Snapshot struct {
	Counters  map[string]int64   `json:"counters"`
	Gauges    map[string]float64 `json:"gauges"`
	Summaries map[string]Summary `json:"timings"`
}

// Snapshot copies the current values.
func (m *InMemoryMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Counters:  make(map[string]int64, len(m.counters)),
		Gauges:    make(map[string]float64, len(m.gauges)),
		Summaries: make(map[string]Summary, len(m.summaries)),
	}
	for k, v := range m.counters {
		s.Counters[k] = v
	}
	for k, v := range m.gauges {
		s.Gauges[k] = v
	}
	for k, v := range m.summaries {
		s.Summaries[k] = v
	}
	return s
}

// Counter returns one counter series, zero when never incremented.
func (s Snapshot) Counter(name string, tags ...Tag) int64 {
	return s.Counters[seriesKey(name, tags)]
}

// Gauge returns one gauge series.
func (s Snapshot) Gauge(name string, tags ...Tag) float64 {
	return s.Gauges[seriesKey(name, tags)]
}

// Summary returns one timing series.
func (s Snapshot) Summary(name string, tags ...Tag) Summary {
	return s.Summaries[seriesKey(name, tags)]
}

// seriesKey renders name{k=v,...} with tags sorted by key, so callers may
// pass tags in any order.
func seriesKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := make([]Tag, len(tags))
	copy(sorted, tags)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, t := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// MetricsHandler serves the snapshot of m as JSON. Collectors that keep
// nothing in process answer 404.
func MetricsHandler(m Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mem, ok := m.(*InMemoryMetrics)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(mem.Snapshot())
	})
}
