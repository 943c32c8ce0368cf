// Package report aggregates task snapshots into statistics and deadline reports.
package report

import (
	"time"

	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
)

// StatusCounts splits a task set by completion.
type StatusCounts struct {
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// Stats summarizes a task set.
type Stats struct {
	Total      int                   `json:"total"`
	ByQuadrant map[task.Quadrant]int `json:"by_quadrant"`
	ByStatus   StatusCounts          `json:"by_status"`
}

// Summarize counts tasks per quadrant and per status in a single pass.
// Every quadrant is present in ByQuadrant, with zero when empty.
func Summarize(tasks []*task.Task) Stats {
	stats := Stats{ByQuadrant: make(map[task.Quadrant]int, 4)}
	for _, q := range task.AllQuadrants() {
		stats.ByQuadrant[q] = 0
	}

	for _, t := range tasks {
		stats.Total++
		stats.ByQuadrant[t.Quadrant()]++
		if t.IsCompleted() {
			stats.ByStatus.Completed++
		} else {
			stats.ByStatus.Pending++
		}
	}

	return stats
}

// DeadlineEntry is one line of the deadline report.
type DeadlineEntry struct {
	TaskID        int64     `json:"task_id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	DeadlineAt    time.Time `json:"deadline_at"`
	DaysRemaining int       `json:"days_remaining"`
}

// UpcomingDeadlines lists the pending tasks that have a deadline, in input order.
// DaysRemaining is the floor of the whole days left and is negative once overdue.
func UpcomingDeadlines(tasks []*task.Task, now time.Time) []DeadlineEntry {
	entries := make([]DeadlineEntry, 0)
	for _, t := range tasks {
		deadline := t.DeadlineAt()
		if t.IsCompleted() || deadline == nil {
			continue
		}
		entries = append(entries, DeadlineEntry{
			TaskID:        t.ID(),
			Title:         t.Title(),
			Description:   t.Description(),
			DeadlineAt:    *deadline,
			DaysRemaining: DaysUntil(*deadline, now),
		})
	}
	return entries
}

// DaysUntil returns floor((deadline - now) / 24h).
func DaysUntil(deadline, now time.Time) int {
	const day = 24 * time.Hour
	delta := deadline.Sub(now)
	days := delta / day
	if delta%day < 0 {
		days--
	}
	return int(days)
}
