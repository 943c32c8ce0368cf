package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/quadra/internal/matrix/application/queries"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
)

const dateLayout = "2006-01-02"

// parseDeadline accepts RFC 3339 or a bare date, which means the end of
// that day in UTC.
func parseDeadline(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	day, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid deadline %q, use RFC 3339 or YYYY-MM-DD", value)
	}
	end := day.Add(24*time.Hour - time.Second)
	return &end, nil
}

// groupByQuadrant returns every quadrant key, empty ones included.
func groupByQuadrant(tasks []queries.TaskDTO) map[string][]queries.TaskDTO {
	grouped := make(map[string][]queries.TaskDTO, 4)
	for _, q := range task.AllQuadrants() {
		grouped[q.String()] = []queries.TaskDTO{}
	}
	for _, t := range tasks {
		grouped[t.Quadrant] = append(grouped[t.Quadrant], t)
	}
	return grouped
}
