package task

import "time"

// UrgencyWindow is how close a deadline must be for a task to count as urgent.
const UrgencyWindow = 72 * time.Hour

// DeriveUrgency reports whether deadline falls strictly inside the urgency
// window measured from now. Overdue deadlines are urgent.
func DeriveUrgency(deadline, now time.Time) bool {
	return deadline.Sub(now) < UrgencyWindow
}
