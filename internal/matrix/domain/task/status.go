package task

// Status filters tasks by completion state.
type Status int

const (
	StatusPending Status = iota
	StatusCompleted
)

var statusNames = map[Status]string{
	StatusPending:   "pending",
	StatusCompleted: "completed",
}

var statusValues = map[string]Status{
	"pending":   StatusPending,
	"completed": StatusCompleted,
}

// ParseStatus creates a Status from its exact name.
func ParseStatus(s string) (Status, error) {
	st, ok := statusValues[s]
	if !ok {
		return StatusPending, &InvalidInputError{
			Field:   "status",
			Value:   s,
			Message: "must be 'completed' or 'pending'",
		}
	}
	return st, nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Matches reports whether a task with the given completion flag has this status.
func (s Status) Matches(completed bool) bool {
	return completed == (s == StatusCompleted)
}

// StatusFromCompleted returns the status of a task with the given completion flag.
func StatusFromCompleted(completed bool) Status {
	if completed {
		return StatusCompleted
	}
	return StatusPending
}
