package task

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/felixgeelhaar/quadra/internal/shared/domain"
)

// Field limits.
const (
	MinTitleLength       = 3
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	MinSearchLength      = 2
)

// Draft carries the client-settable fields of a task that is about to be created.
// IsUrgent is only consulted when DeadlineAt is nil.
type Draft struct {
	Title       string
	Description *string
	IsImportant bool
	DeadlineAt  *time.Time
	IsUrgent    bool
}

// Task is a to-do item placed in one quadrant of the matrix.
type Task struct {
	domain.BaseAggregateRoot
	title       string
	description *string
	important   bool
	urgent      bool
	quadrant    Quadrant
	completed   bool
	deadlineAt  *time.Time
	completedAt *time.Time
}

// NewTask validates the draft and classifies the resulting task.
// The task stays transient until the store assigns an id.
func NewTask(d Draft, now time.Time) (*Task, error) {
	title, err := ValidateTitle(d.Title)
	if err != nil {
		return nil, err
	}
	if err := ValidateDescription(d.Description); err != nil {
		return nil, err
	}

	t := &Task{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(now),
		title:             title,
		description:       cloneString(d.Description),
		important:         d.IsImportant,
		urgent:            d.IsUrgent,
		deadlineAt:        utcTime(d.DeadlineAt),
	}
	t.reclassify(now)

	return t, nil
}

// Snapshot is the full persisted state of a task.
type Snapshot struct {
	ID          int64
	Title       string
	Description *string
	IsImportant bool
	IsUrgent    bool
	Quadrant    Quadrant
	Completed   bool
	DeadlineAt  *time.Time
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Rehydrate recreates a task from persisted state without re-validating or reclassifying it.
func Rehydrate(s Snapshot) *Task {
	return &Task{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(domain.RehydrateBaseEntity(s.ID, s.CreatedAt)),
		title:             s.Title,
		description:       cloneString(s.Description),
		important:         s.IsImportant,
		urgent:            s.IsUrgent,
		quadrant:          s.Quadrant,
		completed:         s.Completed,
		deadlineAt:        utcTime(s.DeadlineAt),
		completedAt:       utcTime(s.CompletedAt),
	}
}

// Snapshot returns a deep copy of the task state.
func (t *Task) Snapshot() Snapshot {
	return Snapshot{
		ID:          t.ID(),
		Title:       t.title,
		Description: cloneString(t.description),
		IsImportant: t.important,
		IsUrgent:    t.urgent,
		Quadrant:    t.quadrant,
		Completed:   t.completed,
		DeadlineAt:  utcTime(t.deadlineAt),
		CreatedAt:   t.CreatedAt(),
		CompletedAt: utcTime(t.completedAt),
	}
}

// Clone returns an independent copy of the task without pending events.
func (t *Task) Clone() *Task {
	return Rehydrate(t.Snapshot())
}

// Getters

func (t *Task) Title() string            { return t.title }
func (t *Task) Description() *string     { return cloneString(t.description) }
func (t *Task) IsImportant() bool        { return t.important }
func (t *Task) IsUrgent() bool           { return t.urgent }
func (t *Task) Quadrant() Quadrant       { return t.quadrant }
func (t *Task) IsCompleted() bool        { return t.completed }
func (t *Task) DeadlineAt() *time.Time   { return utcTime(t.deadlineAt) }
func (t *Task) CompletedAt() *time.Time  { return utcTime(t.completedAt) }
func (t *Task) HasStatus(s Status) bool  { return s.Matches(t.completed) }
func (t *Task) HasDeadline() bool        { return t.deadlineAt != nil }

// AssignID stores the id issued by the store and records the creation event.
func (t *Task) AssignID(id int64) error {
	if !t.SetID(id) {
		return &InvalidInputError{
			Field:   "id",
			Value:   strconv.FormatInt(id, 10),
			Message: "task already has an id or the id is not positive",
		}
	}
	t.AddDomainEvent(NewTaskCreated(t))
	return nil
}

// Complete marks the task done. Every call re-stamps the completion time.
func (t *Task) Complete(now time.Time) {
	completedAt := now.UTC()
	t.completed = true
	t.completedAt = &completedAt
	t.AddDomainEvent(NewTaskCompleted(t.ID(), completedAt, now))
}

// MarkDeleted records the deletion event. Removal itself is the store's job.
func (t *Task) MarkDeleted(now time.Time) {
	t.AddDomainEvent(NewTaskDeleted(t.ID(), now))
}

// Matches reports whether query is a case-insensitive substring of the
// title or of the description.
func (t *Task) Matches(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(t.title), q) {
		return true
	}
	return t.description != nil && strings.Contains(strings.ToLower(*t.description), q)
}

// reclassify re-derives urgency from the deadline when there is one and
// recomputes the quadrant. Without a deadline the recorded urgency stands.
func (t *Task) reclassify(now time.Time) {
	if t.deadlineAt != nil {
		t.urgent = DeriveUrgency(*t.deadlineAt, now)
	}
	t.quadrant = Classify(t.important, t.urgent)
}

// ValidateTitle trims surrounding whitespace and checks the trimmed length.
// It returns the trimmed title.
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	n := utf8.RuneCountInString(title)
	if n < MinTitleLength || n > MaxTitleLength {
		return "", &ValidationError{
			Field:   "title",
			Message: "must be between 3 and 100 characters",
		}
	}
	return title, nil
}

// ValidateDescription checks the description length. A nil description is valid.
func ValidateDescription(description *string) error {
	if description != nil && utf8.RuneCountInString(*description) > MaxDescriptionLength {
		return &ValidationError{
			Field:   "description",
			Message: "must be at most 500 characters",
		}
	}
	return nil
}

// ValidateSearchQuery checks that a search query is long enough to be useful.
func ValidateSearchQuery(query string) error {
	if utf8.RuneCountInString(query) < MinSearchLength {
		return &ValidationError{
			Field:   "q",
			Message: "must be at least 2 characters",
		}
	}
	return nil
}

// ParseID parses a task id from its textual form.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 || strings.HasPrefix(raw, "+") {
		return 0, &InvalidInputError{
			Field:   "id",
			Value:   raw,
			Message: "must be a positive integer",
		}
	}
	return id, nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func utcTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
