package task

import "time"

// Patch is a partial update. Nil slots are left untouched.
// ClearDescription and ClearDeadline express an explicit null.
type Patch struct {
	Title            *string
	Description      *string
	ClearDescription bool
	IsImportant      *bool
	DeadlineAt       *time.Time
	ClearDeadline    bool
	Completed        *bool
}

// MergeResult describes what a merge did.
type MergeResult struct {
	// Fields lists the patch slots that were present, in merge order.
	Fields           []string
	Reclassified     bool
	PreviousQuadrant Quadrant
}

// IsEmpty reports whether the patch carries no field at all.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && !p.ClearDescription &&
		p.IsImportant == nil && p.DeadlineAt == nil && !p.ClearDeadline && p.Completed == nil
}

// TouchesClassification reports whether merging the patch must reclassify the task.
func (p Patch) TouchesClassification() bool {
	return p.IsImportant != nil || p.DeadlineAt != nil || p.ClearDeadline
}

// Validate checks every present field without touching any task.
func (p Patch) Validate() error {
	if p.Title != nil {
		if _, err := ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.ClearDescription && p.Description != nil {
		return &ValidationError{Field: "description", Message: "cannot set and clear in the same update"}
	}
	if err := ValidateDescription(p.Description); err != nil {
		return err
	}
	if p.ClearDeadline && p.DeadlineAt != nil {
		return &ValidationError{Field: "deadline_at", Message: "cannot set and clear in the same update"}
	}
	return nil
}

// Apply merges the patch into the task. Validation happens first, so a
// failing patch leaves the task unchanged. Reclassification happens only
// when importance or the deadline is part of the patch.
func (t *Task) Apply(p Patch, now time.Time) (MergeResult, error) {
	if err := p.Validate(); err != nil {
		return MergeResult{}, err
	}

	result := MergeResult{PreviousQuadrant: t.quadrant}

	if p.Title != nil {
		title, _ := ValidateTitle(*p.Title)
		t.title = title
		result.Fields = append(result.Fields, "title")
	}

	switch {
	case p.ClearDescription:
		t.description = nil
		result.Fields = append(result.Fields, "description")
	case p.Description != nil:
		t.description = cloneString(p.Description)
		result.Fields = append(result.Fields, "description")
	}

	if p.IsImportant != nil {
		t.important = *p.IsImportant
		result.Fields = append(result.Fields, "is_important")
	}

	switch {
	case p.ClearDeadline:
		t.deadlineAt = nil
		result.Fields = append(result.Fields, "deadline_at")
	case p.DeadlineAt != nil:
		t.deadlineAt = utcTime(p.DeadlineAt)
		result.Fields = append(result.Fields, "deadline_at")
	}

	if p.Completed != nil {
		t.setCompleted(*p.Completed, now)
		result.Fields = append(result.Fields, "completed")
	}

	if p.TouchesClassification() {
		t.reclassify(now)
		result.Reclassified = true
	}

	if len(result.Fields) > 0 {
		t.AddDomainEvent(NewTaskUpdated(t.ID(), result, t.quadrant, now))
	}

	return result, nil
}

// setCompleted stamps completion only on a pending to completed transition
// and clears the stamp when a completed task is reopened.
func (t *Task) setCompleted(completed bool, now time.Time) {
	switch {
	case completed && !t.completed:
		stamp := now.UTC()
		t.completed = true
		t.completedAt = &stamp
	case !completed && t.completed:
		t.completed = false
		t.completedAt = nil
	}
}
