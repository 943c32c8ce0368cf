package task_test

import (
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newPersistedTask(t *testing.T, d task.Draft, id int64) *task.Task {
	t.Helper()
	tsk, err := task.NewTask(d, testNow)
	require.NoError(t, err)
	require.NoError(t, tsk.AssignID(id))
	tsk.ClearDomainEvents()
	return tsk
}

func TestNewTask(t *testing.T) {
	deadline := testNow.Add(24 * time.Hour)

	tsk, err := task.NewTask(task.Draft{
		Title:       "  File taxes  ",
		Description: ptr("Before the deadline"),
		IsImportant: true,
		DeadlineAt:  &deadline,
	}, testNow)

	require.NoError(t, err)
	assert.Zero(t, tsk.ID())
	assert.Equal(t, "File taxes", tsk.Title())
	assert.Equal(t, "Before the deadline", *tsk.Description())
	assert.True(t, tsk.IsImportant())
	assert.True(t, tsk.IsUrgent())
	assert.Equal(t, task.Q1, tsk.Quadrant())
	assert.False(t, tsk.IsCompleted())
	assert.Nil(t, tsk.CompletedAt())
	assert.Equal(t, testNow, tsk.CreatedAt())
	assert.Empty(t, tsk.DomainEvents(), "creation event waits for the id")
}

func TestNewTask_UrgencyWithoutDeadline(t *testing.T) {
	tsk, err := task.NewTask(task.Draft{Title: "Reply to Bob", IsUrgent: true}, testNow)
	require.NoError(t, err)
	assert.True(t, tsk.IsUrgent())
	assert.Equal(t, task.Q3, tsk.Quadrant())

	tsk, err = task.NewTask(task.Draft{Title: "Read a novel"}, testNow)
	require.NoError(t, err)
	assert.False(t, tsk.IsUrgent())
	assert.Equal(t, task.Q4, tsk.Quadrant())
}

func TestNewTask_DeadlineOverridesSuppliedUrgency(t *testing.T) {
	deadline := testNow.Add(10 * 24 * time.Hour)

	tsk, err := task.NewTask(task.Draft{Title: "Plan offsite", IsImportant: true, IsUrgent: true, DeadlineAt: &deadline}, testNow)

	require.NoError(t, err)
	assert.False(t, tsk.IsUrgent())
	assert.Equal(t, task.Q2, tsk.Quadrant())
}

func TestNewTask_Validation(t *testing.T) {
	tests := []struct {
		name  string
		draft task.Draft
		field string
	}{
		{"empty title", task.Draft{Title: ""}, "title"},
		{"short title", task.Draft{Title: "ab"}, "title"},
		{"whitespace padded short title", task.Draft{Title: "  ab  "}, "title"},
		{"long title", task.Draft{Title: strings.Repeat("x", 101)}, "title"},
		{"long description", task.Draft{Title: "valid", Description: ptr(strings.Repeat("d", 501))}, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := task.NewTask(tt.draft, testNow)
			require.Error(t, err)
			assert.ErrorIs(t, err, task.ErrValidation)

			var vErr *task.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestNewTask_LengthLimitsCountRunes(t *testing.T) {
	_, err := task.NewTask(task.Draft{Title: strings.Repeat("é", 100)}, testNow)
	assert.NoError(t, err)

	_, err = task.NewTask(task.Draft{Title: "abc", Description: ptr(strings.Repeat("ü", 500))}, testNow)
	assert.NoError(t, err)
}

func TestTask_AssignID(t *testing.T) {
	tsk, err := task.NewTask(task.Draft{Title: "Write report", IsImportant: true}, testNow)
	require.NoError(t, err)

	require.NoError(t, tsk.AssignID(5))
	assert.Equal(t, int64(5), tsk.ID())

	events := tsk.DomainEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(*task.TaskCreated)
	require.True(t, ok)
	assert.Equal(t, int64(5), created.AggregateID())
	assert.Equal(t, task.RoutingKeyCreated, created.RoutingKey())
	assert.Equal(t, "Q2", created.Quadrant)

	err = tsk.AssignID(6)
	assert.ErrorIs(t, err, task.ErrInvalidInput)
	assert.Equal(t, int64(5), tsk.ID())
}

func TestTask_Complete_RestampsEveryCall(t *testing.T) {
	tsk := newPersistedTask(t, task.Draft{Title: "Ship release"}, 1)

	tsk.Complete(testNow)
	require.NotNil(t, tsk.CompletedAt())
	first := *tsk.CompletedAt()

	later := testNow.Add(time.Minute)
	tsk.Complete(later)

	assert.True(t, tsk.IsCompleted())
	assert.True(t, tsk.CompletedAt().After(first))
	assert.Equal(t, later, *tsk.CompletedAt())
	assert.Len(t, tsk.DomainEvents(), 2)
}

func TestTask_Matches(t *testing.T) {
	withDesc := newPersistedTask(t, task.Draft{Title: "Groceries", Description: ptr("Buy MILK and eggs")}, 1)
	noDesc := newPersistedTask(t, task.Draft{Title: "abc"}, 2)

	assert.True(t, withDesc.Matches("gRoC"))
	assert.True(t, withDesc.Matches("milk"))
	assert.False(t, withDesc.Matches("bread"))
	assert.True(t, noDesc.Matches("ab"))
	assert.False(t, noDesc.Matches("zz"))
}

func TestValidateSearchQuery(t *testing.T) {
	assert.ErrorIs(t, task.ValidateSearchQuery(""), task.ErrValidation)
	assert.ErrorIs(t, task.ValidateSearchQuery("a"), task.ErrValidation)
	assert.NoError(t, task.ValidateSearchQuery("ab"))
	assert.NoError(t, task.ValidateSearchQuery("日本"))
}

func TestParseID(t *testing.T) {
	id, err := task.ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "abc", "0", "-3", "+3", "1.5", "99999999999999999999"} {
		t.Run(raw, func(t *testing.T) {
			_, err := task.ParseID(raw)
			assert.ErrorIs(t, err, task.ErrInvalidInput)
		})
	}
}

func TestRehydrate_KeepsStoredClassification(t *testing.T) {
	deadline := testNow.Add(time.Hour)
	tsk := task.Rehydrate(task.Snapshot{
		ID:          9,
		Title:       "Stale",
		IsImportant: true,
		IsUrgent:    false,
		Quadrant:    task.Q2,
		DeadlineAt:  &deadline,
		CreatedAt:   testNow,
	})

	assert.Equal(t, int64(9), tsk.ID())
	assert.Equal(t, task.Q2, tsk.Quadrant(), "no re-derivation on read")
	assert.Empty(t, tsk.DomainEvents())
}

func TestTask_CloneIsIndependent(t *testing.T) {
	tsk := newPersistedTask(t, task.Draft{Title: "Original", Description: ptr("desc")}, 3)
	clone := tsk.Clone()

	_, err := clone.Apply(task.Patch{Title: ptr("Changed")}, testNow)
	require.NoError(t, err)

	assert.Equal(t, "Original", tsk.Title())
	assert.Equal(t, "Changed", clone.Title())
	assert.Equal(t, tsk.ID(), clone.ID())
}
