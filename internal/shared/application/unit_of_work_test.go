package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type txMarker struct{}

// writes records what a command staged inside the transaction.
type writes struct {
	tasks  []int64
	events []string
}

func TestWithUnitOfWork(t *testing.T) {
	errOutbox := errors.New("outbox insert failed")
	errBegin := errors.New("database is locked")
	errCommit := errors.New("commit: disk full")

	tests := []struct {
		name       string
		beginErr   error
		commitErr  error
		rollback   error
		command    func(ctx context.Context, w *writes) error
		wantErr    error
		wantCommit bool
		wantRoll   bool
		wantWrites writes
	}{
		{
			name: "task and its event commit together",
			command: func(ctx context.Context, w *writes) error {
				w.tasks = append(w.tasks, 1)
				w.events = append(w.events, "matrix.task.created")
				return nil
			},
			wantCommit: true,
			wantWrites: writes{tasks: []int64{1}, events: []string{"matrix.task.created"}},
		},
		{
			name: "outbox failure rolls the task write back",
			command: func(ctx context.Context, w *writes) error {
				w.tasks = append(w.tasks, 1)
				return errOutbox
			},
			wantErr:    errOutbox,
			wantRoll:   true,
			wantWrites: writes{tasks: []int64{1}},
		},
		{
			name:     "rollback failure does not hide the command error",
			rollback: errors.New("rollback: connection closed"),
			command: func(context.Context, *writes) error {
				return errOutbox
			},
			wantErr:  errOutbox,
			wantRoll: true,
		},
		{
			name:     "begin failure never runs the command",
			beginErr: errBegin,
			command: func(_ context.Context, w *writes) error {
				w.tasks = append(w.tasks, 1)
				return nil
			},
			wantErr: errBegin,
		},
		{
			name:      "commit failure is returned",
			commitErr: errCommit,
			command: func(_ context.Context, w *writes) error {
				w.events = append(w.events, "matrix.task.deleted")
				return nil
			},
			wantErr:    errCommit,
			wantCommit: true,
			wantWrites: writes{events: []string{"matrix.task.deleted"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			txCtx := context.WithValue(ctx, txMarker{}, "tx")
			uow := new(mockUnitOfWork)
			if tt.beginErr != nil {
				uow.On("Begin", ctx).Return(ctx, tt.beginErr)
			} else {
				uow.On("Begin", ctx).Return(txCtx, nil)
			}
			if tt.wantCommit {
				uow.On("Commit", txCtx).Return(tt.commitErr)
			}
			if tt.wantRoll {
				uow.On("Rollback", txCtx).Return(tt.rollback)
			}

			var got writes
			err := WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
				assert.Equal(t, "tx", ctx.Value(txMarker{}), "command runs inside the transaction")
				return tt.command(ctx, &got)
			})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantWrites, got)
			uow.AssertExpectations(t)
			if !tt.wantCommit {
				uow.AssertNotCalled(t, "Commit", mock.Anything)
			}
			if !tt.wantRoll {
				uow.AssertNotCalled(t, "Rollback", mock.Anything)
			}
		})
	}
}

func TestWithUnitOfWork_PanicRollsBack(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txMarker{}, "tx")
	uow := new(mockUnitOfWork)
	uow.On("Begin", ctx).Return(txCtx, nil)
	uow.On("Rollback", txCtx).Return(nil)

	assert.PanicsWithValue(t, "nil task", func() {
		_ = WithUnitOfWork(ctx, uow, func(context.Context) error {
			panic("nil task")
		})
	})

	uow.AssertExpectations(t)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
}
