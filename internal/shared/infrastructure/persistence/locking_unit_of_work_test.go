package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockingUnitOfWork_BeginCommit(t *testing.T) {
	uow := NewLockingUnitOfWork()
	ctx := context.Background()

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)

	info, ok := LockInfoFromContext(txCtx)
	require.True(t, ok)
	assert.True(t, info.Owned)
	assert.Same(t, uow, info.UoW)

	require.NoError(t, uow.Commit(txCtx))

	// Lock is free again.
	txCtx, err = uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(txCtx))
}

func TestLockingUnitOfWork_Nested(t *testing.T) {
	uow := NewLockingUnitOfWork()

	outerCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)

	innerCtx, err := uow.Begin(outerCtx)
	require.NoError(t, err)

	innerInfo, ok := LockInfoFromContext(innerCtx)
	require.True(t, ok)
	assert.False(t, innerInfo.Owned)

	// Inner commit must not release the outer lock.
	require.NoError(t, uow.Commit(innerCtx))

	waitCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = uow.Begin(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, uow.Commit(outerCtx))
}

func TestLockingUnitOfWork_CommitWithoutBegin(t *testing.T) {
	uow := NewLockingUnitOfWork()

	assert.ErrorIs(t, uow.Commit(context.Background()), ErrNoLock)
	assert.ErrorIs(t, uow.Rollback(context.Background()), ErrNoLock)

	other := NewLockingUnitOfWork()
	otherCtx, err := other.Begin(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, uow.Commit(otherCtx), ErrNoLock)
	require.NoError(t, other.Commit(otherCtx))
}

func TestLockingUnitOfWork_SerializesWriters(t *testing.T) {
	uow := NewLockingUnitOfWork()
	counter := 0
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txCtx, err := uow.Begin(context.Background())
			if err != nil {
				return
			}
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
			_ = uow.Commit(txCtx)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}
