// Package persistence holds unit-of-work support for stores that have no
// native transactions.
package persistence

import (
	"context"
	"errors"
)

type lockKey struct{}

// LockInfo records which unit of work holds the writer lock for a context.
type LockInfo struct {
	UoW   *LockingUnitOfWork
	Owned bool
}

// WithLock stores lock ownership in the context.
func WithLock(ctx context.Context, uow *LockingUnitOfWork, owned bool) context.Context {
	return context.WithValue(ctx, lockKey{}, LockInfo{UoW: uow, Owned: owned})
}

// LockInfoFromContext extracts lock ownership from the context.
func LockInfoFromContext(ctx context.Context) (LockInfo, bool) {
	info, ok := ctx.Value(lockKey{}).(LockInfo)
	if !ok || info.UoW == nil {
		return LockInfo{}, false
	}
	return info, true
}

// ErrNoLock is returned when Commit or Rollback runs outside Begin.
var ErrNoLock = errors.New("no unit of work in context")

// LockingUnitOfWork serializes read-modify-write sequences against an
// in-memory store. Only one unit runs at a time; nested Begin calls on a
// context that already holds the lock join the outer unit.
//
// Rollback releases the lock but cannot undo writes already applied.
type LockingUnitOfWork struct {
	sem chan struct{}
}

// NewLockingUnitOfWork creates a new LockingUnitOfWork.
func NewLockingUnitOfWork() *LockingUnitOfWork {
	return &LockingUnitOfWork{sem: make(chan struct{}, 1)}
}

// Begin acquires the writer lock, waiting until it is free or ctx is done.
func (u *LockingUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := LockInfoFromContext(ctx); ok && info.UoW == u {
		return WithLock(ctx, u, false), nil
	}

	select {
	case u.sem <- struct{}{}:
		return WithLock(ctx, u, true), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Commit releases the lock if this unit owns it.
func (u *LockingUnitOfWork) Commit(ctx context.Context) error {
	return u.release(ctx)
}

// Rollback releases the lock if this unit owns it.
func (u *LockingUnitOfWork) Rollback(ctx context.Context) error {
	return u.release(ctx)
}

func (u *LockingUnitOfWork) release(ctx context.Context) error {
	info, ok := LockInfoFromContext(ctx)
	if !ok || info.UoW != u {
		return ErrNoLock
	}
	if !info.Owned {
		return nil
	}
	<-u.sem
	return nil
}
