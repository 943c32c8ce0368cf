package database

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoTransaction is returned when Commit or Rollback finds no transaction in the context.
var ErrNoTransaction = errors.New("no transaction in context")

// GenericUnitOfWork implements application.UnitOfWork on top of a Connection.
// The transaction travels in the context; repositories pick it up through
// ExecutorFromContext.
type GenericUnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a new GenericUnitOfWork.
func NewUnitOfWork(conn Connection) *GenericUnitOfWork {
	return &GenericUnitOfWork{conn: conn}
}

// Begin starts a transaction, or joins the one already in the context.
func (u *GenericUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := TxInfoFromContext(ctx); ok {
		return WithTx(ctx, info.Tx, false), nil
	}

	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin %s transaction: %w", u.conn.Driver(), err)
	}

	return WithTx(ctx, tx, true), nil
}

// Commit commits the transaction if this unit started it.
func (u *GenericUnitOfWork) Commit(ctx context.Context) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !info.Owned {
		return nil
	}
	return info.Tx.Commit(ctx)
}

// Rollback rolls back the transaction if this unit started it.
func (u *GenericUnitOfWork) Rollback(ctx context.Context) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !info.Owned {
		return nil
	}
	return info.Tx.Rollback(ctx)
}
