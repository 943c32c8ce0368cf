package database

import (
	"context"
	"fmt"
)

// Row is a single result row. *sql.Row and pgx.Row satisfy it.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result set. *sql.Rows satisfies it directly; the postgres
// package adapts pgx.Rows.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Result reports how many rows a statement touched. Inserts read their id
// back with RETURNING, which both drivers support.
type Result interface {
	RowsAffected() (int64, error)
}

// Executor runs statements written with ? placeholders. Task and outbox
// repositories depend on it only, so the same code runs on a connection
// or inside the transaction of a unit of work.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Transaction is an Executor that must end in Commit or Rollback.
type Transaction interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is an open task store.
type Connection interface {
	Executor
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
	Ping(ctx context.Context) error
	Driver() Driver
}

// CollectRows scans every row with scan and closes rows. An empty result
// set yields an empty, non-nil slice.
func CollectRows[T any](rows Rows, scan func(Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return items, nil
}
