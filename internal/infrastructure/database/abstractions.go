package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the store depends on. pgx.Tx satisfies
// it as well, so store code runs unchanged inside a transaction.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TransactionFunc is a function that executes within a transaction
type TransactionFunc func(ctx context.Context, tx pgx.Tx) error

// InTransaction runs fn inside a transaction on db, committing on nil and
// rolling back on error.
func InTransaction(ctx context.Context, db DB, fn TransactionFunc) error {
	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
}
