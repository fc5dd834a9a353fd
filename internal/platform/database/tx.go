package database

import (
	"context"
	"database/sql"
	"time"

	dErrors "boards/pkg/domain-errors"
	txcontext "boards/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// Executor is satisfied by both *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor returns the transaction carried by ctx, or the pool.
func (db *DB) Executor(ctx context.Context) Executor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db.DB
}

// RunInTx runs fn inside a transaction carried by the context passed to fn.
// Stores reached through that context join the transaction. A call made while
// a transaction is already open joins it instead of nesting.
func (db *DB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txcontext.Active(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, db.txTimeout)
		defer cancel()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	return tx.Commit()
}
