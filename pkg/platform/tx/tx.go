// Package tx carries an open SQL transaction through a context so stores
// called inside a workflow join it without taking it as a parameter.
package tx

import (
	"context"
	"database/sql"
)

type txKey struct{}

// WithTx returns ctx carrying tx. A nil tx leaves ctx unchanged.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey{}, tx)
}

func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}

// Active reports whether ctx already carries a transaction.
func Active(ctx context.Context) bool {
	_, ok := From(ctx)
	return ok
}
