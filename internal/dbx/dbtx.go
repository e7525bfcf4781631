// Package dbx runs the SQLite workspace store's multi-statement writes in one
// transaction.
//
// sqlitestore.Wipe clears every item collection, the settings table and the
// session record through WithTx, so a reset with data wipe either empties the
// whole workspace or leaves it untouched. sqlitestore.InitDefaults uses it to
// check and seed the default settings without racing another writer.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the statement surface a WithTx callback runs against. Both *sql.DB
// and *sql.Tx implement it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back on error or panic; panics are rethrown after the rollback.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
