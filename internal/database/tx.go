package database

import (
	"context"
	"database/sql"
)

// Querier is the subset of *sql.DB and *sql.Tx the repositories use.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxRunner runs fn inside a single transaction. Repositories called with the
// ctx handed to fn take part in that transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// Executor returns the transaction stored in ctx, or db when there is none.
func Executor(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// SQLTx is the TxRunner backed by database/sql.
type SQLTx struct {
	db *sql.DB
}

func NewSQLTx(db *sql.DB) *SQLTx {
	return &SQLTx{db: db}
}

func (t *SQLTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		// joined the outer transaction
		return fn(ctx)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

// NoopTx runs fn directly. Used with the in-memory repositories.
type NoopTx struct{}

func (NoopTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
