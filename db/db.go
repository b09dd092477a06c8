// Package db provides helpers for working with SQL databases
// like SQLite or Postgres.
package db

import (
	"context"
	"database/sql"
)

// DBMS represents database management system.
type DBMS int

const (
	// SQLite represents SQLite.
	SQLite DBMS = 1
	// Postgres represents Postgres.
	Postgres DBMS = 2
)

// Runner represents sql.DB or sql.Tx.
type Runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Runner = (*sql.DB)(nil)
	_ Runner = (*sql.Tx)(nil)
)

type txKey struct{}

// WithTx returns new context with attached transaction.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTx returns transaction attached to context or nil.
func GetTx(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return nil
}

// GetRunner returns transaction attached to context or fallback runner.
func GetRunner(ctx context.Context, fallback Runner) Runner {
	if tx := GetTx(ctx); tx != nil {
		return tx
	}
	return fallback
}

// WrapTx runs function inside new transaction.
//
// Transaction will be committed if function returns nil error
// and rolled back otherwise.
func WrapTx(
	ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error,
) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}
