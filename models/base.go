// Package models contains stores for timer objects stored
// in different databases like SQLite or Postgres.
package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/JeroenBertels/glh-timer/db"
)

type nowKey struct{}

// WithNow returns new context with attached current time.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, now)
}

// GetNow returns current time attached to context or time.Now().
func GetNow(ctx context.Context) time.Time {
	if now, ok := ctx.Value(nowKey{}).(time.Time); ok {
		return now
	}
	return time.Now()
}

type baseStore struct {
	conn  *sql.DB
	dbms  db.DBMS
	table string
}

func (s *baseStore) runner(ctx context.Context) db.Runner {
	return db.GetRunner(ctx, s.conn)
}

// insertRow executes insert query and returns ID of created row.
//
// Query should not contain RETURNING clause, it will be added
// for Postgres automatically.
func (s *baseStore) insertRow(
	ctx context.Context, query string, args ...any,
) (int64, error) {
	r := s.runner(ctx)
	if s.dbms == db.Postgres {
		var id int64
		err := r.QueryRowContext(
			ctx, fmt.Sprintf(`%s RETURNING "id"`, query), args...,
		).Scan(&id)
		return id, err
	}
	res, err := r.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
