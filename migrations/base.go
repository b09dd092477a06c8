// Package migrations contains migrations for timer database.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/JeroenBertels/glh-timer/db"
)

// migration represents database migration.
type migration interface {
	// Name should return unique migration name.
	Name() string
	// Apply should apply database migration.
	Apply(ctx context.Context, tx *sql.Tx, dbms db.DBMS) error
	// Unapply should unapply database migration.
	Unapply(ctx context.Context, tx *sql.Tx, dbms db.DBMS) error
}

var registeredMigrations = map[string]migration{}

func registerMigration(m migration) {
	name := m.Name()
	if _, ok := registeredMigrations[name]; ok {
		panic(fmt.Errorf("migration %q already registered", name))
	}
	registeredMigrations[name] = m
}

func getMigrations() []migration {
	var migrations []migration
	for _, m := range registeredMigrations {
		migrations = append(migrations, m)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Name() < migrations[j].Name()
	})
	return migrations
}

const migrationTable = "timer_db_migration"

// setupMigrations creates migrations table if it does not exist.
func setupMigrations(
	ctx context.Context, conn *sql.DB, dbms db.DBMS,
) error {
	switch dbms {
	case db.SQLite:
		_, err := conn.ExecContext(
			ctx,
			fmt.Sprintf(
				`CREATE TABLE IF NOT EXISTS %q (`+
					`"id" integer PRIMARY KEY,`+
					` "name" varchar(255) NOT NULL,`+
					` "apply_time" bigint NOT NULL)`,
				migrationTable,
			),
		)
		return err
	case db.Postgres:
		_, err := conn.ExecContext(
			ctx,
			fmt.Sprintf(
				`CREATE TABLE IF NOT EXISTS %q (`+
					`"id" bigserial PRIMARY KEY,`+
					` "name" varchar(255) NOT NULL,`+
					` "apply_time" bigint NOT NULL)`,
				migrationTable,
			),
		)
		return err
	default:
		return fmt.Errorf("unsupported dbms %v", dbms)
	}
}

func getAppliedMigrations(
	ctx context.Context, tx *sql.Tx,
) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(
		ctx,
		fmt.Sprintf(`SELECT "name" FROM %q`, migrationTable),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	applied := map[string]struct{}{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = struct{}{}
	}
	return applied, rows.Err()
}

// Apply applies all registered migrations that are not applied yet.
func Apply(
	ctx context.Context, conn *sql.DB, dbms db.DBMS, now int64,
) error {
	if err := setupMigrations(ctx, conn, dbms); err != nil {
		return err
	}
	return db.WrapTx(ctx, conn, func(tx *sql.Tx) error {
		applied, err := getAppliedMigrations(ctx, tx)
		if err != nil {
			return err
		}
		for _, m := range getMigrations() {
			if _, ok := applied[m.Name()]; ok {
				continue
			}
			if err := m.Apply(ctx, tx, dbms); err != nil {
				return fmt.Errorf("unable to apply %q: %w", m.Name(), err)
			}
			if _, err := tx.ExecContext(
				ctx,
				fmt.Sprintf(
					`INSERT INTO %q ("name", "apply_time")`+
						` VALUES ($1, $2)`,
					migrationTable,
				),
				m.Name(), now,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// Unapply unapplies all applied migrations in reverse order.
func Unapply(ctx context.Context, conn *sql.DB, dbms db.DBMS) error {
	if err := setupMigrations(ctx, conn, dbms); err != nil {
		return err
	}
	return db.WrapTx(ctx, conn, func(tx *sql.Tx) error {
		applied, err := getAppliedMigrations(ctx, tx)
		if err != nil {
			return err
		}
		migrations := getMigrations()
		for i := len(migrations) - 1; i >= 0; i-- {
			m := migrations[i]
			if _, ok := applied[m.Name()]; !ok {
				continue
			}
			if err := m.Unapply(ctx, tx, dbms); err != nil {
				return fmt.Errorf(
					"unable to unapply %q: %w", m.Name(), err,
				)
			}
			if _, err := tx.ExecContext(
				ctx,
				fmt.Sprintf(
					`DELETE FROM %q WHERE "name" = $1`, migrationTable,
				),
				m.Name(),
			); err != nil {
				return err
			}
		}
		return nil
	})
}
