package db

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func testDB(t *testing.T) *sql.DB {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal("Error: ", err)
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(
		`CREATE TABLE "test_object" ("id" INTEGER PRIMARY KEY, "value" VARCHAR(255))`,
	); err != nil {
		t.Fatal("Error: ", err)
	}
	return conn
}

func TestGetRunner(t *testing.T) {
	conn := testDB(t)
	defer func() {
		_ = conn.Close()
	}()
	ctx := context.Background()
	if r := GetRunner(ctx, conn); r != Runner(conn) {
		t.Fatal("Expected fallback runner")
	}
	if tx := GetTx(ctx); tx != nil {
		t.Fatal("Expected nil transaction")
	}
	err := WrapTx(ctx, conn, func(tx *sql.Tx) error {
		ctx := WithTx(ctx, tx)
		if GetTx(ctx) != tx {
			t.Fatal("Expected transaction from context")
		}
		if r := GetRunner(ctx, conn); r != Runner(tx) {
			t.Fatal("Expected transaction runner")
		}
		return nil
	})
	if err != nil {
		t.Fatal("Error: ", err)
	}
}

func TestWrapTx(t *testing.T) {
	conn := testDB(t)
	defer func() {
		_ = conn.Close()
	}()
	ctx := context.Background()
	err := WrapTx(ctx, conn, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO "test_object" ("value") VALUES ($1)`, "first",
		)
		return err
	})
	if err != nil {
		t.Fatal("Error: ", err)
	}
	err = WrapTx(ctx, conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT INTO "test_object" ("value") VALUES ($1)`, "second",
		); err != nil {
			return err
		}
		return fmt.Errorf("rollback")
	})
	if err == nil {
		t.Fatal("Expected error")
	}
	var count int
	if err := conn.QueryRow(
		`SELECT COUNT(*) FROM "test_object"`,
	).Scan(&count); err != nil {
		t.Fatal("Error: ", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 row, got %d", count)
	}
}
