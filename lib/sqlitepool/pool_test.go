// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/prefab/lib/sqlitepool"
)

var migrations = []string{
	`CREATE TABLE templates (name TEXT PRIMARY KEY, version INTEGER NOT NULL);`,
	`ALTER TABLE templates ADD COLUMN digest BLOB;`,
}

func TestOpenAppliesPragmas(t *testing.T) {
	pool := openTestPool(t, filepath.Join(t.TempDir(), "pragmas.db"), nil)

	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	defer pool.Put(conn)

	for pragma, want := range map[string]string{
		"PRAGMA journal_mode": "wal",
		"PRAGMA synchronous":  "1",
		"PRAGMA foreign_keys": "1",
	} {
		var got string
		err := sqlitex.ExecuteTransient(conn, pragma, &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				got = stmt.ColumnText(0)
				return nil
			},
		})
		if err != nil {
			t.Fatalf("%s: %v", pragma, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", pragma, got, want)
		}
	}
}

func TestMigrationsRunOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	pool := openTestPool(t, path, migrations[:1])
	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if version, err := sqlitepool.SchemaVersion(conn); err != nil || version != 1 {
		t.Fatalf("SchemaVersion = %d, %v; want 1", version, err)
	}
	if err := sqlitex.Execute(conn, "INSERT INTO templates (name, version) VALUES (?, ?)", &sqlitex.ExecOptions{
		Args: []any{"gatehouse", 3},
	}); err != nil {
		t.Fatalf("INSERT: %v", err)
	}
	pool.Put(conn)
	if err := pool.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopening with one more migration runs only the new one and
	// keeps the data.
	reopened := openTestPool(t, path, migrations)
	conn, err = reopened.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	defer reopened.Put(conn)
	if version, err := sqlitepool.SchemaVersion(conn); err != nil || version != 2 {
		t.Fatalf("SchemaVersion = %d, %v; want 2", version, err)
	}
	var count int
	err = sqlitex.Execute(conn, "SELECT count(*) FROM templates WHERE digest IS NULL", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("SELECT: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestNewerSchemaRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newer.db")
	pool := openTestPool(t, path, migrations)
	if err := pool.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, err := sqlitepool.Open(sqlitepool.Config{Path: path, PoolSize: 1, Migrations: migrations[:1]})
	if err == nil || !strings.Contains(err.Error(), "newer") {
		t.Fatalf("Open error = %v, want a newer-schema error", err)
	}
}

func TestFailedMigrationRollsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.db")
	_, err := sqlitepool.Open(sqlitepool.Config{
		Path:       path,
		PoolSize:   1,
		Migrations: []string{migrations[0], `CREATE TABLE extra (x); NOT SQL;`},
	})
	if err == nil {
		t.Fatal("Open succeeded with a broken migration")
	}

	pool := openTestPool(t, path, nil)
	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	defer pool.Put(conn)
	if version, err := sqlitepool.SchemaVersion(conn); err != nil || version != 1 {
		t.Errorf("SchemaVersion = %d, %v; want 1", version, err)
	}
}

func TestOnConnect(t *testing.T) {
	var called bool
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     filepath.Join(t.TempDir(), "connect.db"),
		PoolSize: 1,
		OnConnect: func(conn *sqlite.Conn) error {
			called = true
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pool.Close()

	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	pool.Put(conn)
	if !called {
		t.Error("OnConnect was not called")
	}
}

func TestEmptyPathRejected(t *testing.T) {
	if _, err := sqlitepool.Open(sqlitepool.Config{}); err == nil {
		t.Fatal("expected error for empty Path")
	}
}

func TestContextCancellation(t *testing.T) {
	pool := openTestPool(t, filepath.Join(t.TempDir(), "cancel.db"), nil)

	var held []*sqlite.Conn
	for range 4 {
		conn, err := pool.Take(context.Background())
		if err != nil {
			t.Fatalf("Take: %v", err)
		}
		held = append(held, conn)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pool.Take(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}

	for _, conn := range held {
		pool.Put(conn)
	}
}

// openTestPool opens a four-connection pool at path. The pool is
// closed when the test completes unless the test closes it first.
func openTestPool(t *testing.T, path string, migrations []string) *sqlitepool.Pool {
	t.Helper()

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:       path,
		PoolSize:   4,
		Migrations: migrations,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}
