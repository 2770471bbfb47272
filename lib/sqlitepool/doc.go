// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides a SQLite connection pool with standard
// pragmas and ordered schema migrations.
//
// It wraps zombiezen.com/go/sqlite: callers [Pool.Take] a connection,
// perform work, and [Pool.Put] it back. Connections are not safe for
// concurrent use; each goroutine holds its own for the duration of
// its work.
//
// # Pragmas
//
// Every connection in the pool is initialized with:
//
//   - journal_mode=WAL: readers never block the writer.
//   - synchronous=NORMAL: transactions survive process crashes.
//   - busy_timeout=5000: wait up to 5 seconds for the write lock.
//   - foreign_keys=ON: instance rows cascade with their template.
//   - cache_size=-8192: 8 MB page cache per connection.
//   - temp_store=MEMORY.
//
// # Migrations
//
// [Config.Migrations] lists schema scripts. Open runs the ones the
// database has not seen, each in its own IMMEDIATE transaction, and
// records progress in PRAGMA user_version. A database whose version is
// ahead of the list is refused rather than written by older code.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:       "/var/lib/prefab/store.db",
//	    Migrations: schema,
//	    Logger:     logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	conn, err := pool.Take(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Put(conn)
package sqlitepool
