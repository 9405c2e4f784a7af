// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db bootstraps the SQL schema used by the store's SQL backends.

# Schema

One table:

  - poll_doc: id (primary key), doc (the JSON poll aggregate), version
    (optimistic concurrency counter)

The document column is TEXT rather than JSONB so the same statement runs
on both PostgreSQL and SQLite; the server never queries inside the
document.

# Usage

	if err := db.CreateSchema(conn); err != nil { ... }

CreateSchema is idempotent (IF NOT EXISTS).
*/
package db
