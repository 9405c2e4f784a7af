// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates the poll document table for the SQL store
// backends. Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Poll documents: one JSON aggregate per poll, with an optimistic
-- concurrency version. All ballot-affecting writes compare-and-swap on
-- the version; config patches go through the same path.
CREATE TABLE IF NOT EXISTS poll_doc (
    id TEXT PRIMARY KEY,
    doc TEXT NOT NULL,
    version BIGINT NOT NULL DEFAULT 1
);
`
