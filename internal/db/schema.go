package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// sqliteSchema is the full SQLite schema.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS villas (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT NOT NULL,
    name_key      TEXT NOT NULL DEFAULT '',
    detail        TEXT NOT NULL DEFAULT '',
    image_url     TEXT NOT NULL DEFAULT '',
    occupants     INTEGER NOT NULL DEFAULT 0,
    rate          REAL NOT NULL DEFAULT 0,
    square_meters REAL NOT NULL DEFAULT 0,
    amenity       TEXT NOT NULL DEFAULT '',
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS villa_images (
    villa_id INTEGER PRIMARY KEY REFERENCES villas(id) ON DELETE CASCADE,
    data     BLOB NOT NULL,
    mime     TEXT NOT NULL
);
`

// postgresSchema mirrors sqliteSchema for Postgres.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS villas (
    id            BIGSERIAL PRIMARY KEY,
    name          TEXT NOT NULL,
    name_key      TEXT NOT NULL DEFAULT '',
    detail        TEXT NOT NULL DEFAULT '',
    image_url     TEXT NOT NULL DEFAULT '',
    occupants     INTEGER NOT NULL DEFAULT 0,
    rate          DOUBLE PRECISION NOT NULL DEFAULT 0,
    square_meters DOUBLE PRECISION NOT NULL DEFAULT 0,
    amenity       TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS villa_images (
    villa_id BIGINT PRIMARY KEY REFERENCES villas(id) ON DELETE CASCADE,
    data     BYTEA NOT NULL,
    mime     TEXT NOT NULL
);
`

// migrations are applied in order after the schema. Each must be idempotent
// and valid for both dialects. Append new migrations at the end.
var migrations = []string{
	// Migration 1: name lookups go through the case-folded name_key, which
	// the store computes. Not unique, because renames through replace or
	// patch are not checked against other villas.
	`CREATE INDEX IF NOT EXISTS idx_villas_name_key ON villas (name_key)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB, dialect Dialect) error {
	schema := sqliteSchema
	if dialect == Postgres {
		schema = postgresSchema
	}

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
