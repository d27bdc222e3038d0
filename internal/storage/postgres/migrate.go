package postgres

import (
	"context"
	"fmt"
)

// Schema names a group of idempotent DDL statements.
type Schema string

// Schemas owned by each service.
const (
	SchemaComments Schema = "comments"
	SchemaPosts    Schema = "posts"
)

var ddl = map[Schema][]string{
	SchemaComments: {
		`CREATE TABLE IF NOT EXISTS comments (
	seq        BIGSERIAL PRIMARY KEY,
	id         UUID NOT NULL UNIQUE,
	post_id    TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS comments_post_id_idx ON comments (post_id, seq)`,
	},
	SchemaPosts: {
		`CREATE TABLE IF NOT EXISTS posts (
	id         UUID PRIMARY KEY,
	title      TEXT NOT NULL,
	link       TEXT NOT NULL,
	author     TEXT NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL,
	votes      BIGINT NOT NULL DEFAULT 0
)`,
		`CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS users (
	username      TEXT PRIMARY KEY,
	password_hash BYTEA NOT NULL,
	created_at    BIGINT NOT NULL
)`,
	},
}

// Migrate applies the DDL for schema. Every statement is safe to re-run.
func Migrate(ctx context.Context, db DB, schema Schema) error {
	stmts, ok := ddl[schema]
	if !ok {
		return fmt.Errorf("unknown schema %q", schema)
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", schema, err)
		}
	}
	return nil
}
