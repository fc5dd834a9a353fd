package database

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      VARCHAR(150) NOT NULL UNIQUE,
		email         VARCHAR(254) NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		first_name    VARCHAR(150) NOT NULL DEFAULT '',
		last_name     VARCHAR(150) NOT NULL DEFAULT '',
		date_joined   TIMESTAMPTZ NOT NULL,
		last_login    TIMESTAMPTZ NULL
	)`,
	`CREATE TABLE IF NOT EXISTS boards (
		id          BIGSERIAL PRIMARY KEY,
		name        VARCHAR(30) NOT NULL UNIQUE,
		description VARCHAR(100) NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS topics (
		id           BIGSERIAL PRIMARY KEY,
		subject      VARCHAR(255) NOT NULL,
		board_id     BIGINT NOT NULL REFERENCES boards(id),
		starter_id   BIGINT NOT NULL REFERENCES users(id),
		created_at   TIMESTAMPTZ NOT NULL,
		last_updated TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS topics_board_last_updated ON topics (board_id, last_updated DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id         BIGSERIAL PRIMARY KEY,
		message    TEXT NOT NULL,
		topic_id   BIGINT NOT NULL REFERENCES topics(id),
		created_by BIGINT NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NULL,
		updated_by BIGINT NULL REFERENCES users(id)
	)`,
	`CREATE INDEX IF NOT EXISTS posts_topic_created ON posts (topic_id, created_at, id)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id           VARCHAR(36) PRIMARY KEY,
		category     VARCHAR(32) NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		user_id      BIGINT NULL,
		subject      TEXT NOT NULL DEFAULT '',
		action       VARCHAR(64) NOT NULL,
		reason       TEXT NOT NULL DEFAULT '',
		request_id   VARCHAR(64) NOT NULL DEFAULT '',
		ip           VARCHAR(64) NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ NULL
	)`,
	`CREATE INDEX IF NOT EXISTS audit_events_user ON audit_events (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS audit_events_unpublished ON audit_events (created_at) WHERE published_at IS NULL`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      VARCHAR(150) NOT NULL UNIQUE,
		email         VARCHAR(254) NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		first_name    VARCHAR(150) NOT NULL DEFAULT '',
		last_name     VARCHAR(150) NOT NULL DEFAULT '',
		date_joined   DATETIME NOT NULL,
		last_login    DATETIME NULL
	)`,
	`CREATE TABLE IF NOT EXISTS boards (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        VARCHAR(30) NOT NULL UNIQUE,
		description VARCHAR(100) NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS topics (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		subject      VARCHAR(255) NOT NULL,
		board_id     INTEGER NOT NULL REFERENCES boards(id),
		starter_id   INTEGER NOT NULL REFERENCES users(id),
		created_at   DATETIME NOT NULL,
		last_updated DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS topics_board_last_updated ON topics (board_id, last_updated DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		message    TEXT NOT NULL,
		topic_id   INTEGER NOT NULL REFERENCES topics(id),
		created_by INTEGER NOT NULL REFERENCES users(id),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NULL,
		updated_by INTEGER NULL REFERENCES users(id)
	)`,
	`CREATE INDEX IF NOT EXISTS posts_topic_created ON posts (topic_id, created_at, id)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id           VARCHAR(36) PRIMARY KEY,
		category     VARCHAR(32) NOT NULL,
		created_at   DATETIME NOT NULL,
		user_id      INTEGER NULL,
		subject      TEXT NOT NULL DEFAULT '',
		action       VARCHAR(64) NOT NULL,
		reason       TEXT NOT NULL DEFAULT '',
		request_id   VARCHAR(64) NOT NULL DEFAULT '',
		ip           VARCHAR(64) NOT NULL DEFAULT '',
		published_at DATETIME NULL
	)`,
	`CREATE INDEX IF NOT EXISTS audit_events_user ON audit_events (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS audit_events_unpublished ON audit_events (created_at) WHERE published_at IS NULL`,
}

// Migrate creates the schema. Every statement is idempotent, so running it on
// an up-to-date database is a no-op.
func (db *DB) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if db.dialect == Postgres {
		schema = postgresSchema
	}
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
