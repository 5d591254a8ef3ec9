package db

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS identity_records (
		id               uuid PRIMARY KEY,
		session_id       uuid,
		name             text NOT NULL DEFAULT '',
		id_number        text NOT NULL DEFAULT '',
		nationality      text NOT NULL DEFAULT '',
		date_of_birth    text NOT NULL DEFAULT '',
		gender           text NOT NULL DEFAULT '',
		address          text NOT NULL DEFAULT '',
		confident_fields text[] NOT NULL DEFAULT '{}',
		fully_confident  boolean NOT NULL DEFAULT false,
		observations     integer NOT NULL DEFAULT 0,
		created_by       text NOT NULL DEFAULT '',
		created_at       timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS identity_records_id_number_idx ON identity_records (id_number)`,
	`CREATE TABLE IF NOT EXISTS operators (
		id            uuid PRIMARY KEY,
		email         text NOT NULL UNIQUE,
		name          text NOT NULL DEFAULT '',
		role          text NOT NULL DEFAULT 'operator',
		password_hash text NOT NULL,
		active        boolean NOT NULL DEFAULT true,
		last_login_at timestamptz
	)`,
}

// EnsureSchema creates the service tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to apply schema")
		}
	}
	return nil
}
