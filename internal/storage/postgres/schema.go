package postgres

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                  TEXT PRIMARY KEY,
	email               TEXT NOT NULL UNIQUE,
	password_hash       TEXT NOT NULL,
	role                TEXT NOT NULL CHECK (role IN ('employee', 'employer')),
	first_name          TEXT NOT NULL,
	last_name           TEXT NOT NULL,
	company             TEXT,
	saved_jobs_id       TEXT,
	applied_jobs_id     TEXT,
	password_changed_at TIMESTAMPTZ,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (role <> 'employer' OR company IS NOT NULL)
);

CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	role        TEXT NOT NULL,
	company     TEXT NOT NULL,
	date        DATE NOT NULL DEFAULT CURRENT_DATE,
	locations   TEXT[] NOT NULL CHECK (cardinality(locations) > 0),
	description TEXT NOT NULL CHECK (char_length(description) BETWEEN 200 AND 500),
	remote      BOOLEAN NOT NULL DEFAULT FALSE,
	employer_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT jobs_employer_date_role_key UNIQUE (employer_id, date, role)
);

CREATE INDEX IF NOT EXISTS jobs_role_idx ON jobs (role);
CREATE INDEX IF NOT EXISTS jobs_created_at_idx ON jobs (created_at DESC);

CREATE TABLE IF NOT EXISTS saved_jobs (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	jobs       TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS applied_jobs (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	jobs       TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS saved_jobs_jobs_idx ON saved_jobs USING GIN (jobs);
CREATE INDEX IF NOT EXISTS applied_jobs_jobs_idx ON applied_jobs USING GIN (jobs);
`

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		s.logger.Error("failed to migrate schema")
		return fmt.Errorf("migrate: %w", err)
	}

	s.logger.Info("schema migrated")
	return nil
}
