package store

import (
	"context"
	"database/sql"
)

// schema is applied idempotently at startup. The unique constraint on
// occ_student_id backs the one-row-per-student guarantee under concurrent
// registrations.
const schema = `
CREATE TABLE IF NOT EXISTS visitors (
    id              BIGSERIAL PRIMARY KEY,
    name            VARCHAR(120) NOT NULL,
    occ_student_id  VARCHAR(9)   UNIQUE,
    role            VARCHAR(20)  NOT NULL,
    first_seen      TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    last_seen       TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
    quiz_completed  BOOLEAN      NOT NULL DEFAULT FALSE,
    quiz_best_score INT          NOT NULL DEFAULT 0,
    quiz_best_at    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS visits (
    id          BIGSERIAL   PRIMARY KEY,
    visitor_id  BIGINT      NOT NULL REFERENCES visitors(id),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_visits_created_at ON visits (created_at);
CREATE INDEX IF NOT EXISTS idx_visits_visitor_id ON visits (visitor_id);
`

// EnsureSchema creates the visitor and visit tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
