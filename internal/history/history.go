// Package history records pipeline events to Postgres. Journaling is
// optional: a nil Journal is safe to use and records nothing, so the
// pipeline never depends on a database being reachable.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Journal writes build events for one invocation run.
type Journal struct {
	conn  *sql.DB
	runID string
}

// Event is a row in the build_events table.
type Event struct {
	ID        int64
	RunID     string
	Project   string
	Event     string
	Attempt   int
	Detail    string
	CreatedAt time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS build_events (
    id         BIGSERIAL PRIMARY KEY,
    run_id     TEXT NOT NULL,
    project    TEXT NOT NULL,
    event      TEXT NOT NULL,
    attempt    INTEGER NOT NULL DEFAULT 0,
    detail     TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_build_events_project ON build_events(project, created_at DESC);
`

// Open connects to the journal database and applies the schema. Each
// Journal gets a fresh run ID so one invocation's events group together.
func Open(ctx context.Context, dsn string) (*Journal, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping journal db: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Journal{conn: conn, runID: uuid.NewString()}, nil
}

// Close closes the database connection. Safe on nil.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.conn.Close()
}

// RunID returns this invocation's run identifier.
func (j *Journal) RunID() string {
	if j == nil {
		return ""
	}
	return j.runID
}

// Record inserts one event. Safe on nil; insert failures are returned
// but callers are expected to ignore them rather than abort a build.
func (j *Journal) Record(ctx context.Context, project, event string, attempt int, detail string) error {
	if j == nil {
		return nil
	}
	_, err := j.conn.ExecContext(ctx,
		`INSERT INTO build_events (run_id, project, event, attempt, detail) VALUES ($1, $2, $3, $4, $5)`,
		j.runID, project, event, attempt, detail,
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// Recent returns the most recent events for a project, newest first.
func (j *Journal) Recent(ctx context.Context, project string, limit int) ([]Event, error) {
	if j == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.conn.QueryContext(ctx,
		`SELECT id, run_id, project, event, attempt, COALESCE(detail, ''), created_at
		 FROM build_events WHERE project = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		project, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.RunID, &e.Project, &e.Event, &e.Attempt, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
