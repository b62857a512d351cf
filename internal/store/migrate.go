package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

// schema is applied in order on every Open. Statements must stay idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS competencies (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL UNIQUE,
		description   TEXT NOT NULL DEFAULT '',
		display_order INTEGER NOT NULL DEFAULT 0,
		is_active     INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS phases (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL UNIQUE,
		display_order INTEGER NOT NULL DEFAULT 0,
		is_active     INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		grade      INTEGER NOT NULL DEFAULT 0,
		class_name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS themes (
		id          TEXT PRIMARY KEY,
		student_id  TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		fiscal_year INTEGER NOT NULL,
		status      TEXT NOT NULL DEFAULT 'in_progress',
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS themes_student ON themes(student_id)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id          TEXT PRIMARY KEY,
		student_id  TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		theme_id    TEXT NOT NULL REFERENCES themes(id) ON DELETE CASCADE,
		phase_id    TEXT REFERENCES phases(id),
		content     TEXT NOT NULL,
		ai_comment  TEXT NOT NULL DEFAULT '',
		reported_at TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS reports_student_reported ON reports(student_id, reported_at)`,
	`CREATE TABLE IF NOT EXISTS report_competencies (
		report_id     TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
		competency_id TEXT NOT NULL REFERENCES competencies(id),
		role          TEXT NOT NULL CHECK (role IN ('strong', 'sub')),
		points        INTEGER NOT NULL,
		PRIMARY KEY (report_id, competency_id)
	)`,
	`CREATE TABLE IF NOT EXISTS streaks (
		student_id       TEXT PRIMARY KEY REFERENCES students(id) ON DELETE CASCADE,
		current_streak   INTEGER NOT NULL DEFAULT 0,
		max_streak       INTEGER NOT NULL DEFAULT 0,
		last_report_date TEXT,
		updated_at       TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL,
		timestamp     TEXT NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS llm_request_events_sequence ON llm_request_events(sequence)`,
}

func migrate(ctx context.Context, q dialect.ExecQuerier) error {
	for i, stmt := range schema {
		if err := q.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}
	return nil
}
