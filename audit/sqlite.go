package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSink stores records in an insert-only table.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and migrates the schema.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// WAL lets readers inspect the transcript while a run appends to it.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %s: %w", p, err)
		}
	}

	s := &SQLiteSink{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteSink) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS audit_records (
			seq              INTEGER PRIMARY KEY AUTOINCREMENT,
			id               TEXT NOT NULL UNIQUE,
			recorded_at      TEXT NOT NULL,
			agent            TEXT NOT NULL,
			task_description TEXT NOT NULL,
			expected_output  TEXT NOT NULL,
			prompt           TEXT NOT NULL,
			response         TEXT NOT NULL,
			cost             REAL NOT NULL DEFAULT 0,
			model            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_agent ON audit_records(agent, seq)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Append implements Sink.
func (s *SQLiteSink) Append(ctx context.Context, rec Record) error {
	rec = Stamp(rec)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_records (id, recorded_at, agent, task_description, expected_output, prompt, response, cost, model)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Time.UTC().Format(time.RFC3339Nano), rec.Agent, rec.TaskDescription,
		rec.ExpectedOutput, rec.Prompt, rec.Response, rec.Cost, rec.Model)
	if err != nil {
		return fmt.Errorf("save audit record: %w", err)
	}
	return nil
}

// Records returns every record in insertion order, optionally filtered by agent.
func (s *SQLiteSink) Records(ctx context.Context, agent string) ([]Record, error) {
	query := `SELECT id, recorded_at, agent, task_description, expected_output, prompt, response, cost, model
		FROM audit_records`
	var args []any
	if agent != "" {
		query += ` WHERE agent = ?`
		args = append(args, agent)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get audit records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r     Record
			at    string
			model sql.NullString
		)
		if err := rows.Scan(&r.ID, &at, &r.Agent, &r.TaskDescription, &r.ExpectedOutput,
			&r.Prompt, &r.Response, &r.Cost, &model); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		r.Time, _ = time.Parse(time.RFC3339Nano, at)
		r.Model = model.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteSink) Close() error { return s.db.Close() }
