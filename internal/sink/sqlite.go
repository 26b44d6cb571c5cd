package sink

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/samdwyer/farmbalance/internal/state"
)

// SQLite stores events and snapshots in two tables keyed by run id.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens the database at path and creates the schema.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite sink needs a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer at a time; batch runs share the handle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := createSchemas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}
	return &SQLite{db: db}, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS events (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			description TEXT NOT NULL,
			minute INTEGER NOT NULL,
			game_day INTEGER NOT NULL,
			importance TEXT NOT NULL,
			domain TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT NOT NULL,
			minute INTEGER NOT NULL,
			game_day INTEGER NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY (run_id, minute)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(run_id, event_type);`,
		`CREATE INDEX IF NOT EXISTS idx_events_day ON events(run_id, game_day);`,
	}
	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Event(runID string, e state.Event) error {
	_, err := s.db.Exec(
		`INSERT INTO events (run_id, seq, event_type, description, minute, game_day, importance, domain)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, e.Seq, string(e.Type), e.Description, e.Minute, e.Day, e.Importance.String(), e.Domain,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event %d: %w", e.Seq, err)
	}
	return nil
}

// Snapshot stores snap as JSON. A second snapshot at the same minute replaces the first.
func (s *SQLite) Snapshot(runID string, snap state.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO snapshots (run_id, minute, game_day, payload) VALUES (?, ?, ?, ?)`,
		runID, snap.Minute, snap.Day, string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot at minute %d: %w", snap.Minute, err)
	}
	return nil
}

// CountEvents returns the number of stored events of a run, optionally of one type.
func (s *SQLite) CountEvents(runID string, t state.EventType) (int, error) {
	query := `SELECT COUNT(*) FROM events WHERE run_id = ?`
	args := []any{runID}
	if t != "" {
		query += ` AND event_type = ?`
		args = append(args, string(t))
	}
	var n int
	err := s.db.QueryRow(query, args...).Scan(&n)
	return n, err
}

// LastSnapshot returns the latest stored snapshot of a run.
func (s *SQLite) LastSnapshot(runID string) (state.Snapshot, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM snapshots WHERE run_id = ? ORDER BY minute DESC LIMIT 1`, runID,
	).Scan(&payload)
	if err != nil {
		return state.Snapshot{}, err
	}
	var snap state.Snapshot
	err = json.Unmarshal([]byte(payload), &snap)
	return snap, err
}

// RunIDs lists the runs with stored events in first-seen order.
func (s *SQLite) RunIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT run_id FROM events GROUP BY run_id ORDER BY MIN(rowid)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
