// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/authflow-tui/internal/session"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed      = errors.New("history store closed")
	ErrInvalidPath = errors.New("invalid history path")
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS auth_events (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	ts      TEXT NOT NULL,
	state   TEXT NOT NULL,
	outcome TEXT NOT NULL,
	message TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_auth_events_ts ON auth_events(ts);
`

// Outcome classifies a recorded event.
const (
	OutcomeSuccess    = "success"
	OutcomeError      = "error"
	OutcomeTransition = "transition"
)

// Event is one row of the audit trail.
type Event struct {
	ID      int64
	At      time.Time
	State   string
	Outcome string
	Message string
}

// =============================================================================
// STORE
// =============================================================================

// Store is a SQLite-backed event log.
type Store struct {
	db *sql.DB
}

// Open creates or opens the event log at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record appends an event. A zero At is stamped with the current time.
func (s *Store) Record(ev Event) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	_, err := s.db.Exec(
		"INSERT INTO auth_events (ts, state, outcome, message) VALUES (?, ?, ?, ?)",
		ev.At.UTC().Format(time.RFC3339Nano), ev.State, ev.Outcome, ev.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Recent returns up to n events, newest first.
func (s *Store) Recent(n int) ([]Event, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	if n <= 0 {
		n = 50
	}

	rows, err := s.db.Query(
		"SELECT id, ts, state, outcome, message FROM auth_events ORDER BY id DESC LIMIT ?", n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var ts string
		if err := rows.Scan(&ev.ID, &ts, &ev.State, &ev.Outcome, &ev.Message); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if parsed, perr := time.Parse(time.RFC3339Nano, ts); perr == nil {
			ev.At = parsed
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// =============================================================================
// SESSION LISTENER
// =============================================================================

// Listener adapts the store into a session transition listener. Write
// failures are swallowed: the audit trail is best-effort and must not
// disturb the flow that produced the event.
func (s *Store) Listener() session.Listener {
	return func(n session.Notification) {
		ev := Event{
			State:   n.State.String(),
			Message: n.Message.Text,
		}
		switch n.Message.Kind {
		case session.MessageSuccess:
			ev.Outcome = OutcomeSuccess
		case session.MessageError:
			ev.Outcome = OutcomeError
		default:
			ev.Outcome = OutcomeTransition
		}
		_ = s.Record(ev)
	}
}
