// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrClosed is returned when the journal has been closed.
var ErrClosed = errors.New("journal closed")

// Status is the outcome of a command line.
type Status string

const (
	StatusOK             Status = "ok"
	StatusParseError     Status = "parse_error"
	StatusExecutionError Status = "execution_error"
)

// SourceInteractive marks lines typed at the prompt.
const SourceInteractive = "interactive"

// Entry is one executed command line.
type Entry struct {
	ID        int64
	SessionID string
	Time      time.Time
	Source    string
	Line      string
	Status    Status
	Message   string
}

// =============================================================================
// JOURNAL
// =============================================================================

// Journal is the command log of one console session.
type Journal struct {
	db        *sql.DB
	sessionID string
}

// Open opens (creating if needed) the journal database at path and starts
// a new session in it.
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000", // Concurrent consoles share the file
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	j := &Journal{db: db, sessionID: uuid.New().String()}
	if _, err := db.Exec("INSERT INTO sessions (id, started_at) VALUES (?, ?)",
		j.sessionID, time.Now().UnixNano()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return j, nil
}

// SessionID returns the id of the session started by Open.
func (j *Journal) SessionID() string {
	return j.sessionID
}

// Record appends e to the journal. SessionID and Time are filled in when
// zero; an empty Status means StatusOK.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if j.db == nil {
		return ErrClosed
	}
	if e.SessionID == "" {
		e.SessionID = j.sessionID
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.Status == "" {
		e.Status = StatusOK
	}
	if e.Source == "" {
		e.Source = SourceInteractive
	}

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO entries (session_id, at, source, line, status, message) VALUES (?, ?, ?, ?, ?, ?)",
		e.SessionID, e.Time.UnixNano(), e.Source, e.Line, string(e.Status), nullString(e.Message))
	if err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}
	return nil
}

// Recent returns up to n most recent entries across all sessions, oldest
// first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	if j.db == nil {
		return nil, ErrClosed
	}
	if n <= 0 {
		return nil, nil
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, session_id, at, source, line, status, message
		FROM entries ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at int64
		var status string
		var msg sql.NullString
		if err := rows.Scan(&e.ID, &e.SessionID, &at, &e.Source, &e.Line, &status, &msg); err != nil {
			return nil, fmt.Errorf("failed to read journal entry: %w", err)
		}
		e.Time = time.Unix(0, at)
		e.Status = Status(status)
		e.Message = msg.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	for i, k := 0, len(entries)-1; i < k; i, k = i+1, k-1 {
		entries[i], entries[k] = entries[k], entries[i]
	}
	return entries, nil
}

// Close ends the session and closes the database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	_, endErr := j.db.Exec("UPDATE sessions SET ended_at = ? WHERE id = ?", time.Now().UnixNano(), j.sessionID)
	err := j.db.Close()
	j.db = nil
	if endErr != nil {
		return fmt.Errorf("failed to end session: %w", endErr)
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
