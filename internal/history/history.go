// Package history keeps a local SQLite log of finished sessions.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fakeyudi/podium/internal/report"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("session not found in history")

// Record is one finished session.
type Record struct {
	ID           string
	SessionID    int64
	Speaker      string
	StartTime    time.Time
	StopTime     time.Time
	Elapsed      int
	Posture      int
	Eye          int
	Gesture      int
	Fillers      int
	PauseAlerts  int
	RecordingURL string
	ReportPath   string
}

// FromReport summarises r, stored at path, as a history record.
func FromReport(r *report.Report, path string) Record {
	return Record{
		ID:           r.Session.ID,
		SessionID:    r.Session.SessionID,
		Speaker:      r.Session.Speaker,
		StartTime:    r.Session.StartTime,
		StopTime:     r.Session.StopTime,
		Elapsed:      r.Session.ElapsedSeconds,
		Posture:      r.Scores.Posture,
		Eye:          r.Scores.Eye,
		Gesture:      r.Scores.Gesture,
		Fillers:      r.Tally.Total(),
		PauseAlerts:  r.PauseAlerts,
		RecordingURL: r.RecordingURL,
		ReportPath:   path,
	}
}

// Store is the SQLite-backed history.
type Store struct {
	conn *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	s := &Store{conn: conn}
	if err := s.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	_, err := s.conn.Exec(`
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		session_id INTEGER NOT NULL,
		speaker TEXT NOT NULL DEFAULT '',
		start_time INTEGER NOT NULL,
		stop_time INTEGER NOT NULL,
		elapsed_seconds INTEGER NOT NULL,
		posture INTEGER NOT NULL,
		eye INTEGER NOT NULL,
		gesture INTEGER NOT NULL,
		fillers INTEGER NOT NULL,
		pause_alerts INTEGER NOT NULL,
		video_url TEXT NOT NULL DEFAULT '',
		report_path TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS sessions_stop_time ON sessions (stop_time);
	`)
	return err
}

// Close releases the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Insert adds rec, replacing any record with the same id.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	_, err := s.conn.ExecContext(ctx, `
	INSERT OR REPLACE INTO sessions
		(id, session_id, speaker, start_time, stop_time, elapsed_seconds,
		 posture, eye, gesture, fillers, pause_alerts, video_url, report_path)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Speaker, rec.StartTime.Unix(), rec.StopTime.Unix(), rec.Elapsed,
		rec.Posture, rec.Eye, rec.Gesture, rec.Fillers, rec.PauseAlerts, rec.RecordingURL, rec.ReportPath)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

const selectColumns = `id, session_id, speaker, start_time, stop_time, elapsed_seconds,
	posture, eye, gesture, fillers, pause_alerts, video_url, report_path`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var start, stop int64
	err := row.Scan(&rec.ID, &rec.SessionID, &rec.Speaker, &start, &stop, &rec.Elapsed,
		&rec.Posture, &rec.Eye, &rec.Gesture, &rec.Fillers, &rec.PauseAlerts, &rec.RecordingURL, &rec.ReportPath)
	if err != nil {
		return rec, err
	}
	rec.StartTime = time.Unix(start, 0).UTC()
	rec.StopTime = time.Unix(stop, 0).UTC()
	return rec, nil
}

// List returns up to limit records, newest first. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM sessions ORDER BY stop_time DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read session: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return out, nil
}

// Get returns the record with the given run id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM sessions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &rec, nil
}
