// Package history archives terminal sessions to a local SQLite database,
// the client-side transcript cache. Export and listing commands read from
// it; nothing in the streaming path depends on it.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/session"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/stream"
)

// ErrNotFound is returned when no session matches the requested ID.
var ErrNotFound = errors.New("session not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	query        TEXT NOT NULL,
	model        TEXT NOT NULL,
	status       TEXT NOT NULL,
	stage        TEXT NOT NULL DEFAULT '',
	report       TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	sources      TEXT NOT NULL DEFAULT '[]',
	transcript   TEXT NOT NULL DEFAULT '[]',
	log          TEXT NOT NULL DEFAULT '[]',
	events       INTEGER NOT NULL DEFAULT 0,
	parse_errors INTEGER NOT NULL DEFAULT 0,
	started_at   TIMESTAMP NOT NULL,
	duration_ms  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);
`

// Record is one archived session.
type Record struct {
	ID          string
	Query       string
	Model       string
	Status      stream.Status
	Stage       string
	Report      string
	Error       string
	Sources     []string
	Transcript  []stream.Segment
	Log         []string
	Events      int
	ParseErrors int
	Started     time.Time
	Duration    time.Duration
}

// Store is a SQLite-backed session archive.
// The dbPath can be a file path or ":memory:" for an in-memory database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the archive database and applies the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save archives one terminal session result. Saving the same session ID
// twice replaces the earlier record.
func (s *Store) Save(ctx context.Context, res session.Result) error {
	sources, err := json.Marshal(res.Sources)
	if err != nil {
		return fmt.Errorf("encoding sources: %w", err)
	}
	transcript, err := json.Marshal(res.Transcript)
	if err != nil {
		return fmt.Errorf("encoding transcript: %w", err)
	}
	log, err := json.Marshal(res.Log)
	if err != nil {
		return fmt.Errorf("encoding log: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions
			(id, query, model, status, stage, report, error, sources, transcript, log,
			 events, parse_errors, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.Query, res.Model, string(res.Status), res.Stage, res.Report, res.Error,
		string(sources), string(transcript), string(log),
		res.Events, res.ParseErrors, res.Started.UTC(), res.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	return nil
}

// Get returns the archived session with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, query, model, status, stage, report, error, sources, transcript, log,
		       events, parse_errors, started_at, duration_ms
		FROM sessions WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// Latest returns the most recently started archived session, or
// ErrNotFound when the archive is empty.
func (s *Store) Latest(ctx context.Context) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, query, model, status, stage, report, error, sources, transcript, log,
		       events, parse_errors, started_at, duration_ms
		FROM sessions ORDER BY started_at DESC LIMIT 1`)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// List returns up to limit archived sessions, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, model, status, stage, report, error, sources, transcript, log,
		       events, parse_errors, started_at, duration_ms
		FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		rec        Record
		status     string
		sources    string
		transcript string
		log        string
		durationMS int64
	)

	err := sc.Scan(&rec.ID, &rec.Query, &rec.Model, &status, &rec.Stage, &rec.Report, &rec.Error,
		&sources, &transcript, &log, &rec.Events, &rec.ParseErrors, &rec.Started, &durationMS)
	if err != nil {
		return nil, err
	}

	rec.Status = stream.Status(status)
	rec.Duration = time.Duration(durationMS) * time.Millisecond

	if err := json.Unmarshal([]byte(sources), &rec.Sources); err != nil {
		return nil, fmt.Errorf("decoding sources: %w", err)
	}
	if err := json.Unmarshal([]byte(transcript), &rec.Transcript); err != nil {
		return nil, fmt.Errorf("decoding transcript: %w", err)
	}
	if err := json.Unmarshal([]byte(log), &rec.Log); err != nil {
		return nil, fmt.Errorf("decoding log: %w", err)
	}

	return &rec, nil
}
