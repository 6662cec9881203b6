// Package recorder stores capture sessions in a SQLite database: the
// variable catalog, every session document revision and sampled values.
package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	telemetrycapture "github.com/e7canasta/telemetry-capture"
	"github.com/e7canasta/telemetry-capture/internal/sink"
	"github.com/e7canasta/telemetry-capture/vars"
)

const timeLayout = time.RFC3339Nano

var _ sink.Sink = (*SQLiteRecorder)(nil)

// SQLiteRecorder implements sink.Sink on SQLite.
type SQLiteRecorder struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	now    func() time.Time
	closed bool

	skipped uint64 // values JSON cannot represent (NaN, ±Inf)
}

// Session is one recorded connection session.
type Session struct {
	ID            string
	StartedAt     time.Time
	EndedAt       time.Time // zero while open
	VariableCount int
	Documents     int
	Samples       int
}

// SampleRow is one recorded variable value.
type SampleRow struct {
	Seq        uint64
	Tick       int32
	CapturedAt time.Time
	Value      json.RawMessage
}

// Open opens or creates the database at path.
func Open(path string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("recorder: database opened", "path", path)
	return &SQLiteRecorder{db: db, path: path, now: time.Now}, nil
}

// Catalog starts a session and stores its variables.
func (r *SQLiteRecorder) Catalog(sessionID string, cat vars.Catalog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := context.Background()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("recorder: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, variable_count) VALUES (?, ?, ?)`,
		sessionID, r.now().UTC().Format(timeLayout), len(cat),
	); err != nil {
		return fmt.Errorf("recorder: insert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO variables
		(session_id, name, description, unit, type, semantic, byte_offset, element_count, count_as_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("recorder: prepare variables: %w", err)
	}
	defer stmt.Close()

	for _, name := range cat.Names() {
		d := cat[name]
		if _, err := stmt.ExecContext(ctx,
			sessionID, d.Name, d.Description, d.Unit, d.Type.String(), d.Semantic.String(),
			d.Offset, d.Count, d.CountAsTime,
		); err != nil {
			return fmt.Errorf("recorder: insert variable %s: %w", d.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("recorder: commit catalog: %w", err)
	}
	slog.Debug("recorder: session started", "session_id", sessionID, "variables", len(cat))
	return nil
}

func (r *SQLiteRecorder) SessionDocument(doc *telemetrycapture.SessionDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO session_documents (session_id, revision, captured_at, text) VALUES (?, ?, ?, ?)`,
		doc.SessionID, doc.Revision, doc.CapturedAt.UTC().Format(timeLayout), doc.Text,
	)
	if err != nil {
		return fmt.Errorf("recorder: insert session document: %w", err)
	}
	return nil
}

// Sample stores every value of s in one transaction. A value JSON cannot
// encode is skipped and counted; the rest of the frame is still stored.
func (r *SQLiteRecorder) Sample(s sink.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := context.Background()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("recorder: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (session_id, seq, tick, captured_at, name, value) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("recorder: prepare samples: %w", err)
	}
	defer stmt.Close()

	names := make([]string, 0, len(s.Values))
	for name := range s.Values {
		names = append(names, name)
	}
	sort.Strings(names)

	capturedAt := s.CapturedAt.UTC().Format(timeLayout)
	for _, name := range names {
		value, err := json.Marshal(s.Values[name])
		if err != nil {
			r.skipped++
			slog.Debug("recorder: value not stored",
				"session_id", s.SessionID,
				"seq", s.Seq,
				"variable", name,
				"error", err,
			)
			continue
		}
		if _, err := stmt.ExecContext(ctx, s.SessionID, int64(s.Seq), s.Tick, capturedAt, name, string(value)); err != nil {
			return fmt.Errorf("recorder: insert sample %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// Disconnected closes the session.
func (r *SQLiteRecorder) Disconnected(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`,
		r.now().UTC().Format(timeLayout), sessionID,
	); err != nil {
		return fmt.Errorf("recorder: close session: %w", err)
	}
	return nil
}

// Sessions lists recorded sessions, oldest first.
func (r *SQLiteRecorder) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.started_at, COALESCE(s.ended_at, ''), s.variable_count,
			(SELECT COUNT(*) FROM session_documents d WHERE d.session_id = s.id),
			(SELECT COUNT(DISTINCT seq) FROM samples m WHERE m.session_id = s.id)
		FROM sessions s
		ORDER BY s.started_at, s.id`)
	if err != nil {
		return nil, fmt.Errorf("recorder: query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			s              Session
			started, ended string
		)
		if err := rows.Scan(&s.ID, &started, &ended, &s.VariableCount, &s.Documents, &s.Samples); err != nil {
			return nil, fmt.Errorf("recorder: scan session: %w", err)
		}
		if s.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("recorder: session %s started_at: %w", s.ID, err)
		}
		if ended != "" {
			if s.EndedAt, err = time.Parse(timeLayout, ended); err != nil {
				return nil, fmt.Errorf("recorder: session %s ended_at: %w", s.ID, err)
			}
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// LatestDocument returns the highest revision recorded for a session.
func (r *SQLiteRecorder) LatestDocument(ctx context.Context, sessionID string) (revision int32, text string, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT revision, text FROM session_documents WHERE session_id = ? ORDER BY revision DESC LIMIT 1`,
		sessionID,
	).Scan(&revision, &text)
	if err != nil {
		return 0, "", fmt.Errorf("recorder: latest document for %s: %w", sessionID, err)
	}
	return revision, text, nil
}

// Samples returns the recorded values of one variable in frame order.
func (r *SQLiteRecorder) Samples(ctx context.Context, sessionID, name string) ([]SampleRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, tick, captured_at, value FROM samples WHERE session_id = ? AND name = ? ORDER BY seq`,
		sessionID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("recorder: query samples: %w", err)
	}
	defer rows.Close()

	var out []SampleRow
	for rows.Next() {
		var (
			row        SampleRow
			seq        int64
			capturedAt string
			value      string
		)
		if err := rows.Scan(&seq, &row.Tick, &capturedAt, &value); err != nil {
			return nil, fmt.Errorf("recorder: scan sample: %w", err)
		}
		row.Seq = uint64(seq)
		if row.CapturedAt, err = time.Parse(timeLayout, capturedAt); err != nil {
			return nil, fmt.Errorf("recorder: sample captured_at: %w", err)
		}
		row.Value = json.RawMessage(value)
		out = append(out, row)
	}
	return out, rows.Err()
}

// SkippedValues counts sampled values that could not be encoded.
func (r *SQLiteRecorder) SkippedValues() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipped
}

// Close closes the database. Safe to call more than once.
func (r *SQLiteRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.db.Close()
}
