package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const sessionColumns = "id, outcome, started_at, captured_at, completed_at, shared_at, share_key"

// Begin records a new in-progress session.
func (s *Store) Begin(ctx context.Context, id string, at time.Time) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("session id is required")
	}
	if _, err := s.exec(
		ctx,
		`INSERT INTO sessions (id, outcome, started_at) VALUES (?, ?, ?)`,
		id, OutcomeInProgress, formatTime(at),
	); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s.Get(ctx, id)
}

// MarkCaptured records the end of face capture.
func (s *Store) MarkCaptured(ctx context.Context, id string, at time.Time) error {
	return s.advance(ctx, id, "captured_at", OutcomeCaptured, at, "", OutcomeInProgress)
}

// MarkCompleted records the end of playback.
func (s *Store) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	return s.advance(ctx, id, "completed_at", OutcomeCompleted, at, "", OutcomeCaptured)
}

// MarkShared records the stored snapshot key.
func (s *Store) MarkShared(ctx context.Context, id, key string, at time.Time) error {
	return s.advance(ctx, id, "shared_at", OutcomeShared, at, key, OutcomeCompleted)
}

func (s *Store) advance(ctx context.Context, id, column string, outcome Outcome, at time.Time, key string, from Outcome) error {
	query := `UPDATE sessions SET ` + column + ` = ?, outcome = ?`
	args := []any{formatTime(at), outcome}
	if key != "" {
		query += `, share_key = ?`
		args = append(args, key)
	}
	query += ` WHERE id = ? AND outcome = ?`
	args = append(args, id, from)

	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark session %s: %w", outcome, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s is %s, cannot mark %s", ErrClosed, id, current.Outcome, outcome)
}

// AbandonOpen closes every session that never reached the share step,
// returning the number of rows changed. Completed sessions without a share
// are left completed.
func (s *Store) AbandonOpen(ctx context.Context) (int64, error) {
	res, err := s.exec(
		ctx,
		`UPDATE sessions SET outcome = ? WHERE outcome IN (?, ?)`,
		OutcomeAbandoned, OutcomeInProgress, OutcomeCaptured,
	)
	if err != nil {
		return 0, fmt.Errorf("abandon open sessions: %w", err)
	}
	return res.RowsAffected()
}

// Get fetches a session by id.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// List returns the newest sessions first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Stats counts sessions by outcome.
func (s *Store) Stats(ctx context.Context) (map[Outcome]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT outcome, COUNT(1) FROM sessions GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Outcome]int)
	for rows.Next() {
		var outcome Outcome
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		stats[outcome] = count
	}
	return stats, rows.Err()
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id          string
		outcome     string
		startedRaw  string
		capturedRaw sql.NullString
		completeRaw sql.NullString
		sharedRaw   sql.NullString
		shareKey    sql.NullString
	)
	if err := scanner.Scan(&id, &outcome, &startedRaw, &capturedRaw, &completeRaw, &sharedRaw, &shareKey); err != nil {
		return nil, err
	}
	sess := &Session{
		ID:          id,
		Outcome:     Outcome(outcome),
		CapturedAt:  parseNullableTime(capturedRaw),
		CompletedAt: parseNullableTime(completeRaw),
		SharedAt:    parseNullableTime(sharedRaw),
		ShareKey:    shareKey.String,
	}
	if started, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		sess.StartedAt = started
	}
	return sess, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseNullableTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return nil
	}
	return &parsed
}
