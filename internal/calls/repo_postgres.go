package calls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aira-backend/pkg/utils"
)

// Schema is the DDL for call sessions. seq preserves insertion order for history reads.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS call_sessions (
		seq BIGSERIAL UNIQUE,
		conversation_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		intent TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ NULL,
		recording JSONB NULL,
		transcript TEXT NULL,
		summary JSONB NULL,
		readiness JSONB NULL,
		failure_reason TEXT NOT NULL DEFAULT '',
		version BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_call_sessions_user_seq ON call_sessions (user_id, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_call_sessions_started_at ON call_sessions (started_at)`,
}

const sessionColumns = `conversation_id, user_id, intent, status, started_at, ended_at,
       recording, transcript, summary, readiness, failure_reason, version`

// PostgresRepo stores sessions in Postgres through database/sql (pgx stdlib driver).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	return utils.ApplySchema(ctx, r.db, Schema)
}

func (r *PostgresRepo) Create(ctx context.Context, s Session) error {
	const q = `
INSERT INTO call_sessions (
  conversation_id, user_id, intent, status, started_at, ended_at,
  recording, transcript, summary, readiness, failure_reason, version
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (conversation_id) DO NOTHING
`
	args, err := sessionArgs(s)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, append(args, s.Version)...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: conversation %q already exists", ErrConflict, s.ConversationID)
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, conversationID string) (Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM call_sessions WHERE conversation_id = $1`
	s, err := scanSession(r.db.QueryRowContext(ctx, q, conversationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, fmt.Errorf("%w: conversation %q", ErrNotFound, conversationID)
		}
		return Session{}, err
	}
	return s, nil
}

func (r *PostgresRepo) Update(ctx context.Context, s Session) (Session, error) {
	const q = `
UPDATE call_sessions SET
  user_id = $2, intent = $3, status = $4, started_at = $5, ended_at = $6,
  recording = $7, transcript = $8, summary = $9, readiness = $10, failure_reason = $11,
  version = version + 1
WHERE conversation_id = $1 AND version = $12
RETURNING version
`
	args, err := sessionArgs(s)
	if err != nil {
		return Session{}, err
	}

	var out Session
	err = utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		var version int64
		err := tx.QueryRowContext(ctx, q, append(args, s.Version)...).Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM call_sessions WHERE conversation_id = $1)`, s.ConversationID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: conversation %q", ErrNotFound, s.ConversationID)
			}
			return fmt.Errorf("%w: conversation %q was modified concurrently", ErrConflict, s.ConversationID)
		}
		if err != nil {
			return err
		}
		out = s.clone()
		out.Version = version
		return nil
	})
	return out, err
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM call_sessions WHERE user_id = $1 ORDER BY seq ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) DeleteStartedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM call_sessions WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		s          Session
		status     string
		endedAt    sql.NullTime
		recording  []byte
		transcript sql.NullString
		summary    []byte
		readiness  []byte
	)
	if err := row.Scan(
		&s.ConversationID,
		&s.UserID,
		&s.Intent,
		&status,
		&s.StartedAt,
		&endedAt,
		&recording,
		&transcript,
		&summary,
		&readiness,
		&s.FailureReason,
		&s.Version,
	); err != nil {
		return Session{}, err
	}

	s.Status = Status(status)
	s.StartedAt = s.StartedAt.UTC()
	if endedAt.Valid {
		t := endedAt.Time.UTC()
		s.EndedAt = &t
	}
	if len(recording) > 0 {
		var rec Recording
		if err := json.Unmarshal(recording, &rec); err != nil {
			return Session{}, fmt.Errorf("decode recording for %q: %w", s.ConversationID, err)
		}
		s.Recording = &rec
	}
	if transcript.Valid {
		txt := transcript.String
		s.Transcript = &txt
	}
	s.Summary = cloneRaw(summary)
	s.Readiness = cloneRaw(readiness)
	return s, nil
}

// sessionArgs returns $1..$11 in column order.
func sessionArgs(s Session) ([]any, error) {
	var recording any
	if s.Recording != nil {
		b, err := json.Marshal(s.Recording)
		if err != nil {
			return nil, fmt.Errorf("encode recording: %w", err)
		}
		recording = string(b)
	}
	var endedAt any
	if s.EndedAt != nil {
		endedAt = *s.EndedAt
	}
	var transcript any
	if s.Transcript != nil {
		transcript = *s.Transcript
	}
	return []any{
		s.ConversationID,
		s.UserID,
		s.Intent,
		string(s.Status),
		s.StartedAt,
		endedAt,
		recording,
		transcript,
		nullJSON(s.Summary),
		nullJSON(s.Readiness),
		s.FailureReason,
	}, nil
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
