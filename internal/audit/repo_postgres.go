package audit

import (
	"context"
	"database/sql"

	"aira-backend/pkg/utils"
)

// Schema is the DDL for the append-only audit table.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS call_audit_events (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		actor_user_id TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		from_status TEXT NOT NULL DEFAULT '',
		to_status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_call_audit_events_conversation ON call_audit_events (conversation_id, created_at)`,
}

// PostgresRepo appends events with INSERT only.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	return utils.ApplySchema(ctx, r.db, Schema)
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO call_audit_events (
  id, conversation_id, user_id, actor_user_id, type, from_status, to_status, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.ConversationID,
		e.UserID,
		e.ActorUserID,
		string(e.Type),
		e.FromStatus,
		e.ToStatus,
		e.CreatedAt,
	)
	return err
}
