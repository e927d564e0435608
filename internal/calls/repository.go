package calls

import (
	"context"
	"time"
)

// Repository is the storage contract for call sessions.
//
// Implementations must:
// - return an error wrapping ErrNotFound for unknown ids,
// - reject Create for an existing id,
// - apply Update only when the stored Version equals s.Version (else ErrConflict),
//   bumping Version on success,
// - list a user's sessions in insertion order.
type Repository interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, conversationID string) (Session, error)
	Update(ctx context.Context, s Session) (Session, error)
	ListByUser(ctx context.Context, userID string) ([]Session, error)
	DeleteStartedBefore(ctx context.Context, cutoff time.Time) (int, error)
}
