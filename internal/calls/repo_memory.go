package calls

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryRepo is an in-memory session store for tests and single-process deployments.
// Data does not survive a restart.
type MemoryRepo struct {
	mu sync.RWMutex

	sessions map[string]Session
	order    []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{sessions: map[string]Session{}}
}

func (r *MemoryRepo) Create(ctx context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ConversationID]; ok {
		return fmt.Errorf("%w: conversation %q already exists", ErrConflict, s.ConversationID)
	}
	r.sessions[s.ConversationID] = s.clone()
	r.order = append(r.order, s.ConversationID)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, conversationID string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[conversationID]
	if !ok {
		return Session{}, fmt.Errorf("%w: conversation %q", ErrNotFound, conversationID)
	}
	return s.clone(), nil
}

func (r *MemoryRepo) Update(ctx context.Context, s Session) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sessions[s.ConversationID]
	if !ok {
		return Session{}, fmt.Errorf("%w: conversation %q", ErrNotFound, s.ConversationID)
	}
	if cur.Version != s.Version {
		return Session{}, fmt.Errorf("%w: conversation %q was modified concurrently", ErrConflict, s.ConversationID)
	}
	next := s.clone()
	next.Version = cur.Version + 1
	r.sessions[s.ConversationID] = next
	return next.clone(), nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Session, 0)
	for _, id := range r.order {
		s := r.sessions[id]
		if s.UserID != userID {
			continue
		}
		out = append(out, s.clone())
	}
	return out, nil
}

func (r *MemoryRepo) DeleteStartedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.order[:0]
	deleted := 0
	for _, id := range r.order {
		if r.sessions[id].StartedAt.Before(cutoff) {
			delete(r.sessions, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return deleted, nil
}

// Len reports how many sessions are stored.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
