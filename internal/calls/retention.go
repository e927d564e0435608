package calls

import (
	"context"
	"fmt"
	"time"
)

// RetentionPolicy decides what happens to sessions older than the retention window.
// Visible filters history reads; Sweep performs any physical cleanup.
type RetentionPolicy interface {
	Name() string
	Visible(s Session, now time.Time) bool
	Sweep(ctx context.Context, repo Repository, now time.Time) (int, error)
}

const (
	RetentionKeep    = "keep"
	RetentionExclude = "exclude"
	RetentionDelete  = "delete"
)

// DefaultRetentionWindow is the stated retention period for call sessions.
const DefaultRetentionWindow = 730 * 24 * time.Hour

// NewRetentionPolicy builds a policy by config name.
func NewRetentionPolicy(name string, window time.Duration) (RetentionPolicy, error) {
	if window <= 0 {
		window = DefaultRetentionWindow
	}
	switch name {
	case "", RetentionKeep:
		return KeepAll{}, nil
	case RetentionExclude:
		return ExcludeExpired{Window: window}, nil
	case RetentionDelete:
		return DeleteExpired{Window: window}, nil
	default:
		return nil, fmt.Errorf("unknown retention policy %q", name)
	}
}

// KeepAll never expires anything.
type KeepAll struct{}

func (KeepAll) Name() string                                              { return RetentionKeep }
func (KeepAll) Visible(Session, time.Time) bool                           { return true }
func (KeepAll) Sweep(context.Context, Repository, time.Time) (int, error) { return 0, nil }

// ExcludeExpired hides sessions started before the window from history but keeps them stored.
type ExcludeExpired struct {
	Window time.Duration
}

func (ExcludeExpired) Name() string { return RetentionExclude }

func (p ExcludeExpired) Visible(s Session, now time.Time) bool {
	return !s.StartedAt.Before(now.Add(-p.Window))
}

func (ExcludeExpired) Sweep(context.Context, Repository, time.Time) (int, error) { return 0, nil }

// DeleteExpired removes sessions started before the window. Between sweeps,
// expired sessions are already hidden from history.
type DeleteExpired struct {
	Window time.Duration
}

func (DeleteExpired) Name() string { return RetentionDelete }

func (p DeleteExpired) Visible(s Session, now time.Time) bool {
	return !s.StartedAt.Before(now.Add(-p.Window))
}

func (p DeleteExpired) Sweep(ctx context.Context, repo Repository, now time.Time) (int, error) {
	return repo.DeleteStartedBefore(ctx, now.Add(-p.Window))
}
