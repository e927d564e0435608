package calls

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewRetentionPolicy(t *testing.T) {
	for name, want := range map[string]string{"": "keep", "keep": "keep", "exclude": "exclude", "delete": "delete"} {
		p, err := NewRetentionPolicy(name, 0)
		if err != nil {
			t.Fatalf("%q: unexpected err: %v", name, err)
		}
		if p.Name() != want {
			t.Fatalf("%q: expected %q, got %q", name, want, p.Name())
		}
	}
	if _, err := NewRetentionPolicy("archive", time.Hour); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestExcludeExpired_Visible(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	p := ExcludeExpired{Window: 24 * time.Hour}
	if !p.Visible(Session{StartedAt: now.Add(-23 * time.Hour)}, now) {
		t.Fatalf("session inside window must be visible")
	}
	if p.Visible(Session{StartedAt: now.Add(-25 * time.Hour)}, now) {
		t.Fatalf("session outside window must be hidden")
	}
}

func TestSweeper_DeletePolicy(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	repo := NewMemoryRepo()
	ctx := context.Background()
	_ = repo.Create(ctx, Session{ConversationID: "old", UserID: "u", StartedAt: now.Add(-800 * 24 * time.Hour)})
	_ = repo.Create(ctx, Session{ConversationID: "new", UserID: "u", StartedAt: now.Add(-time.Hour)})

	tr := NewTracker(repo,
		WithClock(func() time.Time { return now }),
		WithRetention(DeleteExpired{Window: DefaultRetentionWindow}),
	)

	var buf bytes.Buffer
	sw, err := NewSweeper(tr, "0 3 * * *", slog.New(slog.NewTextHandler(&buf, nil)))
	if err != nil {
		t.Fatalf("sweeper: %v", err)
	}
	sw.RunOnce()

	if repo.Len() != 1 {
		t.Fatalf("expected 1 session left, got %d", repo.Len())
	}
	if !strings.Contains(buf.String(), "deleted=1") {
		t.Fatalf("expected sweep log line, got %q", buf.String())
	}
}

func TestSweeper_RejectsBadSchedule(t *testing.T) {
	tr := NewTracker(NewMemoryRepo())
	if _, err := NewSweeper(tr, "every now and then", nil); err == nil {
		t.Fatalf("expected cron parse error")
	}
}
