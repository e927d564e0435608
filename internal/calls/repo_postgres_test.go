package calls

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"
)

// The SQL paths need a live Postgres; these tests cover row encoding and decoding.

type fakeRow struct {
	values []any
}

func (f fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = f.values[i].(string)
		case *time.Time:
			*p = f.values[i].(time.Time)
		case *sql.NullTime:
			*p = f.values[i].(sql.NullTime)
		case *sql.NullString:
			*p = f.values[i].(sql.NullString)
		case *[]byte:
			if f.values[i] != nil {
				*p = f.values[i].([]byte)
			}
		case *int64:
			*p = f.values[i].(int64)
		}
	}
	return nil
}

func TestScanSession_DecodesNullableColumns(t *testing.T) {
	started := time.Unix(1700000000, 0).UTC()
	ended := started.Add(2 * time.Minute)

	s, err := scanSession(fakeRow{values: []any{
		"c1", "u1", "coaching", "processing", started,
		sql.NullTime{Time: ended, Valid: true},
		[]byte(`{"meta":{"codec":"opus"},"finalizedAt":"2023-11-14T22:15:20Z","audioUrl":"https://x/a.mp3"}`),
		sql.NullString{String: "hello", Valid: true},
		nil,
		nil,
		"",
		int64(3),
	}})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if s.Status != StatusProcessing || s.Version != 3 {
		t.Fatalf("unexpected session: %+v", s)
	}
	if s.EndedAt == nil || !s.EndedAt.Equal(ended) {
		t.Fatalf("unexpected endedAt: %v", s.EndedAt)
	}
	if s.Recording == nil || s.Recording.AudioURL != "https://x/a.mp3" || string(s.Recording.Meta) != `{"codec":"opus"}` {
		t.Fatalf("unexpected recording: %+v", s.Recording)
	}
	if s.Transcript == nil || *s.Transcript != "hello" {
		t.Fatalf("unexpected transcript: %v", s.Transcript)
	}
	if s.Summary != nil || s.Readiness != nil {
		t.Fatalf("expected NULL analysis columns to stay nil")
	}
}

func TestSessionArgs_UsesNullForAbsentValues(t *testing.T) {
	args, err := sessionArgs(Session{ConversationID: "c1", UserID: "u1", Status: StatusCreated})
	if err != nil {
		t.Fatalf("args: %v", err)
	}
	if len(args) != 11 {
		t.Fatalf("expected 11 args, got %d", len(args))
	}
	for _, i := range []int{5, 6, 7, 8, 9} {
		if args[i] != nil {
			t.Fatalf("expected arg %d to be NULL, got %v", i+1, args[i])
		}
	}

	args, _ = sessionArgs(Session{
		ConversationID: "c1",
		Summary:        json.RawMessage(`"done"`),
		Recording:      &Recording{Meta: json.RawMessage(`{}`)},
	})
	if args[8] != `"done"` {
		t.Fatalf("expected summary json text, got %v", args[8])
	}
	if args[6] == nil {
		t.Fatalf("expected recording json")
	}
}
