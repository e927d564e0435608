package calls

import (
	"encoding/json"
	"time"
)

// Session is one voice conversation between a user and the assistant.
//
// Lifecycle invariants (enforced by Tracker, not by this type):
// - ConversationID is assigned once at creation and never reused.
// - Status only moves forward: created -> ended -> processing -> completed; failed is terminal.
// - Recording exists only once the call has ended; Transcript only once Recording exists;
//   Summary/Readiness only once Transcript exists.
//
// Summary, Readiness and Recording.Meta are opaque JSON produced by clients or
// post-call analysis; the tracker stores them verbatim.
type Session struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	Intent         string `json:"intent"`

	Status Status `json:"status"`

	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt"`

	Recording  *Recording `json:"recording,omitempty"`
	Transcript *string    `json:"transcript,omitempty"`

	Summary   json.RawMessage `json:"summary,omitempty"`
	Readiness json.RawMessage `json:"readiness,omitempty"`

	FailureReason string `json:"failureReason,omitempty"`

	// Version is the optimistic concurrency token used by Repository.Update.
	Version int64 `json:"-"`
}

type Recording struct {
	Meta        json.RawMessage `json:"meta,omitempty"`
	FinalizedAt time.Time       `json:"finalizedAt"`
	AudioURL    string          `json:"audioUrl,omitempty"`
}

type Status string

const (
	StatusCreated    Status = "created"
	StatusEnded      Status = "ended"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// DefaultIntent is used when a call is started without an intent.
const DefaultIntent = "general"

// rank orders the forward chain. failed sits outside it.
func (s Status) rank() int {
	switch s {
	case StatusCreated:
		return 1
	case StatusEnded:
		return 2
	case StatusProcessing:
		return 3
	case StatusCompleted:
		return 4
	default:
		return 0
	}
}

func (s Status) Valid() bool {
	return s.rank() > 0 || s == StatusFailed
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// HistoryEntry is the public projection of a completed session.
type HistoryEntry struct {
	ConversationID string          `json:"conversationId"`
	Intent         string          `json:"intent"`
	StartedAt      time.Time       `json:"startedAt"`
	Summary        json.RawMessage `json:"summary"`
	Readiness      json.RawMessage `json:"readiness"`
	RecordingURL   *string         `json:"recordingUrl"`
}

func (s Session) historyEntry() HistoryEntry {
	e := HistoryEntry{
		ConversationID: s.ConversationID,
		Intent:         s.Intent,
		StartedAt:      s.StartedAt,
		Summary:        s.Summary,
		Readiness:      s.Readiness,
	}
	if s.Recording != nil && s.Recording.AudioURL != "" {
		url := s.Recording.AudioURL
		e.RecordingURL = &url
	}
	return e
}

// clone returns a deep copy so stored sessions never alias caller memory.
func (s Session) clone() Session {
	out := s
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	if s.Recording != nil {
		r := *s.Recording
		r.Meta = cloneRaw(s.Recording.Meta)
		out.Recording = &r
	}
	if s.Transcript != nil {
		txt := *s.Transcript
		out.Transcript = &txt
	}
	out.Summary = cloneRaw(s.Summary)
	out.Readiness = cloneRaw(s.Readiness)
	return out
}

func cloneRaw(b json.RawMessage) json.RawMessage {
	if b == nil {
		return nil
	}
	out := make(json.RawMessage, len(b))
	copy(out, b)
	return out
}
