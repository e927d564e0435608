package audit

import "time"

// Event is an immutable, append-only record of one call lifecycle transition.
//
// Invariants:
// - Events are never updated or deleted.
// - conversation_id and type are required.
// - actor capture is best-effort; do not block lifecycle operations on audit failures.
type Event struct {
	ID             string `json:"id" db:"id"`
	ConversationID string `json:"conversationId" db:"conversation_id"`

	// UserID owns the conversation; ActorUserID made the request (empty when anonymous).
	UserID      string `json:"userId" db:"user_id"`
	ActorUserID string `json:"actorUserId,omitempty" db:"actor_user_id"`

	Type EventType `json:"type" db:"type"`

	FromStatus string `json:"fromStatus,omitempty" db:"from_status"`
	ToStatus   string `json:"toStatus" db:"to_status"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type EventType string

const (
	EventTypeCallStarted       EventType = "call_started"
	EventTypeCallEnded         EventType = "call_ended"
	EventTypeCallFinalized     EventType = "call_finalized"
	EventTypeCallAudioUploaded EventType = "call_audio_uploaded"
	EventTypeCallTranscript    EventType = "call_transcript_stored"
	EventTypeCallAnalyzed      EventType = "call_analyzed"
	EventTypeCallFailed        EventType = "call_failed"
)
