package calls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"aira-backend/internal/audit"
	"aira-backend/internal/auth"
	"aira-backend/internal/rbac"
	"aira-backend/pkg/logger"

	"github.com/google/uuid"
)

// EventSink receives one audit event per successful transition.
type EventSink interface {
	Append(ctx context.Context, e audit.Event) error
}

// Observer receives per-operation outcomes (see Kind) and call durations.
type Observer interface {
	ObserveTransition(op, outcome string)
	ObserveCallDuration(d time.Duration)
}

// Tracker owns call session state and the rules for moving between states.
//
// Every transition runs as lock(conversation) -> load -> check -> single write,
// so a rejected operation leaves the stored session untouched and two
// concurrent requests on one conversation cannot both pass the same precondition.
type Tracker struct {
	repo      Repository
	locks     Locker
	retention RetentionPolicy
	events    EventSink
	observer  Observer

	clock func() time.Time
	newID func() string
}

type Option func(*Tracker)

func WithLocker(l Locker) Option                 { return func(t *Tracker) { t.locks = l } }
func WithRetention(p RetentionPolicy) Option     { return func(t *Tracker) { t.retention = p } }
func WithEventSink(s EventSink) Option           { return func(t *Tracker) { t.events = s } }
func WithObserver(o Observer) Option             { return func(t *Tracker) { t.observer = o } }
func WithClock(clock func() time.Time) Option    { return func(t *Tracker) { t.clock = clock } }
func WithIDGenerator(newID func() string) Option { return func(t *Tracker) { t.newID = newID } }

func NewTracker(repo Repository, opts ...Option) *Tracker {
	t := &Tracker{
		repo:      repo,
		locks:     NewKeyedMutex(),
		retention: KeepAll{},
		clock:     time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) RetentionPolicy() RetentionPolicy { return t.retention }

type StartRequest struct {
	UserID string
	Intent string
}

type EndResult struct {
	DurationSeconds int64
}

// StartCall creates a session in state created.
func (t *Tracker) StartCall(ctx context.Context, req StartRequest) (s Session, err error) {
	defer t.observe("start", &err)

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return Session{}, fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if err := AssertOwner(ctx, userID); err != nil {
		return Session{}, err
	}
	intent := strings.TrimSpace(req.Intent)
	if intent == "" {
		intent = DefaultIntent
	}

	s = Session{
		ConversationID: t.newID(),
		UserID:         userID,
		Intent:         intent,
		Status:         StatusCreated,
		StartedAt:      t.clock().UTC(),
	}
	if err := t.repo.Create(ctx, s); err != nil {
		return Session{}, err
	}
	t.audit(ctx, audit.EventTypeCallStarted, s, "", s.Status)
	return s, nil
}

// EndCall moves created -> ended and reports the elapsed whole seconds.
func (t *Tracker) EndCall(ctx context.Context, conversationID string) (res EndResult, err error) {
	defer t.observe("end", &err)

	s, err := t.transition(ctx, conversationID, ErrNotFound, audit.EventTypeCallEnded, func(s *Session, now time.Time) error {
		if s.Status != StatusCreated {
			return fmt.Errorf("%w: call is %s, only a created call can be ended", ErrState, s.Status)
		}
		s.EndedAt = &now
		s.Status = StatusEnded
		return nil
	})
	if err != nil {
		return EndResult{}, err
	}

	d := s.EndedAt.Sub(s.StartedAt)
	if t.observer != nil {
		t.observer.ObserveCallDuration(d)
	}
	return EndResult{DurationSeconds: int64(d / time.Second)}, nil
}

// FinalizeCall attaches recording metadata to an ended call and moves it to processing.
// An unknown conversation is reported as a state error: there is no ended call to finalize.
func (t *Tracker) FinalizeCall(ctx context.Context, conversationID string, meta json.RawMessage) (err error) {
	defer t.observe("finalize", &err)

	_, err = t.transition(ctx, conversationID, ErrState, audit.EventTypeCallFinalized, func(s *Session, now time.Time) error {
		if s.Status != StatusEnded {
			return fmt.Errorf("%w: call is %s, only an ended call can be finalized", ErrState, s.Status)
		}
		s.Recording = &Recording{Meta: normalizeOpaque(meta), FinalizedAt: now}
		s.Status = StatusProcessing
		return nil
	})
	return err
}

// UploadAudio records where the call audio was stored.
func (t *Tracker) UploadAudio(ctx context.Context, conversationID, audioURL string) (err error) {
	defer t.observe("upload_audio", &err)

	audioURL = strings.TrimSpace(audioURL)
	if conversationID != "" && audioURL == "" {
		return fmt.Errorf("%w: audioUrl is required", ErrValidation)
	}
	_, err = t.transition(ctx, conversationID, ErrNotFound, audit.EventTypeCallAudioUploaded, func(s *Session, now time.Time) error {
		if s.Recording == nil {
			return fmt.Errorf("%w: call has no recording yet", ErrNotFound)
		}
		s.Recording.AudioURL = audioURL
		return nil
	})
	return err
}

// StoreTranscript sets the transcript once the recording exists.
func (t *Tracker) StoreTranscript(ctx context.Context, conversationID, transcript string) (err error) {
	defer t.observe("transcript", &err)

	if conversationID != "" && strings.TrimSpace(transcript) == "" {
		return fmt.Errorf("%w: transcriptText is required", ErrValidation)
	}
	_, err = t.transition(ctx, conversationID, ErrNotFound, audit.EventTypeCallTranscript, func(s *Session, now time.Time) error {
		if s.Recording == nil {
			return fmt.Errorf("%w: call must be finalized before storing a transcript", ErrState)
		}
		txt := transcript
		s.Transcript = &txt
		return nil
	})
	return err
}

// AnalyzeCall stores post-call analysis and completes the call. Re-analysis of
// a completed call replaces the stored values.
// An unknown conversation is reported as a state error, like a missing transcript.
func (t *Tracker) AnalyzeCall(ctx context.Context, conversationID string, summary, readiness json.RawMessage) (err error) {
	defer t.observe("analyze", &err)

	if conversationID != "" && (isAbsent(summary) || isAbsent(readiness)) {
		return fmt.Errorf("%w: summary and readiness are required", ErrValidation)
	}
	_, err = t.transition(ctx, conversationID, ErrState, audit.EventTypeCallAnalyzed, func(s *Session, now time.Time) error {
		if s.Transcript == nil {
			return fmt.Errorf("%w: call has no transcript yet", ErrState)
		}
		s.Summary = cloneRaw(summary)
		s.Readiness = cloneRaw(readiness)
		s.Status = StatusCompleted
		return nil
	})
	return err
}

// FailCall marks a non-terminal call as failed.
func (t *Tracker) FailCall(ctx context.Context, conversationID, reason string) (err error) {
	defer t.observe("fail", &err)

	reason = strings.TrimSpace(reason)
	if conversationID != "" && reason == "" {
		return fmt.Errorf("%w: reason is required", ErrValidation)
	}
	_, err = t.transition(ctx, conversationID, ErrNotFound, audit.EventTypeCallFailed, func(s *Session, now time.Time) error {
		if s.Status.Terminal() {
			return fmt.Errorf("%w: call is already %s", ErrState, s.Status)
		}
		if s.EndedAt == nil {
			s.EndedAt = &now
		}
		s.FailureReason = reason
		s.Status = StatusFailed
		return nil
	})
	return err
}

// GetSession returns the full session for its owner.
func (t *Tracker) GetSession(ctx context.Context, conversationID string) (Session, error) {
	if strings.TrimSpace(conversationID) == "" {
		return Session{}, fmt.Errorf("%w: conversationId is required", ErrValidation)
	}
	s, err := t.repo.Get(ctx, conversationID)
	if err != nil {
		return Session{}, err
	}
	if err := AssertOwner(ctx, s.UserID); err != nil {
		return Session{}, err
	}
	return s, nil
}

// History lists the user's completed calls in insertion order, minus those the
// retention policy hides.
func (t *Tracker) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	out := make([]HistoryEntry, 0)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return out, nil
	}
	if err := AssertOwner(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := t.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := t.clock().UTC()
	for _, s := range rows {
		if s.Status != StatusCompleted || !t.retention.Visible(s, now) {
			continue
		}
		out = append(out, s.historyEntry())
	}
	return out, nil
}

// Sweep applies the retention policy once.
func (t *Tracker) Sweep(ctx context.Context) (int, error) {
	return t.retention.Sweep(ctx, t.repo, t.clock().UTC())
}

// AssertOwner fails with ErrForbidden when ctx carries an identity that is
// neither ownerUserID nor an admin. Anonymous contexts pass; route-level auth
// decides whether anonymous access is allowed at all.
func AssertOwner(ctx context.Context, ownerUserID string) error {
	uid, err := auth.UserID(ctx)
	if err != nil {
		return nil
	}
	if uid == ownerUserID {
		return nil
	}
	if role, _ := auth.Role(ctx); rbac.IsAdmin(role) {
		return nil
	}
	return fmt.Errorf("%w: caller does not own this call", ErrForbidden)
}

// transition applies fn to a working copy of the session and stores it.
// missingKind is the error kind reported for an unknown conversation.
func (t *Tracker) transition(ctx context.Context, conversationID string, missingKind error, event audit.EventType, fn func(s *Session, now time.Time) error) (Session, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return Session{}, fmt.Errorf("%w: conversationId is required", ErrValidation)
	}

	unlock, err := t.locks.Lock(ctx, conversationID)
	if err != nil {
		return Session{}, err
	}
	defer unlock()

	s, err := t.repo.Get(ctx, conversationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, fmt.Errorf("%w: conversation %q not found", missingKind, conversationID)
		}
		return Session{}, err
	}
	if err := AssertOwner(ctx, s.UserID); err != nil {
		return Session{}, err
	}
	if s.Status == StatusFailed {
		return Session{}, fmt.Errorf("%w: call has failed", ErrState)
	}

	from := s.Status
	if err := fn(&s, t.clock().UTC()); err != nil {
		return Session{}, err
	}
	if s.Status.rank() < from.rank() && s.Status != StatusFailed {
		return Session{}, fmt.Errorf("%w: status cannot move from %s to %s", ErrState, from, s.Status)
	}

	updated, err := t.repo.Update(ctx, s)
	if err != nil {
		return Session{}, err
	}
	t.audit(ctx, event, updated, from, updated.Status)
	return updated, nil
}

func (t *Tracker) audit(ctx context.Context, typ audit.EventType, s Session, from, to Status) {
	if t.events == nil {
		return
	}
	actor, _ := auth.UserID(ctx)
	err := t.events.Append(ctx, audit.Event{
		ConversationID: s.ConversationID,
		UserID:         s.UserID,
		Type:           typ,
		ActorUserID:    actor,
		FromStatus:     string(from),
		ToStatus:       string(to),
	})
	if err != nil {
		// audit is best-effort; the transition already committed.
		logger.From(ctx).Warn("audit append failed", "conversation_id", s.ConversationID, "type", typ, "err", err)
	}
}

func (t *Tracker) observe(op string, err *error) {
	if t.observer == nil {
		return
	}
	t.observer.ObserveTransition(op, Kind(*err))
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

func normalizeOpaque(raw json.RawMessage) json.RawMessage {
	if isAbsent(raw) {
		return json.RawMessage(`{}`)
	}
	return cloneRaw(raw)
}
