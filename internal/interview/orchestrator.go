package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dtp-id/talenta/internal/ai"
	"github.com/dtp-id/talenta/internal/metrics"
	"github.com/dtp-id/talenta/internal/sanitize"
	"github.com/dtp-id/talenta/pkg/models"
)

// ErrProfileNotFound is returned when the user has no profile to seed an interview from.
var ErrProfileNotFound = errors.New("profile not found")

// TranscriptStore persists transcript entries and the session row.
// Entries are returned in conversational order.
type TranscriptStore interface {
	Entries(ctx context.Context, userID int64) ([]*models.TranscriptEntry, error)
	// Session returns models.ErrNotFound when the user never started an interview.
	Session(ctx context.Context, userID int64) (*models.InterviewSession, error)
	// Reset deletes every entry of the user, inserts seed and saves sess in one transaction.
	Reset(ctx context.Context, seed *models.TranscriptEntry, sess *models.InterviewSession) error
	// AppendTurn inserts entry and saves sess in one transaction.
	AppendTurn(ctx context.Context, entry *models.TranscriptEntry, sess *models.InterviewSession) error
}

// ProfileSource loads the candidate profile with its history lists.
type ProfileSource interface {
	ProfileByUserID(ctx context.Context, userID int64) (*models.Profile, error)
}

// StatusSource returns the user's latest assessment status.
type StatusSource interface {
	LatestStatus(ctx context.Context, userID int64) (models.AssessmentStatus, error)
}

// Locker serializes work per user.
type Locker interface {
	Acquire(ctx context.Context, userID int64) (func(), error)
}

// Notifier receives an event after every persisted turn. Publish must not block for long.
type Notifier interface {
	Publish(ctx context.Context, ev models.SessionEvent)
}

// Reply is the outcome of one interview turn.
type Reply struct {
	Entry     *models.TranscriptEntry
	Session   *models.InterviewSession
	Answer    string
	Turn      int
	Remaining int
	Closed    bool
}

// Config holds the Orchestrator dependencies.
type Config struct {
	Store    TranscriptStore
	Profiles ProfileSource
	Statuses StatusSource
	AI       ai.Client
	Locker   Locker
	Notifier Notifier
	Metrics  *metrics.Recorder
	Now      func() time.Time
	MaxTurns int
}

// Orchestrator coordinates start, continue and history reads of the interview.
type Orchestrator struct {
	store    TranscriptStore
	profiles ProfileSource
	statuses StatusSource
	ai       ai.Client
	locker   Locker
	notifier Notifier
	metrics  *metrics.Recorder
	now      func() time.Time
	policy   Policy
}

// NewOrchestrator creates an Orchestrator. Notifier and Metrics may be nil.
func NewOrchestrator(cfg Config) *Orchestrator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		store:    cfg.Store,
		profiles: cfg.Profiles,
		statuses: cfg.Statuses,
		ai:       cfg.AI,
		locker:   cfg.Locker,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		now:      now,
		policy:   Policy{MaxTurns: cfg.MaxTurns},
	}
}

// Policy returns the turn policy in effect.
func (o *Orchestrator) Policy() Policy {
	return o.policy
}

// Start resets the user's interview and sends the seed prompt.
// The previous transcript is only deleted once the AI has answered.
func (o *Orchestrator) Start(ctx context.Context, userID int64) (*Reply, error) {
	release, err := o.locker.Acquire(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	defer release()

	profile, err := o.profiles.ProfileByUserID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	now := o.now()
	seed := SeedPrompt(profile, now)
	instr := o.policy.Compose(0)

	answer, err := o.send(ctx, userID, instr.Attach(seed), nil)
	if err != nil {
		return nil, err
	}

	entry := &models.TranscriptEntry{
		UserID:     userID,
		UserPrompt: seed,
		AIResponse: answer,
		IsSeed:     true,
		CreatedAt:  now,
	}
	sess := &models.InterviewSession{
		UserID:    userID,
		Status:    models.InterviewStatusSeedSent,
		StartedAt: now,
		UpdatedAt: now,
	}
	closed := o.settle(entry, sess, now)

	if err := o.store.Reset(ctx, entry, sess); err != nil {
		return nil, fmt.Errorf("reset transcript: %w", err)
	}

	o.metrics.Turn(ctx, "seed")
	log.Info().Int64("user_id", userID).Int64("entry_id", entry.ID).Msg("Interview started")

	reply := &Reply{
		Entry:     entry,
		Session:   sess,
		Answer:    answer,
		Turn:      1,
		Remaining: max(o.policy.MaxTurns-1, 0),
		Closed:    closed,
	}
	o.publish(ctx, reply)
	return reply, nil
}

// Continue sends the user's prompt with the replayed transcript.
// Only the original prompt is stored; the turn instruction goes out with the request alone.
func (o *Orchestrator) Continue(ctx context.Context, userID int64, prompt string) (*Reply, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, models.NewValidationError("prompt", "Prompt tidak boleh kosong")
	}

	release, err := o.locker.Acquire(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	defer release()

	entries, err := o.store.Entries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	sess, err := o.loadSession(ctx, userID, len(entries))
	if err != nil {
		return nil, err
	}

	now := o.now()
	if sess.Closed() {
		log.Info().Int64("user_id", userID).Int("cycle_start", len(entries)).Msg("Interview reopened after closure")
		sess.Status = models.InterviewStatusProbing
		sess.CycleStart = len(entries)
		sess.ClosedAt = nil
		sess.Result = nil
	}

	prior := max(len(entries)-sess.CycleStart, 0)
	instr := o.policy.Compose(prior)

	history := Replay(entries)
	answer, err := o.send(ctx, userID, instr.Attach(prompt), history)
	if err != nil {
		return nil, err
	}

	entry := &models.TranscriptEntry{
		UserID:     userID,
		UserPrompt: prompt,
		AIResponse: answer,
		CreatedAt:  now,
	}
	sess.Status = models.InterviewStatusProbing
	sess.UpdatedAt = now
	closed := o.settle(entry, sess, now)

	if err := o.store.AppendTurn(ctx, entry, sess); err != nil {
		return nil, fmt.Errorf("append turn: %w", err)
	}

	kind := "probe"
	if instr.Closing {
		kind = "closure"
	}
	o.metrics.Turn(ctx, kind)
	if instr.Closing && !closed {
		log.Warn().Int64("user_id", userID).Msg("Closure turn answered without terminal marker")
	}

	reply := &Reply{
		Entry:     entry,
		Session:   sess,
		Answer:    answer,
		Turn:      prior + 1,
		Remaining: max(instr.Remaining-1, 0),
		Closed:    closed,
	}
	o.publish(ctx, reply)
	return reply, nil
}

// History returns the user's transcript for display: seed prompts are
// blanked and result tags carry the latest assessment status. Storage is
// not modified.
func (o *Orchestrator) History(ctx context.Context, userID int64) ([]*models.TranscriptEntry, error) {
	entries, err := o.store.Entries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	status := models.AssessmentUnassessed
	if o.statuses != nil {
		latest, err := o.statuses.LatestStatus(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load assessment status: %w", err)
		}
		status = latest
	}

	out := make([]*models.TranscriptEntry, 0, len(entries))
	for _, e := range entries {
		c := WithDisplayStatus(e, status)
		if c.IsSeed || IsSeedPrompt(c.UserPrompt) {
			c.UserPrompt = ""
		}
		out = append(out, c)
	}
	return out, nil
}

// Replay converts stored entries into alternating user/assistant history.
func Replay(entries []*models.TranscriptEntry) []ai.Message {
	history := make([]ai.Message, 0, len(entries)*2)
	for _, e := range entries {
		history = append(history,
			ai.Message{Role: ai.RoleUser, Content: e.UserPrompt},
			ai.Message{Role: ai.RoleAssistant, Content: e.AIResponse},
		)
	}
	return history
}

func (o *Orchestrator) loadSession(ctx context.Context, userID int64, count int) (*models.InterviewSession, error) {
	sess, err := o.store.Session(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		// Transcripts written before session rows existed.
		now := o.now()
		return &models.InterviewSession{
			UserID:    userID,
			Status:    models.InterviewStatusProbing,
			StartedAt: now,
			UpdatedAt: now,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.CycleStart > count {
		sess.CycleStart = count
	}
	return sess, nil
}

// send dispatches one request and returns the sanitized answer.
func (o *Orchestrator) send(ctx context.Context, userID int64, outbound string, history []ai.Message) (string, error) {
	if e := log.Debug(); e.Enabled() {
		e.Int64("user_id", userID).
			Int("history_len", len(history)).
			Int("prompt_tokens", ai.CountTokens(outbound)).
			Int("history_tokens", ai.HistoryTokens(history)).
			Msg("Sending interview turn")
	}

	raw, err := o.ai.Interview(ctx, outbound, history)
	if err != nil {
		return "", err
	}
	return sanitize.Clean(raw), nil
}

// settle parses a result tag once at write time and closes the session
// when the reply is terminal. Reports whether it closed.
func (o *Orchestrator) settle(entry *models.TranscriptEntry, sess *models.InterviewSession, now time.Time) bool {
	if sanitize.HasResult(entry.AIResponse) {
		result, err := ExtractResult(entry.AIResponse)
		if err != nil {
			log.Warn().Err(err).Int64("user_id", entry.UserID).Msg("Result tag could not be parsed")
		} else {
			entry.Result = result
			sess.Result = result
		}
	}
	if !IsTerminal(entry.AIResponse) {
		return false
	}
	sess.Status = models.InterviewStatusClosed
	sess.ClosedAt = &now
	return true
}

func (o *Orchestrator) publish(ctx context.Context, r *Reply) {
	if o.notifier == nil {
		return
	}
	o.notifier.Publish(ctx, models.SessionEvent{
		Type:    models.SessionEventTurn,
		UserID:  r.Entry.UserID,
		EntryID: r.Entry.ID,
		Turn:    r.Turn,
		Closed:  r.Closed,
	})
}
