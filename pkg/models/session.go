package models

import "time"

// InterviewStatus is the explicit state of a user's interview session.
type InterviewStatus string

const (
	InterviewStatusNone     InterviewStatus = "none"
	InterviewStatusSeedSent InterviewStatus = "seed_sent"
	InterviewStatusProbing  InterviewStatus = "probing"
	InterviewStatusClosed   InterviewStatus = "closed"
)

// InterviewSession tracks where a user is in the interview state machine.
// CycleStart is the number of transcript entries that existed when the
// current probing cycle began; turns are counted from there.
type InterviewSession struct {
	StartedAt  time.Time        `json:"started_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	ClosedAt   *time.Time       `json:"closed_at,omitempty"`
	Result     *InterviewResult `json:"result,omitempty"`
	Status     InterviewStatus  `json:"status"`
	ID         int64            `json:"id"`
	UserID     int64            `json:"user_id"`
	CycleStart int              `json:"cycle_start"`
}

// Closed reports whether the session has reached its terminal turn.
func (s *InterviewSession) Closed() bool {
	return s != nil && s.Status == InterviewStatusClosed
}

// TranscriptEntry is one persisted interview turn.
// AIResponse never contains a reasoning trace.
type TranscriptEntry struct {
	CreatedAt  time.Time        `json:"created_at"`
	Result     *InterviewResult `json:"-"`
	UserPrompt string           `json:"user_prompt"`
	AIResponse string           `json:"ai_response"`
	ID         int64            `json:"id"`
	UserID     int64            `json:"-"`
	IsSeed     bool             `json:"-"`
}

// Clone returns a copy safe to mutate for display.
func (e *TranscriptEntry) Clone() *TranscriptEntry {
	c := *e
	if e.Result != nil {
		r := *e.Result
		c.Result = &r
	}
	return &c
}

// SessionEventTurn is emitted after every persisted interview turn.
const SessionEventTurn = "interview.turn"

// SessionEvent notifies subscribers that a user's transcript changed.
type SessionEvent struct {
	Type    string `json:"type"`
	UserID  int64  `json:"user_id"`
	EntryID int64  `json:"entry_id"`
	Turn    int    `json:"turn"`
	Closed  bool   `json:"closed"`
}
