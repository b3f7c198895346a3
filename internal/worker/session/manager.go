// Package session serializes interview turns per user.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

const (
	// SessionTimeout is how long an idle session is kept in memory.
	SessionTimeout = 30 * time.Minute
	// CleanupInterval is how often idle sessions are evicted.
	CleanupInterval = 5 * time.Minute
)

// ActiveSession is the in-memory guard for one user's interview.
type ActiveSession struct {
	StartTime    time.Time
	lastActivity atomic.Int64
	sem          *semaphore.Weighted
	UserID       int64
	inFlight     atomic.Int32
}

// LastActivity returns the time the session was last acquired or released.
func (s *ActiveSession) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// Busy reports whether a turn currently holds or waits for the session.
func (s *ActiveSession) Busy() bool {
	return s.inFlight.Load() > 0
}

func (s *ActiveSession) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Manager hands out one exclusive slot per user so that start, continue
// and their reads of prior history never interleave for the same user.
type Manager struct {
	ctx       context.Context
	sessions  map[int64]*ActiveSession
	cancel    context.CancelFunc
	onCreated func(int64)
	onDeleted func(int64)
	mu        sync.Mutex
}

// NewManager creates a Manager and starts idle eviction until ctx ends.
func NewManager(ctx context.Context) *Manager {
	mctx, cancel := context.WithCancel(ctx)
	m := &Manager{
		sessions: make(map[int64]*ActiveSession),
		ctx:      mctx,
		cancel:   cancel,
	}
	go m.cleanupLoop()
	return m
}

// SetOnSessionCreated registers a callback invoked when a user's session is first tracked.
func (m *Manager) SetOnSessionCreated(fn func(int64)) {
	m.mu.Lock()
	m.onCreated = fn
	m.mu.Unlock()
}

// SetOnSessionDeleted registers a callback invoked when a session is evicted.
func (m *Manager) SetOnSessionDeleted(fn func(int64)) {
	m.mu.Lock()
	m.onDeleted = fn
	m.mu.Unlock()
}

// Acquire blocks until the caller holds userID's session or ctx is done.
// The returned release must be called exactly once.
func (m *Manager) Acquire(ctx context.Context, userID int64) (func(), error) {
	s := m.getOrCreate(userID)
	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.inFlight.Add(-1)
		return nil, err
	}
	s.touch()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.touch()
			s.sem.Release(1)
			s.inFlight.Add(-1)
		})
	}, nil
}

// getOrCreate marks the session in flight while holding m.mu so eviction
// cannot drop it between lookup and acquisition.
func (m *Manager) getOrCreate(userID int64) *ActiveSession {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	var created func(int64)
	if !ok {
		s = &ActiveSession{
			UserID:    userID,
			StartTime: time.Now(),
			sem:       semaphore.NewWeighted(1),
		}
		s.touch()
		m.sessions[userID] = s
		created = m.onCreated
	}
	s.inFlight.Add(1)
	m.mu.Unlock()

	if created != nil {
		created(userID)
	}
	return s
}

// GetActiveSessionCount returns the number of tracked sessions.
func (m *Manager) GetActiveSessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// IsAnySessionProcessing reports whether any turn is in flight.
func (m *Manager) IsAnySessionProcessing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.Busy() {
			return true
		}
	}
	return false
}

// GetAllSessions returns a snapshot of tracked sessions.
func (m *Manager) GetAllSessions() []*ActiveSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ActiveSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// DeleteSession stops tracking userID. Busy sessions are kept.
func (m *Manager) DeleteSession(userID int64) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok || s.Busy() {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, userID)
	deleted := m.onDeleted
	m.mu.Unlock()

	if deleted != nil {
		deleted(userID)
	}
}

// ShutdownAll stops eviction and forgets every idle session.
func (m *Manager) ShutdownAll(ctx context.Context) {
	m.cancel()
	for _, s := range m.GetAllSessions() {
		if ctx.Err() != nil {
			return
		}
		m.DeleteSession(s.UserID)
	}
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle(time.Now())
		}
	}
}

func (m *Manager) evictIdle(now time.Time) int {
	evicted := 0
	for _, s := range m.GetAllSessions() {
		if s.Busy() || now.Sub(s.LastActivity()) < SessionTimeout {
			continue
		}
		m.DeleteSession(s.UserID)
		evicted++
	}
	if evicted > 0 {
		log.Debug().Int("evicted", evicted).Msg("Evicted idle interview sessions")
	}
	return evicted
}
