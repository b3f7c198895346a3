package interview

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/dtp-id/talenta/internal/ai"
	"github.com/dtp-id/talenta/internal/worker/session"
	"github.com/dtp-id/talenta/pkg/models"
)

type memStore struct {
	entries  map[int64][]*models.TranscriptEntry
	sessions map[int64]*models.InterviewSession
	nextID   int64
	mu       sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{
		entries:  make(map[int64][]*models.TranscriptEntry),
		sessions: make(map[int64]*models.InterviewSession),
	}
}

func (m *memStore) Entries(_ context.Context, userID int64) ([]*models.TranscriptEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.TranscriptEntry, 0, len(m.entries[userID]))
	for _, e := range m.entries[userID] {
		out = append(out, e.Clone())
	}
	return out, nil
}

func (m *memStore) Session(_ context.Context, userID int64) (*models.InterviewSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (m *memStore) Reset(_ context.Context, seed *models.TranscriptEntry, sess *models.InterviewSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	seed.ID = m.nextID
	m.entries[seed.UserID] = []*models.TranscriptEntry{seed.Clone()}
	c := *sess
	m.sessions[sess.UserID] = &c
	return nil
}

func (m *memStore) AppendTurn(_ context.Context, entry *models.TranscriptEntry, sess *models.InterviewSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	entry.ID = m.nextID
	m.entries[entry.UserID] = append(m.entries[entry.UserID], entry.Clone())
	c := *sess
	m.sessions[sess.UserID] = &c
	return nil
}

type fakeProfiles struct {
	profiles map[int64]*models.Profile
}

func (f *fakeProfiles) ProfileByUserID(_ context.Context, userID int64) (*models.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

type fakeStatuses struct {
	status models.AssessmentStatus
}

func (f *fakeStatuses) LatestStatus(context.Context, int64) (models.AssessmentStatus, error) {
	return f.status, nil
}

type call struct {
	prompt  string
	history []ai.Message
}

type fakeAI struct {
	err     error
	replies []string
	calls   []call
	mu      sync.Mutex
}

func (f *fakeAI) Interview(_ context.Context, prompt string, history []ai.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{prompt: prompt, history: history})
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "Pertanyaan berikutnya?", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *fakeAI) Mapping(context.Context, string) (map[string]models.CompetencyLevel, error) {
	return nil, errors.New("not used")
}

func (f *fakeAI) Questions(context.Context, string, int) (*models.QuestionSet, error) {
	return nil, errors.New("not used")
}

func (f *fakeAI) lastCall() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type recordingNotifier struct {
	events []models.SessionEvent
	mu     sync.Mutex
}

func (r *recordingNotifier) Publish(_ context.Context, ev models.SessionEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// OrchestratorSuite exercises the interview state machine against in-memory collaborators.
type OrchestratorSuite struct {
	suite.Suite
	store    *memStore
	ai       *fakeAI
	statuses *fakeStatuses
	notifier *recordingNotifier
	locks    *session.Manager
	orch     *Orchestrator
}

const userID int64 = 1

func (s *OrchestratorSuite) SetupTest() {
	s.store = newMemStore()
	s.ai = &fakeAI{}
	s.statuses = &fakeStatuses{status: models.AssessmentUnassessed}
	s.notifier = &recordingNotifier{}
	s.locks = session.NewManager(context.Background())
	s.orch = NewOrchestrator(Config{
		Store: s.store,
		Profiles: &fakeProfiles{profiles: map[int64]*models.Profile{
			userID: {UserID: userID, Skills: []string{"Go"}},
		}},
		Statuses: s.statuses,
		AI:       s.ai,
		Locker:   s.locks,
		Notifier: s.notifier,
		Now:      func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
		MaxTurns: 5,
	})
}

func (s *OrchestratorSuite) TearDownTest() {
	s.locks.ShutdownAll(context.Background())
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

func (s *OrchestratorSuite) continueN(n int) {
	for i := 0; i < n; i++ {
		_, err := s.orch.Continue(context.Background(), userID, "jawaban")
		s.Require().NoError(err)
	}
}

func (s *OrchestratorSuite) TestStartSeedsSingleEntry() {
	s.ai.replies = []string{"<think>menyusun pertanyaan</think>Halo! Ceritakan pengalaman Anda."}

	reply, err := s.orch.Start(context.Background(), userID)
	s.Require().NoError(err)
	s.Equal("Halo! Ceritakan pengalaman Anda.", reply.Answer)
	s.Equal(4, reply.Remaining)

	entries, _ := s.store.Entries(context.Background(), userID)
	s.Require().Len(entries, 1)
	s.True(entries[0].IsSeed)
	s.True(IsSeedPrompt(entries[0].UserPrompt))
	s.NotContains(entries[0].UserPrompt, "INSTRUKSI")
	s.NotContains(entries[0].AIResponse, "<think>")

	first := s.ai.lastCall()
	s.Empty(first.history)
	s.Contains(first.prompt, "Sisa 5 pertanyaan")

	sess, err := s.store.Session(context.Background(), userID)
	s.Require().NoError(err)
	s.Equal(models.InterviewStatusSeedSent, sess.Status)
}

func (s *OrchestratorSuite) TestStartIsHardReset() {
	_, err := s.orch.Start(context.Background(), userID)
	s.Require().NoError(err)
	s.continueN(3)

	_, err = s.orch.Start(context.Background(), userID)
	s.Require().NoError(err)

	entries, _ := s.store.Entries(context.Background(), userID)
	s.Len(entries, 1)
	s.Empty(s.ai.lastCall().history)
}

func (s *OrchestratorSuite) TestStartFailureKeepsTranscript() {
	_, err := s.orch.Start(context.Background(), userID)
	s.Require().NoError(err)
	s.continueN(2)

	s.ai.err = ai.ErrServiceInterrupted
	_, err = s.orch.Start(context.Background(), userID)
	s.ErrorIs(err, ai.ErrServiceInterrupted)

	entries, _ := s.store.Entries(context.Background(), userID)
	s.Len(entries, 3)
}

func (s *OrchestratorSuite) TestStartWithoutProfile() {
	_, err := s.orch.Start(context.Background(), 99)
	s.ErrorIs(err, ErrProfileNotFound)
}

func (s *OrchestratorSuite) TestContinueReplaysHistoryAndStoresOriginalPrompt() {
	_, err := s.orch.Start(context.Background(), userID)
	s.Require().NoError(err)

	reply, err := s.orch.Continue(context.Background(), userID, "Saya analis data")
	s.Require().NoError(err)
	s.Equal(2, reply.Turn)
	s.Equal(3, reply.Remaining)

	c := s.ai.lastCall()
	s.Require().Len(c.history, 2)
	s.Equal(ai.RoleUser, c.history[0].Role)
	s.True(IsSeedPrompt(c.history[0].Content))
	s.Equal(ai.RoleAssistant, c.history[1].Role)
	s.True(strings.HasPrefix(c.prompt, "Saya analis data\n\n"))
	s.Contains(c.prompt, "Sisa 4 pertanyaan")

	entries, _ := s.store.Entries(context.Background(), userID)
	s.Require().Len(entries, 2)
	s.Equal("Saya analis data", entries[1].UserPrompt)
}

func (s *OrchestratorSuite) TestContinueRejectsEmptyPrompt() {
	_, err := s.orch.Continue(context.Background(), userID, "   ")
	var verr *models.ValidationError
	s.True(errors.As(err, &verr))
}

func (s *OrchestratorSuite) TestClosureAfterBudget() {
	_, err := s.orch.Start(context.Background(), userID)
	s.Require().NoError(err)
	s.continueN(4)

	entries, _ := s.store.Entries(context.Background(), userID)
	s.Require().Len(entries, 5)

	s.ai.replies = []string{"Terima kasih. " + TerminalMarker +
		"\n<think>pertimbangan\n<RESULT>{\"area_fungsi\":\"Sains Data\",\"level\":4}</RESULT></think>"}
	reply, err := s.orch.Continue(context.Background(), userID, "jawaban terakhir")
	s.Require().NoError(err)

	s.Contains(s.ai.lastCall().prompt, TerminalMarker)
	s.True(reply.Closed)
	s.Require().NotNil(reply.Entry.Result)
	s.Equal(models.InterviewResult{AreaFungsi: "Sains Data", Level: 4}, *reply.Entry.Result)
	s.Contains(reply.Answer, `<RESULT>{"area_fungsi":"Sains Data","level":4}</RESULT>`)
	s.NotContains(reply.Answer, "<think>")

	sess, err := s.store.Session(context.Background(), userID)
	s.Require().NoError(err)
	s.Equal(models.InterviewStatusClosed, sess.Status)
	s.NotNil(sess.ClosedAt)
}

func (s *OrchestratorSuite) TestContinueAfterClosureStartsNewCycle() {
	_, err := s.orch.Start(context.Background(), userID)
	s.Require().NoError(err)
	s.continueN(4)
	s.ai.replies = []string{"Terima kasih. " + TerminalMarker}
	s.continueN(1)

	reply, err := s.orch.Continue(context.Background(), userID, "boleh lanjut?")
	s.Require().NoError(err)
	s.False(reply.Closed)
	s.Equal(1, reply.Turn)
	s.Contains(s.ai.lastCall().prompt, "Sisa 5 pertanyaan")

	sess, err := s.store.Session(context.Background(), userID)
	s.Require().NoError(err)
	s.Equal(models.InterviewStatusProbing, sess.Status)
	s.Equal(6, sess.CycleStart)
}

func (s *OrchestratorSuite) TestHistoryPatchesStatusOnCopy() {
	s.ai.replies = []string{"Halo", "Terima kasih. " + TerminalMarker +
		` <RESULT>{"area_fungsi":"Layanan TI","level":2,"status":"Unassessed"}</RESULT>`}
	_, err := s.orch.Start(context.Background(), userID)
	s.Require().NoError(err)
	s.continueN(1)

	s.statuses.status = models.AssessmentLulus
	history, err := s.orch.History(context.Background(), userID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)

	s.Empty(history[0].UserPrompt, "seed prompt hidden")
	s.Contains(history[1].AIResponse, `"status":"Lulus"`)

	stored, _ := s.store.Entries(context.Background(), userID)
	s.Contains(stored[1].AIResponse, `"status":"Unassessed"`)
	s.True(IsSeedPrompt(stored[0].UserPrompt))
}

func (s *OrchestratorSuite) TestHistoryBlanksLegacySeedRows() {
	s.store.entries[userID] = []*models.TranscriptEntry{
		{ID: 1, UserID: userID, UserPrompt: SeedPreamble + "\n- Jurusan: x", AIResponse: "Halo"},
		{ID: 2, UserID: userID, UserPrompt: "jawaban", AIResponse: `<RESULT>{oops}</RESULT>`},
	}

	history, err := s.orch.History(context.Background(), userID)
	s.Require().NoError(err)
	s.Empty(history[0].UserPrompt)
	s.Equal(`<RESULT>{oops}</RESULT>`, history[1].AIResponse)
}

func (s *OrchestratorSuite) TestEventsPublished() {
	_, err := s.orch.Start(context.Background(), userID)
	s.Require().NoError(err)
	s.continueN(1)

	s.Require().Len(s.notifier.events, 2)
	s.Equal(models.SessionEventTurn, s.notifier.events[1].Type)
	s.Equal(2, s.notifier.events[1].Turn)
	s.NotZero(s.notifier.events[1].EntryID)
}

func (s *OrchestratorSuite) TestUpstreamErrorSurfacedVerbatim() {
	_, err := s.orch.Start(context.Background(), userID)
	s.Require().NoError(err)

	s.ai.err = &ai.UpstreamError{StatusCode: 503, Message: "model sibuk"}
	_, err = s.orch.Continue(context.Background(), userID, "halo")

	var upstream *ai.UpstreamError
	s.Require().True(errors.As(err, &upstream))
	s.Equal(503, upstream.StatusCode)

	entries, _ := s.store.Entries(context.Background(), userID)
	s.Len(entries, 1)
}

func TestConcurrentContinueIsSerialized(t *testing.T) {
	store := newMemStore()
	locks := session.NewManager(context.Background())
	defer locks.ShutdownAll(context.Background())

	orch := NewOrchestrator(Config{
		Store:    store,
		Profiles: &fakeProfiles{profiles: map[int64]*models.Profile{userID: {}}},
		AI:       &fakeAI{},
		Locker:   locks,
		MaxTurns: 50,
	})
	_, err := orch.Start(context.Background(), userID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	turns := make(chan int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := orch.Continue(context.Background(), userID, "x")
			if assert.NoError(t, err) {
				turns <- r.Turn
			}
		}()
	}
	wg.Wait()
	close(turns)

	seen := make(map[int]bool)
	for turn := range turns {
		assert.False(t, seen[turn], "turn %d reused", turn)
		seen[turn] = true
	}
	entries, _ := store.Entries(context.Background(), userID)
	assert.Len(t, entries, 11)
}

func (s *OrchestratorSuite) TestTurnTokenLogOnlyAtDebug() {
	origLogger, origLevel := log.Logger, zerolog.GlobalLevel()
	defer func() {
		log.Logger = origLogger
		zerolog.SetGlobalLevel(origLevel)
	}()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf).Level(zerolog.InfoLevel)
	_, err := s.orch.Start(context.Background(), userID)
	s.Require().NoError(err)
	s.NotContains(buf.String(), "prompt_tokens")

	buf.Reset()
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	_, err = s.orch.Start(context.Background(), userID)
	s.Require().NoError(err)
	s.Contains(buf.String(), `"prompt_tokens"`)
	s.Contains(buf.String(), "Sending interview turn")
}
