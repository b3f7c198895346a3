package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dtp-id/talenta/pkg/models"
)

// TranscriptStore persists interview turns and the per-user session row.
type TranscriptStore struct {
	db *gorm.DB
}

// NewTranscriptStore creates a new transcript store.
func NewTranscriptStore(store *Store) *TranscriptStore {
	return &TranscriptStore{db: store.DB}
}

// Entries returns the user's transcript in conversational order. The id
// breaks ties between rows written within the same timestamp.
func (s *TranscriptStore) Entries(ctx context.Context, userID int64) ([]*models.TranscriptEntry, error) {
	var rows []InterviewLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*models.TranscriptEntry, 0, len(rows))
	for i := range rows {
		out = append(out, toModelEntry(&rows[i]))
	}
	return out, nil
}

// Count returns the number of stored entries for the user.
func (s *TranscriptStore) Count(ctx context.Context, userID int64) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&InterviewLog{}).Where("user_id = ?", userID).Count(&n).Error
	return int(n), err
}

// Session returns the user's session row, or models.ErrNotFound.
func (s *TranscriptStore) Session(ctx context.Context, userID int64) (*models.InterviewSession, error) {
	var row InterviewSession
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return toModelSession(&row), nil
}

// Reset deletes every entry of the user, inserts seed and saves sess atomically.
func (s *TranscriptStore) Reset(ctx context.Context, seed *models.TranscriptEntry, sess *models.InterviewSession) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", seed.UserID).Delete(&InterviewLog{}).Error; err != nil {
			return err
		}
		if err := insertEntry(tx, seed); err != nil {
			return err
		}
		return saveSession(tx, sess)
	})
}

// AppendTurn inserts entry and saves sess atomically.
func (s *TranscriptStore) AppendTurn(ctx context.Context, entry *models.TranscriptEntry, sess *models.InterviewSession) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertEntry(tx, entry); err != nil {
			return err
		}
		return saveSession(tx, sess)
	})
}

func insertEntry(tx *gorm.DB, e *models.TranscriptEntry) error {
	row := &InterviewLog{
		UserID:     e.UserID,
		UserPrompt: e.UserPrompt,
		AIResponse: e.AIResponse,
		IsSeed:     e.IsSeed,
		CreatedAt:  e.CreatedAt,
	}
	if e.Result != nil {
		row.ResultArea = &e.Result.AreaFungsi
		row.ResultLevel = &e.Result.Level
		row.ResultStatus = e.Result.Status
	}
	if err := tx.Create(row).Error; err != nil {
		return err
	}
	e.ID = row.ID
	e.CreatedAt = row.CreatedAt
	return nil
}

func saveSession(tx *gorm.DB, sess *models.InterviewSession) error {
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = time.Now()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = sess.UpdatedAt
	}
	row := &InterviewSession{
		UserID:     sess.UserID,
		Status:     string(sess.Status),
		CycleStart: sess.CycleStart,
		StartedAt:  sess.StartedAt,
		UpdatedAt:  sess.UpdatedAt,
		ClosedAt:   sess.ClosedAt,
	}
	if sess.Result != nil {
		row.ResultArea = &sess.Result.AreaFungsi
		row.ResultLevel = &sess.Result.Level
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "cycle_start", "started_at", "updated_at", "closed_at", "result_area", "result_level",
		}),
	}).Create(row).Error
	if err != nil {
		return err
	}
	if row.ID != 0 {
		sess.ID = row.ID
	}
	return nil
}

func toModelEntry(l *InterviewLog) *models.TranscriptEntry {
	e := &models.TranscriptEntry{
		ID:         l.ID,
		UserID:     l.UserID,
		UserPrompt: l.UserPrompt,
		AIResponse: l.AIResponse,
		IsSeed:     l.IsSeed,
		CreatedAt:  l.CreatedAt,
	}
	if l.ResultArea != nil && l.ResultLevel != nil {
		e.Result = &models.InterviewResult{
			AreaFungsi: *l.ResultArea,
			Level:      *l.ResultLevel,
			Status:     l.ResultStatus,
		}
	}
	return e
}

func toModelSession(r *InterviewSession) *models.InterviewSession {
	s := &models.InterviewSession{
		ID:         r.ID,
		UserID:     r.UserID,
		Status:     models.InterviewStatus(r.Status),
		CycleStart: r.CycleStart,
		StartedAt:  r.StartedAt,
		UpdatedAt:  r.UpdatedAt,
		ClosedAt:   r.ClosedAt,
	}
	if r.ResultArea != nil && r.ResultLevel != nil {
		s.Result = &models.InterviewResult{AreaFungsi: *r.ResultArea, Level: *r.ResultLevel}
	}
	return s
}
