package gorm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dtp-id/talenta/pkg/models"
)

// AssessmentStore persists scored assessment attempts.
type AssessmentStore struct {
	db *gorm.DB
}

// NewAssessmentStore creates a new assessment store.
func NewAssessmentStore(store *Store) *AssessmentStore {
	return &AssessmentStore{db: store.DB}
}

// SaveOutcome stores the attempt, every answer and the result in one transaction.
// out.AttemptID and out.CreatedAt are filled in.
func (s *AssessmentStore) SaveOutcome(ctx context.Context, userID int64, sub *models.AssessmentSubmission, out *models.AssessmentOutcome) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt := &AssessmentAttempt{UserID: userID, AreaFungsi: sub.AreaFungsi, CreatedAt: now}
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}

		answers := make([]AssessmentAnswer, 0, len(sub.Jawaban))
		for i := range sub.Jawaban {
			a := &sub.Jawaban[i]
			opts, err := jsonValue(a.OpsiJawaban)
			if err != nil {
				return err
			}
			answers = append(answers, AssessmentAnswer{
				AttemptID:    attempt.ID,
				NomorSoal:    a.NomorSoal,
				Soal:         a.Soal,
				OpsiJawaban:  opts,
				JawabanUser:  a.JawabanUser,
				KunciJawaban: a.KunciJawaban,
				IsCorrect:    a.Correct(),
			})
		}
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}

		raw, err := jsonValue(sub)
		if err != nil {
			return err
		}
		result := &AssessmentResult{
			AttemptID:    attempt.ID,
			UserID:       userID,
			AreaFungsi:   sub.AreaFungsi,
			Score:        out.Score,
			Threshold:    out.Threshold,
			Status:       string(out.Status),
			CorrectCount: out.CorrectCount,
			Total:        out.Total,
			RawData:      raw,
			CreatedAt:    now,
		}
		if err := tx.Create(result).Error; err != nil {
			return err
		}

		out.AttemptID = attempt.ID
		out.CreatedAt = now
		return nil
	})
}

// LatestOutcome returns the user's most recent result, or models.ErrNotFound.
func (s *AssessmentStore) LatestOutcome(ctx context.Context, userID int64) (*models.AssessmentOutcome, error) {
	var r AssessmentResult
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&r).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &models.AssessmentOutcome{
		AttemptID:    r.AttemptID,
		AreaFungsi:   r.AreaFungsi,
		Score:        r.Score,
		Threshold:    r.Threshold,
		Status:       models.AssessmentStatus(r.Status),
		CorrectCount: r.CorrectCount,
		Total:        r.Total,
		CreatedAt:    r.CreatedAt,
	}, nil
}

// LatestStatus returns the status of the most recent result in any area,
// or models.AssessmentUnassessed when the user has none.
func (s *AssessmentStore) LatestStatus(ctx context.Context, userID int64) (models.AssessmentStatus, error) {
	out, err := s.LatestOutcome(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return models.AssessmentUnassessed, nil
	}
	if err != nil {
		return "", err
	}
	return out.Status, nil
}
