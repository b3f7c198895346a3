// Package assessment scores multiple-choice submissions and tracks the latest outcome per user.
package assessment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dtp-id/talenta/pkg/models"
)

// Store persists scored attempts.
type Store interface {
	SaveOutcome(ctx context.Context, userID int64, sub *models.AssessmentSubmission, out *models.AssessmentOutcome) error
	LatestStatus(ctx context.Context, userID int64) (models.AssessmentStatus, error)
}

// QuestionSource generates question sets.
type QuestionSource interface {
	Questions(ctx context.Context, area string, level int) (*models.QuestionSet, error)
}

// Service scores submissions against a pass threshold.
type Service struct {
	store     Store
	questions QuestionSource
	threshold float64
}

// NewService creates a scorer. threshold is a percentage in [0, 100].
func NewService(store Store, questions QuestionSource, threshold float64) *Service {
	return &Service{store: store, questions: questions, threshold: threshold}
}

// Threshold returns the pass mark.
func (s *Service) Threshold() float64 {
	return s.threshold
}

// Score grades sub without persisting it.
func Score(sub *models.AssessmentSubmission, threshold float64) *models.AssessmentOutcome {
	out := &models.AssessmentOutcome{
		AreaFungsi: sub.AreaFungsi,
		Threshold:  threshold,
		Total:      len(sub.Jawaban),
		Status:     models.AssessmentGagal,
	}
	for i := range sub.Jawaban {
		if sub.Jawaban[i].Correct() {
			out.CorrectCount++
		}
	}
	if out.Total > 0 {
		out.Score = math.Round(float64(out.CorrectCount)/float64(out.Total)*10000) / 100
	}
	if out.Score >= threshold {
		out.Status = models.AssessmentLulus
	}
	return out
}

// Submit validates, scores and stores sub for the user.
func (s *Service) Submit(ctx context.Context, userID int64, sub *models.AssessmentSubmission) (*models.AssessmentOutcome, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	out := Score(sub, s.threshold)
	if err := s.store.SaveOutcome(ctx, userID, sub, out); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}

	log.Info().
		Int64("user_id", userID).
		Str("area", out.AreaFungsi).
		Float64("score", out.Score).
		Str("status", string(out.Status)).
		Msg("Assessment scored")
	return out, nil
}

// Status returns the user's latest status, or models.AssessmentUnassessed.
func (s *Service) Status(ctx context.Context, userID int64) (models.AssessmentStatus, error) {
	return s.store.LatestStatus(ctx, userID)
}

// Questions requests a question set for area at level.
func (s *Service) Questions(ctx context.Context, area string, level int) (*models.QuestionSet, error) {
	area = strings.TrimSpace(area)
	if area == "" {
		return nil, models.NewValidationError("area_fungsi", "Tolong input Area Fungsi (wajib diisi)")
	}
	if level < 1 {
		return nil, models.NewValidationError("level_kompetensi", "Level kompetensi tidak valid")
	}
	return s.questions.Questions(ctx, area, level)
}
