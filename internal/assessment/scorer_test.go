package assessment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtp-id/talenta/pkg/models"
)

type fakeStore struct {
	saved  []*models.AssessmentOutcome
	err    error
	status models.AssessmentStatus
}

func (f *fakeStore) SaveOutcome(_ context.Context, _ int64, _ *models.AssessmentSubmission, out *models.AssessmentOutcome) error {
	if f.err != nil {
		return f.err
	}
	out.AttemptID = int64(len(f.saved) + 1)
	f.saved = append(f.saved, out)
	return nil
}

func (f *fakeStore) LatestStatus(context.Context, int64) (models.AssessmentStatus, error) {
	if f.status == "" {
		return models.AssessmentUnassessed, nil
	}
	return f.status, nil
}

type fakeQuestions struct {
	area  string
	level int
}

func (f *fakeQuestions) Questions(_ context.Context, area string, level int) (*models.QuestionSet, error) {
	f.area, f.level = area, level
	return &models.QuestionSet{AreaFungsi: area, LevelKompetensi: level}, nil
}

func answer(key, chosen string) models.AnswerItem {
	return models.AnswerItem{
		OpsiJawaban:  map[string]string{"a": "Satu", "b": "Dua", "c": "Tiga", "d": "Empat"},
		KunciJawaban: key,
		JawabanUser:  chosen,
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		answers []models.AnswerItem
		score   float64
		correct int
		status  models.AssessmentStatus
	}{
		{"all correct by text", []models.AnswerItem{answer("a", "Satu"), answer("b", "Dua")}, 100, 2, models.AssessmentLulus},
		{"correct by letter", []models.AnswerItem{answer("c", "C")}, 100, 1, models.AssessmentLulus},
		{"exactly threshold", []models.AnswerItem{
			answer("a", "Satu"), answer("a", "Satu"), answer("a", "Satu"), answer("a", "Satu"), answer("a", "Satu"),
			answer("a", "Satu"), answer("a", "Satu"), answer("a", "Dua"), answer("a", "Dua"), answer("a", "Dua"),
		}, 70, 7, models.AssessmentLulus},
		{"below threshold", []models.AnswerItem{answer("a", "Satu"), answer("a", "Dua"), answer("a", "Tiga")}, 33.33, 1, models.AssessmentGagal},
		{"blank answer", []models.AnswerItem{answer("a", "")}, 0, 0, models.AssessmentGagal},
		{"empty", nil, 0, 0, models.AssessmentGagal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Score(&models.AssessmentSubmission{AreaFungsi: "Data", Jawaban: tt.answers}, 70)
			assert.InDelta(t, tt.score, out.Score, 0.001)
			assert.Equal(t, tt.correct, out.CorrectCount)
			assert.Equal(t, len(tt.answers), out.Total)
			assert.Equal(t, tt.status, out.Status)
		})
	}
}

func TestSubmit(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, &fakeQuestions{}, 70)

	out, err := svc.Submit(context.Background(), 1, &models.AssessmentSubmission{
		AreaFungsi: "Data",
		Jawaban:    []models.AnswerItem{answer("a", "Satu")},
	})
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentLulus, out.Status)
	assert.Equal(t, int64(1), out.AttemptID)
	assert.Len(t, store.saved, 1)
}

func TestSubmit_Validation(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, &fakeQuestions{}, 70)

	_, err := svc.Submit(context.Background(), 1, &models.AssessmentSubmission{AreaFungsi: "Data"})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "jawaban", verr.Field)
	assert.Empty(t, store.saved)
}

func TestSubmit_StoreError(t *testing.T) {
	svc := NewService(&fakeStore{err: errors.New("disk full")}, &fakeQuestions{}, 70)
	_, err := svc.Submit(context.Background(), 1, &models.AssessmentSubmission{
		AreaFungsi: "Data",
		Jawaban:    []models.AnswerItem{answer("a", "Satu")},
	})
	assert.ErrorContains(t, err, "disk full")
}

func TestStatus(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, &fakeQuestions{}, 70)

	status, err := svc.Status(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentUnassessed, status)

	store.status = models.AssessmentGagal
	status, err = svc.Status(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentGagal, status)
}

func TestQuestions(t *testing.T) {
	q := &fakeQuestions{}
	svc := NewService(&fakeStore{}, q, 70)

	set, err := svc.Questions(context.Background(), "  Data ", 3)
	require.NoError(t, err)
	assert.Equal(t, "Data", set.AreaFungsi)
	assert.Equal(t, 3, q.level)

	_, err = svc.Questions(context.Background(), "", 3)
	assert.Error(t, err)
	_, err = svc.Questions(context.Background(), "Data", 0)
	assert.Error(t, err)
}
