package models

import (
	"strings"
	"time"
)

// AssessmentStatus is the outcome of the competency assessment.
type AssessmentStatus string

const (
	AssessmentUnassessed AssessmentStatus = "unassessed"
	AssessmentLulus      AssessmentStatus = "lulus"
	AssessmentGagal      AssessmentStatus = "gagal"
)

// Display returns the capitalized form shown to users.
func (s AssessmentStatus) Display() string {
	switch s {
	case AssessmentLulus:
		return "Lulus"
	case AssessmentGagal:
		return "Gagal"
	default:
		return "Unassessed"
	}
}

// AnswerItem is one answered multiple-choice question as submitted by the client.
type AnswerItem struct {
	OpsiJawaban  map[string]string `json:"opsi_jawaban"`
	Soal         string            `json:"soal"`
	JawabanUser  string            `json:"jawaban_user"`
	KunciJawaban string            `json:"kunci_jawaban"`
	NomorSoal    int               `json:"nomor_soal"`
}

// Correct reports whether the chosen answer matches the key. The client may
// send either the option text or the option letter.
func (a *AnswerItem) Correct() bool {
	key := strings.ToLower(strings.TrimSpace(a.KunciJawaban))
	chosen := strings.TrimSpace(a.JawabanUser)
	if key == "" || chosen == "" {
		return false
	}
	if strings.EqualFold(chosen, key) {
		return true
	}
	for letter, text := range a.OpsiJawaban {
		if strings.ToLower(strings.TrimSpace(letter)) == key {
			return strings.TrimSpace(text) == chosen
		}
	}
	return false
}

// AssessmentSubmission is the payload for scoring.
type AssessmentSubmission struct {
	AreaFungsi string       `json:"area_fungsi"`
	Jawaban    []AnswerItem `json:"jawaban"`
}

// Validate checks the submission has an area and at least one answer.
func (s *AssessmentSubmission) Validate() error {
	if strings.TrimSpace(s.AreaFungsi) == "" {
		return NewValidationError("area_fungsi", "Tolong input Area Fungsi (wajib diisi)")
	}
	if len(s.Jawaban) == 0 {
		return NewValidationError("jawaban", "Jawaban tidak boleh kosong")
	}
	return nil
}

// AssessmentOutcome is the scored result of one attempt.
type AssessmentOutcome struct {
	CreatedAt    time.Time        `json:"created_at"`
	AreaFungsi   string           `json:"area_fungsi"`
	Status       AssessmentStatus `json:"status"`
	Score        float64          `json:"score"`
	Threshold    float64          `json:"threshold"`
	AttemptID    int64            `json:"attempt_id"`
	CorrectCount int              `json:"correct_count"`
	Total        int              `json:"total_questions"`
}

// QuestionOption holds the four answer choices.
type QuestionOption struct {
	A string `json:"a"`
	B string `json:"b"`
	C string `json:"c"`
	D string `json:"d"`
}

// QuestionItem is one generated multiple-choice question.
type QuestionItem struct {
	AspekKritis  string         `json:"aspek_kritis"`
	Soal         string         `json:"soal"`
	JawabanBenar string         `json:"jawaban_benar"`
	OpsiJawaban  QuestionOption `json:"opsi_jawaban"`
	NomorSoal    int            `json:"nomor_soal"`
}

// QuestionSet is a generated assessment for one area and level.
type QuestionSet struct {
	AreaFungsi      string         `json:"area_fungsi"`
	KumpulanSoal    []QuestionItem `json:"kumpulan_soal"`
	LevelKompetensi int            `json:"level_kompetensi"`
}

// CompetencyLevel is the mapping verdict for one functional area.
type CompetencyLevel struct {
	Status          string  `json:"status"`
	LevelKompetensi int     `json:"level_kompetensi"`
	Kecocokan       float64 `json:"kecocokan"`
}
