package worker

import (
	"net/http"

	"github.com/dtp-id/talenta/pkg/models"
)

type submitResponse struct {
	Data         *models.AssessmentOutcome `json:"data"`
	Status       models.AssessmentStatus   `json:"status"`
	Message      string                    `json:"message"`
	Score        float64                   `json:"score"`
	CorrectCount int                       `json:"correct_count"`
	Total        int                       `json:"total_questions"`
	Success      bool                      `json:"success"`
}

func (s *Service) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	var sub models.AssessmentSubmission
	if err := decodeJSON(r, &sub); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.assessments.Submit(r.Context(), currentUser(r).ID, &sub)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Success:      true,
		Message:      "Assessment submitted successfully",
		Score:        out.Score,
		CorrectCount: out.CorrectCount,
		Total:        out.Total,
		Status:       out.Status,
		Data:         out,
	})
}

func (s *Service) handleAssessmentStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.assessments.Status(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  string(status),
		"display": status.Display(),
	})
}
