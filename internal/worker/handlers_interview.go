package worker

import (
	"net/http"

	"github.com/dtp-id/talenta/internal/interview"
	"github.com/dtp-id/talenta/pkg/models"
)

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type questionsRequest struct {
	AreaFungsi      string `json:"area_fungsi"`
	LevelKompetensi int    `json:"level_kompetensi"`
}

type interviewData struct {
	Answer         string `json:"answer"`
	Turn           int    `json:"turn"`
	RemainingTurns int    `json:"remaining_turns"`
	Closed         bool   `json:"closed"`
}

func replyData(r *interview.Reply) interviewData {
	return interviewData{
		Answer:         r.Answer,
		Turn:           r.Turn,
		RemainingTurns: r.Remaining,
		Closed:         r.Closed,
	}
}

func (s *Service) handleInterviewStart(w http.ResponseWriter, r *http.Request) {
	reply, err := s.interviews.Start(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPI(w, "Wawancara dimulai", replyData(reply))
}

func (s *Service) handleInterviewContinue(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reply, err := s.interviews.Continue(r.Context(), currentUser(r).ID, req.Prompt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPI(w, "Respons AI berhasil diterima", replyData(reply))
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.interviews.History(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*models.TranscriptEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.sseBroadcaster.Serve(w, r, currentUser(r).ID)
}

func (s *Service) handleMapping(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Prompt == "" {
		writeError(w, r, models.NewValidationError("prompt", "Prompt tidak boleh kosong"))
		return
	}

	levels, err := s.ai.Mapping(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for area, lvl := range levels {
		if lvl.Status == "" {
			lvl.Status = string(models.AssessmentUnassessed)
			levels[area] = lvl
		}
	}
	writeAPI(w, "Pemetaan kompetensi berhasil", levels)
}

func (s *Service) handleQuestions(w http.ResponseWriter, r *http.Request) {
	var req questionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	set, err := s.assessments.Questions(r.Context(), req.AreaFungsi, req.LevelKompetensi)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPI(w, "Soal berhasil dibuat", set)
}
