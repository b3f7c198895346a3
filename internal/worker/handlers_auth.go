package worker

import (
	"net/http"
	"strings"

	"github.com/dtp-id/talenta/internal/auth"
	"github.com/dtp-id/talenta/pkg/models"
)

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := decodeJSON(r, &reg); err != nil {
		writeError(w, r, err)
		return
	}
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)

	if _, err := s.auth.Register(r.Context(), &reg); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User created successfully"})
}

// handleLogin accepts the OAuth2 password form; the username field carries the email.
func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, models.ValidationErrors{models.NewValidationError("body", "Format form tidak valid")})
		return
	}
	email := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	var verrs models.ValidationErrors
	if email == "" {
		verrs = append(verrs, models.NewValidationError("username", "Tolong input Username (wajib diisi)"))
	}
	if password == "" {
		verrs = append(verrs, models.NewValidationError("password", "Tolong input Password (wajib diisi)"))
	}
	if err := verrs.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := s.auth.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func currentUser(r *http.Request) *models.User {
	return auth.UserFromContext(r.Context())
}
