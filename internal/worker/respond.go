package worker

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/dtp-id/talenta/internal/ai"
	"github.com/dtp-id/talenta/internal/auth"
	"github.com/dtp-id/talenta/internal/interview"
	"github.com/dtp-id/talenta/pkg/models"
)

const (
	msgValidation  = "Terjadi kesalahan validasi data"
	msgInterrupted = "Koneksi ke layanan AI terputus. Silakan coba lagi."
	msgMalformed   = "Layanan AI mengembalikan respons yang tidak valid."
	msgInternal    = "Terjadi kesalahan pada server."
	maxJSONBody    = 1 << 20
)

// httpError is an error with a fixed status and client-facing detail.
type httpError struct {
	Detail string
	Status int
}

func (e *httpError) Error() string { return e.Detail }

func errStatus(status int, detail string) error {
	return &httpError{Status: status, Detail: detail}
}

type fieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps err to a status code and a {"detail": ...} body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		httpErr  *httpError
		verr     *models.ValidationError
		verrs    models.ValidationErrors
		upstream *ai.UpstreamError
	)

	switch {
	case errors.As(err, &httpErr):
		writeJSON(w, httpErr.Status, map[string]string{"detail": httpErr.Detail})
	case errors.As(err, &verrs):
		details := make([]fieldError, 0, len(verrs))
		for _, v := range verrs {
			details = append(details, fieldError{Field: v.Field, Msg: v.Message})
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": details, "message": msgValidation})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": verr.Message})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": auth.MsgInvalidCredentials})
	case errors.Is(err, auth.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": auth.MsgUnauthorized})
	case errors.Is(err, interview.ErrProfileNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Profile not found"})
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
	case errors.As(err, &upstream):
		status := upstream.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, map[string]string{"detail": upstream.Message})
	case errors.Is(err, ai.ErrServiceInterrupted):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": msgInterrupted})
	case errors.Is(err, ai.ErrMalformedResponse):
		writeJSON(w, http.StatusBadGateway, map[string]string{"detail": msgMalformed})
	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": msgInternal})
	}
}

// decodeJSON reads a JSON body into dst. Syntax and type errors become a
// 422 validation response.
func decodeJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return models.ValidationErrors{models.NewValidationError("body", "Tolong input body (wajib diisi)")}
		}
		return models.ValidationErrors{models.NewValidationError("body", "Format JSON tidak valid")}
	}
	return nil
}

// apiResponse is the envelope of the AI-backed endpoints.
type apiResponse struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func writeAPI(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: message, Data: data})
}
