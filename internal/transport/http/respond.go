package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"vision-api/internal/domain"
	"vision-api/internal/dto"
	"vision-api/internal/observability/logging"
)

const maxBodyBytes = 1 << 20

// messages overrides the default client message for a sentinel on a single
// route, e.g. ErrConflict on registration reads "user already exists".
type messages map[error]string

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeOK(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, dto.Envelope{Success: true, Message: message, Data: data})
}

func writeFail(w http.ResponseWriter, status int, message string, problems ...string) {
	writeJSON(w, status, dto.Envelope{Success: false, Message: message, Errors: problems})
}

// writeError maps err onto a status and a client safe message. Unknown errors
// become a generic 500; the detail only goes to the log.
func writeError(w http.ResponseWriter, r *http.Request, err error, overrides messages) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeFail(w, http.StatusBadRequest, verr.Message, verr.Problems...)
		return
	}

	for _, m := range []struct {
		target  error
		status  int
		message string
	}{
		{domain.ErrValidation, http.StatusBadRequest, "invalid request"},
		{domain.ErrInvalidResetToken, http.StatusBadRequest, "invalid or expired token"},
		{domain.ErrConflict, http.StatusBadRequest, "already exists"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{domain.ErrInvalidToken, http.StatusUnauthorized, "unauthorized"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{domain.ErrNotFound, http.StatusNotFound, "not found"},
		{domain.ErrDelivery, http.StatusInternalServerError, "error sending email"},
	} {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if o, ok := overrides[m.target]; ok {
			msg = o
		}
		if m.status >= http.StatusInternalServerError {
			logging.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		}
		writeFail(w, m.status, msg)
		return
	}

	logging.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	writeFail(w, http.StatusInternalServerError, "internal server error")
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeFail(w, http.StatusBadRequest, "invalid request body")
	return false
}
