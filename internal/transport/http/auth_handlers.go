package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"vision-api/internal/domain"
	"vision-api/internal/dto"
	"vision-api/internal/service"
)

type authHandlers struct {
	auth service.AuthService
}

func (h authHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeOK(w, http.StatusCreated, "registration successful", res)
}

func (h authHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeOK(w, http.StatusOK, "login successful", res)
}

func (h authHandlers) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, r, err, messages{domain.ErrNotFound: "no account is associated with this email"})
		return
	}
	writeOK(w, http.StatusOK, "password reset email sent", nil)
}

func (h authHandlers) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password); err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeOK(w, http.StatusOK, "password reset successful", nil)
}
