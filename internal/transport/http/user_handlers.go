package http

import (
	"net/http"

	"vision-api/internal/domain"
	"vision-api/internal/dto"
	"vision-api/internal/service"
)

type userHandlers struct {
	accounts service.AccountService
}

// current is only called behind Authenticate.
func current(r *http.Request) domain.AccountID {
	acc, _ := AccountFromContext(r.Context())
	return acc.ID
}

func (h userHandlers) profile(w http.ResponseWriter, r *http.Request) {
	acc, err := h.accounts.Profile(r.Context(), current(r))
	if err != nil {
		writeError(w, r, err, messages{domain.ErrNotFound: "user not found"})
		return
	}
	writeOK(w, http.StatusOK, "", dto.NewAccountView(acc))
}

func (h userHandlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileUpdateRequest
	if !decode(w, r, &req) {
		return
	}
	acc, err := h.accounts.UpdateProfile(r.Context(), current(r), req)
	if err != nil {
		writeError(w, r, err, messages{
			domain.ErrNotFound: "user not found",
			domain.ErrConflict: "this username is already taken",
		})
		return
	}
	writeOK(w, http.StatusOK, "profile updated successfully", dto.NewAccountView(acc))
}

func (h userHandlers) changeUsername(w http.ResponseWriter, r *http.Request) {
	var req dto.UsernameRequest
	if !decode(w, r, &req) {
		return
	}
	acc, err := h.accounts.ChangeUsername(r.Context(), current(r), req.Username)
	if err != nil {
		writeError(w, r, err, messages{
			domain.ErrNotFound: "user not found",
			domain.ErrConflict: "this username is already taken",
		})
		return
	}
	writeOK(w, http.StatusOK, "username updated successfully", dto.NewAccountView(acc))
}

func (h userHandlers) changeEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	acc, err := h.accounts.ChangeEmail(r.Context(), current(r), req.Email)
	if err != nil {
		writeError(w, r, err, messages{
			domain.ErrNotFound: "user not found",
			domain.ErrConflict: "this email is already in use",
		})
		return
	}
	writeOK(w, http.StatusOK, "email updated successfully", dto.NewAccountView(acc))
}

func (h userHandlers) changePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.accounts.ChangePassword(r.Context(), current(r), req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(w, r, err, messages{
			domain.ErrNotFound:           "user not found",
			domain.ErrInvalidCredentials: "current password is incorrect",
		})
		return
	}
	writeOK(w, http.StatusOK, "password updated successfully", nil)
}

func (h userHandlers) setNewsletter(w http.ResponseWriter, r *http.Request) {
	var req dto.NewsletterPreferenceRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Newsletter == nil {
		writeFail(w, http.StatusBadRequest, "newsletter value must be a boolean")
		return
	}
	acc, err := h.accounts.SetNewsletter(r.Context(), current(r), *req.Newsletter)
	if err != nil {
		writeError(w, r, err, messages{domain.ErrNotFound: "user not found"})
		return
	}
	writeOK(w, http.StatusOK, "newsletter preference updated successfully", dto.NewAccountView(acc))
}

func (h userHandlers) deleteAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.DeleteAccountRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.accounts.Delete(r.Context(), current(r), req.Password); err != nil {
		writeError(w, r, err, messages{
			domain.ErrNotFound:           "user not found",
			domain.ErrInvalidCredentials: "incorrect password",
		})
		return
	}
	writeOK(w, http.StatusOK, "account deleted successfully", nil)
}
