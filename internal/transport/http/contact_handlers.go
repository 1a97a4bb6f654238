package http

import (
	"net/http"

	"vision-api/internal/dto"
	"vision-api/internal/service"
)

type contactHandlers struct {
	contact service.ContactService
}

func (h contactHandlers) submit(w http.ResponseWriter, r *http.Request) {
	var req dto.ContactRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := h.contact.Submit(r.Context(), req); err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeOK(w, http.StatusOK, "message sent successfully", nil)
}
