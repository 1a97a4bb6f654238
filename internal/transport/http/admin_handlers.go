package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vision-api/internal/domain"
	"vision-api/internal/dto"
	"vision-api/internal/service"
)

type adminHandlers struct {
	admin       service.AdminService
	newsletters service.NewsletterService
}

// pathID parses the {id} URL parameter. A malformed id cannot name an
// existing record, so it is reported as not found.
func pathID(w http.ResponseWriter, r *http.Request, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeFail(w, http.StatusNotFound, notFound)
		return uuid.Nil, false
	}
	return id, true
}

func (h adminHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.admin.ListAccounts(r.Context())
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeOK(w, http.StatusOK, "", dto.NewAccountViews(accounts))
}

func (h adminHandlers) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user not found")
	if !ok {
		return
	}
	acc, err := h.admin.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, err, messages{domain.ErrNotFound: "user not found"})
		return
	}
	writeOK(w, http.StatusOK, "", dto.NewAccountView(acc))
}

func (h adminHandlers) setRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user not found")
	if !ok {
		return
	}
	var req dto.RoleRequest
	if !decode(w, r, &req) {
		return
	}
	acc, err := h.admin.SetRole(r.Context(), current(r), id, req.Role)
	if err != nil {
		writeError(w, r, err, messages{domain.ErrNotFound: "user not found"})
		return
	}
	writeOK(w, http.StatusOK, "user role updated successfully", dto.NewAccountView(acc))
}

func (h adminHandlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user not found")
	if !ok {
		return
	}
	if err := h.admin.DeleteAccount(r.Context(), current(r), id); err != nil {
		writeError(w, r, err, messages{domain.ErrNotFound: "user not found"})
		return
	}
	writeOK(w, http.StatusOK, "user deleted successfully", nil)
}

func (h adminHandlers) listMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.admin.ListMessages(r.Context())
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeOK(w, http.StatusOK, "", msgs)
}

func (h adminHandlers) setMessageStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "message not found")
	if !ok {
		return
	}
	var req dto.MessageStatusRequest
	if !decode(w, r, &req) {
		return
	}
	msg, err := h.admin.SetMessageStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, err, messages{domain.ErrNotFound: "message not found"})
		return
	}
	writeOK(w, http.StatusOK, "message status updated successfully", msg)
}

func (h adminHandlers) deleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "message not found")
	if !ok {
		return
	}
	if err := h.admin.DeleteMessage(r.Context(), id); err != nil {
		writeError(w, r, err, messages{domain.ErrNotFound: "message not found"})
		return
	}
	writeOK(w, http.StatusOK, "message deleted successfully", nil)
}

func (h adminHandlers) sendNewsletter(w http.ResponseWriter, r *http.Request) {
	var req dto.NewsletterRequest
	if !decode(w, r, &req) {
		return
	}
	nl, err := h.newsletters.Send(r.Context(), current(r), req)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeOK(w, http.StatusOK, "newsletter sent successfully", dto.NewsletterSentResponse{RecipientCount: nl.RecipientCount})
}

func (h adminHandlers) newsletterHistory(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	res, err := h.newsletters.History(r.Context(), page, limit)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeOK(w, http.StatusOK, "", res)
}
