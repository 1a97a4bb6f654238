package http

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"vision-api/internal/domain"
	"vision-api/internal/observability/logging"
	"vision-api/internal/service"
)

type accountKey struct{}

func contextWithAccount(ctx context.Context, acc *domain.Account) context.Context {
	return context.WithValue(ctx, accountKey{}, acc)
}

// AccountFromContext returns the account put in place by Authenticate.
func AccountFromContext(ctx context.Context) (*domain.Account, bool) {
	acc, ok := ctx.Value(accountKey{}).(*domain.Account)
	return acc, ok && acc != nil
}

// Authenticate requires a valid "Authorization: Bearer <token>" header.
// Every failure gets the same 401 body.
func Authenticate(auth service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logging.FromContext(r.Context())

			raw := r.Header.Get("Authorization")
			scheme, token, found := strings.Cut(raw, " ")
			token = strings.TrimSpace(token)
			if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
				log.Debug("missing bearer token", "path", r.URL.Path)
				writeFail(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			acc, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidToken) {
					log.Debug("bearer token rejected", "path", r.URL.Path)
				} else {
					log.Error("authenticate", "path", r.URL.Path, "error", err)
				}
				writeFail(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithAccount(r.Context(), acc)))
		})
	}
}

// RequireRole lets the request through only when the authenticated account
// holds one of roles. It must run after Authenticate.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acc, ok := AccountFromContext(r.Context())
			if !ok {
				writeFail(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !slices.Contains(roles, acc.Role.Effective()) {
				logging.FromContext(r.Context()).Info("role refused", "account_id", acc.ID, "role", acc.Role, "path", r.URL.Path)
				writeFail(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
