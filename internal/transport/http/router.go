package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vision-api/internal/domain"
	"vision-api/internal/observability/logging"
	"vision-api/internal/observability/middleware"
	"vision-api/internal/service"
)

// Deps are the services the router dispatches to. Health reports whether the
// backing store is reachable; nil means always healthy.
type Deps struct {
	Auth        service.AuthService
	Accounts    service.AccountService
	Admin       service.AdminService
	Contact     service.ContactService
	Newsletters service.NewsletterService
	Health      func(ctx context.Context) error
	// PublicKeys is the JWK set served for token verification by other
	// services. Empty with a shared secret.
	PublicKeys []map[string]any
}

type Options struct {
	CORSOrigins []string
	// AuthRateLimit is requests per minute and client IP on /auth and
	// /contact. Zero disables the limit.
	AuthRateLimit  int
	RequestTimeout time.Duration
}

func NewRouter(d Deps, o Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.WithRequestAndTrace)
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   originsIfSet(o.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id", "X-Trace-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Trace-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if o.RequestTimeout > 0 {
		r.Use(chimw.Timeout(o.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", health(d.Health))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/.well-known/jwks.json", jwks(d.PublicKeys))

	limit := rateLimit(o.AuthRateLimit)

	auth := authHandlers{auth: d.Auth}
	r.Route("/auth", func(r chi.Router) {
		r.Use(limit)
		r.Post("/register", auth.register)
		r.Post("/login", auth.login)
		r.Post("/forgot-password", auth.forgotPassword)
		r.Post("/reset-password/{token}", auth.resetPassword)
	})

	users := userHandlers{accounts: d.Accounts}
	r.Route("/users", func(r chi.Router) {
		r.Use(Authenticate(d.Auth))
		r.Get("/profile", users.profile)
		r.Put("/profile", users.updateProfile)
		r.Put("/username", users.changeUsername)
		r.Put("/email", users.changeEmail)
		r.Put("/password", users.changePassword)
		r.Put("/newsletter", users.setNewsletter)
		r.Delete("/", users.deleteAccount)
	})

	admin := adminHandlers{admin: d.Admin, newsletters: d.Newsletters}
	r.Route("/admin", func(r chi.Router) {
		r.Use(Authenticate(d.Auth))
		r.Use(RequireRole(domain.RoleAdmin))

		r.Get("/users", admin.listUsers)
		r.Get("/users/{id}", admin.getUser)
		r.Put("/users/{id}/role", admin.setRole)
		r.Delete("/users/{id}", admin.deleteUser)

		r.Get("/messages", admin.listMessages)
		r.Put("/messages/{id}/status", admin.setMessageStatus)
		r.Delete("/messages/{id}", admin.deleteMessage)

		r.Post("/newsletter", admin.sendNewsletter)
		r.Get("/newsletter/history", admin.newsletterHistory)
	})

	contact := contactHandlers{contact: d.Contact}
	r.With(limit).Post("/contact", contact.submit)

	return r
}

func health(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				logging.FromContext(r.Context()).Error("health check", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func jwks(keys []map[string]any) http.HandlerFunc {
	if keys == nil {
		keys = []map[string]any{}
	}
	body := map[string]any{"keys": keys}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		writeJSON(w, http.StatusOK, body)
	}
}

func rateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeFail(w, http.StatusTooManyRequests, "too many requests, try again later")
		}),
	)
}

func originsIfSet(in []string) []string {
	out := []string{}
	for _, o := range in {
		if o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
