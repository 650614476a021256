package admin

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// NewRouter builds the admin router used in scheduled mode. The health
// endpoint is unauthenticated; status and the manual trigger require bearer
// auth. Rate limiting is applied globally: 30 requests per minute per IP.
func NewRouter(handlers *Handlers, token string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httprate.LimitByIP(30, time.Minute))

	r.Get("/healthz", handlers.Health)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(token))
		r.Get("/status", handlers.Status)
		r.Post("/run", handlers.TriggerRun)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
