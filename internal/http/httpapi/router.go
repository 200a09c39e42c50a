// Package httpapi assembles the chi router for the public API surface.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"vidgen/internal/http/handlers"
	"vidgen/internal/middleware"
)

// Options carries the cross-cutting settings the router wires into its
// middleware chain.
type Options struct {
	JWTSecret       string
	AllowedOrigins  []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	// Unauthenticated surface. The webhook carries no caller identity; its
	// payload is matched to records by provider id only.
	r.Get("/v1/healthz", app.Health)
	r.Post("/webhooks/wavespeed", app.WavespeedWebhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))

		r.Route("/v1/generations", func(r chi.Router) {
			create := r.With()
			if opts.RateLimitPerMin > 0 {
				create = r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
			}
			create.Post("/", app.GenerationsCreate)
			r.Get("/", app.GenerationsList)
			r.Get("/{id}", app.GenerationsGet)
		})

		r.Route("/v1/credits", func(r chi.Router) {
			r.Get("/", app.CreditsGet)
			r.Post("/test", app.CreditsGrantTest)
		})
	})

	return r
}
