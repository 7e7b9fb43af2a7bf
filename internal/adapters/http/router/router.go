// Package router monta as rotas HTTP do serviço.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/JeanGrijp/contact-limiter/internal/adapters/http/handlers"
	httpMiddleware "github.com/JeanGrijp/contact-limiter/internal/adapters/http/middleware"
	"github.com/JeanGrijp/contact-limiter/internal/adapters/metrics"
	"github.com/JeanGrijp/contact-limiter/internal/core/ports"
)

type Deps struct {
	Limiter         ports.RateLimiter
	Sender          ports.ContactSender
	Metrics         *metrics.Collector
	Logger          zerolog.Logger
	CORSAllowOrigin string
}

func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(httpMiddleware.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/healthz", handlers.HealthHandler)

	contact := handlers.NewContactHandler(deps.Sender, deps.Logger, deps.Metrics)
	r.Route("/api/contact", func(r chi.Router) {
		// Preflights são respondidos aqui e nunca chegam ao limiter.
		r.Use(httpMiddleware.CORS(deps.CORSAllowOrigin))
		r.With(httpMiddleware.NewRateLimiterMiddleware(deps.Limiter, deps.Logger, deps.Metrics)).
			Post("/", contact.ServeHTTP)
	})

	return r
}
