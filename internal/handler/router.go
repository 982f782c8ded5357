package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig carries the collaborators NewRouter mounts.
type RouterConfig struct {
	Events      *EventHandler
	Health      Pinger
	Metrics     http.Handler
	RateLimiter *RateLimiter
	Logger      *slog.Logger
}

// NewRouter builds the chi router with the global middleware stack.
// Mutating routes go through the rate limiter when one is configured.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID)
	r.Use(PeerAddr)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(logger))
	r.Use(CORS)

	r.Get("/", Index)
	r.Get("/health", HealthCheck(cfg.Health))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	limited := func(r chi.Router) chi.Router {
		if cfg.RateLimiter == nil {
			return r
		}
		return r.With(cfg.RateLimiter.Limit)
	}

	h := cfg.Events
	r.Route("/events", func(r chi.Router) {
		limited(r).Post("/", h.CreateEvent)
		r.Get("/upcoming", h.ListUpcoming)
		r.Get("/{id}", h.GetEvent)
		r.Get("/{id}/stats", h.GetStats)
		limited(r).Post("/{id}/register", h.Register)
		limited(r).Delete("/{id}/register", h.Cancel)
	})
	r.Route("/users", func(r chi.Router) {
		limited(r).Post("/", h.CreateUser)
	})

	return r
}
