package handler

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/suar-net/suar-reactive/internal/platform/ratelimiter"
	"github.com/suar-net/suar-reactive/internal/repository"
	"github.com/suar-net/suar-reactive/internal/service"
)

// Dependencies are the collaborators injected into the handlers. DB and
// History are nil when request history is disabled.
type Dependencies struct {
	Transport service.Transport
	Recorders []service.Recorder
	History   repository.IRequestRepository
	DB        *sql.DB
	Limiter   *ratelimiter.MapLimiter
	Metrics   http.Handler
	Logger    *log.Logger
}

// SetupRouter creates the main Chi router for the application.
func SetupRouter(d Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Logger: Logs request details (method, path, latency, status).
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	// Recoverer: Recovers from panics and returns a 500 error instead of crashing.
	r.Use(middleware.Recoverer)

	// IMPORTANT: For production, lock AllowedOrigins down to the frontend's domain.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browser
	}))

	healthHandler := NewHealthHandler(d.DB, d.Logger)
	requestHandler := NewRequestHandler(d.Transport, d.Recorders, d.Logger)
	validateHandler := NewValidateHandler()
	historyHandler := NewHistoryHandler(d.History, d.Logger)

	r.Get("/health", healthHandler.Check)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(RateLimit(d.Limiter)).Post("/request", requestHandler.ServeHTTP)
		r.Post("/validate", validateHandler.ServeHTTP)
		r.Get("/history", historyHandler.List)
	})

	return r
}
