package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/suar-net/form-relay/internal/logging"
	"github.com/suar-net/form-relay/internal/metrics"
	"github.com/suar-net/form-relay/internal/service"
)

// RouterDeps collects what SetupRouter injects into the handlers. Attempts,
// Auth and DB are optional; leaving them nil disables the matching routes.
type RouterDeps struct {
	Relay           FormRelay
	RelayConfigured bool
	Attempts        service.IAttemptService
	Auth            service.IAuthService
	DB              Pinger
	AllowedOrigins  []string
	Metrics         *metrics.Metrics
	Logger          zerolog.Logger
}

var relayPaths = []string{"/submit-form", "/api/submit-form"}

// SetupRouter creates the main Chi router for the application.
func SetupRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// --- Standard Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(deps.Logger))
	// Recoverer: Recovers from panics and returns a 500 error instead of crashing.
	r.Use(middleware.Recoverer)

	// --- Form relay ---
	// The handler answers every method itself so unsupported ones get the
	// JSON 405 body instead of chi's plain text one.
	var recorder AttemptRecorder
	if deps.Attempts != nil {
		recorder = deps.Attempts
	}
	relayHandler := FormCORS(NewRelayHandler(deps.Relay, recorder, deps.Metrics, deps.Logger))
	for _, path := range relayPaths {
		r.Handle(path, relayHandler)
	}

	// chi rejects methods it does not know (PROPFIND, ...) before any route
	// handler runs, so the relay paths are routed back to the relay handler.
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		for _, path := range relayPaths {
			if req.URL.Path == path {
				relayHandler.ServeHTTP(w, req)
				return
			}
		}
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// --- Operations ---
	healthHandler := NewHealthHandler(deps.DB, deps.RelayConfigured, deps.Logger)
	r.Get("/healthz", healthHandler.Check)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// --- Admin API ---
	if deps.Auth != nil && deps.Attempts != nil {
		authHandler := NewAuthHandler(deps.Auth, deps.Logger)
		attemptHandler := NewAttemptHandler(deps.Attempts, deps.Logger)
		authMiddleware := NewAuthMiddleware(deps.Auth)

		r.Route("/api/v1", func(r chi.Router) {
			if adminCORS := AdminCORS(deps.AllowedOrigins); adminCORS != nil {
				r.Use(adminCORS)
			}
			r.Post("/auth/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Get("/attempts", attemptHandler.List)
			})
		})
	}

	return r
}
