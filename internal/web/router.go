package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/znz-systems/leadform/internal/web/handlers"
	"github.com/znz-systems/leadform/internal/web/middleware"
)

// RouterDeps holds all dependencies needed to build the router.
type RouterDeps struct {
	APIHandler    *handlers.APIHandler
	HealthHandler *handlers.HealthHandler
	Metrics       http.Handler
	Origins       []string
}

// NewRouter wires all routes into a Chi router. The cross-origin policy is
// the outermost middleware so every response carries it, errors included.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(deps.Origins))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	// Public form API
	r.Route("/api", func(r chi.Router) {
		r.Options("/contact", deps.APIHandler.HandlePreflight)
		r.Post("/contact", deps.APIHandler.HandleContact)

		r.Options("/oa-inquiry", deps.APIHandler.HandlePreflight)
		r.Post("/oa-inquiry", deps.APIHandler.HandleInquiry)
	})

	return r
}
