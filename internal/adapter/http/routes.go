package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/SwarmForge/internal/adapter/otel"
	"github.com/Strob0t/SwarmForge/internal/middleware"
)

// NewRouter builds the gateway's chi router with the standard middleware
// stack and all API routes mounted.
func NewRouter(g *Gateway, serviceName, corsOrigin string) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(otel.HTTPMiddleware(serviceName))
	r.Use(corsMiddleware(corsOrigin))

	r.Get("/healthz", g.Healthz)
	r.Get("/ws", g.HandleWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/requests", g.SubmitRequest)
		r.Get("/requests", g.ListRequests)
		r.Get("/requests/{id}", g.GetRequest)
		r.Get("/requests/{id}/archive", g.GetArchivedRequest)
		r.Get("/tasks", g.ListTasks)
		r.Get("/outputs", g.ListOutputs)
	})

	return r
}

// corsMiddleware allows the configured origin on every response.
func corsMiddleware(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
