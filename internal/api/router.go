package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-haptics/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		if s.auth != nil {
			r.Post("/auth/token", s.handleToken)
		}

		r.Route("/haptics", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermHapticsRead))
				r.Get("/status", s.handleStatus)
				r.Get("/patterns", s.handlePatterns)
				r.Get("/history", s.handleHistory)
			})
			r.Group(func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermHapticsOperate))
				r.Post("/actuate", s.handleActuate)
			})
		})
	})

	return r
}
