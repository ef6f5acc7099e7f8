package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Known routes count as controller contact.
	r.Group(func(r chi.Router) {
		r.Use(s.activityMiddleware)

		r.Get("/api/{user}/lights", s.handleListLights)
		r.Get("/api/{user}/lights/{id}", s.handleGetLight)
		r.Put("/api/{user}/lights/{id}/state", s.handleSetLightState)

		r.Get(s.setupPath, s.handleSetup)
	})

	r.NotFound(s.handleMisc)
	r.MethodNotAllowed(s.handleMisc)

	return r
}
