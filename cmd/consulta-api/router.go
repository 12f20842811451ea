package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/consulta-ai/consulta/cmd/consulta-api/handlers"
	"github.com/consulta-ai/consulta/cmd/consulta-api/middleware"
	"github.com/consulta-ai/consulta/internal/dispatch"
	"github.com/consulta-ai/consulta/internal/observability"
)

// newRouter wires the HTTP surface of the query router.
func newRouter(dispatcher *dispatch.Dispatcher, logger *observability.Logger) http.Handler {
	h := handlers.NewQueryHandler(dispatcher, logger)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.CORS)
	r.Use(middleware.PropagateRequestID)
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health", h.Health)
	r.Get("/manifest", h.Manifest)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/answer", h.Answer)
		r.Post("/provision", h.Provision)
	})

	return r
}
