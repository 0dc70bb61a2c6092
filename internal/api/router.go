package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gopivot/app"
	"gopivot/internal"
)

// Handler serves the pivot table HTTP API
type Handler struct {
	service *app.PivotService
	logger  *internal.Logger
}

// NewHandler creates a new API handler
func NewHandler(service *app.PivotService, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Handler{service: service, logger: logger}
}

// Router builds the chi route table
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/grid-range", h.convertRange)
		r.Route("/pivots", func(r chi.Router) {
			r.Post("/", h.createPivot)
			r.Get("/", h.listPivots)
			r.Post("/refresh", h.refreshPivots)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getPivot)
				r.Put("/", h.updatePivot)
				r.Delete("/", h.deletePivot)
			})
		})
	})
	return r
}
