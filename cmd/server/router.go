package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Garrettc123/ueep-ha-system/internal/handler"
	"github.com/Garrettc123/ueep-ha-system/internal/metrics"
	"github.com/Garrettc123/ueep-ha-system/internal/middleware"
)

// setupRouter mounts every endpoint. The middleware chain runs inside the
// chi mux so the metrics middleware sees resolved route patterns.
func setupRouter(h *handler.Handler, m *metrics.Metrics, mwConfig *middleware.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Chain(mwConfig))
	r.Use(h.CountRequests)

	r.Get("/", h.Index)
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api/data", func(r chi.Router) {
		r.Get("/{key}", h.GetData)
		r.Put("/{key}", h.PutData)
	})

	return r
}
