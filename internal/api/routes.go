package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты control API на mux, а также
// /metrics, если Handler сконфигурирован с telemetry.Metrics.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	mux.Handle("GET /health", chain(http.HandlerFunc(h.Health)))

	mux.Handle("GET /jobs", chain(http.HandlerFunc(h.ListJobs)))
	mux.Handle("GET /jobs/{id}", chain(http.HandlerFunc(h.GetJob)))
	mux.Handle("POST /jobs/{id}/pause", chain(http.HandlerFunc(h.PauseJob)))
	mux.Handle("POST /jobs/{id}/resume", chain(http.HandlerFunc(h.ResumeJob)))
	mux.Handle("POST /jobs/{id}/trigger", chain(http.HandlerFunc(h.TriggerJob)))
	mux.Handle("POST /jobs/{id}/stop", chain(http.HandlerFunc(h.StopJob)))
	mux.Handle("POST /jobs/{id}/enable", chain(http.HandlerFunc(h.EnableJob)))
	mux.Handle("POST /jobs/{id}/disable", chain(http.HandlerFunc(h.DisableJob)))

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
}
