package api

import (
	"log/slog"

	"github.com/shaiso/espresso/internal/scheduler"
	"github.com/shaiso/espresso/internal/telemetry"
)

// Handler — HTTP обработчик control API, тонкая обёртка над
// scheduler.Scheduler.
type Handler struct {
	scheduler *scheduler.Scheduler
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// Config — зависимости Handler.
type Config struct {
	Scheduler *scheduler.Scheduler
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
}

// NewHandler создаёт Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		scheduler: cfg.Scheduler,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}
