package api

import (
	"errors"
	"net/http"

	"github.com/shaiso/espresso/internal/scheduler"
)

// Health отвечает на GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	Success(w, HealthResponse{Status: "ok"})
}

// ListJobs отвечает на GET /jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	snapshots := h.scheduler.ListJobs()
	jobs := make([]JobResponse, len(snapshots))
	for i, s := range snapshots {
		jobs[i] = JobFromSnapshot(s)
	}
	Success(w, jobs)
}

// GetJob отвечает на GET /jobs/{id}.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snapshot, err := h.scheduler.GetJob(id)
	if err != nil {
		h.notFoundOrError(w, err, id)
		return
	}
	Success(w, JobFromSnapshot(snapshot))
}

// PauseJob отвечает на POST /jobs/{id}/pause.
func (h *Handler) PauseJob(w http.ResponseWriter, r *http.Request) {
	h.controlOp(w, r, h.scheduler.PauseJob)
}

// ResumeJob отвечает на POST /jobs/{id}/resume.
func (h *Handler) ResumeJob(w http.ResponseWriter, r *http.Request) {
	h.controlOp(w, r, h.scheduler.ResumeJob)
}

// StopJob отвечает на POST /jobs/{id}/stop.
func (h *Handler) StopJob(w http.ResponseWriter, r *http.Request) {
	h.controlOp(w, r, h.scheduler.StopJob)
}

// EnableJob отвечает на POST /jobs/{id}/enable.
func (h *Handler) EnableJob(w http.ResponseWriter, r *http.Request) {
	h.controlOp(w, r, h.scheduler.EnableJob)
}

// DisableJob отвечает на POST /jobs/{id}/disable.
func (h *Handler) DisableJob(w http.ResponseWriter, r *http.Request) {
	h.controlOp(w, r, h.scheduler.DisableJob)
}

// controlOp выполняет op над id из пути и отвечает снимком обновлённого
// job'а, либо 404, если id не существует.
func (h *Handler) controlOp(w http.ResponseWriter, r *http.Request, op func(id string) error) {
	id := r.PathValue("id")
	if err := op(id); err != nil {
		h.notFoundOrError(w, err, id)
		return
	}

	snapshot, err := h.scheduler.GetJob(id)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}
	Success(w, JobFromSnapshot(snapshot))
}

// TriggerJob отвечает на POST /jobs/{id}/trigger. Неизвестный id даёт 404;
// job, который сейчас не может быть запущен (paused/stopped/disabled/уже
// выполняется), даёт 200 с triggered=false, а не ошибку — триггер не
// команда, а попытка, и отказ от неё не является сбоем запроса.
func (h *Handler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := h.scheduler.TriggerJob(r.Context(), id)
	if err != nil && errors.Is(err, scheduler.ErrJobNotFound) {
		NotFound(w, "job not found: "+id)
		return
	}

	snapshot, getErr := h.scheduler.GetJob(id)
	if getErr != nil {
		InternalError(w, h.logger, getErr)
		return
	}

	Success(w, TriggerResponse{
		Triggered: err == nil,
		Job:       JobFromSnapshot(snapshot),
	})
}

func (h *Handler) notFoundOrError(w http.ResponseWriter, err error, id string) {
	if errors.Is(err, scheduler.ErrJobNotFound) {
		NotFound(w, "job not found: "+id)
		return
	}
	InternalError(w, h.logger, err)
}
