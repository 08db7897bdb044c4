package api

import (
	"time"

	"github.com/shaiso/espresso/internal/domain"
)

// JobResponse — JSON-представление снимка состояния job'а.
type JobResponse struct {
	ID                    string        `json:"id"`
	Status                domain.Status `json:"status"`
	IsRunning             bool          `json:"is_running"`
	LastRunTime           *time.Time    `json:"last_run_time,omitempty"`
	NextRunTime           *time.Time    `json:"next_run_time,omitempty"`
	RetriesAttempted      int           `json:"retries_attempted"`
	ExecutionCount        int64         `json:"execution_count"`
	LastExecutionDuration string        `json:"last_execution_duration,omitempty"`
	LastError             string        `json:"last_error,omitempty"`
}

// JobFromSnapshot переводит domain.Snapshot в JSON DTO.
func JobFromSnapshot(s domain.Snapshot) JobResponse {
	resp := JobResponse{
		ID:               s.ID,
		Status:           s.Status,
		IsRunning:        s.IsRunning,
		LastRunTime:      s.LastRunTime,
		NextRunTime:      s.NextRunTime,
		RetriesAttempted: s.RetriesAttempted,
		ExecutionCount:   s.ExecutionCount,
		LastError:        s.LastError,
	}
	if s.ExecutionCount > 0 {
		resp.LastExecutionDuration = s.LastExecutionDuration.String()
	}
	return resp
}

// TriggerResponse — ответ на POST /jobs/{id}/trigger.
type TriggerResponse struct {
	Triggered bool        `json:"triggered"`
	Job       JobResponse `json:"job"`
}

// HealthResponse — ответ на GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
