package domain

import (
	"sync"
	"time"
)

// JobRuntimeState — изменяемое состояние одного job. Владеет собственным
// мьютексом (стратегия "per-job lock" из design notes), так что worker
// может безопасно писать метрики и is_running, пока scheduler читает
// состояние под своим, более грубым, локом, покрывающим весь проход
// диспетчеризации.
type JobRuntimeState struct {
	Definition *JobDefinition

	mu                     sync.Mutex
	status                 Status
	isRunning              bool
	lastRunTime            *time.Time
	nextRunTime            *time.Time
	retriesAttempted       int
	executionCount         int64
	totalExecutionTime     time.Duration
	lastExecutionDuration  time.Duration
	lastError              string
}

// NewJobRuntimeState создаёт состояние job со статусом, зависящим от
// Definition.Enabled. next_run_time = now для всех видов расписания, кроме
// on_demand — on_demand job никогда не планирует себя сам и запускается
// только через TriggerJob, поэтому его next_run_time остаётся nil с
// рождения.
func NewJobRuntimeState(def *JobDefinition, now time.Time) *JobRuntimeState {
	status := StatusDisabled
	if def.Enabled {
		status = StatusActive
	}

	state := &JobRuntimeState{
		Definition: def,
		status:     status,
	}
	if !def.Schedule.IsOnDemand() {
		nrt := now
		state.nextRunTime = &nrt
	}
	return state
}

// Snapshot — неизменяемая копия состояния job в момент вызова, для
// безопасного возврата из API/CLI без удержания лока наружу.
type Snapshot struct {
	ID                    string
	Status                Status
	IsRunning             bool
	LastRunTime           *time.Time
	NextRunTime           *time.Time
	RetriesAttempted      int
	ExecutionCount        int64
	TotalExecutionTime    time.Duration
	LastExecutionDuration time.Duration
	LastError             string
}

// Snapshot возвращает копию текущего состояния.
func (s *JobRuntimeState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:                    s.Definition.ID,
		Status:                s.status,
		IsRunning:             s.isRunning,
		LastRunTime:           s.lastRunTime,
		NextRunTime:           s.nextRunTime,
		RetriesAttempted:      s.retriesAttempted,
		ExecutionCount:        s.executionCount,
		TotalExecutionTime:    s.totalExecutionTime,
		LastExecutionDuration: s.lastExecutionDuration,
		LastError:             s.lastError,
	}
}

// CanExecute ≡ status=active ∧ ¬is_running — предварительное условие диспетчеризации.
func (s *JobRuntimeState) CanExecute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusActive && !s.isRunning
}

// Status возвращает текущий статус.
func (s *JobRuntimeState) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Pause переводит job в paused.
func (s *JobRuntimeState) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusPaused
}

// Resume возвращает job в active.
func (s *JobRuntimeState) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusActive
}

// Stop останавливает job; требуется Enable() для возобновления.
func (s *JobRuntimeState) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusStopped
}

// Enable возвращает job в active из любого статуса.
func (s *JobRuntimeState) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusActive
}

// Disable отключает job. Используется как явным управлением, так и
// scheduler'ом при исчерпании retries.
func (s *JobRuntimeState) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusDisabled
}

// NextRunTime возвращает запланированное время следующего запуска, либо nil.
func (s *JobRuntimeState) NextRunTime() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunTime
}

// SetNextRunTime устанавливает следующее время запуска (nil — job quiescent).
func (s *JobRuntimeState) SetNextRunTime(t *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRunTime = t
}

// LastRunTime возвращает время последнего запуска.
func (s *JobRuntimeState) LastRunTime() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunTime
}

// MarkDispatched помечает job как запущенный: is_running=true, last_run_time=now.
func (s *JobRuntimeState) MarkDispatched(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isRunning = true
	s.lastRunTime = &now
}

// ClearRunning сбрасывает is_running — вызывается в defer воркера после
// завершения attempt, вне зависимости от результата.
func (s *JobRuntimeState) ClearRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isRunning = false
}

// IsRunning возвращает текущее значение is_running.
func (s *JobRuntimeState) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RetriesAttempted возвращает текущее количество попыток retry.
func (s *JobRuntimeState) RetriesAttempted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retriesAttempted
}

// IncRetries увеличивает retries_attempted на 1 и возвращает новое значение.
func (s *JobRuntimeState) IncRetries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retriesAttempted++
	return s.retriesAttempted
}

// ResetRetries обнуляет retries_attempted (после успешного выполнения).
func (s *JobRuntimeState) ResetRetries() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retriesAttempted = 0
}

// LastError возвращает текст последней ошибки, либо "".
func (s *JobRuntimeState) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// SetLastError записывает текст ошибки ("" — очищает).
func (s *JobRuntimeState) SetLastError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

// RecordExecution обновляет метрики выполнения (execution_count, суммарную и
// последнюю длительность). Worker pool вызывает её только после успешной
// попытки.
func (s *JobRuntimeState) RecordExecution(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executionCount++
	s.totalExecutionTime += d
	s.lastExecutionDuration = d
}
