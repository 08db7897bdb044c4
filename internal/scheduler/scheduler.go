package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/espresso/internal/domain"
	"github.com/shaiso/espresso/internal/input"
	"github.com/shaiso/espresso/internal/telemetry"
)

const defaultTickInterval = time.Second

// pool — то немногое, что Scheduler требует от worker.Pool. Интерфейс
// существует ради тестов: позволяет подставить фейковый pool, не
// запуская реальные горутины.
type pool interface {
	Submit(ctx context.Context, state *domain.JobRuntimeState, onComplete func(error))
}

// Config — конфигурация Scheduler.
type Config struct {
	Jobs   []*domain.JobDefinition
	Pool   pool
	Inputs *input.Manager

	TickInterval time.Duration // default: 1s
	Logger       *slog.Logger
	Metrics      *telemetry.Metrics
}

// Scheduler — тик-планировщик job'ов.
//
// Состояние каждого job'а (JobRuntimeState) владеет собственным мьютексом
// для высокочастотных полей (is_running, счётчики), а mu здесь — более
// грубый лок, покрывающий сам проход диспетчеризации и операции
// управления (Pause/Resume/Stop/Enable/Trigger), чтобы они не гонялись с
// Tick за чтением map states.
type Scheduler struct {
	mu     sync.Mutex
	states map[string]*domain.JobRuntimeState
	order  []string

	pool   pool
	inputs *input.Manager

	tickInterval time.Duration
	logger       *slog.Logger
	metrics      *telemetry.Metrics
}

// New создаёт Scheduler с начальным состоянием для каждого job'а.
// next_run_time инициализируется в now, так что cron/interval job'ы
// оцениваются на следующем же тике (и либо запускаются сразу, если due,
// либо пересчитываются при первом fail/success, как любые остальные).
func New(cfg Config) (*Scheduler, error) {
	now := time.Now()

	states := make(map[string]*domain.JobRuntimeState, len(cfg.Jobs))
	order := make([]string, 0, len(cfg.Jobs))
	for _, def := range cfg.Jobs {
		if _, exists := states[def.ID]; exists {
			return nil, fmt.Errorf("duplicate job id %q", def.ID)
		}
		states[def.ID] = domain.NewJobRuntimeState(def, now)
		order = append(order, def.ID)
	}

	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		states:       states,
		order:        order,
		pool:         cfg.Pool,
		inputs:       cfg.Inputs,
		tickInterval: tickInterval,
		logger:       logger,
		metrics:      cfg.Metrics,
	}, nil
}

// Run блокирует вызывающего и тикает до отмены ctx. Первый Tick
// выполняется немедленно, чтобы job'ы, чей next_run_time уже наступил (при
// старте это все job'ы, кроме on_demand), не ждали полного tickInterval.
func (s *Scheduler) Run(ctx context.Context) {
	s.Tick(ctx)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick выполняет один проход диспетчеризации: собирает due job'ы под
// локом, затем диспетчеризует их вне лока, чтобы сам проход не удерживал
// mu на время, пока worker pool решает, есть ли свободный токен.
func (s *Scheduler) Tick(ctx context.Context) {
	now := time.Now()

	s.mu.Lock()
	due := make([]*domain.JobRuntimeState, 0)
	for _, id := range s.order {
		state := s.states[id]
		if !state.CanExecute() {
			continue
		}

		nrt := state.NextRunTime()
		if nrt == nil || nrt.After(now) {
			continue
		}

		def := state.Definition
		if def.Trigger != nil && def.Trigger.Kind == domain.TriggerInput {
			if !s.inputs.HasData(ctx, def.Trigger.InputID) {
				// Пересобираем next_run_time на "секунду назад", чтобы job
				// снова был due на следующем тике без накопления дрейфа —
				// сам факт отсутствия данных не должен откладывать
				// следующую попытку поллинга.
				resched := now.Add(-time.Second)
				state.SetNextRunTime(&resched)
				continue
			}
		}

		due = append(due, state)
	}
	s.mu.Unlock()

	for _, state := range due {
		s.dispatch(ctx, state)
	}
}

// dispatch отмечает job как запущенный (синхронно, до Submit — см.
// worker.Pool.Submit) и передаёт попытку в пул.
func (s *Scheduler) dispatch(ctx context.Context, state *domain.JobRuntimeState) {
	state.MarkDispatched(time.Now())
	s.logger.Debug("dispatching job", "job_id", state.Definition.ID)
	s.pool.Submit(ctx, state, func(err error) {
		s.finishAttempt(state, err)
	})
}

// finishAttempt — completion callback, вызывается пулом строго после того,
// как worker уже пересчитал next_run_time для cron/interval. Здесь
// принимаются решения, которые worker не принимает: ретраить ли job,
// отключить ли его, и что делать с next_run_time для one_off/on_demand.
//
// retries_attempted уже инкрементирован воркером при неуспехе (ровно один
// раз за попытку) — finishAttempt только читает счётчик, никогда не
// увеличивает его повторно.
func (s *Scheduler) finishAttempt(state *domain.JobRuntimeState, err error) {
	def := state.Definition

	if err == nil {
		if def.Schedule.IsOneOff() || def.Schedule.IsOnDemand() {
			state.SetNextRunTime(nil)
		}
		return
	}

	retries := state.RetriesAttempted()
	if retries > def.MaxRetries {
		state.Disable()
		state.SetNextRunTime(nil)
		if s.metrics != nil {
			s.metrics.JobsDisabled.WithLabelValues(def.ID).Inc()
		}
		s.logger.Error("job disabled after exhausting retries",
			"job_id", def.ID, "retries_attempted", retries, "max_retries", def.MaxRetries)
		return
	}

	if def.Schedule.IsOnDemand() {
		// on_demand никогда не планирует себя сам — даже на ретрай;
		// повторный запуск требует нового TriggerJob.
		return
	}

	next := time.Now().Add(time.Duration(def.RetryDelaySeconds) * time.Second)
	state.SetNextRunTime(&next)
}

// --- Control operations ---

// GetJob возвращает снимок состояния job'а.
func (s *Scheduler) GetJob(id string) (domain.Snapshot, error) {
	s.mu.Lock()
	state, ok := s.states[id]
	s.mu.Unlock()
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return state.Snapshot(), nil
}

// ListJobs возвращает снимки всех job'ов в порядке конфигурации.
func (s *Scheduler) ListJobs() []domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshots := make([]domain.Snapshot, 0, len(s.order))
	for _, id := range s.order {
		snapshots = append(snapshots, s.states[id].Snapshot())
	}
	return snapshots
}

// PauseJob переводит job в paused — он перестаёт диспетчеризоваться, но
// сохраняет next_run_time и возобновляется с того же расписания через
// ResumeJob.
func (s *Scheduler) PauseJob(id string) error {
	state, err := s.lookup(id)
	if err != nil {
		return err
	}
	state.Pause()
	return nil
}

// ResumeJob возвращает job в active из paused.
func (s *Scheduler) ResumeJob(id string) error {
	state, err := s.lookup(id)
	if err != nil {
		return err
	}
	state.Resume()
	return nil
}

// StopJob останавливает job; требуется EnableJob для возобновления.
func (s *Scheduler) StopJob(id string) error {
	state, err := s.lookup(id)
	if err != nil {
		return err
	}
	state.Stop()
	return nil
}

// EnableJob возвращает job в active из любого статуса и сбрасывает
// retries_attempted, так что ранее отключённый из-за исчерпания retries
// job получает полный бюджет попыток заново.
func (s *Scheduler) EnableJob(id string) error {
	state, err := s.lookup(id)
	if err != nil {
		return err
	}
	state.Enable()
	state.ResetRetries()
	return nil
}

// DisableJob отключает job вручную.
func (s *Scheduler) DisableJob(id string) error {
	state, err := s.lookup(id)
	if err != nil {
		return err
	}
	state.Disable()
	return nil
}

// TriggerJob немедленно диспетчеризует job вне зависимости от его
// next_run_time, при условии что он сейчас может быть запущен
// (CanExecute). Это единственный способ запустить on_demand job.
func (s *Scheduler) TriggerJob(ctx context.Context, id string) error {
	state, err := s.lookup(id)
	if err != nil {
		return err
	}
	if !state.CanExecute() {
		return fmt.Errorf("job %q is not in a runnable state (status=%s, running=%v)", id, state.Status(), state.IsRunning())
	}
	s.dispatch(ctx, state)
	return nil
}

// AppendToInput передаёт item напрямую в named input (list inputs only).
func (s *Scheduler) AppendToInput(id string, item domain.Item) error {
	return s.inputs.AppendToInput(id, item)
}

// AppendItemsToInput передаёт несколько items в named input.
func (s *Scheduler) AppendItemsToInput(id string, items []domain.Item) error {
	return s.inputs.AppendItemsToInput(id, items)
}

func (s *Scheduler) lookup(id string) (*domain.JobRuntimeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return state, nil
}
