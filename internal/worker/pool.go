package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/espresso/internal/domain"
	"github.com/shaiso/espresso/internal/input"
	"github.com/shaiso/espresso/internal/registry"
	"github.com/shaiso/espresso/internal/telemetry"
)

const defaultNumWorkers = 5

// Config — конфигурация Pool.
type Config struct {
	NumWorkers int // default: 5

	Registry *registry.Registry
	Inputs   *input.Manager
	Metrics  *telemetry.Metrics
	Logger   *slog.Logger
}

// Pool — пул воркеров с ограниченной параллельностью выполняющихся попыток.
//
// Параллельность ограничена буферизованным каналом-семафором tokens, а не
// блокирующей очередью: Submit всегда возвращается немедленно (диспетчер
// scheduler'а никогда не блокируется на нём), захват токена происходит
// внутри уже запущенной горутины попытки.
type Pool struct {
	tokens chan struct{}

	registry *registry.Registry
	inputs   *input.Manager
	metrics  *telemetry.Metrics
	logger   *slog.Logger
}

// New создаёт Pool с фиксированным числом токенов-слотов.
func New(cfg Config) *Pool {
	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = defaultNumWorkers
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tokens := make(chan struct{}, numWorkers)
	for i := 0; i < numWorkers; i++ {
		tokens <- struct{}{}
	}

	return &Pool{
		tokens:   tokens,
		registry: cfg.Registry,
		inputs:   cfg.Inputs,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
}

// Submit запускает одну попытку выполнения job в фоновой горутине и
// вызывает onComplete с её результатом, после того как состояние job уже
// обновлено (is_running снят, next_run_time для cron/interval
// пересчитан). onComplete вызывается в той же горутине, строго
// последовательно — scheduler может полагаться на этот порядок при
// принятии решений о ретраях.
//
// Вызывающий отвечает за то, чтобы state.MarkDispatched был вызван ДО
// Submit: is_running должен стать true синхронно в момент диспетчеризации,
// а не после того как горутина попытки дождётся свободного токена —
// иначе при насыщенном пуле один и тот же job был бы отправлен повторно
// на следующем тике.
func (p *Pool) Submit(ctx context.Context, state *domain.JobRuntimeState, onComplete func(error)) {
	go func() {
		<-p.tokens
		defer func() { p.tokens <- struct{}{} }()

		err := p.runAttempt(ctx, state)
		if onComplete != nil {
			onComplete(err)
		}
	}()
}

// runAttempt исполняет одну попытку: резолвит target, при необходимости
// забирает batch из input, вызывает target под timeout_seconds, обновляет
// runtime state и метрики. Возвращает ошибку попытки (nil при успехе).
func (p *Pool) runAttempt(ctx context.Context, state *domain.JobRuntimeState) error {
	def := state.Definition
	started := time.Now()
	defer state.ClearRunning()

	attemptID := uuid.New().String()
	logger := telemetry.WithAttemptID(telemetry.WithJobID(p.logger, def.ID), attemptID)

	if p.metrics != nil {
		p.metrics.JobsDispatched.WithLabelValues(def.ID).Inc()
		p.metrics.JobsRunning.Inc()
		defer p.metrics.JobsRunning.Dec()
	}

	fn, err := p.registry.Resolve(def.Target)
	if err != nil {
		return p.finish(state, logger, started, "", nil, err)
	}

	var (
		batch   []domain.Item
		inputID string
	)
	if def.Trigger != nil && def.Trigger.Kind == domain.TriggerInput {
		inputID = def.Trigger.InputID
		if inputID == "" {
			err := fmt.Errorf("job %q: trigger input_id is empty", def.ID)
			return p.finish(state, logger, started, "", nil, err)
		}
		polled := p.inputs.Poll(ctx, def.BatchSize)
		batch = polled[inputID]
	}

	execCtx, cancel := context.WithTimeout(ctx, time.Duration(def.TimeoutSeconds)*time.Second)
	defer cancel()

	execErr := p.invoke(execCtx, fn, batch, def.Parameters())
	return p.finish(state, logger, started, inputID, batch, execErr)
}

// invoke запускает target в отдельной горутине и ждёт либо его завершения,
// либо истечения execCtx. При истечении контекста возвращает
// ErrExecutionTimeout немедленно, не дожидаясь (возможно всё ещё
// работающего) target — у Go нет превентивной отмены, поэтому
// неотзывчивый target может пережить свой таймаут, но никогда не
// удерживает токен пула дольше этого момента.
func (p *Pool) invoke(ctx context.Context, fn registry.TargetFunc, batch []domain.Item, params map[string]any) error {
	resultCh := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- fmt.Errorf("%w: %v\n%s", ErrTargetPanicked, r, debug.Stack())
			}
		}()
		resultCh <- fn(ctx, batch, params)
	}()

	select {
	case err := <-resultCh:
		return err
	case <-ctx.Done():
		return ErrExecutionTimeout
	}
}

// finish применяет результат попытки к runtime state: ack/nack входного
// batch, сброс retries_attempted при успехе или его единственный за
// попытку инкремент при неудаче, метрики длительности и исхода, и — только
// для cron/interval — пересчёт next_run_time. Для one_off/on_demand
// next_run_time оставляется как есть: решение о том, что с ним делать
// дальше, принимает scheduler в своём completion callback-е, читая уже
// инкрементированный здесь счётчик — и никогда не увеличивая его снова.
func (p *Pool) finish(state *domain.JobRuntimeState, logger *slog.Logger, started time.Time, inputID string, batch []domain.Item, execErr error) error {
	duration := time.Since(started)

	def := state.Definition
	ackCtx := context.Background()

	if execErr == nil {
		if inputID != "" {
			p.inputs.AckBatch(ackCtx, inputID, batch)
		}
		state.RecordExecution(duration)
		state.ResetRetries()
		state.SetLastError("")
		if p.metrics != nil {
			p.metrics.JobsSucceeded.WithLabelValues(def.ID).Inc()
		}
		logger.Info("job attempt succeeded", "duration_ms", duration.Milliseconds())
	} else {
		if inputID != "" {
			p.inputs.NackBatch(ackCtx, inputID, batch, true)
		}
		state.SetLastError(execErr.Error())
		retries := state.IncRetries()
		if p.metrics != nil {
			p.metrics.JobsFailed.WithLabelValues(def.ID).Inc()
		}
		logger.Error("job attempt failed", "error", execErr, "retries_attempted", retries, "duration_ms", duration.Milliseconds())
	}

	if p.metrics != nil {
		p.metrics.ExecutionSeconds.WithLabelValues(def.ID).Observe(duration.Seconds())
	}

	if def.Schedule.IsCron() || def.Schedule.IsInterval() {
		next, err := domain.ComputeNextRun(def.Schedule, state.LastRunTime(), time.Now())
		if err != nil {
			logger.Error("failed to compute next run time, job will not be rescheduled", "error", err)
		} else {
			state.SetNextRunTime(next)
		}
	}

	return execErr
}
