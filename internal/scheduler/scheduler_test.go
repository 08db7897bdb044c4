package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shaiso/espresso/internal/domain"
	"github.com/shaiso/espresso/internal/input"
	"github.com/shaiso/espresso/internal/telemetry"
)

// fakePool выполняет попытку синхронно, в том же goroutine что и Submit —
// этого достаточно, чтобы проверить логику Scheduler без реальных
// таймаутов и горутин worker pool.
type fakePool struct {
	mu      sync.Mutex
	results map[string]error // job id -> результат следующей попытки
	calls   int
}

// Submit mimics the one contract Scheduler relies on from worker.Pool:
// next_run_time for cron/interval jobs is already recomputed by the time
// onComplete runs; one_off/on_demand are left untouched for Scheduler to
// decide.
func (p *fakePool) Submit(_ context.Context, state *domain.JobRuntimeState, onComplete func(error)) {
	p.mu.Lock()
	p.calls++
	err := p.results[state.Definition.ID]
	p.mu.Unlock()

	defer state.ClearRunning()

	if err == nil {
		state.ResetRetries()
	} else {
		state.IncRetries()
	}

	def := state.Definition
	if def.Schedule.IsCron() || def.Schedule.IsInterval() {
		next, nerr := domain.ComputeNextRun(def.Schedule, state.LastRunTime(), time.Now())
		if nerr == nil {
			state.SetNextRunTime(next)
		}
	}

	if onComplete != nil {
		onComplete(err)
	}
}

func newTestScheduler(t *testing.T, defs []*domain.JobDefinition, pool *fakePool) *Scheduler {
	t.Helper()
	for _, def := range defs {
		def.ApplyDefaults()
	}
	inputs, err := input.NewManager(nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error building input manager: %v", err)
	}
	s, err := New(Config{Jobs: defs, Pool: pool, Inputs: inputs, TickInterval: time.Hour})
	if err != nil {
		t.Fatalf("unexpected error building scheduler: %v", err)
	}
	return s
}

func TestScheduler_Tick_DispatchesDueIntervalJob(t *testing.T) {
	pool := &fakePool{results: map[string]error{"j1": nil}}
	s := newTestScheduler(t, []*domain.JobDefinition{
		{ID: "j1", Target: "t", Schedule: domain.Schedule{Kind: domain.ScheduleInterval, EverySeconds: 60}, Enabled: true},
	}, pool)

	s.Tick(context.Background())

	pool.mu.Lock()
	calls := pool.calls
	pool.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected 1 dispatch, got %d", calls)
	}

	snap, err := s.GetJob("j1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.NextRunTime == nil || !snap.NextRunTime.After(time.Now()) {
		t.Error("expected next_run_time to be rescheduled into the future")
	}
}

func TestScheduler_Tick_SkipsNotYetDueJob(t *testing.T) {
	pool := &fakePool{}
	s := newTestScheduler(t, []*domain.JobDefinition{
		{ID: "j1", Target: "t", Schedule: domain.Schedule{Kind: domain.ScheduleInterval, EverySeconds: 60}, Enabled: true},
	}, pool)

	future := time.Now().Add(time.Hour)
	s.mu.Lock()
	s.states["j1"].SetNextRunTime(&future)
	s.mu.Unlock()

	s.Tick(context.Background())

	if pool.calls != 0 {
		t.Errorf("expected no dispatch, got %d calls", pool.calls)
	}
}

func TestScheduler_Tick_SkipsPausedJob(t *testing.T) {
	pool := &fakePool{}
	s := newTestScheduler(t, []*domain.JobDefinition{
		{ID: "j1", Target: "t", Schedule: domain.Schedule{Kind: domain.ScheduleInterval, EverySeconds: 60}, Enabled: true},
	}, pool)

	if err := s.PauseJob("j1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Tick(context.Background())

	if pool.calls != 0 {
		t.Errorf("expected paused job not to be dispatched, got %d calls", pool.calls)
	}
}

func TestScheduler_FinishAttempt_RetryThenDisable(t *testing.T) {
	boom := errors.New("boom")
	pool := &fakePool{results: map[string]error{"j1": boom}}
	s := newTestScheduler(t, []*domain.JobDefinition{
		{ID: "j1", Target: "t", Schedule: domain.Schedule{Kind: domain.ScheduleOnDemand}, MaxRetries: 2, RetryDelaySeconds: 5, Enabled: true},
	}, pool)

	for i := 1; i <= 2; i++ {
		if err := s.TriggerJob(context.Background(), "j1"); err != nil {
			t.Fatalf("attempt %d: unexpected error: %v", i, err)
		}
		snap, _ := s.GetJob("j1")
		if snap.Status != domain.StatusActive {
			t.Fatalf("attempt %d: expected job to remain active, got %s", i, snap.Status)
		}
		if snap.RetriesAttempted != i {
			t.Fatalf("attempt %d: expected retries_attempted=%d, got %d", i, i, snap.RetriesAttempted)
		}
	}

	// Третья неудача исчерпывает max_retries=2 (retries_attempted становится 3).
	if err := s.TriggerJob(context.Background(), "j1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, _ := s.GetJob("j1")
	if snap.Status != domain.StatusDisabled {
		t.Fatalf("expected job disabled after exhausting retries, got %s", snap.Status)
	}
	if snap.RetriesAttempted != 3 {
		t.Fatalf("expected retries_attempted=3, got %d", snap.RetriesAttempted)
	}
	if snap.NextRunTime != nil {
		t.Error("expected next_run_time to be cleared once disabled")
	}
}

func TestScheduler_FinishAttempt_DisableBumpsMetric(t *testing.T) {
	boom := errors.New("boom")
	pool := &fakePool{results: map[string]error{"j1": boom}}
	defs := []*domain.JobDefinition{
		{ID: "j1", Target: "t", Schedule: domain.Schedule{Kind: domain.ScheduleOnDemand}, MaxRetries: 0, RetryDelaySeconds: 5, Enabled: true},
	}
	// No ApplyDefaults here: it would turn MaxRetries 0 into the default 3,
	// and the job would not be disabled after a single failure.

	inputs, err := input.NewManager(nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error building input manager: %v", err)
	}
	metrics := telemetry.NewMetrics()
	s, err := New(Config{Jobs: defs, Pool: pool, Inputs: inputs, TickInterval: time.Hour, Metrics: metrics})
	if err != nil {
		t.Fatalf("unexpected error building scheduler: %v", err)
	}

	if err := s.TriggerJob(context.Background(), "j1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, _ := s.GetJob("j1")
	if snap.Status != domain.StatusDisabled {
		t.Fatalf("expected job disabled, got %s", snap.Status)
	}

	if got := testutil.ToFloat64(metrics.JobsDisabled.WithLabelValues("j1")); got != 1 {
		t.Fatalf("expected espresso_jobs_disabled_total{job_id=j1}=1, got %v", got)
	}
}

func TestScheduler_FinishAttempt_OnDemandNeverSelfSchedules(t *testing.T) {
	pool := &fakePool{results: map[string]error{"j1": nil}}
	s := newTestScheduler(t, []*domain.JobDefinition{
		{ID: "j1", Target: "t", Schedule: domain.Schedule{Kind: domain.ScheduleOnDemand}, Enabled: true},
	}, pool)

	if err := s.TriggerJob(context.Background(), "j1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, _ := s.GetJob("j1")
	if snap.NextRunTime != nil {
		t.Error("on_demand job should never acquire a next_run_time on its own")
	}

	// Tick должен не диспетчеризовать его снова без явного триггера.
	s.Tick(context.Background())
	if pool.calls != 1 {
		t.Errorf("expected exactly 1 dispatch (the explicit trigger), got %d", pool.calls)
	}
}

func TestScheduler_TriggerJob_RejectsUnknownID(t *testing.T) {
	s := newTestScheduler(t, nil, &fakePool{})
	if err := s.TriggerJob(context.Background(), "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestScheduler_TriggerJob_RejectsPausedJob(t *testing.T) {
	s := newTestScheduler(t, []*domain.JobDefinition{
		{ID: "j1", Target: "t", Schedule: domain.Schedule{Kind: domain.ScheduleOnDemand}, Enabled: true},
	}, &fakePool{})

	if err := s.PauseJob("j1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.TriggerJob(context.Background(), "j1"); err == nil {
		t.Fatal("expected triggering a paused job to fail")
	}
}

func TestScheduler_EnableJob_ResetsRetries(t *testing.T) {
	s := newTestScheduler(t, []*domain.JobDefinition{
		{ID: "j1", Target: "t", Schedule: domain.Schedule{Kind: domain.ScheduleOnDemand}, Enabled: true},
	}, &fakePool{})

	s.mu.Lock()
	s.states["j1"].IncRetries()
	s.states["j1"].Disable()
	s.mu.Unlock()

	if err := s.EnableJob("j1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, _ := s.GetJob("j1")
	if snap.Status != domain.StatusActive {
		t.Errorf("expected active, got %s", snap.Status)
	}
	if snap.RetriesAttempted != 0 {
		t.Errorf("expected retries reset, got %d", snap.RetriesAttempted)
	}
}

func TestScheduler_ListJobs_PreservesConfigOrder(t *testing.T) {
	s := newTestScheduler(t, []*domain.JobDefinition{
		{ID: "b", Target: "t", Schedule: domain.Schedule{Kind: domain.ScheduleOnDemand}, Enabled: true},
		{ID: "a", Target: "t", Schedule: domain.Schedule{Kind: domain.ScheduleOnDemand}, Enabled: true},
	}, &fakePool{})

	snaps := s.ListJobs()
	if len(snaps) != 2 || snaps[0].ID != "b" || snaps[1].ID != "a" {
		t.Fatalf("expected config order [b, a], got %v", snaps)
	}
}

func TestScheduler_New_RejectsDuplicateJobIDs(t *testing.T) {
	_, err := New(Config{Jobs: []*domain.JobDefinition{
		{ID: "dup", Target: "t"},
		{ID: "dup", Target: "t"},
	}})
	if err == nil {
		t.Fatal("expected error for duplicate job ids")
	}
}

func TestScheduler_Tick_WaitsForInputTrigger(t *testing.T) {
	inputs, err := input.NewManager([]*domain.InputDefinition{
		{ID: "in1", Type: domain.InputList},
	}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def := &domain.JobDefinition{
		ID:       "j1",
		Target:   "t",
		Schedule: domain.Schedule{Kind: domain.ScheduleInterval, EverySeconds: 1},
		Trigger:  &domain.Trigger{Kind: domain.TriggerInput, InputID: "in1"},
		Enabled:  true,
	}
	def.ApplyDefaults()

	pool := &fakePool{results: map[string]error{"j1": nil}}
	s, err := New(Config{Jobs: []*domain.JobDefinition{def}, Pool: pool, Inputs: inputs, TickInterval: time.Hour})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Tick(context.Background())
	if pool.calls != 0 {
		t.Fatalf("expected no dispatch while input is empty, got %d calls", pool.calls)
	}

	if err := inputs.AppendToInput("in1", "item"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Tick(context.Background())
	if pool.calls != 1 {
		t.Errorf("expected dispatch once input has data, got %d calls", pool.calls)
	}
}
