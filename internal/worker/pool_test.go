package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/espresso/internal/domain"
	"github.com/shaiso/espresso/internal/registry"
)

func newTestState(t *testing.T, def *domain.JobDefinition) *domain.JobRuntimeState {
	t.Helper()
	def.ApplyDefaults()
	state := domain.NewJobRuntimeState(def, time.Now())
	state.MarkDispatched(time.Now())
	return state
}

func submitAndWait(t *testing.T, p *Pool, state *domain.JobRuntimeState) error {
	t.Helper()
	done := make(chan error, 1)
	p.Submit(context.Background(), state, func(err error) { done <- err })
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for attempt to complete")
		return nil
	}
}

func TestPool_Submit_Success(t *testing.T) {
	reg := registry.New()
	reg.Register("jobs.ok", func(ctx context.Context, batch []domain.Item, params map[string]any) error {
		return nil
	})
	pool := New(Config{NumWorkers: 1, Registry: reg})

	def := &domain.JobDefinition{ID: "j1", Target: "jobs.ok"}
	state := newTestState(t, def)

	if err := submitAndWait(t, pool, state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.IsRunning() {
		t.Error("expected is_running to be cleared after completion")
	}
	if state.RetriesAttempted() != 0 {
		t.Errorf("expected retries reset to 0, got %d", state.RetriesAttempted())
	}
}

func TestPool_Submit_TargetError_IncrementsRetriesOnce(t *testing.T) {
	reg := registry.New()
	boom := errors.New("boom")
	reg.Register("jobs.fail", func(ctx context.Context, batch []domain.Item, params map[string]any) error {
		return boom
	})
	pool := New(Config{NumWorkers: 1, Registry: reg})

	def := &domain.JobDefinition{ID: "j1", Target: "jobs.fail"}
	state := newTestState(t, def)

	err := submitAndWait(t, pool, state)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got %v", err)
	}
	if got := state.RetriesAttempted(); got != 1 {
		t.Errorf("expected exactly 1 retry recorded, got %d", got)
	}
	if state.LastError() != boom.Error() {
		t.Errorf("expected last error to be recorded, got %q", state.LastError())
	}
}

func TestPool_Submit_UnknownTarget(t *testing.T) {
	pool := New(Config{NumWorkers: 1, Registry: registry.New()})

	def := &domain.JobDefinition{ID: "j1", Target: "jobs.missing"}
	state := newTestState(t, def)

	err := submitAndWait(t, pool, state)
	if !errors.Is(err, registry.ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound, got %v", err)
	}
}

func TestPool_Submit_TimeoutEnforced(t *testing.T) {
	reg := registry.New()
	reg.Register("jobs.slow", func(ctx context.Context, batch []domain.Item, params map[string]any) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	pool := New(Config{NumWorkers: 1, Registry: reg})

	def := &domain.JobDefinition{ID: "j1", Target: "jobs.slow", TimeoutSeconds: 1}
	state := newTestState(t, def)

	start := time.Now()
	err := submitAndWait(t, pool, state)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrExecutionTimeout) {
		t.Fatalf("expected ErrExecutionTimeout, got %v", err)
	}
	if elapsed > 1500*time.Millisecond {
		t.Errorf("expected the pool to give up near the timeout, took %v", elapsed)
	}
}

func TestPool_Submit_PanicIsRecovered(t *testing.T) {
	reg := registry.New()
	reg.Register("jobs.panics", func(ctx context.Context, batch []domain.Item, params map[string]any) error {
		panic("kaboom")
	})
	pool := New(Config{NumWorkers: 1, Registry: reg})

	def := &domain.JobDefinition{ID: "j1", Target: "jobs.panics"}
	state := newTestState(t, def)

	err := submitAndWait(t, pool, state)
	if !errors.Is(err, ErrTargetPanicked) {
		t.Fatalf("expected ErrTargetPanicked, got %v", err)
	}
}

func TestPool_Submit_BoundsConcurrency(t *testing.T) {
	reg := registry.New()
	var mu sync.Mutex
	current, maxSeen := 0, 0
	reg.Register("jobs.track", func(ctx context.Context, batch []domain.Item, params map[string]any) error {
		mu.Lock()
		current++
		if current > maxSeen {
			maxSeen = current
		}
		mu.Unlock()

		time.Sleep(50 * time.Millisecond)

		mu.Lock()
		current--
		mu.Unlock()
		return nil
	})
	pool := New(Config{NumWorkers: 2, Registry: reg})

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		def := &domain.JobDefinition{ID: "j", Target: "jobs.track"}
		state := newTestState(t, def)
		wg.Add(1)
		pool.Submit(context.Background(), state, func(error) { wg.Done() })
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if maxSeen > 2 {
		t.Errorf("expected at most 2 concurrent attempts, saw %d", maxSeen)
	}
}
