package lock

import (
	"context"
	"errors"
	"testing"
)

type fakeRow struct {
	val bool
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*bool) = r.val
	return nil
}

type fakePool struct {
	acquireResult bool
	acquireErr    error
	execErr       error
	execCalls     int
}

func (p *fakePool) QueryRow(_ context.Context, _ string, _ ...any) Row {
	return fakeRow{val: p.acquireResult, err: p.acquireErr}
}

func (p *fakePool) Exec(_ context.Context, _ string, _ ...any) error {
	p.execCalls++
	return p.execErr
}

func TestLeader_TryAcquire_Success(t *testing.T) {
	pool := &fakePool{acquireResult: true}
	l := NewLeader(pool, 42, nil)

	if err := l.TryAcquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.IsLeader() {
		t.Error("expected to become leader")
	}
}

func TestLeader_TryAcquire_LostRace(t *testing.T) {
	pool := &fakePool{acquireResult: false}
	l := NewLeader(pool, 42, nil)

	if err := l.TryAcquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.IsLeader() {
		t.Error("expected not to become leader")
	}
}

func TestLeader_TryAcquire_IsIdempotentOnceLeader(t *testing.T) {
	pool := &fakePool{acquireResult: true}
	l := NewLeader(pool, 42, nil)

	if err := l.TryAcquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pool.acquireResult = false // даже если бы снова спросили — не спрашиваем повторно
	if err := l.TryAcquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.IsLeader() {
		t.Error("expected to remain leader without re-querying")
	}
}

func TestLeader_TryAcquire_DBError(t *testing.T) {
	boom := errors.New("connection reset")
	pool := &fakePool{acquireErr: boom}
	l := NewLeader(pool, 42, nil)

	if err := l.TryAcquire(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected db error to propagate, got %v", err)
	}
	if l.IsLeader() {
		t.Error("db error should not grant leadership")
	}
}

func TestLeader_Release_OnlyWhenLeader(t *testing.T) {
	pool := &fakePool{}
	l := NewLeader(pool, 42, nil)

	l.Release(context.Background())
	if pool.execCalls != 0 {
		t.Error("expected no unlock call when never acquired leadership")
	}

	pool.acquireResult = true
	if err := l.TryAcquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.Release(context.Background())
	if pool.execCalls != 1 {
		t.Errorf("expected exactly one unlock call, got %d", pool.execCalls)
	}
	if l.IsLeader() {
		t.Error("expected leadership to be released")
	}
}
