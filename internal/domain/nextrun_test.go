package domain

import (
	"testing"
	"time"
)

func TestComputeNextRun_Cron(t *testing.T) {
	sched := Schedule{Kind: ScheduleCron, Cron: "0 * * * *"} // раз в час, на нулевой минуте
	from := time.Date(2026, 1, 1, 10, 15, 0, 0, time.UTC)

	next, err := ComputeNextRun(sched, nil, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next == nil {
		t.Fatal("expected non-nil next run time")
	}

	want := time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, *next)
	}
}

func TestComputeNextRun_Cron_Invalid(t *testing.T) {
	sched := Schedule{Kind: ScheduleCron, Cron: "not a cron expr"}
	if _, err := ComputeNextRun(sched, nil, time.Now()); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestComputeNextRun_Interval_FromLastRun(t *testing.T) {
	sched := Schedule{Kind: ScheduleInterval, EverySeconds: 30}
	lastRun := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := lastRun.Add(5 * time.Second)

	next, err := ComputeNextRun(sched, &lastRun, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := lastRun.Add(30 * time.Second)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, *next)
	}
}

func TestComputeNextRun_Interval_NoLastRun(t *testing.T) {
	sched := Schedule{Kind: ScheduleInterval, EverySeconds: 30}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	next, err := ComputeNextRun(sched, nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := now.Add(30 * time.Second)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, *next)
	}
}

func TestComputeNextRun_OneOffAndOnDemand_ReturnNil(t *testing.T) {
	for _, kind := range []ScheduleKind{ScheduleOneOff, ScheduleOnDemand} {
		next, err := ComputeNextRun(Schedule{Kind: kind}, nil, time.Now())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", kind, err)
		}
		if next != nil {
			t.Errorf("%s: expected nil next run time, got %v", kind, *next)
		}
	}
}

func TestValidateCronExpr(t *testing.T) {
	if err := ValidateCronExpr("*/5 * * * *"); err != nil {
		t.Errorf("unexpected error for valid expr: %v", err)
	}
	if err := ValidateCronExpr("garbage"); err == nil {
		t.Error("expected error for invalid expr")
	}
}
