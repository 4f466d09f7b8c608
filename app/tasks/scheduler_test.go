package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type fakeRunner struct {
	cycles atomic.Int32
	err    error
}

func (r *fakeRunner) RunCycle(ctx context.Context) (*CycleReport, error) {
	n := r.cycles.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &CycleReport{ID: "cycle", Synced: int(n)}, nil
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met before deadline")
}

func TestSchedulerRunsAtStartAndOnInterval(t *testing.T) {
	runner := &fakeRunner{}
	scheduler := NewScheduler(runner, 20*time.Millisecond)

	if scheduler.LastReport() != nil {
		t.Error("Expected no report before the first cycle")
	}

	scheduler.Start()
	waitFor(t, func() bool { return runner.cycles.Load() >= 3 })
	scheduler.Stop()

	report := scheduler.LastReport()
	if report == nil {
		t.Fatal("Expected a report after cycles ran")
	}
	if report.Synced < 3 {
		t.Errorf("Expected the latest report to be kept, got: %+v", report)
	}

	stopped := runner.cycles.Load()
	time.Sleep(50 * time.Millisecond)
	if runner.cycles.Load() != stopped {
		t.Error("Expected no cycles after Stop")
	}
}

func TestSchedulerKeepsReportOnFailure(t *testing.T) {
	runner := &fakeRunner{err: ErrCycleLocked}
	scheduler := NewScheduler(runner, time.Hour)

	scheduler.Start()
	waitFor(t, func() bool { return runner.cycles.Load() >= 1 })
	scheduler.Stop()

	if scheduler.LastReport() != nil {
		t.Error("Expected failed cycles not to produce a report")
	}
}
