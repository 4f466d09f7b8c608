package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	runner   CycleRunner
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu         sync.RWMutex
	lastReport *CycleReport
}

func NewScheduler(runner CycleRunner, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		runner:   runner,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs a cycle immediately and then once per interval.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runCycle()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runCycle()
			}
		}
	}()
}

// Stop cancels a running cycle and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) LastReport() *CycleReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport
}

func (s *Scheduler) runCycle() {
	report, err := s.runner.RunCycle(s.ctx)
	if err != nil {
		switch {
		case errors.Is(err, ErrCycleLocked):
			slog.Warn("Sync cycle skipped", "reason", err)
		case errors.Is(err, context.Canceled):
			slog.Debug("Sync cycle cancelled")
		default:
			slog.Error("Sync cycle failed", "error", err)
		}
		return
	}

	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()
}
