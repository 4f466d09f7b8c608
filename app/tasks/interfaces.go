package tasks

import (
	"context"
)

// TaskSchedulerInterface runs sync cycles in the background.
// Example usage:
//
//	scheduler := NewScheduler(coordinator, interval)
//	scheduler.Start()
//	defer scheduler.Stop()
//	report := scheduler.LastReport()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	LastReport() *CycleReport
}

// CycleRunner runs one complete sync cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*CycleReport, error)
}

// ArchivePresence lists what is already archived for a podcast.
type ArchivePresence interface {
	Stems(slug string) (map[string]bool, error)
}

// RunLock guards the archive against concurrent cycles.
type RunLock interface {
	TryLock() (bool, error)
	Unlock() error
}
