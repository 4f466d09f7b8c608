package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeSyncPodcast TaskType = "sync_podcast"
)

type TaskInterface interface {
	Execute(ctx context.Context) (*Result, error)
	GetID() string
	GetType() TaskType
	GetPodcastSlug() string
	Start()
	GetDuration() time.Duration
}

type Task struct {
	ID          string
	Type        TaskType
	PodcastSlug string
	StartedAt   *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetPodcastSlug() string {
	return t.PodcastSlug
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, podcastSlug string) Task {
	return Task{
		ID:          uuid.NewString(),
		Type:        taskType,
		PodcastSlug: podcastSlug,
	}
}
