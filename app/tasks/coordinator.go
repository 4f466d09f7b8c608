package tasks

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/podcast-annex/app/annex"
	"github.com/lysyi3m/podcast-annex/app/database"
	"github.com/lysyi3m/podcast-annex/app/feed"
)

var _ CycleRunner = (*Coordinator)(nil)

// CycleReport summarizes one sync cycle.
type CycleReport struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Synced        int
	Skipped       int
	Failed        int
	Archived      int
	Anomalies     int
	Podcasts      []string          // Merged slugs, most recent episode first
	LatestEpisode time.Time         // Most recent episode across merged podcasts
	Failures      map[string]string // Slug to error of hard failures
}

type Coordinator struct {
	catalog     *feed.Config
	repo        database.PodcastRepository
	fetcher     *Fetcher
	archiver    annex.Archiver
	presence    ArchivePresence
	lock        RunLock
	rewriter    *feed.Rewriter
	documents   *feed.Documents
	workerCount int
}

func NewCoordinator(catalog *feed.Config, repo database.PodcastRepository, fetcher *Fetcher, archiver annex.Archiver, archive *annex.Repo, workerCount int) *Coordinator {
	return &Coordinator{
		catalog:     catalog,
		repo:        repo,
		fetcher:     fetcher,
		archiver:    archiver,
		presence:    archive,
		lock:        archive,
		rewriter:    feed.NewRewriter(catalog.BaseURL, catalog.TagsToStrip),
		documents:   feed.NewDocuments(archive.Dir()),
		workerCount: max(workerCount, 1),
	}
}

type outcome struct {
	task   TaskInterface
	result *Result
	err    error
}

// RunCycle syncs every configured podcast and merges the results in one
// transaction. A podcast failing only removes that podcast from the batch.
// Only a failure to read or write the store fails the cycle.
func (c *Coordinator) RunCycle(ctx context.Context) (*CycleReport, error) {
	ok, err := c.lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCycleLocked
	}
	defer func() {
		if err := c.lock.Unlock(); err != nil {
			slog.Warn("Failed to release annex lock", "error", err)
		}
	}()

	report := &CycleReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Failures:  make(map[string]string),
	}

	slog.Debug("Sync cycle started", "cycle", report.ID, "podcasts", len(c.catalog.Podcasts))

	states, err := c.repo.FetchStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read fetch states: %w", err)
	}

	tasks := make([]TaskInterface, 0, len(c.catalog.Podcasts))
	for _, podcast := range c.catalog.Podcasts {
		tasks = append(tasks, NewSyncPodcastTask(podcast, states[podcast.Slug], c.fetcher, c.archiver, c.presence, c.rewriter, c.documents))
	}

	var results []*Result
	for _, o := range c.runTasks(ctx, tasks) {
		slug := o.task.GetPodcastSlug()
		switch {
		case o.err == nil:
			results = append(results, o.result)
		case IsSkip(o.err):
			report.Skipped++
		default:
			report.Failed++
			report.Failures[slug] = o.err.Error()
		}
	}

	slices.SortStableFunc(results, func(a, b *Result) int {
		return cmp.Or(b.Feed.LatestEpisode.Compare(a.Feed.LatestEpisode), cmp.Compare(a.Podcast.Slug, b.Podcast.Slug))
	})

	records := make([]database.PodcastRecord, 0, len(results))
	for _, result := range results {
		records = append(records, result.Record)
		report.Podcasts = append(report.Podcasts, result.Podcast.Slug)
		if result.Feed.LatestEpisode.After(report.LatestEpisode) {
			report.LatestEpisode = result.Feed.LatestEpisode
		}
		switch result.Decision.Action {
		case ActionArchive:
			report.Archived++
		case ActionAnomaly:
			report.Anomalies++
		}
	}

	if err := c.repo.Merge(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to merge podcasts: %w", err)
	}
	report.Synced = len(records)

	for _, result := range results {
		if result.Document == "" {
			continue
		}
		slug := result.Podcast.Slug
		if err := c.documents.Write(slug, result.Document); err != nil {
			slog.Error("Failed to save feed document", "podcast", slug, "error", err)
			report.Failures[slug] = err.Error()
			continue
		}
		slog.Debug("Feed document saved", "podcast", slug, "path", c.documents.Path(slug))
	}

	report.FinishedAt = time.Now().UTC()

	slog.Info("Sync cycle completed",
		"cycle", report.ID,
		"duration", report.FinishedAt.Sub(report.StartedAt),
		"synced", report.Synced,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"archived", report.Archived,
		"anomalies", report.Anomalies)

	return report, nil
}

// runTasks executes the tasks over at most workerCount goroutines and
// returns their outcomes in task order.
func (c *Coordinator) runTasks(ctx context.Context, tasks []TaskInterface) []outcome {
	outcomes := make([]outcome, len(tasks))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < min(c.workerCount, len(tasks)); i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for index := range jobs {
				outcomes[index] = c.executeTask(ctx, workerID, tasks[index])
			}
		}(i)
	}

	for index := range tasks {
		jobs <- index
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (c *Coordinator) executeTask(ctx context.Context, workerID int, task TaskInterface) outcome {
	task.Start()

	result, err := task.Execute(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrCooldown):
		slog.Debug("Fetched recently, continuing", "podcast", task.GetPodcastSlug(), "reason", err)
	case IsSkip(err):
		slog.Warn("Podcast skipped", "podcast", task.GetPodcastSlug(), "error", err)
	default:
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "podcast", task.GetPodcastSlug(), "error", err)
	}

	return outcome{task: task, result: result, err: err}
}
