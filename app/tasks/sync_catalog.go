package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/podcast-annex/app/database"
	"github.com/lysyi3m/podcast-annex/app/feed"
)

// SyncCatalog applies the configured ordering to podcasts already stored.
// New podcasts get their ordering on their first merge.
func SyncCatalog(ctx context.Context, repo database.PodcastRepository, catalog *feed.Config) error {
	started := time.Now()

	ordering := make(map[string]int, len(catalog.Podcasts))
	for _, podcast := range catalog.Podcasts {
		ordering[podcast.Slug] = podcast.Ordering
	}

	updated, err := repo.SyncOrdering(ctx, ordering)
	if err != nil {
		slog.Error("Task failed", "type", "SyncCatalog", "error", err)
		return fmt.Errorf("failed to sync podcast ordering: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncCatalog",
		"duration", time.Since(started),
		"podcasts", len(ordering),
		"updated", updated)

	return nil
}
