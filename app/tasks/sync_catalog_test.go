package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/lysyi3m/podcast-annex/app/database"
)

func TestSyncCatalog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	now := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	err := env.repo.Merge(ctx, []database.PodcastRecord{
		{Podcast: database.Podcast{Slug: "first", Title: "First", LastEpisode: now, LastFetch: &now, Ordering: 5}},
	})
	if err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}

	catalog := env.coordinator(env.catalog(env.shortForm("first"), env.shortForm("second"))).catalog
	if err := SyncCatalog(ctx, env.repo, catalog); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	podcast, _ := env.repo.GetPodcast(ctx, "first")
	if podcast.Ordering != 0 {
		t.Errorf("Expected configured ordering 0, got: %d", podcast.Ordering)
	}

	count, _ := env.repo.GetPodcastCount(ctx)
	if count != 1 {
		t.Errorf("Expected unsynced podcasts not to be inserted, got: %d", count)
	}
}
