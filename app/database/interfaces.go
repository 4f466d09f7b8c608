package database

import (
	"context"
)

type PodcastRepository interface {
	FetchStates(ctx context.Context) (map[string]FetchState, error)
	Merge(ctx context.Context, records []PodcastRecord) error
	SyncOrdering(ctx context.Context, ordering map[string]int) (int, error)

	ListPodcasts(ctx context.Context) ([]Podcast, error)
	GetPodcast(ctx context.Context, slug string) (*Podcast, error)
	ListEpisodes(ctx context.Context, slug string) ([]Episode, error)
	GetPodcastCount(ctx context.Context) (int, error)
	GetEpisodeCount(ctx context.Context) (int, error)
}
