package api

import (
	"time"

	"github.com/lysyi3m/podcast-annex/app/database"
	"github.com/lysyi3m/podcast-annex/app/feed"
	"github.com/lysyi3m/podcast-annex/app/tasks"
)

type Handler struct {
	repo      database.PodcastRepository
	catalog   *feed.Config
	documents *feed.Documents
	scheduler tasks.TaskSchedulerInterface
	now       func() time.Time
}

type indexPage struct {
	Podcasts []indexPodcast
	Updated  string
}

type indexPodcast struct {
	Slug          string
	Title         string
	Image         string
	ImageTitle    string
	LatestEpisode string
	FeedURL       string
}

type podcastResponse struct {
	Slug          string            `json:"slug"`
	Title         string            `json:"title"`
	Image         string            `json:"image"`
	ImageTitle    string            `json:"image_title"`
	LatestEpisode time.Time         `json:"latest_episode"`
	LastFetch     *time.Time        `json:"last_fetch,omitempty"`
	Ordering      int               `json:"ordering"`
	SourceURL     *string           `json:"source_url,omitempty"`
	Passthrough   bool              `json:"passthrough"`
	Episodes      []episodeResponse `json:"episodes"`
}

type episodeResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Published   time.Time `json:"published"`
	Link        *string   `json:"link,omitempty"`
	Enclosure   string    `json:"enclosure"`
}
