package database

import (
	"time"
)

type Podcast struct {
	Slug        string
	Title       string
	Image       string
	ImageTitle  string
	LastEpisode time.Time  // Never moves backwards across merges
	LastFetch   *time.Time // Nil until the first successful sync
	Ordering    int
	SourceURL   *string // Nil for passthrough podcasts
}

type Episode struct {
	PodcastSlug string
	ID          string
	Title       string
	Description string
	Published   time.Time
	Link        *string
	Enclosure   string // Canonical URL once archived, original URL otherwise
}

// PodcastRecord is one podcast and its episodes as observed by a sync.
type PodcastRecord struct {
	Podcast  Podcast
	Episodes []Episode
}

// FetchState is what a sync needs to know about a podcast before fetching.
type FetchState struct {
	LastFetch  *time.Time
	EpisodeIDs []string
}
