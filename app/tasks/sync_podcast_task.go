package tasks

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/podcast-annex/app/annex"
	"github.com/lysyi3m/podcast-annex/app/database"
	"github.com/lysyi3m/podcast-annex/app/feed"
)

// Result is what one podcast contributes to a cycle: the rows to merge and
// the rewritten feed document to write once the merge has committed.
type Result struct {
	Podcast  feed.Podcast
	Feed     *feed.Feed
	Record   database.PodcastRecord
	Document string // Empty when the stored document stays as it is
	Decision Decision
}

type SyncPodcastTask struct {
	Task
	Podcast   feed.Podcast
	state     database.FetchState
	fetcher   *Fetcher
	archiver  annex.Archiver
	presence  ArchivePresence
	rewriter  *feed.Rewriter
	documents *feed.Documents
}

func NewSyncPodcastTask(podcast feed.Podcast, state database.FetchState, fetcher *Fetcher, archiver annex.Archiver, presence ArchivePresence, rewriter *feed.Rewriter, documents *feed.Documents) *SyncPodcastTask {
	return &SyncPodcastTask{
		Task:      NewTask(TaskTypeSyncPodcast, podcast.Slug),
		Podcast:   podcast,
		state:     state,
		fetcher:   fetcher,
		archiver:  archiver,
		presence:  presence,
		rewriter:  rewriter,
		documents: documents,
	}
}

func (t *SyncPodcastTask) Execute(ctx context.Context) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	download, err := t.fetcher.Fetch(ctx, t.Podcast, t.state.LastFetch)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Podcast: t.Podcast,
		Feed:    download.Feed,
	}

	if t.Podcast.Passthrough {
		result.Decision = Decision{Action: ActionNone}
		result.Record = t.record(download, nil)

		slog.Info("Task completed",
			"type", "SyncPodcast",
			"podcast", t.PodcastSlug,
			"duration", t.GetDuration(),
			"action", "passthrough",
			"episodes", len(download.Feed.Entries))

		return result, nil
	}

	stems, err := t.presence.Stems(t.PodcastSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect archive: %w", err)
	}

	present := PresentEpisodes(t.state.EpisodeIDs, stems)
	decision := Reconcile(download.Feed.GUIDs(), present)
	result.Decision = decision
	archived := present

	switch decision.Action {
	case ActionAnomaly:
		slog.Warn("Archived episodes missing from remote feed, skipping import",
			"podcast", t.PodcastSlug,
			"missing", decision.Missing)

	case ActionArchive:
		slog.Info("Annexing podcast", "podcast", t.PodcastSlug, "url", t.Podcast.URL, "new", len(decision.New))

		if err := t.archiver.Archive(ctx, t.Podcast.URL, annex.Template(t.PodcastSlug)); err != nil {
			return nil, fmt.Errorf("failed to archive %s: %w", t.Podcast.URL, err)
		}

		archived = make(map[string]bool, len(download.Feed.Entries))
		for _, entry := range download.Feed.Entries {
			archived[entry.GUID] = true
		}

		result.Document, err = t.rewrite(download)
		if err != nil {
			return nil, err
		}

	case ActionNone:
		if !t.documents.Exists(t.PodcastSlug) {
			slog.Debug("Feed document missing, regenerating", "podcast", t.PodcastSlug)
			result.Document, err = t.rewrite(download)
			if err != nil {
				return nil, err
			}
		}
	}

	result.Record = t.record(download, archived)

	slog.Info("Task completed",
		"type", "SyncPodcast",
		"podcast", t.PodcastSlug,
		"duration", t.GetDuration(),
		"action", string(decision.Action),
		"episodes", len(download.Feed.Entries),
		"new", len(decision.New))

	return result, nil
}

func (t *SyncPodcastTask) rewrite(download *Download) (string, error) {
	document, err := t.rewriter.Run(t.PodcastSlug, download.Raw, download.Feed)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRewrite, err)
	}
	return document, nil
}

// record builds the rows to merge. Archived episodes point at their
// canonical URL, everything else keeps the remote enclosure.
func (t *SyncPodcastTask) record(download *Download, archived map[string]bool) database.PodcastRecord {
	parsed := download.Feed
	title := cmp.Or(parsed.Title, feed.DisplayTitle(t.PodcastSlug))
	fetchedAt := download.FetchedAt

	var sourceURL *string
	if !t.Podcast.Passthrough {
		url := t.Podcast.URL
		sourceURL = &url
	}

	episodes := make([]database.Episode, 0, len(parsed.Entries))
	for _, entry := range parsed.Entries {
		enclosure := entry.Enclosure
		if archived[entry.GUID] {
			enclosure = t.rewriter.CanonicalURL(t.PodcastSlug, entry.GUID)
		}

		episodes = append(episodes, database.Episode{
			PodcastSlug: t.PodcastSlug,
			ID:          entry.GUID,
			Title:       entry.Title,
			Description: entry.Description,
			Published:   entry.Published,
			Link:        entry.Link,
			Enclosure:   enclosure,
		})
	}

	return database.PodcastRecord{
		Podcast: database.Podcast{
			Slug:        t.PodcastSlug,
			Title:       title,
			Image:       parsed.ImageURL,
			ImageTitle:  cmp.Or(parsed.ImageTitle, title),
			LastEpisode: parsed.LatestEpisode,
			LastFetch:   &fetchedAt,
			Ordering:    t.Podcast.Ordering,
			SourceURL:   sourceURL,
		},
		Episodes: episodes,
	}
}
