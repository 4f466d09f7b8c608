package api

import (
	"cmp"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/podcast-annex/app/database"
	"github.com/lysyi3m/podcast-annex/app/feed"
	"github.com/lysyi3m/podcast-annex/app/tasks"
)

// NewHandler wires the read-only UI. scheduler may be nil when no
// background cycles run.
func NewHandler(repo database.PodcastRepository, catalog *feed.Config, documents *feed.Documents,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		repo:      repo,
		catalog:   catalog,
		documents: documents,
		scheduler: scheduler,
		now:       time.Now,
	}
}

func (h *Handler) GetIndex(c *gin.Context) {
	podcasts, err := h.repo.ListPodcasts(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_podcasts", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	now := h.now()
	page := indexPage{
		Podcasts: make([]indexPodcast, 0, len(podcasts)),
	}

	var lastFetch time.Time
	for _, podcast := range podcasts {
		if _, ok := h.catalog.Podcast(podcast.Slug); !ok {
			continue
		}

		title := cmp.Or(podcast.Title, feed.DisplayTitle(podcast.Slug))
		page.Podcasts = append(page.Podcasts, indexPodcast{
			Slug:          podcast.Slug,
			Title:         title,
			Image:         podcast.Image,
			ImageTitle:    cmp.Or(podcast.ImageTitle, title),
			LatestEpisode: MonthDay(podcast.LastEpisode, now),
			FeedURL:       h.feedURL(podcast.Slug),
		})

		if podcast.LastFetch != nil && podcast.LastFetch.After(lastFetch) {
			lastFetch = *podcast.LastFetch
		}
	}

	if h.scheduler != nil {
		if report := h.scheduler.LastReport(); report != nil {
			lastFetch = report.FinishedAt
		}
	}
	if !lastFetch.IsZero() {
		page.Updated = MonthDayTime(lastFetch, now)
	}

	c.HTML(http.StatusOK, "index.html", page)
}

// feedURL is where subscribers fetch a podcast from. Passthrough podcasts
// have no rewritten document and link to their source.
func (h *Handler) feedURL(slug string) string {
	podcast, _ := h.catalog.Podcast(slug)
	if podcast.Passthrough {
		return podcast.URL
	}
	if h.catalog.AuthURL != "" {
		return h.catalog.AuthURL + "/" + slug + ".rss"
	}
	return "/feeds/" + slug + ".rss"
}

func (h *Handler) GetPodcast(c *gin.Context) {
	slug := c.Param("slug")
	configured, ok := h.catalog.Podcast(slug)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Podcast not configured"})
		return
	}

	ctx := c.Request.Context()
	podcast, err := h.repo.GetPodcast(ctx, slug)
	if err != nil {
		slog.Error("Database error", "operation", "get_podcast", "podcast", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if podcast == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Podcast not synced yet"})
		return
	}

	episodes, err := h.repo.ListEpisodes(ctx, slug)
	if err != nil {
		slog.Error("Database error", "operation", "list_episodes", "podcast", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := podcastResponse{
		Slug:          podcast.Slug,
		Title:         cmp.Or(podcast.Title, feed.DisplayTitle(podcast.Slug)),
		Image:         podcast.Image,
		ImageTitle:    podcast.ImageTitle,
		LatestEpisode: podcast.LastEpisode,
		LastFetch:     podcast.LastFetch,
		Ordering:      podcast.Ordering,
		SourceURL:     podcast.SourceURL,
		Passthrough:   configured.Passthrough,
		Episodes:      make([]episodeResponse, 0, len(episodes)),
	}

	for _, episode := range episodes {
		response.Episodes = append(response.Episodes, episodeResponse{
			ID:          episode.ID,
			Title:       episode.Title,
			Description: episode.Description,
			Published:   episode.Published,
			Link:        episode.Link,
			Enclosure:   episode.Enclosure,
		})
	}

	c.Header("X-Episode-Count", strconv.Itoa(len(episodes)))
	c.JSON(http.StatusOK, response)
}

// GetFeed serves the rewritten document of an archived podcast.
func (h *Handler) GetFeed(c *gin.Context) {
	slug, ok := strings.CutSuffix(c.Param("file"), ".rss")
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	podcast, ok := h.catalog.Podcast(slug)
	if !ok || podcast.Passthrough {
		c.Status(http.StatusNotFound)
		return
	}

	if !h.documents.Exists(slug) {
		slog.Debug("Feed document not written yet", "podcast", slug)
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.Header("X-Podcast", slug)
	c.File(h.documents.Path(slug))
}

func (h *Handler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()
	health := map[string]interface{}{
		"timestamp": h.now().In(time.Local).Format(time.RFC3339),
	}

	if podcastCount, err := h.repo.GetPodcastCount(ctx); err == nil {
		health["podcasts"] = podcastCount
	}
	if episodeCount, err := h.repo.GetEpisodeCount(ctx); err == nil {
		health["episodes"] = episodeCount
	}

	health["loaded_configurations"] = len(h.catalog.Podcasts)

	if h.scheduler != nil {
		if report := h.scheduler.LastReport(); report != nil {
			health["last_cycle"] = map[string]interface{}{
				"id":          report.ID,
				"finished_at": report.FinishedAt.Format(time.RFC3339),
				"synced":      report.Synced,
				"skipped":     report.Skipped,
				"failed":      report.Failed,
				"archived":    report.Archived,
				"anomalies":   report.Anomalies,
			}
		}
	}

	c.JSON(http.StatusOK, health)
}
