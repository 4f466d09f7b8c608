package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/lysyi3m/podcast-annex/app/cfg"
	"github.com/lysyi3m/podcast-annex/app/feed"
)

// Download is a fetched and parsed remote feed.
type Download struct {
	Raw       string
	Feed      *feed.Feed
	FetchedAt time.Time
}

// Fetcher downloads podcast feeds, honouring the per-podcast cooldown and
// an optional global request rate.
type Fetcher struct {
	httpClient *http.Client
	parser     *feed.Parser
	limiter    *rate.Limiter
	userAgent  string
	timeout    time.Duration
	cooldown   time.Duration
	now        func() time.Time
}

func NewFetcher(config *cfg.Cfg, httpClient *http.Client, parser *feed.Parser) *Fetcher {
	var limiter *rate.Limiter
	if config.FetchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.FetchRate), 1)
	}

	return &Fetcher{
		httpClient: httpClient,
		parser:     parser,
		limiter:    limiter,
		userAgent:  config.UserAgent,
		timeout:    config.FetchTimeoutDuration(),
		cooldown:   config.CooldownDuration(),
		now:        time.Now,
	}
}

// Fetch returns ErrCooldown when the podcast was fetched too recently,
// ErrFetch when the download fails and feed.ErrNoEntries for an empty feed
// or a body that is not a feed.
// Other parse errors reject the feed.
func (f *Fetcher) Fetch(ctx context.Context, podcast feed.Podcast, lastFetch *time.Time) (*Download, error) {
	now := f.now().UTC()
	if lastFetch != nil && now.Sub(*lastFetch) < f.cooldown {
		return nil, fmt.Errorf("%w: last fetch at %s", ErrCooldown, lastFetch.Format(time.RFC3339))
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetch, err)
		}
	}

	slog.Debug("Downloading feed", "podcast", podcast.Slug, "url", podcast.URL)

	data, err := f.fetchFeed(ctx, podcast.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	parsed, err := f.parser.Run(data)
	if err != nil {
		return nil, err
	}

	return &Download{
		Raw:       string(data),
		Feed:      parsed,
		FetchedAt: now,
	}, nil
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
