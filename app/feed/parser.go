package feed

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

var (
	ErrInvalidFeed      = errors.New("couldn't process feed")
	ErrNoEntries        = errors.New("feed has no entries")
	ErrNotAFeed         = fmt.Errorf("%w: response is not a feed", ErrNoEntries)
	ErrMissingGUID      = fmt.Errorf("%w: entry without guid", ErrInvalidFeed)
	ErrNoAudioEnclosure = fmt.Errorf("%w: entry without audio enclosure", ErrInvalidFeed)
	ErrMissingPublished = fmt.Errorf("%w: entry without publish date", ErrInvalidFeed)
)

// Parser is safe for concurrent use. gofeed parsers keep per-parse state,
// so each Run gets its own.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Run parses raw RSS or Atom. Every entry must carry a guid, a publish
// date and an audio enclosure, otherwise the whole feed is rejected.
// A body that is no feed at all counts as a feed without entries.
func (p *Parser) Run(data []byte) (*Feed, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
		return nil, ErrNotAFeed
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFeed, err)
	}

	if len(parsed.Items) == 0 {
		return nil, ErrNoEntries
	}

	feed := &Feed{
		Title:   parsed.Title,
		Entries: make([]Entry, 0, len(parsed.Items)),
	}

	if parsed.Image != nil {
		feed.ImageURL = parsed.Image.URL
		feed.ImageTitle = parsed.Image.Title
	}
	if feed.ImageURL == "" && parsed.ITunesExt != nil {
		feed.ImageURL = parsed.ITunesExt.Image
	}
	if feed.ImageTitle == "" {
		feed.ImageTitle = feed.Title
	}

	for i, item := range parsed.Items {
		entry, err := p.normalizeItem(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if entry.Published.After(feed.LatestEpisode) {
			feed.LatestEpisode = entry.Published
		}
		feed.Entries = append(feed.Entries, entry)
	}

	return feed, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) (Entry, error) {
	entry := Entry{
		GUID:        strings.TrimSpace(item.GUID),
		Title:       item.Title,
		Description: item.Description,
	}

	if entry.GUID == "" {
		return Entry{}, ErrMissingGUID
	}

	switch {
	case item.PublishedParsed != nil:
		entry.Published = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		entry.Published = item.UpdatedParsed.UTC()
	default:
		return Entry{}, fmt.Errorf("%w: %s", ErrMissingPublished, entry.GUID)
	}

	if item.Link != "" {
		link := item.Link
		entry.Link = &link
	}

	for _, enclosure := range item.Enclosures {
		if enclosure == nil || enclosure.URL == "" {
			continue
		}
		if strings.Contains(enclosure.Type, "audio") {
			entry.AudioLinks = append(entry.AudioLinks, enclosure.URL)
		}
	}

	if len(entry.AudioLinks) == 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrNoAudioEnclosure, entry.GUID)
	}
	entry.Enclosure = entry.AudioLinks[0]

	return entry, nil
}
