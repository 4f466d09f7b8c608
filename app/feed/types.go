package feed

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Feed processing types

type Feed struct {
	Title         string
	ImageURL      string
	ImageTitle    string
	Entries       []Entry
	LatestEpisode time.Time // Max Published across Entries
}

type Entry struct {
	GUID        string
	Title       string
	Description string
	Published   time.Time
	Link        *string  // Outbound web link, nil when the entry has none
	Enclosure   string   // First audio enclosure in document order
	AudioLinks  []string // Every audio enclosure URL of the entry
}

// GUIDs returns the entry identifiers in document order.
func (f *Feed) GUIDs() []string {
	guids := make([]string, 0, len(f.Entries))
	for _, entry := range f.Entries {
		guids = append(guids, entry.GUID)
	}
	return guids
}

// Configuration types

type Config struct {
	BaseURL     string
	AuthURL     string
	TagsToStrip []string
	Podcasts    []Podcast

	bySlug map[string]int
}

type Podcast struct {
	Slug        string
	URL         string
	Ordering    int
	Passthrough bool // Tracked for metadata only, never archived
}

// Podcast looks up a configured podcast by slug.
func (c *Config) Podcast(slug string) (Podcast, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Podcast{}, false
	}
	return c.Podcasts[i], true
}

// DisplayTitle derives a title from a slug, "my-show" becomes "My Show".
func DisplayTitle(slug string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}
