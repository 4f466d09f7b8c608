package feed

import (
	"errors"
	"testing"
	"time"
)

const testPodcastRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Test Podcast</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <image>
      <url>https://example.com/cover.jpg</url>
      <title>Test Podcast Cover</title>
      <link>https://example.com</link>
    </image>
    <itunes:new-feed-url>https://example.com/moved.xml</itunes:new-feed-url>
    <item>
      <title>Episode 2</title>
      <link>https://example.com/ep2</link>
      <description>Second episode</description>
      <guid isPermaLink="false">ep-2</guid>
      <pubDate>Tue, 04 Jul 2023 10:00:00 GMT</pubDate>
      <enclosure url="https://cdn.example.com/ep2.mp3?src=rss&amp;id=2" length="1000" type="audio/mpeg"/>
    </item>
    <item>
      <title>Episode 1</title>
      <description>First episode</description>
      <guid isPermaLink="false">ep 1!</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <enclosure url="https://cdn.example.com/ep1.mp3" length="1000" type="audio/mpeg"/>
    </item>
  </channel>
</rss>`

func TestParseRSS2(t *testing.T) {
	parser := NewParser()
	feed, err := parser.Run([]byte(testPodcastRSS))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if feed.Title != "Test Podcast" {
		t.Errorf("Expected title 'Test Podcast', got: %s", feed.Title)
	}
	if feed.ImageURL != "https://example.com/cover.jpg" {
		t.Errorf("Expected image URL 'https://example.com/cover.jpg', got: %s", feed.ImageURL)
	}
	if feed.ImageTitle != "Test Podcast Cover" {
		t.Errorf("Expected image title 'Test Podcast Cover', got: %s", feed.ImageTitle)
	}

	if len(feed.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(feed.Entries))
	}

	first := feed.Entries[0]
	if first.GUID != "ep-2" {
		t.Errorf("Expected GUID 'ep-2', got: %s", first.GUID)
	}
	if first.Link == nil || *first.Link != "https://example.com/ep2" {
		t.Errorf("Expected link 'https://example.com/ep2', got: %v", first.Link)
	}
	if first.Enclosure != "https://cdn.example.com/ep2.mp3?src=rss&id=2" {
		t.Errorf("Expected unescaped enclosure URL, got: %s", first.Enclosure)
	}
	if first.Description != "Second episode" {
		t.Errorf("Expected description 'Second episode', got: %s", first.Description)
	}

	second := feed.Entries[1]
	if second.Link != nil {
		t.Errorf("Expected nil link for entry without <link>, got: %v", *second.Link)
	}
	expected := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if !second.Published.Equal(expected) {
		t.Errorf("Expected published %v, got: %v", expected, second.Published)
	}

	latest := time.Date(2023, 7, 4, 10, 0, 0, 0, time.UTC)
	if !feed.LatestEpisode.Equal(latest) {
		t.Errorf("Expected latest episode %v, got: %v", latest, feed.LatestEpisode)
	}

	guids := feed.GUIDs()
	if len(guids) != 2 || guids[0] != "ep-2" || guids[1] != "ep 1!" {
		t.Errorf("Unexpected GUIDs: %v", guids)
	}
}

func TestParseLatestEpisodeIsMaximum(t *testing.T) {
	data := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Unordered</title>
    <item>
      <guid>old</guid>
      <pubDate>Mon, 01 May 2023 10:00:00 GMT</pubDate>
      <enclosure url="https://cdn.example.com/old.mp3" type="audio/mpeg"/>
    </item>
    <item>
      <guid>new</guid>
      <pubDate>Mon, 05 Jun 2023 10:00:00 GMT</pubDate>
      <enclosure url="https://cdn.example.com/new.mp3" type="audio/mpeg"/>
    </item>
  </channel>
</rss>`

	feed, err := NewParser().Run([]byte(data))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	latest := time.Date(2023, 6, 5, 10, 0, 0, 0, time.UTC)
	if !feed.LatestEpisode.Equal(latest) {
		t.Errorf("Expected latest episode %v, got: %v", latest, feed.LatestEpisode)
	}
	if feed.ImageTitle != "Unordered" {
		t.Errorf("Expected image title to fall back to feed title, got: %s", feed.ImageTitle)
	}
}

func TestParseAtomEnclosure(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Test Atom Podcast</title>
  <link href="https://example.com"/>
  <updated>2023-07-03T12:00:00Z</updated>
  <id>urn:uuid:1234567890</id>
  <entry>
    <title>Atom Episode</title>
    <link href="https://example.com/entry1"/>
    <link rel="enclosure" type="audio/mpeg" href="https://cdn.example.com/atom1.mp3"/>
    <id>urn:uuid:entry-1</id>
    <updated>2023-07-03T10:00:00Z</updated>
    <published>2023-07-03T09:00:00Z</published>
  </entry>
</feed>`

	feed, err := NewParser().Run([]byte(atomData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(feed.Entries) != 1 {
		t.Fatalf("Expected 1 entry, got: %d", len(feed.Entries))
	}

	entry := feed.Entries[0]
	if entry.GUID != "urn:uuid:entry-1" {
		t.Errorf("Expected GUID 'urn:uuid:entry-1', got: %s", entry.GUID)
	}
	if entry.Enclosure != "https://cdn.example.com/atom1.mp3" {
		t.Errorf("Expected atom enclosure, got: %s", entry.Enclosure)
	}
	if !entry.Published.Equal(time.Date(2023, 7, 3, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected published time from <published>, got: %v", entry.Published)
	}
}

func TestParseNoEntries(t *testing.T) {
	data := `<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`

	_, err := NewParser().Run([]byte(data))
	if !errors.Is(err, ErrNoEntries) {
		t.Errorf("Expected ErrNoEntries, got: %v", err)
	}
}

func TestParseNotAFeed(t *testing.T) {
	_, err := NewParser().Run([]byte("<html><body>Service unavailable</body></html>"))
	if !errors.Is(err, ErrNotAFeed) {
		t.Errorf("Expected ErrNotAFeed, got: %v", err)
	}
	if !errors.Is(err, ErrNoEntries) {
		t.Errorf("Expected ErrNotAFeed to be an ErrNoEntries, got: %v", err)
	}
	if errors.Is(err, ErrInvalidFeed) {
		t.Errorf("Expected a non-feed body not to be an ErrInvalidFeed, got: %v", err)
	}
}

func TestParseMissingGUIDRejectsFeed(t *testing.T) {
	data := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>No GUID</title>
    <item>
      <guid>fine</guid>
      <pubDate>Mon, 01 May 2023 10:00:00 GMT</pubDate>
      <enclosure url="https://cdn.example.com/fine.mp3" type="audio/mpeg"/>
    </item>
    <item>
      <title>No guid here</title>
      <pubDate>Mon, 01 May 2023 11:00:00 GMT</pubDate>
      <enclosure url="https://cdn.example.com/missing.mp3" type="audio/mpeg"/>
    </item>
  </channel>
</rss>`

	feed, err := NewParser().Run([]byte(data))
	if !errors.Is(err, ErrMissingGUID) {
		t.Fatalf("Expected ErrMissingGUID, got: %v", err)
	}
	if !errors.Is(err, ErrInvalidFeed) {
		t.Errorf("Expected ErrMissingGUID to be an ErrInvalidFeed, got: %v", err)
	}
	if feed != nil {
		t.Error("Expected no feed when an entry lacks a guid")
	}
}

func TestParseNoAudioEnclosure(t *testing.T) {
	data := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Video</title>
    <item>
      <guid>video-1</guid>
      <pubDate>Mon, 01 May 2023 10:00:00 GMT</pubDate>
      <enclosure url="https://cdn.example.com/video.mp4" type="video/mp4"/>
    </item>
  </channel>
</rss>`

	_, err := NewParser().Run([]byte(data))
	if !errors.Is(err, ErrNoAudioEnclosure) {
		t.Errorf("Expected ErrNoAudioEnclosure, got: %v", err)
	}
}

func TestParseMissingPublished(t *testing.T) {
	data := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Undated</title>
    <item>
      <guid>undated</guid>
      <enclosure url="https://cdn.example.com/undated.mp3" type="audio/mpeg"/>
    </item>
  </channel>
</rss>`

	_, err := NewParser().Run([]byte(data))
	if !errors.Is(err, ErrMissingPublished) {
		t.Errorf("Expected ErrMissingPublished, got: %v", err)
	}
}
