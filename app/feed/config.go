package feed

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

type rawConfig struct {
	BaseURL     string    `yaml:"base_url"`
	AuthURL     string    `yaml:"auth_url"`
	TagsToStrip []string  `yaml:"tags_to_strip"`
	Podcasts    yaml.Node `yaml:"podcasts"`
}

type rawPodcast struct {
	URL         string `yaml:"url"`
	Ordering    *int   `yaml:"ordering"`
	Passthrough bool   `yaml:"passthrough"`
}

// LoadConfig reads the podcast catalog from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	slog.Debug("Configuration loaded", "file", path, "podcasts", len(config.Podcasts), "tags_to_strip", len(config.TagsToStrip))

	return config, nil
}

// ParseConfig decodes a podcast catalog. Podcasts may be given as
// "slug: url" or as a mapping with url, ordering and passthrough keys.
// Ordering defaults to the position of the podcast in the file.
func ParseConfig(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config := &Config{
		BaseURL:     strings.TrimSuffix(raw.BaseURL, "/"),
		AuthURL:     strings.TrimSuffix(raw.AuthURL, "/"),
		TagsToStrip: raw.TagsToStrip,
		bySlug:      make(map[string]int),
	}

	podcasts, err := decodePodcasts(&raw.Podcasts)
	if err != nil {
		return nil, err
	}
	config.Podcasts = podcasts

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	for i, podcast := range config.Podcasts {
		config.bySlug[podcast.Slug] = i
	}

	return config, nil
}

func decodePodcasts(node *yaml.Node) ([]Podcast, error) {
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("podcasts must be a mapping of slug to feed, line %d", node.Line)
	}

	podcasts := make([]Podcast, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		podcast := Podcast{Slug: key.Value, Ordering: len(podcasts)}

		switch value.Kind {
		case yaml.ScalarNode:
			podcast.URL = value.Value
		case yaml.MappingNode:
			var entry rawPodcast
			if err := value.Decode(&entry); err != nil {
				return nil, fmt.Errorf("podcast %s: %w", key.Value, err)
			}
			podcast.URL = entry.URL
			podcast.Passthrough = entry.Passthrough
			if entry.Ordering != nil {
				podcast.Ordering = *entry.Ordering
			}
		default:
			return nil, fmt.Errorf("podcast %s: expected a URL or a mapping, line %d", key.Value, value.Line)
		}

		podcasts = append(podcasts, podcast)
	}

	return podcasts, nil
}

func validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if config.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}

	seen := make(map[string]bool, len(config.Podcasts))
	for i, podcast := range config.Podcasts {
		requiredFields := map[string]string{
			"podcast slug": podcast.Slug,
			"podcast URL":  podcast.URL,
		}

		for fieldName, fieldValue := range requiredFields {
			if fieldValue == "" {
				return fmt.Errorf("%s is required at index %d", fieldName, i)
			}
		}

		if !slugPattern.MatchString(podcast.Slug) {
			return fmt.Errorf("invalid podcast slug at index %d: %s", i, podcast.Slug)
		}
		if seen[podcast.Slug] {
			return fmt.Errorf("duplicate podcast slug: %s", podcast.Slug)
		}
		seen[podcast.Slug] = true

		if podcast.Ordering < 0 {
			return fmt.Errorf("ordering of %s must be non-negative", podcast.Slug)
		}
	}

	for i, tag := range config.TagsToStrip {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("empty tag to strip at index %d", i)
		}
	}

	return nil
}
