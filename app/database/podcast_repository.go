package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var _ PodcastRepository = (*SQLitePodcastRepository)(nil)

type SQLitePodcastRepository struct {
	db *DB
}

func NewPodcastRepository(db *DB) *SQLitePodcastRepository {
	return &SQLitePodcastRepository{db: db}
}

const podcastColumns = `slug, title, image, image_title, last_ep, last_fetch, ordering, source_url`

const upsertPodcastSQL = `
	INSERT INTO podcast (slug, title, image, image_title, last_ep, last_fetch, ordering, source_url)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (slug) DO UPDATE SET
		title = EXCLUDED.title,
		image = EXCLUDED.image,
		image_title = EXCLUDED.image_title,
		last_ep = MAX(podcast.last_ep, EXCLUDED.last_ep),
		last_fetch = EXCLUDED.last_fetch,
		source_url = EXCLUDED.source_url
`

const upsertEpisodeSQL = `
	INSERT INTO episode (podcast_slug, id, title, description, published, link, enclosure)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (podcast_slug, id) DO UPDATE SET
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		published = EXCLUDED.published,
		link = EXCLUDED.link,
		enclosure = EXCLUDED.enclosure
`

// FetchStates returns the last fetch time and known episode ids of every
// stored podcast.
func (r *SQLitePodcastRepository) FetchStates(ctx context.Context) (map[string]FetchState, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.slug, p.last_fetch, e.id
		FROM podcast p
		LEFT JOIN episode e ON e.podcast_slug = p.slug
		ORDER BY p.slug
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetch states: %w", err)
	}
	defer rows.Close()

	states := make(map[string]FetchState)
	for rows.Next() {
		var slug string
		var lastFetch, episodeID sql.NullString
		if err := rows.Scan(&slug, &lastFetch, &episodeID); err != nil {
			return nil, fmt.Errorf("failed to scan fetch state: %w", err)
		}

		state, ok := states[slug]
		if !ok {
			state.LastFetch, err = parseNullableTime(lastFetch)
			if err != nil {
				return nil, fmt.Errorf("podcast %s: %w", slug, err)
			}
		}
		if episodeID.Valid {
			state.EpisodeIDs = append(state.EpisodeIDs, episodeID.String)
		}
		states[slug] = state
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fetch states: %w", err)
	}

	return states, nil
}

// Merge upserts every podcast and its episodes in one transaction. Nothing
// is deleted, ordering of existing podcasts is left alone and the latest
// episode time only moves forward. Any failure rolls the whole merge back.
func (r *SQLitePodcastRepository) Merge(ctx context.Context, records []PodcastRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = errors.Join(err, fmt.Errorf("failed to roll back: %w", rollbackErr))
			}
		}
	}()

	podcastStmt, err := tx.PrepareContext(ctx, upsertPodcastSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare podcast upsert: %w", err)
	}
	defer podcastStmt.Close()

	episodeStmt, err := tx.PrepareContext(ctx, upsertEpisodeSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare episode upsert: %w", err)
	}
	defer episodeStmt.Close()

	for _, record := range records {
		p := record.Podcast
		_, err = podcastStmt.ExecContext(ctx,
			p.Slug, p.Title, p.Image, p.ImageTitle,
			formatTime(p.LastEpisode), formatNullableTime(p.LastFetch),
			p.Ordering, nullableString(p.SourceURL),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert podcast %s: %w", p.Slug, err)
		}

		for _, e := range record.Episodes {
			_, err = episodeStmt.ExecContext(ctx,
				p.Slug, e.ID, e.Title, e.Description,
				formatTime(e.Published), nullableString(e.Link), e.Enclosure,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert episode %s of %s: %w", e.ID, p.Slug, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merge: %w", err)
	}

	return nil
}

// SyncOrdering applies configured ordering to podcasts already stored.
// Podcasts not yet stored are left for their first merge.
func (r *SQLitePodcastRepository) SyncOrdering(ctx context.Context, ordering map[string]int) (int, error) {
	updated := 0
	for slug, position := range ordering {
		result, err := r.db.ExecContext(ctx,
			`UPDATE podcast SET ordering = ? WHERE slug = ? AND ordering != ?`,
			position, slug, position,
		)
		if err != nil {
			return updated, fmt.Errorf("failed to update ordering of %s: %w", slug, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return updated, fmt.Errorf("failed to read affected rows: %w", err)
		}
		updated += int(n)
	}

	return updated, nil
}

func (r *SQLitePodcastRepository) ListPodcasts(ctx context.Context) ([]Podcast, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+podcastColumns+`
		FROM podcast
		ORDER BY ordering, last_ep DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list podcasts: %w", err)
	}
	defer rows.Close()

	var podcasts []Podcast
	for rows.Next() {
		podcast, err := scanPodcast(rows)
		if err != nil {
			return nil, err
		}
		podcasts = append(podcasts, *podcast)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating podcast rows: %w", err)
	}

	return podcasts, nil
}

func (r *SQLitePodcastRepository) GetPodcast(ctx context.Context, slug string) (*Podcast, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+podcastColumns+`
		FROM podcast
		WHERE slug = ?
	`, slug)

	podcast, err := scanPodcast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return podcast, nil
}

func (r *SQLitePodcastRepository) ListEpisodes(ctx context.Context, slug string) ([]Episode, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT podcast_slug, id, title, description, published, link, enclosure
		FROM episode
		WHERE podcast_slug = ?
		ORDER BY published DESC, id
	`, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var episode Episode
		var published string
		var link sql.NullString
		err := rows.Scan(
			&episode.PodcastSlug, &episode.ID, &episode.Title, &episode.Description,
			&published, &link, &episode.Enclosure,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode row: %w", err)
		}

		episode.Published, err = parseTime(published)
		if err != nil {
			return nil, fmt.Errorf("episode %s: %w", episode.ID, err)
		}
		episode.Link = stringPointer(link)

		episodes = append(episodes, episode)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating episode rows: %w", err)
	}

	return episodes, nil
}

func (r *SQLitePodcastRepository) GetPodcastCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM podcast`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count podcasts: %w", err)
	}
	return count, nil
}

func (r *SQLitePodcastRepository) GetEpisodeCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM episode`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count episodes: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPodcast(row scanner) (*Podcast, error) {
	var podcast Podcast
	var lastEpisode string
	var lastFetch, sourceURL sql.NullString

	err := row.Scan(
		&podcast.Slug, &podcast.Title, &podcast.Image, &podcast.ImageTitle,
		&lastEpisode, &lastFetch, &podcast.Ordering, &sourceURL,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan podcast row: %w", err)
	}

	podcast.LastEpisode, err = parseTime(lastEpisode)
	if err != nil {
		return nil, fmt.Errorf("podcast %s: %w", podcast.Slug, err)
	}
	podcast.LastFetch, err = parseNullableTime(lastFetch)
	if err != nil {
		return nil, fmt.Errorf("podcast %s: %w", podcast.Slug, err)
	}
	podcast.SourceURL = stringPointer(sourceURL)

	return &podcast, nil
}
