package pending

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/slipstream/delaygate/internal/database"
	"github.com/slipstream/delaygate/internal/database/sqlc"
	"github.com/slipstream/delaygate/internal/downloader/types"
	"github.com/slipstream/delaygate/internal/library/tv"
)

var (
	ErrReleaseNotFound = errors.New("pending release not found")
	ErrInvalidRelease  = errors.New("invalid pending release")
)

// Store persists pending releases in SQLite.
type Store struct {
	db      *sql.DB
	queries *sqlc.Queries
	logger  zerolog.Logger
}

// NewStore creates a pending release store.
func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:      db,
		queries: sqlc.New(db),
		logger:  logger.With().Str("component", "pending").Logger(),
	}
}

// GetPendingForSeries returns the releases held for a series, oldest
// publish date first. The existence check and the read share one
// transaction, so the result never mixes two states of the table.
// It fails with tv.ErrSeriesNotFound for an unknown series.
func (s *Store) GetPendingForSeries(ctx context.Context, seriesID int64) ([]Release, error) {
	var releases []Release
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		q := s.queries.WithTx(tx)

		exists, err := q.SeriesExists(ctx, seriesID)
		if err != nil {
			return fmt.Errorf("failed to check series: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: %d", tv.ErrSeriesNotFound, seriesID)
		}

		rows, err := q.ListPendingReleasesBySeries(ctx, seriesID)
		if err != nil {
			return fmt.Errorf("failed to list pending releases: %w", err)
		}
		releases, err = rowsToReleases(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return releases, nil
}

// List returns every pending release.
func (s *Store) List(ctx context.Context) ([]Release, error) {
	rows, err := s.queries.ListPendingReleases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending releases: %w", err)
	}
	return rowsToReleases(rows)
}

// Get returns a single pending release.
func (s *Store) Get(ctx context.Context, id int64) (*Release, error) {
	row, err := s.queries.GetPendingRelease(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReleaseNotFound
		}
		return nil, fmt.Errorf("failed to get pending release: %w", err)
	}
	return rowToRelease(row)
}

// Add stores a held release, replacing an earlier entry with the same GUID.
// The original publish date of a replaced entry is kept. Releases without
// a GUID get a generated one.
func (s *Store) Add(ctx context.Context, r Release) (*Release, error) {
	if r.SeriesID == 0 {
		return nil, fmt.Errorf("%w: series is required", ErrInvalidRelease)
	}
	if len(r.EpisodeIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one episode is required", ErrInvalidRelease)
	}
	if r.GUID == "" {
		r.GUID = uuid.New().String()
	}

	qualityJSON, err := json.Marshal(r.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize quality: %w", err)
	}
	episodes := slices.Clone(r.EpisodeIDs)
	slices.Sort(episodes)
	episodesJSON, err := json.Marshal(slices.Compact(episodes))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize episodes: %w", err)
	}

	row, err := s.queries.UpsertPendingRelease(ctx, sqlc.UpsertPendingReleaseParams{
		SeriesID:    r.SeriesID,
		Guid:        r.GUID,
		Title:       r.Title,
		DownloadUrl: r.DownloadURL,
		Indexer:     r.Indexer,
		Protocol:    string(r.Protocol),
		Quality:     string(qualityJSON),
		EpisodeIds:  string(episodesJSON),
		PublishDate: r.PublishDate.UTC(),
		Reason:      r.Reason,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store pending release: %w", err)
	}

	s.logger.Debug().Int64("id", row.ID).Int64("seriesId", r.SeriesID).Str("title", r.Title).Msg("Stored pending release")
	return rowToRelease(row)
}

// Remove deletes a pending release.
func (s *Store) Remove(ctx context.Context, id int64) error {
	n, err := s.queries.DeletePendingRelease(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete pending release: %w", err)
	}
	if n == 0 {
		return ErrReleaseNotFound
	}
	return nil
}

// RemoveForEpisodes deletes every release of the series that covers any of
// episodeIDs and returns how many were removed.
func (s *Store) RemoveForEpisodes(ctx context.Context, seriesID int64, episodeIDs []int64) (int, error) {
	removed := 0
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		q := s.queries.WithTx(tx)

		rows, err := q.ListPendingReleasesBySeries(ctx, seriesID)
		if err != nil {
			return fmt.Errorf("failed to list pending releases: %w", err)
		}
		releases, err := rowsToReleases(rows)
		if err != nil {
			return err
		}

		for i := range releases {
			if !releases[i].CoversAny(episodeIDs) {
				continue
			}
			if _, err := q.DeletePendingRelease(ctx, releases[i].ID); err != nil {
				return fmt.Errorf("failed to delete pending release %d: %w", releases[i].ID, err)
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.logger.Debug().Int64("seriesId", seriesID).Int("removed", removed).Msg("Removed superseded pending releases")
	}
	return removed, nil
}

func rowsToReleases(rows []sqlc.PendingRelease) ([]Release, error) {
	releases := make([]Release, 0, len(rows))
	for _, row := range rows {
		r, err := rowToRelease(row)
		if err != nil {
			return nil, err
		}
		releases = append(releases, *r)
	}
	return releases, nil
}

func rowToRelease(row sqlc.PendingRelease) (*Release, error) {
	r := &Release{
		ID:          row.ID,
		SeriesID:    row.SeriesID,
		GUID:        row.Guid,
		Title:       row.Title,
		DownloadURL: row.DownloadUrl,
		Indexer:     row.Indexer,
		Protocol:    types.Protocol(row.Protocol),
		PublishDate: row.PublishDate,
		Reason:      row.Reason,
		AddedAt:     row.AddedAt,
	}
	if err := json.Unmarshal([]byte(row.Quality), &r.Quality); err != nil {
		return nil, fmt.Errorf("pending release %d: failed to parse quality: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.EpisodeIds), &r.EpisodeIDs); err != nil {
		return nil, fmt.Errorf("pending release %d: failed to parse episodes: %w", row.ID, err)
	}
	return r, nil
}
