package tv

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/slipstream/delaygate/internal/database/sqlc"
	"github.com/slipstream/delaygate/internal/library/quality"
)

var (
	ErrSeriesNotFound  = errors.New("series not found")
	ErrEpisodeNotFound = errors.New("episode not found")
	ErrInvalidSeries   = errors.New("invalid series data")
)

// Service provides TV library operations.
type Service struct {
	db      *sql.DB
	queries *sqlc.Queries
	logger  zerolog.Logger
}

// NewService creates a new TV service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:      db,
		queries: sqlc.New(db),
		logger:  logger.With().Str("component", "tv").Logger(),
	}
}

// GetSeries retrieves a series by ID.
func (s *Service) GetSeries(ctx context.Context, id int64) (*Series, error) {
	row, err := s.queries.GetSeries(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeriesNotFound
		}
		return nil, fmt.Errorf("failed to get series: %w", err)
	}
	return rowToSeries(row)
}

// ListSeries returns every series ordered by title.
func (s *Service) ListSeries(ctx context.Context) ([]*Series, error) {
	rows, err := s.queries.ListSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}

	series := make([]*Series, 0, len(rows))
	for _, row := range rows {
		sr, err := rowToSeries(row)
		if err != nil {
			return nil, err
		}
		series = append(series, sr)
	}
	return series, nil
}

// CreateSeries adds a series to the library.
func (s *Service) CreateSeries(ctx context.Context, input CreateSeriesInput) (*Series, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidSeries)
	}
	if input.QualityProfileID == 0 {
		return nil, fmt.Errorf("%w: quality profile is required", ErrInvalidSeries)
	}

	tagsJSON, err := marshalTags(input.Tags)
	if err != nil {
		return nil, err
	}

	monitored := int64(0)
	if input.Monitored {
		monitored = 1
	}

	row, err := s.queries.CreateSeries(ctx, sqlc.CreateSeriesParams{
		Title:            input.Title,
		TvdbID:           sql.NullInt64{Int64: int64(input.TvdbID), Valid: input.TvdbID > 0},
		QualityProfileID: input.QualityProfileID,
		Tags:             tagsJSON,
		Monitored:        monitored,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create series: %w", err)
	}

	s.logger.Info().Int64("id", row.ID).Str("title", row.Title).Msg("Created series")
	return rowToSeries(row)
}

// UpdateTags replaces the tags of a series.
func (s *Service) UpdateTags(ctx context.Context, id int64, tags []int64) (*Series, error) {
	tagsJSON, err := marshalTags(tags)
	if err != nil {
		return nil, err
	}

	n, err := s.queries.UpdateSeriesTags(ctx, sqlc.UpdateSeriesTagsParams{Tags: tagsJSON, ID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to update series tags: %w", err)
	}
	if n == 0 {
		return nil, ErrSeriesNotFound
	}
	return s.GetSeries(ctx, id)
}

// AddEpisode adds an episode to a series.
func (s *Service) AddEpisode(ctx context.Context, seriesID int64, input CreateEpisodeInput) (*Episode, error) {
	if err := s.requireSeries(ctx, seriesID); err != nil {
		return nil, err
	}

	row, err := s.queries.CreateEpisode(ctx, sqlc.CreateEpisodeParams{
		SeriesID:      seriesID,
		SeasonNumber:  int64(input.SeasonNumber),
		EpisodeNumber: int64(input.EpisodeNumber),
		Title:         input.Title,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create episode: %w", err)
	}
	return rowToEpisode(row)
}

// GetEpisodeByNumber finds an episode by season and episode number.
func (s *Service) GetEpisodeByNumber(ctx context.Context, seriesID int64, season, episode int) (*Episode, error) {
	row, err := s.queries.GetEpisodeByNumber(ctx, sqlc.GetEpisodeByNumberParams{
		SeriesID:      seriesID,
		SeasonNumber:  int64(season),
		EpisodeNumber: int64(episode),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEpisodeNotFound
		}
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	return rowToEpisode(row)
}

// SetEpisodeFile records the quality of an imported file. A nil file clears it.
func (s *Service) SetEpisodeFile(ctx context.Context, episodeID int64, file *quality.Model) error {
	var fileQuality sql.NullString
	if file != nil {
		data, err := json.Marshal(file)
		if err != nil {
			return fmt.Errorf("failed to serialize file quality: %w", err)
		}
		fileQuality = sql.NullString{String: string(data), Valid: true}
	}

	n, err := s.queries.SetEpisodeFileQuality(ctx, sqlc.SetEpisodeFileQualityParams{
		FileQuality: fileQuality,
		ID:          episodeID,
	})
	if err != nil {
		return fmt.Errorf("failed to set episode file: %w", err)
	}
	if n == 0 {
		return ErrEpisodeNotFound
	}
	return nil
}

// Episodes returns the series' episodes. With ids given, only those
// episodes are returned; an id that does not belong to the series fails
// with ErrEpisodeNotFound.
func (s *Service) Episodes(ctx context.Context, seriesID int64, ids ...int64) ([]Episode, error) {
	if err := s.requireSeries(ctx, seriesID); err != nil {
		return nil, err
	}

	rows, err := s.queries.ListEpisodesBySeries(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}

	episodes := make([]Episode, 0, len(rows))
	for _, row := range rows {
		if len(ids) > 0 && !slices.Contains(ids, row.ID) {
			continue
		}
		ep, err := rowToEpisode(row)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, *ep)
	}

	if len(ids) > 0 && len(episodes) != len(compactIDs(ids)) {
		return nil, fmt.Errorf("%w: series %d has %d of %d requested episodes", ErrEpisodeNotFound, seriesID, len(episodes), len(compactIDs(ids)))
	}
	return episodes, nil
}

func (s *Service) requireSeries(ctx context.Context, seriesID int64) error {
	exists, err := s.queries.SeriesExists(ctx, seriesID)
	if err != nil {
		return fmt.Errorf("failed to check series: %w", err)
	}
	if !exists {
		return ErrSeriesNotFound
	}
	return nil
}

func compactIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func marshalTags(tags []int64) (string, error) {
	normalized := compactIDs(tags)
	if normalized == nil {
		normalized = []int64{}
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("failed to serialize tags: %w", err)
	}
	return string(data), nil
}

func rowToSeries(row sqlc.Series) (*Series, error) {
	var tags []int64
	if err := json.Unmarshal([]byte(row.Tags), &tags); err != nil {
		return nil, fmt.Errorf("series %d: failed to parse tags: %w", row.ID, err)
	}
	if tags == nil {
		tags = []int64{}
	}

	return &Series{
		ID:               row.ID,
		Title:            row.Title,
		TvdbID:           int(row.TvdbID.Int64),
		QualityProfileID: row.QualityProfileID,
		Tags:             tags,
		Monitored:        row.Monitored == 1,
		AddedAt:          row.AddedAt,
	}, nil
}

func rowToEpisode(row sqlc.Episode) (*Episode, error) {
	ep := &Episode{
		ID:            row.ID,
		SeriesID:      row.SeriesID,
		SeasonNumber:  int(row.SeasonNumber),
		EpisodeNumber: int(row.EpisodeNumber),
		Title:         row.Title,
	}
	if row.FileQuality.Valid {
		var file quality.Model
		if err := json.Unmarshal([]byte(row.FileQuality.String), &file); err != nil {
			return nil, fmt.Errorf("episode %d: failed to parse file quality: %w", row.ID, err)
		}
		ep.File = &file
	}
	return ep, nil
}
