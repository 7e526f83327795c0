package sqlc

import (
	"context"
	"database/sql"
)

const seriesColumns = `id, title, tvdb_id, quality_profile_id, tags, monitored, added_at`

func scanSeries(row interface{ Scan(...interface{}) error }) (Series, error) {
	var i Series
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.TvdbID,
		&i.QualityProfileID,
		&i.Tags,
		&i.Monitored,
		&i.AddedAt,
	)
	return i, err
}

const getSeries = `SELECT ` + seriesColumns + ` FROM series WHERE id = ?`

func (q *Queries) GetSeries(ctx context.Context, id int64) (Series, error) {
	return scanSeries(q.db.QueryRowContext(ctx, getSeries, id))
}

const seriesExists = `SELECT EXISTS(SELECT 1 FROM series WHERE id = ?)`

func (q *Queries) SeriesExists(ctx context.Context, id int64) (bool, error) {
	var exists int64
	err := q.db.QueryRowContext(ctx, seriesExists, id).Scan(&exists)
	return exists == 1, err
}

const listSeries = `SELECT ` + seriesColumns + ` FROM series ORDER BY title`

func (q *Queries) ListSeries(ctx context.Context) ([]Series, error) {
	rows, err := q.db.QueryContext(ctx, listSeries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Series
	for rows.Next() {
		i, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createSeries = `INSERT INTO series (title, tvdb_id, quality_profile_id, tags, monitored) VALUES (?, ?, ?, ?, ?)
RETURNING ` + seriesColumns

type CreateSeriesParams struct {
	Title            string        `json:"title"`
	TvdbID           sql.NullInt64 `json:"tvdb_id"`
	QualityProfileID int64         `json:"quality_profile_id"`
	Tags             string        `json:"tags"`
	Monitored        int64         `json:"monitored"`
}

func (q *Queries) CreateSeries(ctx context.Context, arg CreateSeriesParams) (Series, error) {
	row := q.db.QueryRowContext(ctx, createSeries,
		arg.Title,
		arg.TvdbID,
		arg.QualityProfileID,
		arg.Tags,
		arg.Monitored,
	)
	return scanSeries(row)
}

const updateSeriesTags = `UPDATE series SET tags = ? WHERE id = ?`

type UpdateSeriesTagsParams struct {
	Tags string `json:"tags"`
	ID   int64  `json:"id"`
}

func (q *Queries) UpdateSeriesTags(ctx context.Context, arg UpdateSeriesTagsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateSeriesTags, arg.Tags, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const episodeColumns = `id, series_id, season_number, episode_number, title, file_quality`

func scanEpisode(row interface{ Scan(...interface{}) error }) (Episode, error) {
	var i Episode
	err := row.Scan(
		&i.ID,
		&i.SeriesID,
		&i.SeasonNumber,
		&i.EpisodeNumber,
		&i.Title,
		&i.FileQuality,
	)
	return i, err
}

const createEpisode = `INSERT INTO episodes (series_id, season_number, episode_number, title) VALUES (?, ?, ?, ?)
RETURNING ` + episodeColumns

type CreateEpisodeParams struct {
	SeriesID      int64  `json:"series_id"`
	SeasonNumber  int64  `json:"season_number"`
	EpisodeNumber int64  `json:"episode_number"`
	Title         string `json:"title"`
}

func (q *Queries) CreateEpisode(ctx context.Context, arg CreateEpisodeParams) (Episode, error) {
	row := q.db.QueryRowContext(ctx, createEpisode, arg.SeriesID, arg.SeasonNumber, arg.EpisodeNumber, arg.Title)
	return scanEpisode(row)
}

const listEpisodesBySeries = `SELECT ` + episodeColumns + ` FROM episodes WHERE series_id = ?
ORDER BY season_number, episode_number`

func (q *Queries) ListEpisodesBySeries(ctx context.Context, seriesID int64) ([]Episode, error) {
	rows, err := q.db.QueryContext(ctx, listEpisodesBySeries, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Episode
	for rows.Next() {
		i, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getEpisodeByNumber = `SELECT ` + episodeColumns + ` FROM episodes
WHERE series_id = ? AND season_number = ? AND episode_number = ?`

type GetEpisodeByNumberParams struct {
	SeriesID      int64 `json:"series_id"`
	SeasonNumber  int64 `json:"season_number"`
	EpisodeNumber int64 `json:"episode_number"`
}

func (q *Queries) GetEpisodeByNumber(ctx context.Context, arg GetEpisodeByNumberParams) (Episode, error) {
	return scanEpisode(q.db.QueryRowContext(ctx, getEpisodeByNumber, arg.SeriesID, arg.SeasonNumber, arg.EpisodeNumber))
}

const setEpisodeFileQuality = `UPDATE episodes SET file_quality = ? WHERE id = ?`

type SetEpisodeFileQualityParams struct {
	FileQuality sql.NullString `json:"file_quality"`
	ID          int64          `json:"id"`
}

func (q *Queries) SetEpisodeFileQuality(ctx context.Context, arg SetEpisodeFileQualityParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setEpisodeFileQuality, arg.FileQuality, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
