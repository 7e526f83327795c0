package sqlc

import (
	"context"
	"time"
)

const pendingReleaseColumns = `id, series_id, guid, title, download_url, indexer, protocol, quality, episode_ids, publish_date, reason, added_at`

func scanPendingRelease(row interface{ Scan(...interface{}) error }) (PendingRelease, error) {
	var i PendingRelease
	err := row.Scan(
		&i.ID,
		&i.SeriesID,
		&i.Guid,
		&i.Title,
		&i.DownloadUrl,
		&i.Indexer,
		&i.Protocol,
		&i.Quality,
		&i.EpisodeIds,
		&i.PublishDate,
		&i.Reason,
		&i.AddedAt,
	)
	return i, err
}

func collectPendingReleases(rows interface {
	Next() bool
	Scan(...interface{}) error
	Close() error
	Err() error
}) ([]PendingRelease, error) {
	defer rows.Close()
	var items []PendingRelease
	for rows.Next() {
		i, err := scanPendingRelease(rows)
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

const getPendingRelease = `SELECT ` + pendingReleaseColumns + ` FROM pending_releases WHERE id = ?`

func (q *Queries) GetPendingRelease(ctx context.Context, id int64) (PendingRelease, error) {
	return scanPendingRelease(q.db.QueryRowContext(ctx, getPendingRelease, id))
}

const listPendingReleases = `SELECT ` + pendingReleaseColumns + ` FROM pending_releases ORDER BY series_id, publish_date`

func (q *Queries) ListPendingReleases(ctx context.Context) ([]PendingRelease, error) {
	rows, err := q.db.QueryContext(ctx, listPendingReleases)
	if err != nil {
		return nil, err
	}
	return collectPendingReleases(rows)
}

const listPendingReleasesBySeries = `SELECT ` + pendingReleaseColumns + ` FROM pending_releases
WHERE series_id = ?
ORDER BY publish_date`

func (q *Queries) ListPendingReleasesBySeries(ctx context.Context, seriesID int64) ([]PendingRelease, error) {
	rows, err := q.db.QueryContext(ctx, listPendingReleasesBySeries, seriesID)
	if err != nil {
		return nil, err
	}
	return collectPendingReleases(rows)
}

const upsertPendingRelease = `INSERT INTO pending_releases (
    series_id, guid, title, download_url, indexer, protocol, quality, episode_ids, publish_date, reason
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(guid) DO UPDATE SET
    title = excluded.title,
    download_url = excluded.download_url,
    indexer = excluded.indexer,
    quality = excluded.quality,
    episode_ids = excluded.episode_ids,
    reason = excluded.reason
RETURNING ` + pendingReleaseColumns

type UpsertPendingReleaseParams struct {
	SeriesID    int64     `json:"series_id"`
	Guid        string    `json:"guid"`
	Title       string    `json:"title"`
	DownloadUrl string    `json:"download_url"`
	Indexer     string    `json:"indexer"`
	Protocol    string    `json:"protocol"`
	Quality     string    `json:"quality"`
	EpisodeIds  string    `json:"episode_ids"`
	PublishDate time.Time `json:"publish_date"`
	Reason      string    `json:"reason"`
}

func (q *Queries) UpsertPendingRelease(ctx context.Context, arg UpsertPendingReleaseParams) (PendingRelease, error) {
	row := q.db.QueryRowContext(ctx, upsertPendingRelease,
		arg.SeriesID,
		arg.Guid,
		arg.Title,
		arg.DownloadUrl,
		arg.Indexer,
		arg.Protocol,
		arg.Quality,
		arg.EpisodeIds,
		arg.PublishDate,
		arg.Reason,
	)
	return scanPendingRelease(row)
}

const deletePendingRelease = `DELETE FROM pending_releases WHERE id = ?`

func (q *Queries) DeletePendingRelease(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePendingRelease, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
