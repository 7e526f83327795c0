package sqlc

import (
	"context"
	"database/sql"
)

const delayProfileColumns = `id, preferred_protocol, usenet_delay, torrent_delay, usenet_delay_mode, torrent_delay_mode, sort_order, is_default, tags, created_at, updated_at`

func scanDelayProfile(row interface{ Scan(...interface{}) error }) (DelayProfile, error) {
	var i DelayProfile
	err := row.Scan(
		&i.ID,
		&i.PreferredProtocol,
		&i.UsenetDelay,
		&i.TorrentDelay,
		&i.UsenetDelayMode,
		&i.TorrentDelayMode,
		&i.SortOrder,
		&i.IsDefault,
		&i.Tags,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getDelayProfile = `SELECT ` + delayProfileColumns + ` FROM delay_profiles WHERE id = ?`

func (q *Queries) GetDelayProfile(ctx context.Context, id int64) (DelayProfile, error) {
	return scanDelayProfile(q.db.QueryRowContext(ctx, getDelayProfile, id))
}

const getDefaultDelayProfile = `SELECT ` + delayProfileColumns + ` FROM delay_profiles WHERE is_default = 1`

func (q *Queries) GetDefaultDelayProfile(ctx context.Context) (DelayProfile, error) {
	return scanDelayProfile(q.db.QueryRowContext(ctx, getDefaultDelayProfile))
}

const listDelayProfiles = `SELECT ` + delayProfileColumns + ` FROM delay_profiles
ORDER BY is_default ASC, sort_order ASC, id ASC`

func (q *Queries) ListDelayProfiles(ctx context.Context) ([]DelayProfile, error) {
	rows, err := q.db.QueryContext(ctx, listDelayProfiles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DelayProfile
	for rows.Next() {
		i, err := scanDelayProfile(rows)
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

const maxDelayProfileOrder = `SELECT COALESCE(MAX(sort_order), 0) FROM delay_profiles WHERE is_default = 0`

func (q *Queries) MaxDelayProfileOrder(ctx context.Context) (int64, error) {
	var maxOrder int64
	err := q.db.QueryRowContext(ctx, maxDelayProfileOrder).Scan(&maxOrder)
	return maxOrder, err
}

const createDelayProfile = `INSERT INTO delay_profiles (
    preferred_protocol, usenet_delay, torrent_delay, usenet_delay_mode, torrent_delay_mode, sort_order, is_default, tags
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + delayProfileColumns

type CreateDelayProfileParams struct {
	PreferredProtocol string        `json:"preferred_protocol"`
	UsenetDelay       int64         `json:"usenet_delay"`
	TorrentDelay      int64         `json:"torrent_delay"`
	UsenetDelayMode   string        `json:"usenet_delay_mode"`
	TorrentDelayMode  string        `json:"torrent_delay_mode"`
	SortOrder         sql.NullInt64 `json:"sort_order"`
	IsDefault         int64         `json:"is_default"`
	Tags              string        `json:"tags"`
}

func (q *Queries) CreateDelayProfile(ctx context.Context, arg CreateDelayProfileParams) (DelayProfile, error) {
	row := q.db.QueryRowContext(ctx, createDelayProfile,
		arg.PreferredProtocol,
		arg.UsenetDelay,
		arg.TorrentDelay,
		arg.UsenetDelayMode,
		arg.TorrentDelayMode,
		arg.SortOrder,
		arg.IsDefault,
		arg.Tags,
	)
	return scanDelayProfile(row)
}

const updateDelayProfile = `UPDATE delay_profiles SET
    preferred_protocol = ?,
    usenet_delay = ?,
    torrent_delay = ?,
    usenet_delay_mode = ?,
    torrent_delay_mode = ?,
    sort_order = ?,
    tags = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
RETURNING ` + delayProfileColumns

type UpdateDelayProfileParams struct {
	PreferredProtocol string        `json:"preferred_protocol"`
	UsenetDelay       int64         `json:"usenet_delay"`
	TorrentDelay      int64         `json:"torrent_delay"`
	UsenetDelayMode   string        `json:"usenet_delay_mode"`
	TorrentDelayMode  string        `json:"torrent_delay_mode"`
	SortOrder         sql.NullInt64 `json:"sort_order"`
	Tags              string        `json:"tags"`
	ID                int64         `json:"id"`
}

func (q *Queries) UpdateDelayProfile(ctx context.Context, arg UpdateDelayProfileParams) (DelayProfile, error) {
	row := q.db.QueryRowContext(ctx, updateDelayProfile,
		arg.PreferredProtocol,
		arg.UsenetDelay,
		arg.TorrentDelay,
		arg.UsenetDelayMode,
		arg.TorrentDelayMode,
		arg.SortOrder,
		arg.Tags,
		arg.ID,
	)
	return scanDelayProfile(row)
}

const setDelayProfileOrder = `UPDATE delay_profiles SET sort_order = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND is_default = 0`

type SetDelayProfileOrderParams struct {
	SortOrder int64 `json:"sort_order"`
	ID        int64 `json:"id"`
}

func (q *Queries) SetDelayProfileOrder(ctx context.Context, arg SetDelayProfileOrderParams) error {
	_, err := q.db.ExecContext(ctx, setDelayProfileOrder, arg.SortOrder, arg.ID)
	return err
}

const deleteDelayProfile = `DELETE FROM delay_profiles WHERE id = ? AND is_default = 0`

func (q *Queries) DeleteDelayProfile(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteDelayProfile, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
