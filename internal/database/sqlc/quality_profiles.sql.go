package sqlc

import (
	"context"
)

const qualityProfileColumns = `id, name, cutoff, items, created_at, updated_at`

func scanQualityProfile(row interface{ Scan(...interface{}) error }) (QualityProfile, error) {
	var i QualityProfile
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Cutoff,
		&i.Items,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getQualityProfile = `SELECT ` + qualityProfileColumns + ` FROM quality_profiles WHERE id = ?`

func (q *Queries) GetQualityProfile(ctx context.Context, id int64) (QualityProfile, error) {
	return scanQualityProfile(q.db.QueryRowContext(ctx, getQualityProfile, id))
}

const getQualityProfileByName = `SELECT ` + qualityProfileColumns + ` FROM quality_profiles WHERE name = ?`

func (q *Queries) GetQualityProfileByName(ctx context.Context, name string) (QualityProfile, error) {
	return scanQualityProfile(q.db.QueryRowContext(ctx, getQualityProfileByName, name))
}

const listQualityProfiles = `SELECT ` + qualityProfileColumns + ` FROM quality_profiles ORDER BY name`

func (q *Queries) ListQualityProfiles(ctx context.Context) ([]QualityProfile, error) {
	rows, err := q.db.QueryContext(ctx, listQualityProfiles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []QualityProfile
	for rows.Next() {
		i, err := scanQualityProfile(rows)
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

const createQualityProfile = `INSERT INTO quality_profiles (name, cutoff, items) VALUES (?, ?, ?)
RETURNING ` + qualityProfileColumns

type CreateQualityProfileParams struct {
	Name   string `json:"name"`
	Cutoff int64  `json:"cutoff"`
	Items  string `json:"items"`
}

func (q *Queries) CreateQualityProfile(ctx context.Context, arg CreateQualityProfileParams) (QualityProfile, error) {
	return scanQualityProfile(q.db.QueryRowContext(ctx, createQualityProfile, arg.Name, arg.Cutoff, arg.Items))
}

const updateQualityProfile = `UPDATE quality_profiles SET name = ?, cutoff = ?, items = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
RETURNING ` + qualityProfileColumns

type UpdateQualityProfileParams struct {
	Name   string `json:"name"`
	Cutoff int64  `json:"cutoff"`
	Items  string `json:"items"`
	ID     int64  `json:"id"`
}

func (q *Queries) UpdateQualityProfile(ctx context.Context, arg UpdateQualityProfileParams) (QualityProfile, error) {
	return scanQualityProfile(q.db.QueryRowContext(ctx, updateQualityProfile, arg.Name, arg.Cutoff, arg.Items, arg.ID))
}

const countSeriesUsingQualityProfile = `SELECT COUNT(*) FROM series WHERE quality_profile_id = ?`

func (q *Queries) CountSeriesUsingQualityProfile(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countSeriesUsingQualityProfile, id).Scan(&count)
	return count, err
}

const deleteQualityProfile = `DELETE FROM quality_profiles WHERE id = ?`

func (q *Queries) DeleteQualityProfile(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteQualityProfile, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
