package sqlc

import (
	"context"
)

const createTag = `INSERT INTO tags (label) VALUES (?) RETURNING id, label`

func (q *Queries) CreateTag(ctx context.Context, label string) (Tag, error) {
	row := q.db.QueryRowContext(ctx, createTag, label)
	var i Tag
	err := row.Scan(&i.ID, &i.Label)
	return i, err
}

const getTag = `SELECT id, label FROM tags WHERE id = ?`

func (q *Queries) GetTag(ctx context.Context, id int64) (Tag, error) {
	row := q.db.QueryRowContext(ctx, getTag, id)
	var i Tag
	err := row.Scan(&i.ID, &i.Label)
	return i, err
}

const getTagByLabel = `SELECT id, label FROM tags WHERE label = ?`

func (q *Queries) GetTagByLabel(ctx context.Context, label string) (Tag, error) {
	row := q.db.QueryRowContext(ctx, getTagByLabel, label)
	var i Tag
	err := row.Scan(&i.ID, &i.Label)
	return i, err
}

const listTags = `SELECT id, label FROM tags ORDER BY label`

func (q *Queries) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := q.db.QueryContext(ctx, listTags)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Tag
	for rows.Next() {
		var i Tag
		if err := rows.Scan(&i.ID, &i.Label); err != nil {
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

const countDelayProfilesWithTag = `SELECT COUNT(*) FROM delay_profiles, json_each(delay_profiles.tags) WHERE json_each.value = ?`

func (q *Queries) CountDelayProfilesWithTag(ctx context.Context, tagID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countDelayProfilesWithTag, tagID).Scan(&count)
	return count, err
}

const countSeriesWithTag = `SELECT COUNT(*) FROM series, json_each(series.tags) WHERE json_each.value = ?`

func (q *Queries) CountSeriesWithTag(ctx context.Context, tagID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countSeriesWithTag, tagID).Scan(&count)
	return count, err
}

const deleteTag = `DELETE FROM tags WHERE id = ?`

func (q *Queries) DeleteTag(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTag, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
