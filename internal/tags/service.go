// Package tags manages the labels that link series to delay profiles.
package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/slipstream/delaygate/internal/database/sqlc"
)

var (
	ErrTagNotFound = errors.New("tag not found")
	ErrTagInUse    = errors.New("tag is in use")
	ErrInvalidTag  = errors.New("invalid tag")
)

// Tag is a lowercase label.
type Tag struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// Service provides tag operations.
type Service struct {
	queries *sqlc.Queries
	logger  zerolog.Logger
}

// NewService creates a new tag service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		queries: sqlc.New(db),
		logger:  logger.With().Str("component", "tags").Logger(),
	}
}

// List returns all tags ordered by label.
func (s *Service) List(ctx context.Context) ([]Tag, error) {
	rows, err := s.queries.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	tags := make([]Tag, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, Tag{ID: row.ID, Label: row.Label})
	}
	return tags, nil
}

// Get returns a tag by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Tag, error) {
	row, err := s.queries.GetTag(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &Tag{ID: row.ID, Label: row.Label}, nil
}

// Create returns the tag with label, creating it when it does not exist.
func (s *Service) Create(ctx context.Context, label string) (*Tag, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return nil, fmt.Errorf("%w: label is required", ErrInvalidTag)
	}

	existing, err := s.queries.GetTagByLabel(ctx, label)
	if err == nil {
		return &Tag{ID: existing.ID, Label: existing.Label}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up tag: %w", err)
	}

	row, err := s.queries.CreateTag(ctx, label)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	s.logger.Info().Int64("id", row.ID).Str("label", row.Label).Msg("Created tag")
	return &Tag{ID: row.ID, Label: row.Label}, nil
}

// Delete removes a tag that no delay profile or series references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	profiles, err := s.queries.CountDelayProfilesWithTag(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check tag usage: %w", err)
	}
	series, err := s.queries.CountSeriesWithTag(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check tag usage: %w", err)
	}
	if profiles > 0 || series > 0 {
		return fmt.Errorf("%w: %d delay profiles and %d series", ErrTagInUse, profiles, series)
	}

	if _, err := s.queries.DeleteTag(ctx, id); err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	s.logger.Info().Int64("id", id).Msg("Deleted tag")
	return nil
}
