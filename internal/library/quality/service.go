package quality

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/slipstream/delaygate/internal/database/sqlc"
)

var (
	ErrProfileNotFound = errors.New("quality profile not found")
	ErrProfileInUse    = errors.New("quality profile is in use")
	ErrInvalidProfile  = errors.New("invalid quality profile")
)

// Service provides quality profile operations.
type Service struct {
	queries *sqlc.Queries
	logger  zerolog.Logger
}

// NewService creates a new quality profile service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		queries: sqlc.New(db),
		logger:  logger.With().Str("component", "quality").Logger(),
	}
}

// Get retrieves a quality profile by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Profile, error) {
	row, err := s.queries.GetQualityProfile(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get quality profile: %w", err)
	}
	return rowToProfile(row)
}

// List returns all quality profiles.
func (s *Service) List(ctx context.Context) ([]*Profile, error) {
	rows, err := s.queries.ListQualityProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quality profiles: %w", err)
	}

	profiles := make([]*Profile, 0, len(rows))
	for _, row := range rows {
		p, err := rowToProfile(row)
		if err != nil {
			s.logger.Warn().Err(err).Int64("id", row.ID).Msg("Failed to parse quality profile")
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// Create creates a new quality profile.
func (s *Service) Create(ctx context.Context, input CreateProfileInput) (*Profile, error) {
	candidate := Profile{Name: input.Name, Cutoff: input.Cutoff, Items: input.Items}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	itemsJSON, err := SerializeItems(input.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize items: %w", err)
	}

	row, err := s.queries.CreateQualityProfile(ctx, sqlc.CreateQualityProfileParams{
		Name:   input.Name,
		Cutoff: int64(input.Cutoff),
		Items:  itemsJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create quality profile: %w", err)
	}

	s.logger.Info().Int64("id", row.ID).Str("name", input.Name).Msg("Created quality profile")
	return rowToProfile(row)
}

// Update updates an existing quality profile.
func (s *Service) Update(ctx context.Context, id int64, input UpdateProfileInput) (*Profile, error) {
	candidate := Profile{Name: input.Name, Cutoff: input.Cutoff, Items: input.Items}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	itemsJSON, err := SerializeItems(input.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize items: %w", err)
	}

	row, err := s.queries.UpdateQualityProfile(ctx, sqlc.UpdateQualityProfileParams{
		ID:     id,
		Name:   input.Name,
		Cutoff: int64(input.Cutoff),
		Items:  itemsJSON,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update quality profile: %w", err)
	}

	s.logger.Info().Int64("id", id).Str("name", input.Name).Msg("Updated quality profile")
	return rowToProfile(row)
}

// Delete deletes a quality profile that no series uses.
func (s *Service) Delete(ctx context.Context, id int64) error {
	count, err := s.queries.CountSeriesUsingQualityProfile(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check profile usage: %w", err)
	}
	if count > 0 {
		return ErrProfileInUse
	}

	affected, err := s.queries.DeleteQualityProfile(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete quality profile: %w", err)
	}
	if affected == 0 {
		return ErrProfileNotFound
	}

	s.logger.Info().Int64("id", id).Msg("Deleted quality profile")
	return nil
}

// EnsureDefaults creates the built-in profiles when none exist.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	existing, err := s.queries.ListQualityProfiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list quality profiles: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, p := range []Profile{DefaultProfile(), HD1080pProfile(), Ultra4KProfile()} {
		if _, err := s.Create(ctx, CreateProfileInput{Name: p.Name, Cutoff: p.Cutoff, Items: p.Items}); err != nil {
			return fmt.Errorf("failed to create default profile %q: %w", p.Name, err)
		}
	}
	return nil
}

// GetQualities returns the predefined quality definitions.
func (s *Service) GetQualities() []Quality {
	return PredefinedQualities
}

func rowToProfile(row sqlc.QualityProfile) (*Profile, error) {
	items, err := DeserializeItems(row.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to parse items: %w", err)
	}
	return &Profile{
		ID:        row.ID,
		Name:      row.Name,
		Cutoff:    int(row.Cutoff),
		Items:     items,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
