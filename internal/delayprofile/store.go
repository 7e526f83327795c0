package delayprofile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/slipstream/delaygate/internal/database"
	"github.com/slipstream/delaygate/internal/database/sqlc"
	"github.com/slipstream/delaygate/internal/downloader/types"
)

var (
	// ErrInvariantViolation marks configuration states that must never occur.
	ErrInvariantViolation = errors.New("delay profile configuration invariant violated")
	ErrNoDefaultProfile   = fmt.Errorf("%w: no default delay profile", ErrInvariantViolation)
	ErrProtectedProfile   = fmt.Errorf("%w: the default delay profile cannot be deleted", ErrInvariantViolation)

	ErrProfileNotFound = errors.New("delay profile not found")
	ErrInvalidProfile  = errors.New("invalid delay profile")
)

// Store persists delay profiles and serves immutable snapshots of them.
// Edits hold the write lock while they persist and refresh the snapshot;
// readers only take the read lock long enough to copy the snapshot.
type Store struct {
	db      *sql.DB
	queries *sqlc.Queries
	logger  zerolog.Logger

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewStore creates a delay profile store. Call Load before serving reads.
func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:      db,
		queries: sqlc.New(db),
		logger:  logger.With().Str("component", "delayprofile").Logger(),
	}
}

// Load reads every profile into the snapshot. It fails when the default
// profile is missing.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

// EnsureDefault recreates the default profile when it is missing and loads the snapshot.
func (s *Store) EnsureDefault(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.queries.GetDefaultDelayProfile(ctx)
	if err == nil {
		return s.refreshLocked(ctx)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to get default delay profile: %w", err)
	}

	if _, err := s.queries.CreateDelayProfile(ctx, sqlc.CreateDelayProfileParams{
		PreferredProtocol: string(types.ProtocolUsenet),
		UsenetDelayMode:   string(DelayModeFirst),
		TorrentDelayMode:  string(DelayModeFirst),
		IsDefault:         1,
		Tags:              "[]",
	}); err != nil {
		return fmt.Errorf("failed to create default delay profile: %w", err)
	}
	s.logger.Info().Msg("Created default delay profile")
	return s.refreshLocked(ctx)
}

func (s *Store) refreshLocked(ctx context.Context) error {
	profiles, err := s.list(ctx)
	if err != nil {
		return err
	}
	snap := NewSnapshot(profiles)
	if _, ok := snap.Default(); !ok {
		return ErrNoDefaultProfile
	}
	s.snapshot = snap
	return nil
}

// Snapshot returns the current immutable view.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// ResolveApplicable resolves the profile for seriesTags against the current snapshot.
func (s *Store) ResolveApplicable(seriesTags []int64) (Profile, error) {
	return s.Snapshot().ResolveApplicable(seriesTags)
}

// List returns every profile in resolution order.
func (s *Store) List(ctx context.Context) ([]Profile, error) {
	profiles, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(profiles).Profiles(), nil
}

// AllForTags returns the profiles applicable to seriesTags, best first.
func (s *Store) AllForTags(seriesTags []int64) []Profile {
	return s.Snapshot().AllForTags(seriesTags)
}

// Get returns a single profile.
func (s *Store) Get(ctx context.Context, id int64) (*Profile, error) {
	row, err := s.queries.GetDelayProfile(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get delay profile: %w", err)
	}
	return rowToProfile(row)
}

// Add creates a tagged profile. Without an explicit order it is ranked last.
func (s *Store) Add(ctx context.Context, input Input) (*Profile, error) {
	input.normalize()
	if err := input.validate(false); err != nil {
		return nil, err
	}

	tagsJSON, err := json.Marshal(input.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize tags: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order := int64(0)
	if input.Order != nil {
		order = int64(*input.Order)
	} else {
		maxOrder, err := s.queries.MaxDelayProfileOrder(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read delay profile order: %w", err)
		}
		order = maxOrder + 1
	}

	row, err := s.queries.CreateDelayProfile(ctx, sqlc.CreateDelayProfileParams{
		PreferredProtocol: string(input.PreferredProtocol),
		UsenetDelay:       int64(input.UsenetDelay),
		TorrentDelay:      int64(input.TorrentDelay),
		UsenetDelayMode:   string(input.UsenetDelayMode),
		TorrentDelayMode:  string(input.TorrentDelayMode),
		SortOrder:         sql.NullInt64{Int64: order, Valid: true},
		Tags:              string(tagsJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create delay profile: %w", err)
	}

	if err := s.refreshLocked(ctx); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("id", row.ID).Int64("order", order).Ints64("tags", input.Tags).Msg("Created delay profile")
	return rowToProfile(row)
}

// Update replaces a profile's settings. The default profile keeps its
// Fallback order and may not gain tags.
func (s *Store) Update(ctx context.Context, id int64, input Input) (*Profile, error) {
	input.normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.queries.GetDelayProfile(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get delay profile: %w", err)
	}

	isDefault := existing.IsDefault == 1
	if err := input.validate(isDefault); err != nil {
		return nil, err
	}

	sortOrder := existing.SortOrder
	if !isDefault && input.Order != nil {
		sortOrder = sql.NullInt64{Int64: int64(*input.Order), Valid: true}
	}

	tagsJSON, err := json.Marshal(input.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize tags: %w", err)
	}

	row, err := s.queries.UpdateDelayProfile(ctx, sqlc.UpdateDelayProfileParams{
		ID:                id,
		PreferredProtocol: string(input.PreferredProtocol),
		UsenetDelay:       int64(input.UsenetDelay),
		TorrentDelay:      int64(input.TorrentDelay),
		UsenetDelayMode:   string(input.UsenetDelayMode),
		TorrentDelayMode:  string(input.TorrentDelayMode),
		SortOrder:         sortOrder,
		Tags:              string(tagsJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update delay profile: %w", err)
	}

	if err := s.refreshLocked(ctx); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("id", id).Bool("default", isDefault).Msg("Updated delay profile")
	return rowToProfile(row)
}

// Delete removes a profile. Deleting the default profile fails with
// ErrProtectedProfile and leaves the store unchanged.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.queries.GetDelayProfile(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to get delay profile: %w", err)
	}
	if existing.IsDefault == 1 {
		s.logger.Warn().Int64("id", id).Msg("Refused to delete default delay profile")
		return ErrProtectedProfile
	}

	if _, err := s.queries.DeleteDelayProfile(ctx, id); err != nil {
		return fmt.Errorf("failed to delete delay profile: %w", err)
	}

	if err := s.refreshLocked(ctx); err != nil {
		return err
	}

	s.logger.Info().Int64("id", id).Msg("Deleted delay profile")
	return nil
}

// Reorder moves profile id directly after afterID (or to the front when
// afterID is nil) and renumbers the ranked profiles from 1.
func (s *Store) Reorder(ctx context.Context, id int64, afterID *int64) ([]Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snapshot.Profiles()
	ranked := make([]Profile, 0, len(current))
	var moving *Profile
	for i := range current {
		switch {
		case current[i].IsDefault():
			if current[i].ID == id {
				return nil, fmt.Errorf("%w: the default profile always sorts last", ErrInvalidProfile)
			}
		case current[i].ID == id:
			moving = &current[i]
		default:
			ranked = append(ranked, current[i])
		}
	}
	if moving == nil {
		return nil, ErrProfileNotFound
	}

	insertAt := 0
	if afterID != nil {
		insertAt = -1
		for i := range ranked {
			if ranked[i].ID == *afterID {
				insertAt = i + 1
				break
			}
		}
		if insertAt < 0 {
			return nil, ErrProfileNotFound
		}
	}

	reordered := make([]Profile, 0, len(ranked)+1)
	reordered = append(reordered, ranked[:insertAt]...)
	reordered = append(reordered, *moving)
	reordered = append(reordered, ranked[insertAt:]...)

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		q := s.queries.WithTx(tx)
		for i := range reordered {
			if err := q.SetDelayProfileOrder(ctx, sqlc.SetDelayProfileOrderParams{
				ID:        reordered[i].ID,
				SortOrder: int64(i + 1),
			}); err != nil {
				return fmt.Errorf("failed to reorder delay profile %d: %w", reordered[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.refreshLocked(ctx); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("id", id).Msg("Reordered delay profiles")
	return s.snapshot.Profiles(), nil
}

func (s *Store) list(ctx context.Context) ([]Profile, error) {
	rows, err := s.queries.ListDelayProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list delay profiles: %w", err)
	}

	profiles := make([]Profile, 0, len(rows))
	for _, row := range rows {
		p, err := rowToProfile(row)
		if err != nil {
			return nil, fmt.Errorf("delay profile %d: %w", row.ID, err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, nil
}

func rowToProfile(row sqlc.DelayProfile) (*Profile, error) {
	var tags []int64
	if err := json.Unmarshal([]byte(row.Tags), &tags); err != nil {
		return nil, fmt.Errorf("failed to parse tags: %w", err)
	}

	order := Fallback
	if row.IsDefault == 0 && row.SortOrder.Valid {
		order = Ranked(int(row.SortOrder.Int64))
	}

	return &Profile{
		ID:                row.ID,
		PreferredProtocol: types.Protocol(row.PreferredProtocol),
		UsenetDelay:       int(row.UsenetDelay),
		TorrentDelay:      int(row.TorrentDelay),
		UsenetDelayMode:   DelayMode(row.UsenetDelayMode),
		TorrentDelayMode:  DelayMode(row.TorrentDelayMode),
		Order:             order,
		Tags:              normalizeTags(tags),
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}, nil
}
