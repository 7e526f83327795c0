package decisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/slipstream/delaygate/internal/delayprofile"
	"github.com/slipstream/delaygate/internal/downloader/types"
	"github.com/slipstream/delaygate/internal/library/quality"
	"github.com/slipstream/delaygate/internal/library/tv"
	"github.com/slipstream/delaygate/internal/metrics"
	"github.com/slipstream/delaygate/internal/pending"
)

// SeriesSource resolves series and their episodes.
type SeriesSource interface {
	GetSeries(ctx context.Context, id int64) (*tv.Series, error)
	Episodes(ctx context.Context, seriesID int64, ids ...int64) ([]tv.Episode, error)
}

// QualityProfiles resolves quality profiles by ID.
type QualityProfiles interface {
	Get(ctx context.Context, id int64) (*quality.Profile, error)
}

// DelayProfiles serves the current delay profile snapshot.
type DelayProfiles interface {
	Snapshot() delayprofile.Snapshot
}

// PendingSource lists the releases held for a series.
type PendingSource interface {
	GetPendingForSeries(ctx context.Context, seriesID int64) ([]pending.Release, error)
}

// Release is a parsed release as reported by an indexer.
type Release struct {
	SeriesID     int64          `json:"seriesId"`
	EpisodeIDs   []int64        `json:"episodeIds"`
	GUID         string         `json:"guid"`
	Title        string         `json:"title"`
	DownloadURL  string         `json:"downloadUrl"`
	Indexer      string         `json:"indexer,omitempty"`
	Protocol     types.Protocol `json:"protocol"`
	Quality      quality.Model  `json:"quality"`
	PublishDate  time.Time      `json:"publishDate"`
	ManualSearch bool           `json:"manualSearch,omitempty"`
}

// Result pairs a decision with the candidate it was made for.
type Result struct {
	Candidate Candidate `json:"candidate"`
	Decision  Decision  `json:"decision"`
}

// Engine gathers the state an evaluation needs and records its outcome.
type Engine struct {
	series   SeriesSource
	quality  QualityProfiles
	profiles DelayProfiles
	pending  PendingSource
	upgrades UpgradeSpec
	logger   zerolog.Logger
	now      func() time.Time
}

// NewEngine creates an engine over the given stores.
func NewEngine(
	series SeriesSource,
	qualityProfiles QualityProfiles,
	profiles DelayProfiles,
	pendingSource PendingSource,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		series:   series,
		quality:  qualityProfiles,
		profiles: profiles,
		pending:  pendingSource,
		upgrades: quality.UpgradeSpec{},
		logger:   logger.With().Str("component", "decisioning").Logger(),
		now:      time.Now,
	}
}

// SetClock replaces the clock used to age releases.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Evaluate decides whether r is grabbed now or held. Lookup failures are
// returned rather than turned into a decision.
func (e *Engine) Evaluate(ctx context.Context, r Release) (*Result, error) {
	in, snap, err := e.prepare(ctx, r)
	if err != nil {
		return nil, err
	}

	decision, err := Evaluate(in, snap, e.upgrades)
	if err != nil {
		metrics.RecordEvaluationError(errorStage(err))
		return nil, fmt.Errorf("evaluate %q: %w", r.Title, err)
	}

	metrics.RecordDecision(decision.Accepted, string(decision.Rule), string(r.Protocol))
	e.logger.Debug().
		Int64("seriesId", r.SeriesID).
		Str("title", r.Title).
		Str("quality", r.Quality.String()).
		Bool("accepted", decision.Accepted).
		Str("rule", string(decision.Rule)).
		Msg("Evaluated release")

	return &Result{Candidate: in.Candidate, Decision: decision}, nil
}

func (e *Engine) prepare(ctx context.Context, r Release) (Input, Snapshot, error) {
	if len(r.EpisodeIDs) == 0 {
		metrics.RecordEvaluationError("episodes")
		return Input{}, Snapshot{}, fmt.Errorf("evaluate %q: %w", r.Title, ErrNoEpisodes)
	}

	series, err := e.series.GetSeries(ctx, r.SeriesID)
	if err != nil {
		metrics.RecordEvaluationError("series")
		return Input{}, Snapshot{}, fmt.Errorf("load series %d: %w", r.SeriesID, err)
	}

	episodes, err := e.series.Episodes(ctx, r.SeriesID, r.EpisodeIDs...)
	if err != nil {
		metrics.RecordEvaluationError("episodes")
		return Input{}, Snapshot{}, fmt.Errorf("load episodes for series %d: %w", r.SeriesID, err)
	}

	profile, err := e.quality.Get(ctx, series.QualityProfileID)
	if err != nil {
		metrics.RecordEvaluationError("quality_profile")
		return Input{}, Snapshot{}, fmt.Errorf("load quality profile %d: %w", series.QualityProfileID, err)
	}

	held, err := e.pending.GetPendingForSeries(ctx, r.SeriesID)
	if err != nil {
		metrics.RecordEvaluationError("pending")
		return Input{}, Snapshot{}, fmt.Errorf("load pending releases for series %d: %w", r.SeriesID, err)
	}

	in := Input{
		Candidate: Candidate{
			SeriesID:    r.SeriesID,
			GUID:        r.GUID,
			Title:       r.Title,
			DownloadURL: r.DownloadURL,
			Indexer:     r.Indexer,
			Protocol:    r.Protocol,
			Quality:     r.Quality,
			PublishDate: r.PublishDate,
			Episodes:    episodes,
		},
		QualityProfile: profile,
		SeriesTags:     series.Tags,
		ManualSearch:   r.ManualSearch,
	}
	snap := Snapshot{
		Profiles: e.profiles.Snapshot(),
		Pending:  held,
		Now:      e.now(),
	}
	return in, snap, nil
}

func errorStage(err error) string {
	if errors.Is(err, delayprofile.ErrInvariantViolation) {
		return "delay_profile"
	}
	if errors.Is(err, ErrNoQualityProfile) {
		return "quality_profile"
	}
	return "unknown"
}
