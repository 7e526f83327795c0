// Package rsssync feeds discovered releases through the decision engine,
// grabs admitted ones and keeps held ones until their delay runs out.
package rsssync

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/slipstream/delaygate/internal/decisioning"
	"github.com/slipstream/delaygate/internal/downloader/types"
	"github.com/slipstream/delaygate/internal/metrics"
	"github.com/slipstream/delaygate/internal/pending"
)

const (
	SourceDiscovery = "discovery"
	SourcePending   = "pending"

	defaultConcurrency = 4
)

var (
	ErrNoClient       = errors.New("no download client for protocol")
	ErrAlreadyRunning = errors.New("pending re-evaluation already running")
)

// Evaluator decides on a single release.
type Evaluator interface {
	Evaluate(ctx context.Context, r decisioning.Release) (*decisioning.Result, error)
}

// PendingStore holds temporarily rejected releases.
type PendingStore interface {
	Add(ctx context.Context, r pending.Release) (*pending.Release, error)
	List(ctx context.Context) ([]pending.Release, error)
	Remove(ctx context.Context, id int64) error
	RemoveForEpisodes(ctx context.Context, seriesID int64, episodeIDs []int64) (int, error)
}

// Grabber sends an admitted release to a download client.
type Grabber interface {
	Protocol() types.Protocol
	Add(ctx context.Context, opts *types.AddOptions) (string, error)
}

// Broadcaster publishes realtime events.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// CycleStatus summarizes one processing run.
type CycleStatus struct {
	CycleID   string    `json:"cycleId"`
	Source    string    `json:"source"`
	Running   bool      `json:"running"`
	LastRun   time.Time `json:"lastRun,omitempty"`
	Evaluated int       `json:"evaluated"`
	Accepted  int       `json:"accepted"`
	Held      int       `json:"held"`
	Rejected  int       `json:"rejected"`
	Grabbed   int       `json:"grabbed"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	ElapsedMs int       `json:"elapsed"`
	Error     string    `json:"error,omitempty"`
}

func (c *CycleStatus) merge(o *CycleStatus) {
	c.Evaluated += o.Evaluated
	c.Accepted += o.Accepted
	c.Held += o.Held
	c.Rejected += o.Rejected
	c.Grabbed += o.Grabbed
	c.Skipped += o.Skipped
	c.Failed += o.Failed
}

// Service processes discovered and held releases.
type Service struct {
	engine      Evaluator
	pending     PendingStore
	grabbers    map[types.Protocol]Grabber
	grabLock    *decisioning.GrabLock
	hub         Broadcaster
	logger      zerolog.Logger
	concurrency int

	running atomic.Bool
	mu      sync.RWMutex
	status  CycleStatus
}

// NewService creates a release processing service. concurrency bounds how
// many series are processed at once; values below one use the default.
func NewService(
	engine Evaluator,
	pendingStore PendingStore,
	grabLock *decisioning.GrabLock,
	hub Broadcaster,
	logger zerolog.Logger,
	concurrency int,
	grabbers ...Grabber,
) *Service {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	byProtocol := make(map[types.Protocol]Grabber, len(grabbers))
	for _, g := range grabbers {
		byProtocol[g.Protocol()] = g
	}
	return &Service{
		engine:      engine,
		pending:     pendingStore,
		grabbers:    byProtocol,
		grabLock:    grabLock,
		hub:         hub,
		logger:      logger.With().Str("component", "processor").Logger(),
		concurrency: concurrency,
	}
}

// IsRunning returns whether a pending re-evaluation is in progress.
func (s *Service) IsRunning() bool {
	return s.running.Load()
}

// LastStatus returns the status of the last completed run.
func (s *Service) LastStatus() CycleStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.Running = s.running.Load()
	return st
}

// Process evaluates newly discovered releases. Accepted releases are grabbed,
// temporarily rejected ones are held and permanently rejected ones dropped.
// Series are processed concurrently; releases of one series run in order of
// descending quality so the best release claims its episodes first.
func (s *Service) Process(ctx context.Context, releases []decisioning.Release) (CycleStatus, error) {
	return s.run(ctx, SourceDiscovery, groupReleases(releases), s.processDiscovered)
}

// ProcessPending re-evaluates every held release with its current age and
// grabs those that are now admitted.
func (s *Service) ProcessPending(ctx context.Context) (CycleStatus, error) {
	if !s.running.CompareAndSwap(false, true) {
		return CycleStatus{}, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	held, err := s.pending.List(ctx)
	if err != nil {
		return CycleStatus{}, fmt.Errorf("failed to list pending releases: %w", err)
	}
	metrics.SetPendingReleases(len(held))

	groups := make([]seriesGroup, 0)
	index := make(map[int64]int)
	for i := range held {
		r := &held[i]
		pos, ok := index[r.SeriesID]
		if !ok {
			pos = len(groups)
			index[r.SeriesID] = pos
			groups = append(groups, seriesGroup{seriesID: r.SeriesID})
		}
		groups[pos].held = append(groups[pos].held, *r)
	}

	status, err := s.run(ctx, SourcePending, groups, s.processHeld)

	if remaining, listErr := s.pending.List(ctx); listErr == nil {
		metrics.SetPendingReleases(len(remaining))
	}
	return status, err
}

// runPending runs ProcessPending for callers that do not wait on the result.
func (s *Service) runPending(ctx context.Context) {
	_, err := s.ProcessPending(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyRunning):
		s.logger.Info().Msg("Pending re-evaluation already running")
	default:
		s.logger.Error().Err(err).Msg("Pending re-evaluation failed")
	}
}

type seriesGroup struct {
	seriesID   int64
	discovered []decisioning.Release
	held       []pending.Release
}

type groupFunc func(ctx context.Context, cycleID string, g *seriesGroup, logger zerolog.Logger) *CycleStatus

func (s *Service) run(ctx context.Context, source string, groups []seriesGroup, fn groupFunc) (CycleStatus, error) {
	start := time.Now()
	cycleID := uuid.NewString()
	logger := s.logger.With().Str("cycleId", cycleID).Str("source", source).Logger()

	total := CycleStatus{CycleID: cycleID, Source: source, LastRun: start}
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)
	for i := range groups {
		g := &groups[i]
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			result := fn(egCtx, cycleID, g, logger)
			mu.Lock()
			total.merge(result)
			mu.Unlock()
			return nil
		})
	}
	err := eg.Wait()

	total.ElapsedMs = int(time.Since(start).Milliseconds())
	if err != nil {
		total.Error = err.Error()
	}
	s.setStatus(total)
	s.broadcast(EventCycleCompleted, CycleCompletedEvent{CycleStatus: total})

	logger.Info().
		Int("series", len(groups)).
		Int("evaluated", total.Evaluated).
		Int("accepted", total.Accepted).
		Int("held", total.Held).
		Int("grabbed", total.Grabbed).
		Int("failed", total.Failed).
		Int("elapsedMs", total.ElapsedMs).
		Msg("Release processing completed")

	return total, err
}

func (s *Service) processDiscovered(ctx context.Context, cycleID string, g *seriesGroup, logger zerolog.Logger) *CycleStatus {
	result := &CycleStatus{}
	logger = logger.With().Int64("seriesId", g.seriesID).Logger()

	// Discovered releases exist only in this call, so wait for the lock
	// rather than drop them.
	key := decisioning.SeriesKey(g.seriesID)
	if err := s.grabLock.Acquire(ctx, key); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Gave up waiting for grab lock")
		result.Failed += len(g.discovered)
		return result
	}
	defer s.grabLock.Release(key)

	releases := slices.Clone(g.discovered)
	slices.SortStableFunc(releases, func(a, b decisioning.Release) int {
		return compareQualityDesc(a.Quality.Quality.Weight, a.Quality.Revision.Version, b.Quality.Quality.Weight, b.Quality.Revision.Version)
	})

	claimed := make(map[int64]struct{})
	for i := range releases {
		if ctx.Err() != nil {
			return result
		}
		r := &releases[i]
		if allClaimed(claimed, r.EpisodeIDs) {
			logger.Debug().Str("title", r.Title).Msg("Skipping release: episodes already grabbed this cycle")
			result.Skipped++
			continue
		}

		res, err := s.engine.Evaluate(ctx, *r)
		if err != nil {
			logger.Warn().Err(err).Str("title", r.Title).Msg("Failed to evaluate release")
			result.Failed++
			continue
		}
		result.Evaluated++
		d := res.Decision

		switch {
		case d.Accepted:
			result.Accepted++
			_, grabbed := s.grabAndClear(ctx, r.SeriesID, r.EpisodeIDs, r.DownloadURL, r.Title, r.Protocol, SourceDiscovery, logger)
			if grabbed {
				result.Grabbed++
				claim(claimed, r.EpisodeIDs)
			} else {
				result.Failed++
			}
			s.broadcast(EventDecisionAccepted, decisionEvent(cycleID, r, d, grabbed))

		case d.IsTemporary():
			if _, err := s.pending.Add(ctx, toPending(r, d)); err != nil {
				logger.Warn().Err(err).Str("title", r.Title).Msg("Failed to hold release")
				result.Failed++
				continue
			}
			result.Held++
			logger.Debug().Str("title", r.Title).Str("reason", d.Reason).Msg("Holding release")
			s.broadcast(EventDecisionHeld, decisionEvent(cycleID, r, d, false))

		default:
			result.Rejected++
			logger.Debug().Str("title", r.Title).Str("reason", d.Reason).Msg("Dropping rejected release")
		}
	}
	return result
}

func (s *Service) processHeld(ctx context.Context, cycleID string, g *seriesGroup, logger zerolog.Logger) *CycleStatus {
	result := &CycleStatus{}
	logger = logger.With().Int64("seriesId", g.seriesID).Logger()

	key := decisioning.SeriesKey(g.seriesID)
	if !s.grabLock.TryAcquire(key) {
		logger.Debug().Str("key", key).Msg("Skipping series: grab lock held")
		result.Skipped += len(g.held)
		return result
	}
	defer s.grabLock.Release(key)

	held := slices.Clone(g.held)
	slices.SortStableFunc(held, func(a, b pending.Release) int {
		return compareQualityDesc(a.Quality.Quality.Weight, a.Quality.Revision.Version, b.Quality.Quality.Weight, b.Quality.Revision.Version)
	})

	claimed := make(map[int64]struct{})
	for i := range held {
		if ctx.Err() != nil {
			return result
		}
		h := &held[i]
		if allClaimed(claimed, h.EpisodeIDs) {
			result.Skipped++
			continue
		}

		res, err := s.engine.Evaluate(ctx, fromPending(h))
		if err != nil {
			logger.Warn().Err(err).Int64("pendingId", h.ID).Str("title", h.Title).Msg("Failed to re-evaluate pending release")
			result.Failed++
			continue
		}
		result.Evaluated++
		d := res.Decision

		switch {
		case d.Accepted:
			result.Accepted++
			removed, grabbed := s.grabAndClear(ctx, h.SeriesID, h.EpisodeIDs, h.DownloadURL, h.Title, h.Protocol, SourcePending, logger)
			if !grabbed {
				result.Failed++
				continue
			}
			result.Grabbed++
			claim(claimed, h.EpisodeIDs)
			s.broadcast(EventPendingGrabbed, PendingGrabbedEvent{
				CycleID:    cycleID,
				SeriesID:   h.SeriesID,
				GUID:       h.GUID,
				Title:      h.Title,
				EpisodeIDs: h.EpisodeIDs,
				Removed:    removed,
			})

		case d.IsTemporary():
			result.Held++

		default:
			result.Rejected++
			if err := s.pending.Remove(ctx, h.ID); err != nil && !errors.Is(err, pending.ErrReleaseNotFound) {
				logger.Warn().Err(err).Int64("pendingId", h.ID).Msg("Failed to remove rejected pending release")
			}
		}
	}
	return result
}

// grabAndClear sends a release to its download client and removes the held
// releases it supersedes. It returns how many held releases were removed
// and whether the grab succeeded.
func (s *Service) grabAndClear(
	ctx context.Context,
	seriesID int64,
	episodeIDs []int64,
	downloadURL, title string,
	protocol types.Protocol,
	source string,
	logger zerolog.Logger,
) (removed int, ok bool) {
	err := s.grab(ctx, downloadURL, title, protocol)
	metrics.RecordGrab(source, err)
	if err != nil {
		logger.Warn().Err(err).Str("title", title).Str("protocol", string(protocol)).Msg("Grab failed")
		return 0, false
	}

	removed, err = s.pending.RemoveForEpisodes(ctx, seriesID, episodeIDs)
	if err != nil {
		logger.Warn().Err(err).Str("title", title).Msg("Failed to clear superseded pending releases")
	}
	logger.Info().Str("title", title).Int("superseded", removed).Msg("Grabbed release")
	return removed, true
}

func (s *Service) grab(ctx context.Context, downloadURL, title string, protocol types.Protocol) error {
	client, ok := s.grabbers[protocol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoClient, protocol)
	}
	_, err := client.Add(ctx, &types.AddOptions{URL: downloadURL, Name: title})
	return err
}

func (s *Service) setStatus(status CycleStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *Service) broadcast(eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	if err := s.hub.Broadcast(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to broadcast processor event")
	}
}

// groupReleases groups releases by series, keeping first-seen order.
func groupReleases(releases []decisioning.Release) []seriesGroup {
	var groups []seriesGroup
	index := make(map[int64]int)
	for i := range releases {
		r := releases[i]
		pos, ok := index[r.SeriesID]
		if !ok {
			pos = len(groups)
			index[r.SeriesID] = pos
			groups = append(groups, seriesGroup{seriesID: r.SeriesID})
		}
		groups[pos].discovered = append(groups[pos].discovered, r)
	}
	return groups
}

func compareQualityDesc(weightA, revA, weightB, revB int) int {
	if c := cmp.Compare(weightB, weightA); c != 0 {
		return c
	}
	return cmp.Compare(revB, revA)
}

func allClaimed(claimed map[int64]struct{}, episodeIDs []int64) bool {
	if len(episodeIDs) == 0 {
		return false
	}
	for _, id := range episodeIDs {
		if _, ok := claimed[id]; !ok {
			return false
		}
	}
	return true
}

func claim(claimed map[int64]struct{}, episodeIDs []int64) {
	for _, id := range episodeIDs {
		claimed[id] = struct{}{}
	}
}

func toPending(r *decisioning.Release, d decisioning.Decision) pending.Release {
	return pending.Release{
		SeriesID:    r.SeriesID,
		GUID:        r.GUID,
		Title:       r.Title,
		DownloadURL: r.DownloadURL,
		Indexer:     r.Indexer,
		Protocol:    r.Protocol,
		Quality:     r.Quality,
		EpisodeIDs:  r.EpisodeIDs,
		PublishDate: r.PublishDate,
		Reason:      d.Reason,
	}
}

func fromPending(h *pending.Release) decisioning.Release {
	return decisioning.Release{
		SeriesID:    h.SeriesID,
		EpisodeIDs:  h.EpisodeIDs,
		GUID:        h.GUID,
		Title:       h.Title,
		DownloadURL: h.DownloadURL,
		Indexer:     h.Indexer,
		Protocol:    h.Protocol,
		Quality:     h.Quality,
		PublishDate: h.PublishDate,
	}
}

func decisionEvent(cycleID string, r *decisioning.Release, d decisioning.Decision, grabbed bool) DecisionEvent {
	return DecisionEvent{
		CycleID:  cycleID,
		SeriesID: r.SeriesID,
		GUID:     r.GUID,
		Title:    r.Title,
		Rule:     string(d.Rule),
		Reason:   d.Reason,
		Grabbed:  grabbed,
	}
}
