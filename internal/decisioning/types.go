// Package decisioning decides whether a discovered release is grabbed now
// or held back in the hope of a better one.
package decisioning

import (
	"errors"
	"time"

	"github.com/slipstream/delaygate/internal/delayprofile"
	"github.com/slipstream/delaygate/internal/downloader/types"
	"github.com/slipstream/delaygate/internal/library/quality"
	"github.com/slipstream/delaygate/internal/library/tv"
	"github.com/slipstream/delaygate/internal/pending"
)

// ErrNoQualityProfile is returned when a candidate is evaluated without the
// series' quality profile.
var ErrNoQualityProfile = errors.New("quality profile is required for evaluation")

// ErrNoEpisodes is returned for releases not matched to any episode.
var ErrNoEpisodes = errors.New("release covers no episodes")

// ReasonWaitingForBetterQuality is the reason attached to held releases.
const ReasonWaitingForBetterQuality = "Waiting for better quality release"

// RejectionType tells the caller whether a rejected release may be retried.
type RejectionType string

const (
	// RejectionTemporary releases are re-evaluated on later cycles.
	RejectionTemporary RejectionType = "temporary"
	// RejectionPermanent releases are never retried.
	RejectionPermanent RejectionType = "permanent"
)

// Rule names the step that produced a decision.
type Rule string

const (
	RuleManualSearch        Rule = "manual_search"
	RuleZeroDelay           Rule = "zero_delay"
	RuleRevisionUpgrade     Rule = "revision_upgrade"
	RuleBestQuality         Rule = "best_quality"
	RuleCutoffMet           Rule = "cutoff_met"
	RulePendingDelayElapsed Rule = "pending_delay_elapsed"
	RuleDelayElapsed        Rule = "delay_elapsed"
	RuleWithinDelay         Rule = "within_delay"
)

// Decision is the outcome of evaluating one candidate.
type Decision struct {
	Accepted      bool          `json:"accepted"`
	Reason        string        `json:"reason,omitempty"`
	RejectionType RejectionType `json:"rejectionType,omitempty"`
	Rule          Rule          `json:"rule"`
}

// Accept returns an accepting decision.
func Accept(rule Rule) Decision {
	return Decision{Accepted: true, Rule: rule}
}

// Reject returns a rejecting decision.
func Reject(rule Rule, reason string, rejection RejectionType) Decision {
	return Decision{Reason: reason, RejectionType: rejection, Rule: rule}
}

// IsTemporary reports whether d is a rejection worth retrying.
func (d Decision) IsTemporary() bool {
	return !d.Accepted && d.RejectionType == RejectionTemporary
}

// Candidate is a discovered release matched to a series and its episodes.
type Candidate struct {
	SeriesID    int64          `json:"seriesId"`
	GUID        string         `json:"guid"`
	Title       string         `json:"title"`
	DownloadURL string         `json:"downloadUrl"`
	Indexer     string         `json:"indexer,omitempty"`
	Protocol    types.Protocol `json:"protocol"`
	Quality     quality.Model  `json:"quality"`
	PublishDate time.Time      `json:"publishDate"`
	Episodes    []tv.Episode   `json:"episodes"`
}

// Age returns the time since publication, never negative.
func (c *Candidate) Age(now time.Time) time.Duration {
	age := now.Sub(c.PublishDate)
	if age < 0 {
		return 0
	}
	return age
}

// EpisodeIDs returns the IDs of the covered episodes.
func (c *Candidate) EpisodeIDs() []int64 {
	ids := make([]int64, len(c.Episodes))
	for i := range c.Episodes {
		ids[i] = c.Episodes[i].ID
	}
	return ids
}

// Input is everything known about a candidate at evaluation time.
type Input struct {
	Candidate      Candidate
	QualityProfile *quality.Profile
	SeriesTags     []int64
	// ManualSearch marks evaluations triggered by a user search.
	ManualSearch bool
}

// Snapshot is the immutable state an evaluation reads.
type Snapshot struct {
	Profiles delayprofile.Snapshot
	// Pending holds the releases currently held for the candidate's series.
	Pending []pending.Release
	Now     time.Time
}

// UpgradeSpec decides whether a candidate improves on an existing file.
type UpgradeSpec interface {
	IsUpgradable(profile *quality.Profile, current, candidate quality.Model) bool
	IsRevisionUpgrade(current, candidate quality.Model) bool
}
