package decisioning

import (
	"time"

	"github.com/slipstream/delaygate/internal/delayprofile"
	"github.com/slipstream/delaygate/internal/library/quality"
)

// evaluation carries the resolved policy through the admission steps.
type evaluation struct {
	in       Input
	snap     Snapshot
	upgrades UpgradeSpec
	comparer quality.Comparer
	delay    time.Duration
	mode     delayprofile.DelayMode
}

// admissionStep accepts the candidate when admits returns true.
type admissionStep struct {
	rule   Rule
	admits func(*evaluation) bool
}

// admissionSteps run in order; the first step that admits wins.
var admissionSteps = []admissionStep{
	{RuleZeroDelay, zeroDelay},
	{RuleRevisionUpgrade, revisionUpgrade},
	{RuleBestQuality, bestQuality},
	{RuleCutoffMet, cutoffMet},
	{RulePendingDelayElapsed, pendingDelayElapsed},
	{RuleDelayElapsed, delayElapsed},
}

// Evaluate decides whether a candidate is grabbed now or held. It reads
// only its arguments, so concurrent calls need no coordination.
func Evaluate(in Input, snap Snapshot, upgrades UpgradeSpec) (Decision, error) {
	if in.ManualSearch {
		return Accept(RuleManualSearch), nil
	}
	if in.QualityProfile == nil {
		return Decision{}, ErrNoQualityProfile
	}

	profile, err := snap.Profiles.ResolveApplicable(in.SeriesTags)
	if err != nil {
		return Decision{}, err
	}

	ev := &evaluation{
		in:       in,
		snap:     snap,
		upgrades: upgrades,
		comparer: quality.NewComparer(in.QualityProfile),
	}
	ev.delay, ev.mode = profile.DelayFor(in.Candidate.Protocol)

	for _, step := range admissionSteps {
		if step.admits(ev) {
			return Accept(step.rule), nil
		}
	}
	return Reject(RuleWithinDelay, ReasonWaitingForBetterQuality, RejectionTemporary), nil
}

func zeroDelay(ev *evaluation) bool {
	return ev.delay == 0
}

// revisionUpgrade admits propers and repacks of a file already on disk.
func revisionUpgrade(ev *evaluation) bool {
	candidate := ev.in.Candidate.Quality
	for _, ep := range ev.in.Candidate.Episodes {
		if ep.File == nil {
			continue
		}
		if ev.upgrades.IsUpgradable(ev.in.QualityProfile, *ep.File, candidate) &&
			ev.upgrades.IsRevisionUpgrade(*ep.File, candidate) {
			return true
		}
	}
	return false
}

// bestQuality admits releases nothing in the profile can beat. A profile
// with no allowed quality has no ceiling, so the step never admits.
func bestQuality(ev *evaluation) bool {
	best, ok := ev.in.QualityProfile.HighestAllowed()
	if !ok {
		return false
	}
	return ev.comparer.CompareModel(ev.in.Candidate.Quality, quality.NewModel(best)) >= 0
}

func cutoffMet(ev *evaluation) bool {
	if ev.mode != delayprofile.DelayModeCutoff {
		return false
	}
	cutoff, ok := ev.in.QualityProfile.CutoffQuality()
	if !ok {
		return false
	}
	return ev.comparer.CompareModel(ev.in.Candidate.Quality, quality.NewModel(cutoff)) >= 0
}

// pendingDelayElapsed admits the candidate once the oldest release held
// for any of the same episodes has waited longer than the delay.
func pendingDelayElapsed(ev *evaluation) bool {
	if ev.mode != delayprofile.DelayModeFirst {
		return false
	}

	episodeIDs := ev.in.Candidate.EpisodeIDs()
	var oldest time.Duration
	found := false
	for i := range ev.snap.Pending {
		held := &ev.snap.Pending[i]
		if held.SeriesID != ev.in.Candidate.SeriesID || !held.CoversAny(episodeIDs) {
			continue
		}
		if age := held.Age(ev.snap.Now); !found || age > oldest {
			oldest, found = age, true
		}
	}
	return found && oldest > ev.delay
}

func delayElapsed(ev *evaluation) bool {
	return ev.in.Candidate.Age(ev.snap.Now) >= ev.delay
}
