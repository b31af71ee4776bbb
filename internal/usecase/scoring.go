package usecase

import (
	"time"

	"github.com/wavelead/crm-engine/internal/entity"
)

// Segment thresholds on the 0-100 score. The legacy pipeline never exposed
// its cutoffs, so these are the documented reconstruction: confirm with the
// product owner before treating them as ground truth.
const (
	HotThreshold  = 70
	WarmThreshold = 40
	ColdThreshold = 1
)

const (
	groupComponentMax      = entity.GroupBudgetMax
	engagementComponentMax = entity.BonusBudgetMax
	engagementComponentMin = entity.PenaltyBudgetMin
)

// ScoreConfig tunes the clamping behavior. The engagement clamp is advisory
// by default, matching the observed UI behavior.
type ScoreConfig struct {
	HardClampEngagement bool
}

// ComputeScore derives the 0-100 score and segment for one lead against a
// snapshot of the group and rule registries. Pure; the registries must not be
// mutated while a batch pass holds the snapshot.
func ComputeScore(lead *entity.Lead, groups []*entity.WhatsAppGroup, rules []*entity.EngagementRule, now time.Time, cfg ScoreConfig) entity.ScoreResult {
	group := groupComponent(lead, groups)
	engagement := engagementComponent(lead, rules, now)
	if cfg.HardClampEngagement {
		engagement = clamp(engagement, engagementComponentMin, engagementComponentMax)
	}

	score := clamp(group+engagement, 0, 100)

	return entity.ScoreResult{
		Score:               score,
		Segment:             segmentFor(score, lead.DoNotContact),
		GroupComponent:      group,
		EngagementComponent: engagement,
	}
}

// groupComponent sums registry values for every registered group name found
// in the lead's positive signal groups. Exact, case-sensitive match.
func groupComponent(lead *entity.Lead, groups []*entity.WhatsAppGroup) int {
	if len(lead.PositiveSignalGroups) == 0 || len(groups) == 0 {
		return 0
	}

	member := make(map[string]bool, len(lead.PositiveSignalGroups))
	for _, name := range lead.PositiveSignalGroups {
		member[name] = true
	}

	sum := 0
	for _, g := range groups {
		if member[g.GroupName] {
			sum += g.ScoreValue
		}
	}
	return clamp(sum, 0, groupComponentMax)
}

func engagementComponent(lead *entity.Lead, rules []*entity.EngagementRule, now time.Time) int {
	sum := 0
	for _, r := range rules {
		if !r.Active {
			continue
		}
		if r.Condition.Evaluate(lead, now) {
			sum += r.Points
		}
	}
	return sum
}

// segmentFor buckets the score. DoNotContact overrides to DEAD regardless.
func segmentFor(score int, doNotContact bool) entity.Segment {
	if doNotContact {
		return entity.SegmentDead
	}
	switch {
	case score >= HotThreshold:
		return entity.SegmentHot
	case score >= WarmThreshold:
		return entity.SegmentWarm
	case score >= ColdThreshold:
		return entity.SegmentCold
	default:
		return entity.SegmentDead
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
