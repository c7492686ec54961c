package rules

import (
	"github.com/isstabb/InstaMod/automod/counters"
	"github.com/isstabb/InstaMod/automod/profile"
)

// Candidate bound for MOST_COMMON tag extraction: only the five highest-ranked
// categories are considered before filtering. LEAST_COMMON instead considers
// the bottom TagCap categories. The asymmetry is inherited from the original
// rule design and kept as-is.
const mostCommonCandidates = 5

// Aggregate resolves a metric against a profile for the given criteria:
// scalar metrics are used as-is, per-category metrics are summed over the
// resolved target labels. Returns false for a metric the profile does not
// know.
func Aggregate(p *profile.Profile, c Criteria, g Groups) (int64, bool) {
	v, ok := p.Metric(c.Metric)
	if !ok {
		return 0, false
	}
	if profile.IsScalar(c.Metric) {
		return v.Scalar, true
	}
	return v.ByCategory.SumOver(g.Resolve(c.Targets)), true
}

// Match evaluates one criteria against a profile. The ELSE metric always
// matches; an unknown metric or comparison never does.
func (c Criteria) Match(p *profile.Profile, g Groups) bool {
	if c.Metric == MetricElse {
		return true
	}
	total, ok := Aggregate(p, c, g)
	if !ok {
		return false
	}
	return c.Comparison.Eval(total, c.Value)
}

// FirstMatchingTier walks the tiers in declared order and returns the first
// whose criteria matches. At most one tier applies per evaluation.
func FirstMatchingTier(p *profile.Profile, tiers []TierRule, g Groups) (TierRule, bool) {
	for _, tier := range tiers {
		if tier.Match(p, g) {
			return tier, true
		}
	}
	return TierRule{}, false
}

// ExtractTags returns the category labels a tag rule selects from the
// profile, in rank order. Candidacy is bounded by rank before filtering, so
// a label can miss out purely by rank even when its value would pass the
// comparison. Scalar metrics yield no tags.
func ExtractTags(p *profile.Profile, rule TagRule, g Groups) []string {
	if profile.IsScalar(rule.Metric) {
		return nil
	}
	v, ok := p.Metric(rule.Metric)
	if !ok {
		return nil
	}

	targets := make(map[string]bool)
	for _, label := range g.Resolve(rule.Targets) {
		targets[label] = true
	}

	var candidates []counters.Entry
	switch rule.Sort {
	case SortMostCommon:
		candidates = v.ByCategory.MostCommon(mostCommonCandidates)
	case SortLeastCommon:
		candidates = v.ByCategory.LeastCommon(rule.TagCap)
	default:
		return nil
	}

	var out []string
	for _, cand := range candidates {
		if len(out) >= rule.TagCap {
			break
		}
		if !targets[cand.Label] {
			continue
		}
		if rule.Comparison.Eval(cand.Count, rule.Value) {
			out = append(out, cand.Label)
		}
	}
	return out
}

// MatchLock evaluates a lock rule against a profile: true means the user's
// activity in the locked context violates the rule and the configured action
// should be taken.
func MatchLock(p *profile.Profile, rule LockRule, g Groups) bool {
	return rule.Match(p, g)
}
