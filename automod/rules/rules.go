// Package rules holds the declarative rule types and the pure evaluation
// functions applied to a user profile's metric dictionary. Nothing in this
// package has side effects; decisions are returned to the engine.
package rules

import (
	"encoding/json"
	"fmt"
)

// Comparison is one of the six threshold operators. An operator this package
// does not recognize never matches.
type Comparison string

const (
	LessThan           Comparison = "LESS_THAN"
	GreaterThan        Comparison = "GREATER_THAN"
	EqualTo            Comparison = "EQUAL_TO"
	NotEqualTo         Comparison = "NOT_EQUAL_TO"
	GreaterThanEqualTo Comparison = "GREATER_THAN_EQUAL_TO"
	LessThanEqualTo    Comparison = "LESS_THAN_EQUAL_TO"
)

// Eval applies the comparison to (total, value). Unknown operators evaluate
// to false rather than erroring.
func (cmp Comparison) Eval(total, value int64) bool {
	switch cmp {
	case LessThan:
		return total < value
	case GreaterThan:
		return total > value
	case EqualTo:
		return total == value
	case NotEqualTo:
		return total != value
	case GreaterThanEqualTo:
		return total >= value
	case LessThanEqualTo:
		return total <= value
	}
	return false
}

// Named target groups. A TargetSet either names one of these or lists
// explicit category labels.
const (
	GroupPrimary   = "PRIMARY"
	GroupSecondary = "SECONDARY"
	GroupAll       = "ALL"
)

// TargetSet declares which category labels a rule aggregates over. In JSON it
// is either a group name string or an array of labels.
type TargetSet struct {
	Group  string
	Labels []string
}

func (ts *TargetSet) UnmarshalJSON(b []byte) error {
	var group string
	if err := json.Unmarshal(b, &group); err == nil {
		switch group {
		case GroupPrimary, GroupSecondary, GroupAll:
			ts.Group = group
			ts.Labels = nil
			return nil
		}
		return fmt.Errorf("unknown target group %q", group)
	}
	var labels []string
	if err := json.Unmarshal(b, &labels); err != nil {
		return fmt.Errorf("targets must be a group name or a label list")
	}
	ts.Group = ""
	ts.Labels = labels
	return nil
}

func (ts TargetSet) MarshalJSON() ([]byte, error) {
	if ts.Group != "" {
		return json.Marshal(ts.Group)
	}
	return json.Marshal(ts.Labels)
}

// Groups supplies the concrete labels behind the named target groups, from
// the community's category mapping.
type Groups struct {
	Primary   []string
	Secondary []string
}

// Resolve expands a target set into concrete category labels.
func (g Groups) Resolve(ts TargetSet) []string {
	switch ts.Group {
	case GroupPrimary:
		return g.Primary
	case GroupSecondary:
		return g.Secondary
	case GroupAll:
		out := make([]string, 0, len(g.Primary)+len(g.Secondary))
		out = append(out, g.Primary...)
		out = append(out, g.Secondary...)
		return out
	}
	return ts.Labels
}

// MetricElse is a catch-all metric name: a criteria using it always matches.
const MetricElse = "ELSE"

// Criteria is the evaluation core shared by all three rule families.
type Criteria struct {
	Metric     string     `json:"metric"`
	Targets    TargetSet  `json:"targets"`
	Comparison Comparison `json:"comparison"`
	Value      int64      `json:"value"`
}

// TierRule is one step of the ordered progression ladder. The first matching
// tier wins; later tiers are never applied.
type TierRule struct {
	Criteria
	FlairText   string `json:"flair_text"`
	FlairCSS    string `json:"flair_css"`
	Permissions string `json:"permissions"`
}

// Permissions granted by a matched tier.
const (
	PermCustomFlair = "CUSTOM_FLAIR"
	PermFlairIcons  = "FLAIR_ICONS"
)

// Tag extraction sort orders.
const (
	SortMostCommon  = "MOST_COMMON"
	SortLeastCommon = "LEAST_COMMON"
)

// TagRule extracts up to TagCap category labels from a per-category metric,
// each rendered as PreText+label+PostText by the caller.
type TagRule struct {
	Criteria
	Sort     string `json:"sort"`
	TagCap   int    `json:"tag_cap"`
	PreText  string `json:"pre_text"`
	PostText string `json:"post_text"`
}

// Lock actions.
const (
	ActionRemove = "REMOVE"
	ActionSpam   = "SPAM"
)

// LockRule decides removal of activity inside a locked context. Thread locks
// are keyed by the thread's flair (FlairID); community-wide locks by LockID.
type LockRule struct {
	Criteria
	FlairID string `json:"flair_id,omitempty"`
	LockID  string `json:"lock_id,omitempty"`
	Action  string `json:"action"`
}
