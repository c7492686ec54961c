package profile

import (
	"strings"
	"time"

	"github.com/isstabb/InstaMod/automod/counters"
)

// Profile is the persisted analysis record for a single user in a single
// monitored community. Records are per-community because each community maps
// activity onto its own category labels. The stored counter set holds stale,
// already-merged history only; each cycle's fresh window is recomputed and
// merged in memory before rule evaluation, never persisted.
type Profile struct {
	Community  string
	Username   string
	CreatedAt  time.Time
	AnalyzedAt time.Time

	// Monotonic resumption cursors: the maximum item id seen in each stream.
	// The stale cursors trail the overall cursors; content between the two is
	// re-scanned every cycle until it ages past the staleness threshold.
	LatestCommentID      string
	LatestPostID         string
	LatestStaleCommentID string
	LatestStalePostID    string

	// Lifetime totals as reported by the platform, not derived from the
	// per-category counters.
	TotalCommentKarma int64
	TotalPostKarma    int64
	TotalKarma        int64

	Counters counters.CounterSet
}

func New(community, username string) *Profile {
	return &Profile{
		Community: community,
		Username:  username,
		Counters:  counters.NewCounterSet(),
	}
}

// Metric names understood by the rule engine. Names containing "total" are
// scalar; all others are per-category counters.
const (
	MetricCommentKarma      = "comment karma"
	MetricPostKarma         = "post karma"
	MetricPosComments       = "positive comments"
	MetricNegComments       = "negative comments"
	MetricPosPosts          = "positive posts"
	MetricNegPosts          = "negative posts"
	MetricPosQuality        = "positive QC"
	MetricNegQuality        = "negative QC"
	MetricNetQuality        = "net QC"
	MetricTotalCommentKarma = "total comment karma"
	MetricTotalPostKarma    = "total post karma"
	MetricTotalKarma        = "total karma"
)

// Value is one entry of the metric dictionary: either a scalar total or a
// per-category counter, depending on the metric name.
type Value struct {
	Scalar     int64
	ByCategory counters.CategoryCounter
}

// IsScalar reports whether the named metric is a scalar total rather than a
// per-category mapping.
func IsScalar(metric string) bool {
	return strings.Contains(metric, "total")
}

var knownMetrics = map[string]bool{
	MetricCommentKarma:      true,
	MetricPostKarma:         true,
	MetricPosComments:       true,
	MetricNegComments:       true,
	MetricPosPosts:          true,
	MetricNegPosts:          true,
	MetricPosQuality:        true,
	MetricNegQuality:        true,
	MetricNetQuality:        true,
	MetricTotalCommentKarma: true,
	MetricTotalPostKarma:    true,
	MetricTotalKarma:        true,
}

// KnownMetric reports whether the rule engine understands the metric name.
func KnownMetric(name string) bool {
	return knownMetrics[name]
}

// Metric looks up one named metric. Net quality is recomputed on every call.
func (p *Profile) Metric(name string) (Value, bool) {
	switch name {
	case MetricCommentKarma:
		return Value{ByCategory: p.Counters.CommentKarma}, true
	case MetricPostKarma:
		return Value{ByCategory: p.Counters.PostKarma}, true
	case MetricPosComments:
		return Value{ByCategory: p.Counters.PosComments}, true
	case MetricNegComments:
		return Value{ByCategory: p.Counters.NegComments}, true
	case MetricPosPosts:
		return Value{ByCategory: p.Counters.PosPosts}, true
	case MetricNegPosts:
		return Value{ByCategory: p.Counters.NegPosts}, true
	case MetricPosQuality:
		return Value{ByCategory: p.Counters.PosQuality}, true
	case MetricNegQuality:
		return Value{ByCategory: p.Counters.NegQuality}, true
	case MetricNetQuality:
		return Value{ByCategory: p.Counters.NetQuality()}, true
	case MetricTotalCommentKarma:
		return Value{Scalar: p.TotalCommentKarma}, true
	case MetricTotalPostKarma:
		return Value{Scalar: p.TotalPostKarma}, true
	case MetricTotalKarma:
		return Value{Scalar: p.TotalKarma}, true
	}
	return Value{}, false
}

// MaxItemID returns the larger of two base36 item ids. Ids are compared by
// length first, then lexicographically, which matches numeric base36 order for
// ids without leading zeros. An empty id loses to any non-empty id.
func MaxItemID(a, b string) string {
	if len(a) != len(b) {
		if len(a) > len(b) {
			return a
		}
		return b
	}
	if a > b {
		return a
	}
	return b
}
