package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricLookup(t *testing.T) {
	assert := assert.New(t)

	p := New("testsub", "someone")
	p.TotalKarma = 3000
	p.Counters.PosQuality.Add("abc", 11)
	p.Counters.NegQuality.Add("abc", 1)

	v, ok := p.Metric(MetricNetQuality)
	assert.True(ok)
	assert.Equal(int64(10), v.ByCategory.Get("abc"))
	// absent label reads zero
	assert.Equal(int64(0), v.ByCategory.Get("missing"))

	v, ok = p.Metric(MetricTotalKarma)
	assert.True(ok)
	assert.Equal(int64(3000), v.Scalar)

	_, ok = p.Metric("no such metric")
	assert.False(ok)

	assert.True(IsScalar(MetricTotalCommentKarma))
	assert.False(IsScalar(MetricNetQuality))
}

func TestNetQualityTracksInputs(t *testing.T) {
	assert := assert.New(t)

	p := New("testsub", "someone")
	p.Counters.PosQuality.Add("abc", 2)

	v, _ := p.Metric(MetricNetQuality)
	assert.Equal(int64(2), v.ByCategory.Get("abc"))

	// mutate an input and re-read: net QC must follow
	p.Counters.NegQuality.Add("abc", 5)
	v, _ = p.Metric(MetricNetQuality)
	assert.Equal(int64(-3), v.ByCategory.Get("abc"))
}

func TestMaxItemID(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("abc", MaxItemID("", "abc"))
	assert.Equal("abc", MaxItemID("abc", ""))
	assert.Equal("f00d2", MaxItemID("f00d2", "zzz"))
	assert.Equal("e5q0m", MaxItemID("e5q0m", "e5p9z"))
	assert.Equal("e5q0m", MaxItemID("e5p9z", "e5q0m"))
}
