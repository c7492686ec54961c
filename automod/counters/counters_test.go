package counters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryCounterBasics(t *testing.T) {
	assert := assert.New(t)

	c := NewCategoryCounter()
	assert.Equal(int64(0), c.Get("missing"))

	c.Add("abc", 5)
	c.Add("abc", -2)
	c.Add("xyz", 1)
	assert.Equal(int64(3), c.Get("abc"))
	assert.Equal(int64(4), c.SumOver([]string{"abc", "xyz", "missing"}))
}

func TestMergeOrderIndependent(t *testing.T) {
	assert := assert.New(t)

	base := CategoryCounter{"a": 1, "b": 2}
	d1 := CategoryCounter{"a": 3}
	d2 := CategoryCounter{"c": 7}

	left := base.Clone()
	left.Merge(d1)
	left.Merge(d2)

	right := base.Clone()
	right.Merge(d2)
	right.Merge(d1)

	assert.Equal(left, right)

	// merge is additive, not idempotent
	twice := base.Clone()
	twice.Merge(d1)
	twice.Merge(d1)
	assert.Equal(int64(7), twice.Get("a"))
}

func TestMostLeastCommonDeterministic(t *testing.T) {
	assert := assert.New(t)

	c := CategoryCounter{"b": 5, "a": 5, "c": 1, "d": 9}

	most := c.MostCommon(3)
	assert.Equal([]Entry{{"d", 9}, {"a", 5}, {"b", 5}}, most)

	least := c.LeastCommon(2)
	assert.Equal([]Entry{{"c", 1}, {"a", 5}}, least)

	all := c.MostCommon(-1)
	assert.Len(all, 4)
}

func TestCounterSetMerge(t *testing.T) {
	assert := assert.New(t)

	stale := NewCounterSet()
	stale.CommentKarma.Add("abc", 10)
	stale.PosQuality.Add("abc", 2)

	fresh := NewCounterSet()
	fresh.CommentKarma.Add("abc", 5)
	fresh.CommentKarma.Add("xyz", 1)
	fresh.NegQuality.Add("abc", 1)

	stale.Merge(fresh)
	assert.Equal(int64(15), stale.CommentKarma.Get("abc"))
	assert.Equal(int64(1), stale.CommentKarma.Get("xyz"))
	assert.Equal(int64(2), stale.PosQuality.Get("abc"))
	assert.Equal(int64(1), stale.NegQuality.Get("abc"))
}

func TestNetQualityDerived(t *testing.T) {
	assert := assert.New(t)

	s := NewCounterSet()
	assert.Equal(int64(0), s.NetQuality().Get("anything"))

	s.PosQuality.Add("abc", 11)
	assert.Equal(int64(11), s.NetQuality().Get("abc"))

	s.NegQuality.Add("abc", 1)
	assert.Equal(int64(10), s.NetQuality().Get("abc"))

	// label present only on the negative side still shows up
	s.NegQuality.Add("xyz", 4)
	assert.Equal(int64(-4), s.NetQuality().Get("xyz"))
}

func TestTokenRoundTrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	c := CategoryCounter{"askhist": 12, "ch": 3, "zero": 0, "neg": -7}
	parsed, err := ParseTokens(FormatTokens(c))
	require.NoError(err)
	assert.Equal(c, parsed)

	// empty round trip
	parsed, err = ParseTokens(FormatTokens(NewCategoryCounter()))
	require.NoError(err)
	assert.Empty(parsed)

	// absent label defaults to zero after parsing
	assert.Equal(int64(0), parsed.Get("whatever"))

	_, err = ParseTokens("abc 1 xyz")
	assert.Error(err)
	_, err = ParseTokens("abc one")
	assert.Error(err)
}
