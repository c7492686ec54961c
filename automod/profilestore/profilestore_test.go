package profilestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isstabb/InstaMod/automod/profile"
)

func testProfile(username string, analyzedAt time.Time) *profile.Profile {
	p := profile.New("testsub", username)
	p.CreatedAt = time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC)
	p.AnalyzedAt = analyzedAt
	p.LatestCommentID = "e5q9z"
	p.LatestPostID = "9xyz1"
	p.TotalCommentKarma = 1200
	p.TotalPostKarma = 300
	p.TotalKarma = 1500
	p.Counters.CommentKarma.Add("general", 700)
	p.Counters.CommentKarma.Add("meta", 500)
	p.Counters.PosQuality.Add("general", 3)
	return p
}

func TestMemProfileStoreRoundTrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	s := NewMemProfileStore()

	out, err := s.Get(ctx, "testsub", "nobody")
	require.NoError(err)
	assert.Nil(out)

	p := testProfile("alice", time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(s.Put(ctx, p))

	out, err = s.Get(ctx, "testsub", "alice")
	require.NoError(err)
	require.NotNil(out)
	assert.Equal(p, out)

	// same user in another community is a separate record
	out, err = s.Get(ctx, "othersub", "alice")
	require.NoError(err)
	assert.Nil(out)

	// mutating the returned record must not affect the stored copy
	out, err = s.Get(ctx, "testsub", "alice")
	require.NoError(err)
	out.Counters.CommentKarma.Add("general", 100)
	again, err := s.Get(ctx, "testsub", "alice")
	require.NoError(err)
	assert.Equal(int64(700), again.Counters.CommentKarma.Get("general"))
}

func TestMemProfileStoreFullReplace(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	s := NewMemProfileStore()
	require.NoError(s.Put(ctx, testProfile("alice", time.Now())))

	replacement := profile.New("testsub", "alice")
	replacement.AnalyzedAt = time.Now()
	require.NoError(s.Put(ctx, replacement))

	out, err := s.Get(ctx, "testsub", "alice")
	require.NoError(err)
	require.NotNil(out)
	assert.Equal(int64(0), out.TotalKarma)
	assert.Equal("", out.LatestCommentID)
	assert.Empty(out.Counters.CommentKarma)
}

func TestMemProfileStoreOldest(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	s := NewMemProfileStore()

	username, err := s.Oldest(ctx, "testsub")
	require.NoError(err)
	assert.Equal("", username)

	require.NoError(s.Put(ctx, testProfile("bob", time.Date(2019, 6, 2, 0, 0, 0, 0, time.UTC))))
	require.NoError(s.Put(ctx, testProfile("alice", time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(s.Put(ctx, testProfile("carol", time.Date(2019, 6, 3, 0, 0, 0, 0, time.UTC))))

	username, err = s.Oldest(ctx, "testsub")
	require.NoError(err)
	assert.Equal("alice", username)

	require.NoError(s.Delete(ctx, "testsub", "alice"))
	username, err = s.Oldest(ctx, "testsub")
	require.NoError(err)
	assert.Equal("bob", username)
}

func TestMemProfileStoreListAnalyzedBefore(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	s := NewMemProfileStore()
	require.NoError(s.Put(ctx, testProfile("alice", time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(s.Put(ctx, testProfile("bob", time.Date(2019, 2, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(s.Put(ctx, testProfile("carol", time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC))))

	stale, err := s.ListAnalyzedBefore(ctx, "testsub", time.Date(2019, 2, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(err)
	assert.Equal([]string{"alice", "bob"}, stale)

	none, err := s.ListAnalyzedBefore(ctx, "othersub", time.Date(2019, 2, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(err)
	assert.Empty(none)
}

func TestProfileRowConversion(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	p := testProfile("alice", time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC))
	row := profileToRow(p)
	assert.Equal("general 700 meta 500", row.CommentKarma)
	assert.Equal("", row.NegComments)

	back, err := rowToProfile(row)
	require.NoError(err)
	assert.Equal(p, back)
}

func TestProfileRowConversionCorrupt(t *testing.T) {
	require := require.New(t)

	row := profileToRow(testProfile("alice", time.Now()))
	row.PosQuality = "general"
	_, err := rowToProfile(row)
	require.Error(err)
}
