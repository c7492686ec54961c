package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isstabb/InstaMod/automod/config"
	"github.com/isstabb/InstaMod/automod/cursorstore"
	"github.com/isstabb/InstaMod/automod/liststore"
	"github.com/isstabb/InstaMod/automod/profilestore"
	"github.com/isstabb/InstaMod/automod/rules"
	"github.com/isstabb/InstaMod/reddit"
)

var fixedNow = time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC)

func ptrInt64(v int64) *int64 { return &v }

func testConfig() *config.Community {
	return &config.Community{
		Name:  "testsub",
		Label: "test",
		Mods:  []string{"mod1"},
		Features: config.Features{
			ThreadLock:     true,
			CommunityLock:  true,
			Progression:    true,
			Tags:           true,
			ReadDirectives: true,
		},
		AccountAgeMonths:  2,
		TagExpirationDays: 30,
		Quality: config.Quality{
			PosKarma: ptrInt64(3),
			NegKarma: ptrInt64(-1),
		},
		Categories: config.Categories{
			Primary:   map[string]string{"TestSub": "test", "AskThings": "ask"},
			Secondary: map[string]string{"SideSub": "side"},
		},
		Tiers: []rules.TierRule{
			{
				Criteria: rules.Criteria{
					Metric:     "positive comments",
					Targets:    rules.TargetSet{Group: rules.GroupPrimary},
					Comparison: rules.GreaterThanEqualTo,
					Value:      2,
				},
				FlairText:   "regular",
				FlairCSS:    "gold",
				Permissions: rules.PermCustomFlair,
			},
			{
				Criteria:  rules.Criteria{Metric: rules.MetricElse},
				FlairText: "new here",
				FlairCSS:  "new",
			},
		},
		TagRules: []rules.TagRule{
			{
				Criteria: rules.Criteria{
					Metric:     "comment karma",
					Targets:    rules.TargetSet{Group: rules.GroupAll},
					Comparison: rules.GreaterThanEqualTo,
					Value:      5,
				},
				Sort:     rules.SortMostCommon,
				TagCap:   3,
				PreText:  "(",
				PostText: ")",
			},
		},
		ThreadLocks: []rules.LockRule{
			{
				Criteria: rules.Criteria{
					Metric:     "net QC",
					Targets:    rules.TargetSet{Group: rules.GroupPrimary},
					Comparison: rules.LessThanEqualTo,
					Value:      0,
				},
				FlairID: "Politics",
				Action:  rules.ActionRemove,
			},
		},
		StickyComment: "Commenting in this thread is restricted.",
		RemoveMessage: &config.RemoveMessage{
			Subject: "Comment removed",
			Body:    "Removed from {community}: {comment}",
		},
	}
}

func testEngine(t *testing.T) (*Engine, *FakeSource, *FakeExecutor) {
	t.Helper()
	src := NewFakeSource()
	exec := &FakeExecutor{Name: "instamod"}
	eng := New(Opts{
		Config:           testConfig(),
		Source:           src,
		Actions:          exec,
		Profiles:         profilestore.NewMemProfileStore(),
		Lists:            liststore.NewMemListStore(),
		Cursors:          cursorstore.NewMemCursorStore(),
		SelfName:         "instamod",
		Staleness:        90 * 24 * time.Hour,
		AnalysisCooldown: 7 * 24 * time.Hour,
		PostScanLimit:    25,
	})
	eng.now = func() time.Time { return fixedNow }
	return eng, src, exec
}

func seedAlice(src *FakeSource) {
	src.Users["alice"] = &reddit.UserSummary{
		Name:         "alice",
		CreatedAt:    time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		CommentKarma: 1000,
		PostKarma:    200,
	}
	src.UserCommentLogs["alice"] = []reddit.CommentItem{
		{ID: "c200", Author: "alice", Community: "TestSub", Score: 2, Body: "short", CreatedAt: time.Date(2019, 6, 25, 0, 0, 0, 0, time.UTC)},
		{ID: "c150", Author: "alice", Community: "OtherSub", Score: 7, Body: "elsewhere", CreatedAt: time.Date(2019, 2, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "c100", Author: "alice", Community: "TestSub", Score: 5, Body: "a long considered answer", CreatedAt: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	src.UserPostLogs["alice"] = []reddit.PostItem{
		{ID: "p200", Author: "alice", Community: "AskThings", Score: -2, CreatedAt: time.Date(2019, 6, 20, 0, 0, 0, 0, time.UTC)},
		{ID: "p100", Author: "alice", Community: "TestSub", Score: 10, CreatedAt: time.Date(2019, 1, 5, 0, 0, 0, 0, time.UTC)},
	}
}

func TestAnalyzeUserFreshStaleSplit(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, src, _ := testEngine(t)
	seedAlice(src)

	analysis, err := eng.AnalyzeUser(ctx, "alice")
	require.NoError(err)
	require.NotNil(analysis)

	eval := analysis.Profile
	assert.Equal(int64(7), eval.Counters.CommentKarma.Get("test"))
	assert.Equal(int64(2), eval.Counters.PosComments.Get("test"))
	// only the stale comment clears the quality-karma bar
	assert.Equal(int64(1), eval.Counters.PosQuality.Get("test"))
	assert.Equal(int64(10), eval.Counters.PostKarma.Get("test"))
	assert.Equal(int64(-2), eval.Counters.PostKarma.Get("ask"))
	assert.Equal(int64(1), eval.Counters.PosPosts.Get("test"))
	assert.Equal(int64(1), eval.Counters.NegPosts.Get("ask"))
	assert.Equal(int64(1200), eval.TotalKarma)

	// the unmapped community advances cursors but never counters
	assert.Equal(int64(0), eval.Counters.CommentKarma.SumOver([]string{"side"}))
	assert.Equal("c200", eval.LatestCommentID)
	assert.Equal("c150", eval.LatestStaleCommentID)
	assert.Equal("p200", eval.LatestPostID)
	assert.Equal("p100", eval.LatestStalePostID)

	// fresh comments are reported for lock enforcement
	require.Len(analysis.FreshComments, 1)
	assert.Equal("c200", analysis.FreshComments[0].ID)

	// the persisted record holds the stale window only
	stored, err := eng.profiles.Get(ctx, "testsub", "alice")
	require.NoError(err)
	require.NotNil(stored)
	assert.Equal(int64(5), stored.Counters.CommentKarma.Get("test"))
	assert.Equal(int64(1), stored.Counters.PosComments.Get("test"))
	assert.Equal(int64(0), stored.Counters.PostKarma.Get("ask"))
}

func TestAnalyzeUserRepeatIsStable(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, src, _ := testEngine(t)
	seedAlice(src)

	first, err := eng.AnalyzeUser(ctx, "alice")
	require.NoError(err)
	second, err := eng.AnalyzeUser(ctx, "alice")
	require.NoError(err)

	// the fresh window is re-scanned, never re-merged into the stored record
	assert.Equal(first.Profile.Counters, second.Profile.Counters)
	assert.Equal(first.Profile.LatestCommentID, second.Profile.LatestCommentID)
	assert.Equal(first.Profile.LatestStaleCommentID, second.Profile.LatestStaleCommentID)
}

func TestAnalyzeUserInaccessible(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	eng, _, _ := testEngine(t)
	analysis, err := eng.AnalyzeUser(ctx, "ghost")
	require.NoError(err)
	require.Nil(analysis)
}

func TestAnalyzeUserCursorFallback(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, src, _ := testEngine(t)
	seedAlice(src)

	first, err := eng.AnalyzeUser(ctx, "alice")
	require.NoError(err)

	// the stale comment anchor disappears; the stream is rebuilt from a full
	// listing without double counting
	src.GoneAnchors["c150"] = true
	second, err := eng.AnalyzeUser(ctx, "alice")
	require.NoError(err)

	assert.Equal(first.Profile.Counters, second.Profile.Counters)
	assert.Equal("c200", second.Profile.LatestCommentID)
	assert.Equal("c150", second.Profile.LatestStaleCommentID)
}

func TestAnalyzeUserAccruesNewStale(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, src, _ := testEngine(t)
	seedAlice(src)

	_, err := eng.AnalyzeUser(ctx, "alice")
	require.NoError(err)

	// time moves on; the fresh comment ages past the staleness threshold
	eng.now = func() time.Time { return fixedNow.Add(120 * 24 * time.Hour) }
	analysis, err := eng.AnalyzeUser(ctx, "alice")
	require.NoError(err)

	stored, err := eng.profiles.Get(ctx, "testsub", "alice")
	require.NoError(err)
	assert.Equal(int64(7), stored.Counters.CommentKarma.Get("test"))
	assert.Equal("c200", stored.LatestStaleCommentID)
	assert.Empty(analysis.FreshComments)
}
