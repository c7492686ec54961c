package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/isstabb/InstaMod/automod/counters"
	"github.com/isstabb/InstaMod/automod/profile"
	"github.com/isstabb/InstaMod/automod/text"
	"github.com/isstabb/InstaMod/reddit"
)

// Analysis is the outcome of one user analysis. Profile is the evaluation
// view: the persisted stale record with the current fresh window merged in.
// The persisted record never contains the fresh window; it is recomputed on
// every cycle until it ages past the staleness threshold.
type Analysis struct {
	Profile *profile.Profile
	// FreshComments are the user's comments newer than the staleness
	// threshold, for retroactive lock enforcement.
	FreshComments []reddit.CommentItem
}

// AnalyzeUser fetches the user's activity since the stored stale cursors,
// folds aged activity into the persisted record, and returns the merged
// evaluation view. Returns (nil, nil) when the account is inaccessible.
func (eng *Engine) AnalyzeUser(ctx context.Context, username string) (*Analysis, error) {
	summary, err := eng.source.UserSummary(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("fetching account summary: %w", err)
	}
	if summary == nil {
		eng.logger.Info("account inaccessible, skipping analysis", "user", username)
		return nil, nil
	}

	prev, err := eng.profiles.Get(ctx, eng.cfg.Name, username)
	if err != nil {
		return nil, fmt.Errorf("loading user record: %w", err)
	}

	now := eng.now()
	staleCutoff := now.Add(-eng.staleness)

	p := profile.New(eng.cfg.Name, username)
	p.CreatedAt = summary.CreatedAt
	p.AnalyzedAt = now
	p.TotalCommentKarma = summary.CommentKarma
	p.TotalPostKarma = summary.PostKarma
	p.TotalKarma = summary.CommentKarma + summary.PostKarma

	sinceComments, sincePosts := "", ""
	if prev != nil {
		p.Counters.Merge(prev.Counters)
		p.LatestCommentID = prev.LatestCommentID
		p.LatestPostID = prev.LatestPostID
		p.LatestStaleCommentID = prev.LatestStaleCommentID
		p.LatestStalePostID = prev.LatestStalePostID
		sinceComments = prev.LatestStaleCommentID
		sincePosts = prev.LatestStalePostID
	}

	comments, rescanned, err := eng.fetchUserComments(ctx, username, sinceComments)
	if err != nil {
		return nil, err
	}
	if rescanned {
		// the full listing covers everything again, so the accumulated
		// comment-stream counters must be rebuilt, not added to
		p.Counters.CommentKarma = counters.NewCategoryCounter()
		p.Counters.PosComments = counters.NewCategoryCounter()
		p.Counters.NegComments = counters.NewCategoryCounter()
		p.Counters.PosQuality = counters.NewCategoryCounter()
		p.Counters.NegQuality = counters.NewCategoryCounter()
		p.LatestCommentID = ""
		p.LatestStaleCommentID = ""
	}

	fresh := counters.NewCounterSet()
	var freshComments []reddit.CommentItem
	for _, c := range comments {
		p.LatestCommentID = profile.MaxItemID(p.LatestCommentID, c.ID)
		isStale := c.CreatedAt.Before(staleCutoff)
		if isStale {
			p.LatestStaleCommentID = profile.MaxItemID(p.LatestStaleCommentID, c.ID)
		} else {
			freshComments = append(freshComments, c)
		}
		label, ok := eng.cfg.LabelFor(c.Community)
		if !ok {
			continue
		}
		target := &p.Counters
		if !isStale {
			target = &fresh
		}
		eng.countComment(target, label, c)
	}

	posts, rescanned, err := eng.fetchUserPosts(ctx, username, sincePosts)
	if err != nil {
		return nil, err
	}
	if rescanned {
		p.Counters.PostKarma = counters.NewCategoryCounter()
		p.Counters.PosPosts = counters.NewCategoryCounter()
		p.Counters.NegPosts = counters.NewCategoryCounter()
		p.LatestPostID = ""
		p.LatestStalePostID = ""
		sincePosts = ""
	}
	for _, post := range posts {
		// listings can serve items at or below the requested anchor; stop
		// rather than double count
		if sincePosts != "" && profile.MaxItemID(post.ID, sincePosts) == sincePosts {
			break
		}
		p.LatestPostID = profile.MaxItemID(p.LatestPostID, post.ID)
		isStale := post.CreatedAt.Before(staleCutoff)
		if isStale {
			p.LatestStalePostID = profile.MaxItemID(p.LatestStalePostID, post.ID)
		}
		label, ok := eng.cfg.LabelFor(post.Community)
		if !ok {
			continue
		}
		target := &p.Counters
		if !isStale {
			target = &fresh
		}
		eng.countPost(target, label, post)
	}

	if err := eng.profiles.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("saving user record: %w", err)
	}

	eval := *p
	eval.Counters = p.Counters.Clone()
	eval.Counters.Merge(fresh)

	usersAnalyzedCount.WithLabelValues(eng.cfg.Name).Inc()
	return &Analysis{Profile: &eval, FreshComments: freshComments}, nil
}

// fetchUserComments retries once without a cursor when the anchored fetch
// reports the anchor item gone. The returned rescanned flag tells the caller
// the listing is a full history, not an increment.
func (eng *Engine) fetchUserComments(ctx context.Context, username, sinceID string) ([]reddit.CommentItem, bool, error) {
	items, err := eng.source.UserComments(ctx, username, sinceID)
	if errors.Is(err, reddit.ErrNotFound) && sinceID != "" {
		eng.logger.Warn("comment cursor vanished, re-scanning stream", "user", username, "cursor", sinceID)
		items, err = eng.source.UserComments(ctx, username, "")
		if err != nil {
			return nil, false, fmt.Errorf("fetching user comments: %w", err)
		}
		return items, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("fetching user comments: %w", err)
	}
	return items, false, nil
}

func (eng *Engine) fetchUserPosts(ctx context.Context, username, sinceID string) ([]reddit.PostItem, bool, error) {
	items, err := eng.source.UserPosts(ctx, username, sinceID)
	if errors.Is(err, reddit.ErrNotFound) && sinceID != "" {
		eng.logger.Warn("post cursor vanished, re-scanning stream", "user", username, "cursor", sinceID)
		items, err = eng.source.UserPosts(ctx, username, "")
		if err != nil {
			return nil, false, fmt.Errorf("fetching user posts: %w", err)
		}
		return items, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("fetching user posts: %w", err)
	}
	return items, false, nil
}

func (eng *Engine) countComment(cs *counters.CounterSet, label string, c reddit.CommentItem) {
	cs.CommentKarma.Add(label, c.Score)
	if c.Score > 0 {
		cs.PosComments.Add(label, 1)
	} else if c.Score < 0 {
		cs.NegComments.Add(label, 1)
	}

	q := eng.cfg.Quality
	if q.PosKarma != nil && c.Score >= *q.PosKarma {
		if q.PosWords == nil || text.CountWords(c.Body) >= *q.PosWords {
			cs.PosQuality.Add(label, 1)
		}
	}
	if q.NegKarma != nil && c.Score <= *q.NegKarma {
		if q.NegWords == nil || text.CountWords(c.Body) <= *q.NegWords {
			cs.NegQuality.Add(label, 1)
		}
	}
}

// Posts never contribute quality counts, only karma and the post tallies.
func (eng *Engine) countPost(cs *counters.CounterSet, label string, post reddit.PostItem) {
	cs.PostKarma.Add(label, post.Score)
	if post.Score > 0 {
		cs.PosPosts.Add(label, 1)
	} else if post.Score < 0 {
		cs.NegPosts.Add(label, 1)
	}
}
