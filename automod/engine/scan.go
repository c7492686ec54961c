package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/isstabb/InstaMod/automod/liststore"
	"github.com/isstabb/InstaMod/automod/profile"
	"github.com/isstabb/InstaMod/automod/rules"
	"github.com/isstabb/InstaMod/reddit"
)

// ScanCycle runs one full pass over the community: inbox directives, comment
// discovery, post scan, per-user analysis and badge assignment, lock
// enforcement, and the expired-record purge. Per-user failures are isolated;
// an error return means the whole cycle could not proceed.
func (eng *Engine) ScanCycle(ctx context.Context) error {
	start := time.Now()
	defer func() {
		scanCycleDuration.WithLabelValues(eng.cfg.Name).Observe(time.Since(start).Seconds())
		scanCycleCount.WithLabelValues(eng.cfg.Name).Inc()
	}()

	if err := eng.processDirectives(ctx); err != nil {
		eng.logger.Error("processing inbox directives failed", "err", err)
	}

	comments, err := eng.discoverComments(ctx)
	if err != nil {
		return err
	}

	eng.scanPosts(ctx)

	users := eng.distinctAuthors(comments)
	analyses := make(map[string]*Analysis)
	removed := make(map[string]bool)
	badges := newBadgeBatch()

	for _, username := range users {
		exempt, err := eng.isExempt(ctx, username)
		if err != nil {
			eng.logger.Error("exemption check failed", "user", username, "err", err)
			continue
		}
		if exempt {
			continue
		}

		prev, err := eng.profiles.Get(ctx, eng.cfg.Name, username)
		if err != nil {
			eng.logger.Error("loading user record failed", "user", username, "err", err)
			continue
		}
		if prev != nil && eng.now().Sub(prev.AnalyzedAt) < eng.analysisCooldown {
			// recently analyzed: no re-scan or badge churn, but the stored
			// record still backs lock enforcement
			analyses[username] = &Analysis{Profile: prev}
			continue
		}

		analysis := eng.analyzeUserSafe(ctx, username)
		if analysis == nil {
			continue
		}
		analyses[username] = analysis
		if err := eng.lists.Remove(ctx, eng.listName(liststore.ListExpired), username); err != nil {
			eng.logger.Error("expired-list cleanup failed", "user", username, "err", err)
		}

		eng.enforceLockedThreads(ctx, analysis, removed)
		eng.queueBadges(ctx, analysis, badges)
	}

	badges.flush(ctx, eng)
	eng.applyLocks(ctx, comments, analyses, removed)
	eng.purgeExpired(ctx)
	return nil
}

// discoverComments fetches community comments newer than the persisted scan
// cursor and advances it. A cursor pointing at a deleted comment resets to a
// full scan.
func (eng *Engine) discoverComments(ctx context.Context) ([]reddit.CommentItem, error) {
	cursor, err := eng.cursors.Get(ctx, eng.cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("loading scan cursor: %w", err)
	}
	if cursor != "" {
		exists, err := eng.source.CommentExists(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("verifying scan cursor: %w", err)
		}
		if !exists {
			eng.logger.Warn("scan cursor vanished, re-scanning community", "cursor", cursor)
			cursor = ""
		}
	}

	comments, err := eng.source.CommunityComments(ctx, eng.cfg.Name, cursor)
	if err != nil {
		return nil, fmt.Errorf("fetching community comments: %w", err)
	}

	newCursor := cursor
	for _, c := range comments {
		newCursor = profile.MaxItemID(newCursor, c.ID)
	}
	if newCursor != cursor {
		if err := eng.cursors.Set(ctx, eng.cfg.Name, newCursor); err != nil {
			return nil, fmt.Errorf("saving scan cursor: %w", err)
		}
	}
	return comments, nil
}

// scanPosts refreshes the locked-thread table from the newest community posts
// and stickies the configured notice onto newly locked threads. Failures here
// only degrade lock coverage, so they are logged, not propagated.
func (eng *Engine) scanPosts(ctx context.Context) {
	if !eng.cfg.Features.ThreadLock || len(eng.cfg.ThreadLocks) == 0 {
		return
	}
	posts, err := eng.source.CommunityPosts(ctx, eng.cfg.Name, eng.postScanLimit)
	if err != nil {
		eng.logger.Error("fetching community posts failed", "err", err)
		return
	}
	for _, post := range posts {
		rule, ok := eng.cfg.ThreadLockForFlair(post.FlairText)
		if !ok {
			continue
		}
		eng.lockedThreads.Add(post.ID, rule)

		if eng.cfg.StickyComment == "" {
			continue
		}
		if _, done := eng.stickied.Get(post.ID); done {
			continue
		}
		id, err := eng.actions.Reply(ctx, "t3_"+post.ID, eng.cfg.StickyComment)
		if err != nil {
			eng.logger.Error("posting sticky notice failed", "post", post.ID, "err", err)
			continue
		}
		if err := eng.actions.DistinguishSticky(ctx, id); err != nil {
			eng.logger.Error("distinguishing sticky failed", "comment", id, "err", err)
		}
		eng.stickied.Add(post.ID, true)
	}
}

// distinctAuthors extracts the sorted set of comment authors worth analyzing.
func (eng *Engine) distinctAuthors(comments []reddit.CommentItem) []string {
	seen := make(map[string]bool)
	for _, c := range comments {
		if c.Author == "" || c.Author == "[deleted]" {
			continue
		}
		if strings.EqualFold(c.Author, eng.selfName) {
			continue
		}
		seen[c.Author] = true
	}
	out := make([]string, 0, len(seen))
	for username := range seen {
		out = append(out, username)
	}
	sort.Strings(out)
	return out
}

// isExempt reports whether the user is outside the engine's reach entirely:
// mods, whitelisted and graylisted users are neither analyzed nor actioned.
func (eng *Engine) isExempt(ctx context.Context, username string) (bool, error) {
	if eng.cfg.IsMod(username) {
		return true, nil
	}
	for _, list := range []string{liststore.ListWhitelist, liststore.ListGraylist} {
		ok, err := eng.lists.Contains(ctx, eng.listName(list), username)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// analyzeUserSafe isolates one user's analysis: errors and panics are logged
// and counted, never propagated into the cycle.
func (eng *Engine) analyzeUserSafe(ctx context.Context, username string) (analysis *Analysis) {
	defer func() {
		if r := recover(); r != nil {
			eng.logger.Error("panic during user analysis", "user", username, "panic", r)
			userAnalysisErrorCount.WithLabelValues(eng.cfg.Name).Inc()
			analysis = nil
		}
	}()
	analysis, err := eng.AnalyzeUser(ctx, username)
	if err != nil {
		eng.logger.Error("user analysis failed", "user", username, "err", err)
		userAnalysisErrorCount.WithLabelValues(eng.cfg.Name).Inc()
		return nil
	}
	return analysis
}

// enforceLockedThreads retroactively removes the user's fresh comments made in
// locked threads, when the user's record violates the thread's lock rule.
// Thread authors and already-removed items are left alone.
func (eng *Engine) enforceLockedThreads(ctx context.Context, analysis *Analysis, removed map[string]bool) {
	if !eng.cfg.Features.ThreadLock {
		return
	}
	groups := eng.cfg.Groups()
	for _, c := range analysis.FreshComments {
		if !strings.EqualFold(c.Community, eng.cfg.Name) {
			continue
		}
		if c.IsSubmitter || c.RemovedBy != "" || removed[c.ID] {
			continue
		}
		rule, ok := eng.lockedThreads.Get(c.ThreadID)
		if !ok {
			continue
		}
		if rules.MatchLock(analysis.Profile, rule, groups) {
			eng.removeComment(ctx, c, rule, removed)
		}
	}
}

// queueBadges evaluates progression tiers, tag rules, and the young-account
// badge for one analyzed user. The age badge is appended after any tier and
// tag badges the user also earned.
func (eng *Engine) queueBadges(ctx context.Context, analysis *Analysis, badges *badgeBatch) {
	p := analysis.Profile

	groups := eng.cfg.Groups()

	if eng.cfg.Features.Progression {
		if tier, ok := rules.FirstMatchingTier(p, eng.cfg.Tiers, groups); ok {
			if tier.FlairText != "" {
				badges.add(p.Username, tier.FlairText, tier.FlairCSS)
			}
			eng.applyPermissions(ctx, p.Username, tier.Permissions)
		}
	}

	if eng.cfg.Features.Tags {
		for _, rule := range eng.cfg.TagRules {
			for _, tag := range rules.ExtractTags(p, rule, groups) {
				badges.add(p.Username, rule.PreText+tag+rule.PostText, "")
			}
		}
	}

	now := eng.now()
	if eng.cfg.AccountAgeMonths > 0 && p.CreatedAt.After(now.AddDate(0, -eng.cfg.AccountAgeMonths, 0)) {
		badges.add(p.Username, accountAgeBadge(now, p.CreatedAt), "")
	}
}

func (eng *Engine) applyPermissions(ctx context.Context, username, perm string) {
	var list string
	switch perm {
	case rules.PermCustomFlair:
		list = liststore.ListWhitelist
	case rules.PermFlairIcons:
		list = liststore.ListImageFlair
	default:
		return
	}
	if err := eng.lists.Add(ctx, eng.listName(list), username); err != nil {
		eng.logger.Error("granting permission failed", "user", username, "list", list, "err", err)
	}
}

// applyLocks is the cycle's second pass over the discovered comments: every
// comment by an analyzed, non-exempt user is checked against the thread-lock
// table and the community-wide lock rules.
func (eng *Engine) applyLocks(ctx context.Context, comments []reddit.CommentItem, analyses map[string]*Analysis, removed map[string]bool) {
	if !eng.cfg.Features.ThreadLock && !eng.cfg.Features.CommunityLock {
		return
	}
	groups := eng.cfg.Groups()
	for _, c := range comments {
		if c.RemovedBy != "" || removed[c.ID] {
			continue
		}
		analysis, ok := analyses[c.Author]
		if !ok {
			continue
		}

		if eng.cfg.Features.ThreadLock && !c.IsSubmitter {
			if rule, locked := eng.lockedThreads.Get(c.ThreadID); locked {
				if rules.MatchLock(analysis.Profile, rule, groups) {
					eng.removeComment(ctx, c, rule, removed)
					continue
				}
			}
		}

		if eng.cfg.Features.CommunityLock {
			for _, rule := range eng.cfg.CommunityLocks {
				if rules.MatchLock(analysis.Profile, rule, groups) {
					eng.removeComment(ctx, c, rule, removed)
					break
				}
			}
		}
	}
}

func (eng *Engine) removeComment(ctx context.Context, c reddit.CommentItem, rule rules.LockRule, removed map[string]bool) {
	spam := rule.Action == rules.ActionSpam
	if err := eng.actions.RemoveContent(ctx, c.ID, spam); err != nil {
		eng.logger.Error("removing comment failed", "comment", c.ID, "user", c.Author, "err", err)
		return
	}
	removed[c.ID] = true
	contentRemovedCount.WithLabelValues(eng.cfg.Name, rule.Action).Inc()
	eng.logger.Info("removed comment", "comment", c.ID, "user", c.Author, "action", rule.Action)

	if spam || eng.cfg.RemoveMessage == nil {
		return
	}
	lockID := rule.LockID
	if lockID == "" {
		lockID = rule.FlairID
	}
	body := strings.NewReplacer(
		"{community}", eng.cfg.Name,
		"{user}", c.Author,
		"{comment}", c.ID,
		"{thread}", c.ThreadID,
		"{lock}", lockID,
	).Replace(eng.cfg.RemoveMessage.Body)
	if err := eng.actions.NotifyUser(ctx, c.Author, eng.cfg.RemoveMessage.Subject, body); err != nil {
		eng.logger.Error("removal notification failed", "user", c.Author, "err", err)
	}
}

// purgeExpired deletes records older than the tag-expiration window so those
// users are fully re-analyzed on their next appearance.
func (eng *Engine) purgeExpired(ctx context.Context) {
	if eng.cfg.TagExpirationDays <= 0 {
		return
	}
	cutoff := eng.now().AddDate(0, 0, -eng.cfg.TagExpirationDays)
	usernames, err := eng.profiles.ListAnalyzedBefore(ctx, eng.cfg.Name, cutoff)
	if err != nil {
		eng.logger.Error("listing expired records failed", "err", err)
		return
	}
	for _, username := range usernames {
		if err := eng.profiles.Delete(ctx, eng.cfg.Name, username); err != nil {
			eng.logger.Error("deleting expired record failed", "user", username, "err", err)
			continue
		}
		if err := eng.lists.Add(ctx, eng.listName(liststore.ListExpired), username); err != nil {
			eng.logger.Error("expired-list update failed", "user", username, "err", err)
		}
		profilesPurgedCount.WithLabelValues(eng.cfg.Name).Inc()
	}
	if len(usernames) > 0 {
		eng.logger.Info("purged expired records", "count", len(usernames))
	}
}
