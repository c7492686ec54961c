package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// badgeBatch collects badge text queued for users during a cycle so each user
// gets a single flair write no matter how many rules fired.
type badgeBatch struct {
	entries map[string]*badgeEntry
}

type badgeEntry struct {
	texts []string
	style string
}

func newBadgeBatch() *badgeBatch {
	return &badgeBatch{entries: make(map[string]*badgeEntry)}
}

// add queues one badge for the user. The first non-empty style wins, so the
// tier badge's style carries the combined flair.
func (b *badgeBatch) add(username, text, style string) {
	e, ok := b.entries[username]
	if !ok {
		e = &badgeEntry{}
		b.entries[username] = e
	}
	e.texts = append(e.texts, text)
	if e.style == "" {
		e.style = style
	}
}

// flush writes every queued badge, one call per user, joining multiple badge
// texts with " | ". Failures are logged per user and do not stop the flush.
func (b *badgeBatch) flush(ctx context.Context, eng *Engine) {
	usernames := make([]string, 0, len(b.entries))
	for username := range b.entries {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	for _, username := range usernames {
		e := b.entries[username]
		text := strings.Join(e.texts, " | ")
		if err := eng.actions.SetBadge(ctx, eng.cfg.Name, username, text, e.style); err != nil {
			eng.logger.Error("assigning badge failed", "user", username, "err", err)
			continue
		}
		badgesAssignedCount.WithLabelValues(eng.cfg.Name).Inc()
	}
}

// accountAgeBadge renders the young-account badge text: day granularity under
// one month, month granularity after.
func accountAgeBadge(now, created time.Time) string {
	days := int(now.Sub(created).Hours() / 24)
	if days < 31 {
		if days == 1 {
			return "1 day old"
		}
		return fmt.Sprintf("%d days old", days)
	}
	months := days / 30
	if months == 1 {
		return "1 month old"
	}
	return fmt.Sprintf("%d months old", months)
}
