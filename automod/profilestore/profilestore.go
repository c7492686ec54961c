// Package profilestore persists user analysis records, keyed by community and
// username. Records are written whole (full replace) at the end of each
// analysis and read back at the start of the next.
package profilestore

import (
	"context"
	"time"

	"github.com/isstabb/InstaMod/automod/profile"
)

type ProfileStore interface {
	// Get returns nil (with nil error) when no record exists for the user in
	// the community.
	Get(ctx context.Context, community, username string) (*profile.Profile, error)
	Put(ctx context.Context, p *profile.Profile) error
	Delete(ctx context.Context, community, username string) error
	// Oldest returns the username with the oldest analysis timestamp in the
	// community, or "" when none exist.
	Oldest(ctx context.Context, community string) (string, error)
	// ListAnalyzedBefore returns the usernames of community records whose
	// analysis timestamp precedes the cutoff, for flair-expiry purges.
	ListAnalyzedBefore(ctx context.Context, community string, cutoff time.Time) ([]string, error)
}
