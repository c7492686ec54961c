// Package cursorstore persists per-community scan cursors (the maximum item
// id seen by community discovery) across process restarts.
package cursorstore

import (
	"context"
)

type CursorStore interface {
	// Get returns the stored cursor, or "" when none has been persisted yet.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, val string) error
}
