// Package liststore persists named membership lists: the whitelist, graylist,
// expired-flair list and image-flair permission list, keyed per community by
// the caller.
package liststore

import (
	"context"
)

// Well-known list names. Callers namespace them, eg "testsub/whitelist".
const (
	ListWhitelist  = "whitelist"
	ListGraylist   = "graylist"
	ListExpired    = "expired"
	ListImageFlair = "image-flair"
)

type ListStore interface {
	Contains(ctx context.Context, list, username string) (bool, error)
	Add(ctx context.Context, list, username string) error
	Remove(ctx context.Context, list, username string) error
	Members(ctx context.Context, list string) ([]string, error)
	Clear(ctx context.Context, list string) error
}
