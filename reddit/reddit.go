// Package reddit defines the platform capability interfaces the moderation
// engine runs against, the item types crossing them, and an HTTP client
// implementation speaking the OAuth API.
//
// The engine only ever sees ActivitySource and ActionExecutor; tests swap in
// fakes.
package reddit

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the referenced item, user, or page does not exist (or
// is no longer visible). Callers check with errors.Is.
var ErrNotFound = errors.New("reddit: not found")

// CommentItem is one comment from a community or user listing. ID is the bare
// base36 id, without the "t1_" fullname prefix.
type CommentItem struct {
	ID          string
	Author      string
	Community   string
	Score       int64
	Body        string
	CreatedAt   time.Time
	IsSubmitter bool
	// ThreadID is the bare id of the post the comment lives under.
	ThreadID string
	// RemovedBy is the moderator who removed the comment, or "" when it is
	// still live.
	RemovedBy string
}

// PostItem is one post (link or self) from a listing. ID is the bare base36
// id, without the "t3_" prefix.
type PostItem struct {
	ID        string
	Author    string
	Community string
	Score     int64
	Title     string
	CreatedAt time.Time
	FlairText string
}

// UserSummary is the platform's account-level view of a user.
type UserSummary struct {
	Name         string
	CreatedAt    time.Time
	CommentKarma int64
	PostKarma    int64
}

// Message is one private message from the bot's inbox.
type Message struct {
	ID      string
	Author  string
	Subject string
	Body    string
}

// ActivitySource reads platform state. All listing calls return newest-first.
// A sinceID of "" means "from the beginning"; otherwise only items strictly
// newer than that id are returned.
type ActivitySource interface {
	CommunityComments(ctx context.Context, community, sinceID string) ([]CommentItem, error)
	CommunityPosts(ctx context.Context, community string, limit int) ([]PostItem, error)
	UserComments(ctx context.Context, user, sinceID string) ([]CommentItem, error)
	UserPosts(ctx context.Context, user, sinceID string) ([]PostItem, error)
	// UserSummary returns (nil, nil) when the account is suspended, deleted,
	// or otherwise inaccessible.
	UserSummary(ctx context.Context, user string) (*UserSummary, error)
	CommentExists(ctx context.Context, id string) (bool, error)
	// Inbox returns unread private messages.
	Inbox(ctx context.Context) ([]Message, error)
	WikiPage(ctx context.Context, community, page string) (string, error)
}

// ActionExecutor performs moderation actions.
type ActionExecutor interface {
	// RemoveContent removes a comment; markAsSpam routes it to the spam queue
	// instead of the regular removed state.
	RemoveContent(ctx context.Context, id string, markAsSpam bool) error
	NotifyUser(ctx context.Context, user, subject, body string) error
	// SetBadge assigns user flair in the community. An empty style keeps the
	// community default.
	SetBadge(ctx context.Context, community, user, text, style string) error
	// Reply posts a comment under parentID and returns the new comment's id.
	// parentID is a type-prefixed fullname (eg "t3_abc1" for a post, "t4_xyz2"
	// for a private message).
	Reply(ctx context.Context, parentID, body string) (string, error)
	// DistinguishSticky marks a comment as a distinguished sticky mod comment.
	DistinguishSticky(ctx context.Context, id string) error
	MarkRead(ctx context.Context, messageID string) error
	// Me returns the authenticated account's username.
	Me(ctx context.Context) (string, error)
}
